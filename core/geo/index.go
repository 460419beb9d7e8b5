// Package geo holds the professional roster and answers proximity queries
// against it. Reads are served concurrently; mutations lock only the index,
// never a request.
package geo

import (
	"fmt"
	"iter"
	"math"
	"sort"
	"sync"

	"github.com/changared/dispatch/core/errs"
	"github.com/changared/dispatch/core/model"
)

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometers between two
// coordinate pairs in degrees. Full precision is kept; use RoundKm only for
// display.
func HaversineKm(a, b model.Location) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// RoundKm rounds a distance to two decimals for display.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}

// Index is the in-memory professional roster.
type Index struct {
	mu    sync.RWMutex
	profs map[string]*model.Professional
}

// NewIndex returns an empty roster.
func NewIndex() *Index {
	return &Index{profs: make(map[string]*model.Professional)}
}

// Upsert validates and stores the professional record.
func (ix *Index) Upsert(p model.Professional) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrInvalidInput, err)
	}
	ix.mu.Lock()
	cp := p
	ix.profs[p.ID] = &cp
	ix.mu.Unlock()
	return nil
}

// Get returns a copy of the professional record.
func (ix *Index) Get(id string) (model.Professional, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	p, ok := ix.profs[id]
	if !ok {
		return model.Professional{}, fmt.Errorf("professional %s: %w", id, errs.ErrNotFound)
	}
	return *p, nil
}

// List returns every professional sorted by id.
func (ix *Index) List() []model.Professional {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]model.Professional, 0, len(ix.profs))
	for _, p := range ix.profs {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SetAvailability flips the advisory availability flag.
func (ix *Index) SetAvailability(id string, available bool) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	p, ok := ix.profs[id]
	if !ok {
		return fmt.Errorf("professional %s: %w", id, errs.ErrNotFound)
	}
	p.Available = available
	return nil
}

// SetLocation moves the professional to a new position.
func (ix *Index) SetLocation(id string, loc model.Location) error {
	if !loc.Valid() {
		return fmt.Errorf("%w: coordinates out of range", errs.ErrInvalidInput)
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	p, ok := ix.profs[id]
	if !ok {
		return fmt.Errorf("professional %s: %w", id, errs.ErrNotFound)
	}
	p.Location = loc
	return nil
}

// RecordCompletion adds the payout to the professional's lifetime earnings
// and bumps the completed-job counter. The coordinator calls this exactly
// once per completed request.
func (ix *Index) RecordCompletion(id string, payout int64) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	p, ok := ix.profs[id]
	if !ok {
		return fmt.Errorf("professional %s: %w", id, errs.ErrNotFound)
	}
	p.Earnings += payout
	p.CompletedJobs++
	return nil
}

// ActiveCount returns the number of professionals currently flagged available.
func (ix *Index) ActiveCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	n := 0
	for _, p := range ix.profs {
		if p.Available {
			n++
		}
	}
	return n
}

// FindCandidates yields (professional id, distance km) pairs for available
// professionals of the requested trade, ascending by distance with ties broken
// by lowest id. Ids in exclude are never yielded. The sequence is finite and
// restartable over the snapshot taken at call time; callers typically consume
// only the head. An empty sequence is a valid result, not an error.
func (ix *Index) FindCandidates(service model.ServiceType, loc model.Location, exclude map[string]struct{}) iter.Seq2[string, float64] {
	type cand struct {
		id string
		km float64
	}
	ix.mu.RLock()
	list := make([]cand, 0, len(ix.profs))
	for id, p := range ix.profs {
		if p.Service != service || !p.Available {
			continue
		}
		if _, skip := exclude[id]; skip {
			continue
		}
		list = append(list, cand{id: id, km: HaversineKm(loc, p.Location)})
	}
	ix.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		if list[i].km != list[j].km {
			return list[i].km < list[j].km
		}
		return list[i].id < list[j].id
	})
	return func(yield func(string, float64) bool) {
		for _, c := range list {
			if !yield(c.id, c.km) {
				return
			}
		}
	}
}
