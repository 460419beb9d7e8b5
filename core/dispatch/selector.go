package dispatch

import (
	"github.com/changared/dispatch/core/geo"
	"github.com/changared/dispatch/core/model"
)

// Candidate is one eligible professional for a request.
type Candidate struct {
	ProfessionalID string
	DistanceKm     float64
}

// Selector ranks eligible professionals for a request. Ranking is by distance
// ascending with ties broken by lowest id, so repeated runs over the same
// roster are reproducible.
type Selector struct {
	index *geo.Index
}

// NewSelector returns a selector querying the given roster.
func NewSelector(index *geo.Index) *Selector {
	return &Selector{index: index}
}

// Next returns the nearest eligible candidate for the request, excluding every
// professional that already rejected it and the one currently assigned. The
// boolean is false when the pool is exhausted; that is a valid terminal
// signal, not an error.
func (s *Selector) Next(req *model.ServiceRequest) (Candidate, bool) {
	exclude := make(map[string]struct{}, len(req.RejectedIDs)+1)
	for _, id := range req.RejectedIDs {
		exclude[id] = struct{}{}
	}
	if req.ProfessionalID != "" {
		exclude[req.ProfessionalID] = struct{}{}
	}
	for id, km := range s.index.FindCandidates(req.Service, req.Location, exclude) {
		return Candidate{ProfessionalID: id, DistanceKm: km}, true
	}
	return Candidate{}, false
}

// Ranked returns every eligible candidate in selection order. The coordinator
// uses it to drive the reassignment cascade as a bounded loop.
func (s *Selector) Ranked(req *model.ServiceRequest) []Candidate {
	exclude := make(map[string]struct{}, len(req.RejectedIDs)+1)
	for _, id := range req.RejectedIDs {
		exclude[id] = struct{}{}
	}
	if req.ProfessionalID != "" {
		exclude[req.ProfessionalID] = struct{}{}
	}
	var out []Candidate
	for id, km := range s.index.FindCandidates(req.Service, req.Location, exclude) {
		out = append(out, Candidate{ProfessionalID: id, DistanceKm: km})
	}
	return out
}
