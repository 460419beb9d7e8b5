package mqtt

import (
	"fmt"
	"sync"

	"github.com/changared/dispatch/core/notify"
)

// MockNotifier records offers in memory for tests.
type MockNotifier struct {
	Offers  map[string][]notify.Offer
	FailIDs map[string]bool
	mu      sync.Mutex
}

// NewMockNotifier creates a MockNotifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{
		Offers:  make(map[string][]notify.Offer),
		FailIDs: make(map[string]bool),
	}
}

// NotifyOffer records the offer or returns an error if configured to fail.
func (m *MockNotifier) NotifyOffer(professionalID string, offer notify.Offer) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailIDs[professionalID] {
		return "", fmt.Errorf("publish failed")
	}
	m.Offers[professionalID] = append(m.Offers[professionalID], offer)
	return fmt.Sprintf("msg-%s-%d", professionalID, len(m.Offers[professionalID])), nil
}

// Sent returns the offers recorded for the professional.
func (m *MockNotifier) Sent(professionalID string) []notify.Offer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notify.Offer(nil), m.Offers[professionalID]...)
}
