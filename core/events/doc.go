// Package events defines the request lifecycle events emitted on the event bus.
//
// Available event types:
//   - CreatedEvent: request created and first professional assigned
//   - DecisionEvent: assigned professional accepted or rejected
//   - ReassignedEvent: request moved to the next candidate
//   - CancelledEvent: request cancelled, with reason
//   - CompletedEvent: work finished and earnings recorded
//   - PaidEvent: payment confirmed by the external collaborator
package events
