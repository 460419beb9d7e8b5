// Package errs defines the error taxonomy shared by the dispatch core.
// Every failure surfaced to callers wraps one of these sentinels so that the
// API layer can classify errors with errors.Is without inspecting messages.
package errs

import "errors"

var (
	// ErrInvalidInput reports malformed geometry, non-positive rates or an
	// unknown service/category combination.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound reports an unknown request or professional id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition reports an illegal request state change. The
	// request state is left untouched.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrNotAssignedProfessional reports that the caller is not the
	// professional currently assigned to the request.
	ErrNotAssignedProfessional = errors.New("not the assigned professional")

	// ErrNoProfessionalsAvailable reports an exhausted candidate pool.
	ErrNoProfessionalsAvailable = errors.New("no professionals available")

	// ErrAlreadyTerminal guards completion idempotency: the request already
	// reached a terminal state and rejects further mutations.
	ErrAlreadyTerminal = errors.New("request already terminal")
)
