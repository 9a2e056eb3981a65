package codeclient

import "errors"

var (
	// ErrOutOfScope is matched by every *ScopeError.
	ErrOutOfScope = errors.New("out of scope")

	// Refusals reported by the companion.
	ErrNotCreative  = errors.New("the player is not in creative mode")
	ErrInvalidToken = errors.New("invalid token")

	ErrTimeout            = errors.New("timed out waiting for response")
	ErrClosed             = errors.New("connection closed")
	ErrUnexpectedResponse = errors.New("unexpected response")
	ErrPlacementMode      = errors.New("placement batch already started with another mode")
)

// ScopeError is returned, before anything is sent, when the session lacks
// the scope a command needs.
type ScopeError struct {
	Required Scope
}

func (e *ScopeError) Error() string {
	return "action requires scope " + e.Required.String()
}

func (e *ScopeError) Is(target error) bool { return target == ErrOutOfScope }
