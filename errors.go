package weatherpod

import "errors"

var (
	ErrAppNameRequired   = errors.New("appName is required")
	ErrUserIDRequired    = errors.New("userID is required")
	ErrSessionIDRequired = errors.New("sessionID is required")
	ErrSessionExists     = errors.New("session already exists")
	ErrSessionNotFound   = errors.New("session not found")

	ErrAgentRequired = errors.New("agent is required")
	ErrInvalidAgent  = errors.New("invalid agent")
	ErrInvalidTool   = errors.New("invalid tool")
	ErrToolNotFound  = errors.New("tool not found")
)

// IgnorableError is a tool failure the model should not retry.
type IgnorableError struct {
	Err error
}

func (e *IgnorableError) Error() string { return e.Err.Error() }
func (e *IgnorableError) Unwrap() error { return e.Err }

// RetryableError is a tool failure the model may fix by calling again,
// typically with corrected arguments.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// EscalationError ends the current turn. The agent emits an escalation event
// carrying Message instead of handing the tool result back to the model.
type EscalationError struct {
	Message string
}

func (e *EscalationError) Error() string { return "escalation: " + e.Message }
