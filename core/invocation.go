package core

import "github.com/google/uuid"

// Request is the raw invocation payload delivered by the transport: a
// registered operation name plus decoded JSON arguments.
type Request struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Result status values. Every invocation terminates with one of these; the
// dispatcher never propagates an error to the transport as a protocol fault.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Result is the structured outcome returned to the transport. On success
// Payload holds the handler's text serialized for the model; on failure Code
// and Message describe the error in a form the model can relay verbally.
type Result struct {
	Status  string    `json:"status"`
	Payload string    `json:"payload,omitempty"`
	Code    ErrorKind `json:"code,omitempty"`
	Message string    `json:"message,omitempty"`
}

// OK builds a success result with the given payload.
func OK(payload string) Result {
	return Result{Status: StatusOK, Payload: payload}
}

// Fail builds an error result from a classified error.
func Fail(err error) Result {
	return Result{Status: StatusError, Code: Classify(err), Message: UserMessage(err)}
}

// NewID generates a unique identifier for invocations and sessions.
func NewID() string { return uuid.NewString() }
