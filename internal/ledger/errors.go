package ledger

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBackendUnavailable wraps transport failures talking to the backend.
	ErrBackendUnavailable = errors.New("ledger backend unavailable")
	// ErrMissingUser is returned when a call carries no user id.
	ErrMissingUser = errors.New("user id is required")
	// ErrUndecodableResponse marks a 2xx answer whose body could not be
	// decoded. The backend applied the change.
	ErrUndecodableResponse = errors.New("undecodable ledger backend response")
)

// FieldError describes one rejected form field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError lists the fields that failed client-side validation.
// Nothing is sent to the backend when it is returned.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// ServerError is a 4xx/5xx answer from the backend.
type ServerError struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("ledger backend returned %d: %s", e.Status, e.Body)
}

// outcome classifies a mutation result for recording.
func outcome(err error) string {
	var (
		verr *ValidationError
		serr *ServerError
	)
	switch {
	case err == nil:
		return "OK"
	case errors.As(err, &verr):
		return "INVALID"
	case errors.As(err, &serr):
		return "REJECTED"
	default:
		return "UNAVAILABLE"
	}
}
