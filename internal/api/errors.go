package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTextTooLong is returned before sending text over models.MaxTextLength characters.
	ErrTextTooLong = errors.New("text exceeds 2000 characters")
	// ErrNotImage is returned before uploading a payload that is not an image.
	ErrNotImage = errors.New("payload is not an image")
)

// Kind classifies a RemoteError.
type Kind int

const (
	// KindNetwork means no response was received.
	KindNetwork Kind = iota
	// KindApplication means the backend answered with a non-2xx status.
	KindApplication
	// KindMalformed means a 2xx response was missing expected fields.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindApplication:
		return "application"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// RemoteError is the failure signal of every Client operation.
type RemoteError struct {
	Op      string
	Kind    Kind
	Status  int    // HTTP status, 0 for network failures
	Message string // server supplied message, if any
	Err     error
}

func (e *RemoteError) Error() string {
	switch e.Kind {
	case KindApplication:
		if e.Message != "" {
			return fmt.Sprintf("%s: backend returned status %d: %s", e.Op, e.Status, e.Message)
		}
		return fmt.Sprintf("%s: backend returned status %d", e.Op, e.Status)
	case KindMalformed:
		return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: request failed: %v", e.Op, e.Err)
	}
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsNetwork reports whether err is a RemoteError for which no response arrived.
func IsNetwork(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Kind == KindNetwork
}

// errorMessage pulls the server supplied message out of a JSON error body,
// trying "error", "message" and "detail" in that order.
func errorMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"error", "message", "detail"} {
		if s, ok := payload[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
