package session

import (
	"errors"

	"github.com/bookbuddy-app/bookbuddy/internal/api"
)

var (
	ErrEmptyDraft   = errors.New("draft is empty")
	ErrEmptyTitle   = errors.New("title is empty")
	ErrBusy         = errors.New("another operation is in progress")
	ErrNotComposing = errors.New("not composing")
	ErrNotReading   = errors.New("no book is open")
	ErrClosed       = errors.New("session is closed")
	// ErrDiscarded is returned when a response arrives for an action that
	// has since been superseded. State is left untouched.
	ErrDiscarded = errors.New("response discarded")
)

const (
	msgProcessText  = "Failed to process text"
	msgLoadBook     = "Failed to load book"
	msgUpdateTitle  = "Failed to update book title"
	msgProcessImage = "Failed to process image"
	msgUnexpected   = "An unexpected error occurred"
	msgNotImage     = "Please upload an image file"
)

// userMessage picks the text shown for a failed operation. Backend messages
// are shown verbatim, everything else falls back to a fixed message.
func userMessage(err error, fallback string) string {
	var re *api.RemoteError
	if errors.As(err, &re) {
		if re.Kind == api.KindApplication && re.Message != "" {
			return re.Message
		}
		return fallback
	}
	return msgUnexpected
}
