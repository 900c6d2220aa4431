package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/bookbuddy-app/bookbuddy/internal/api"
	"github.com/bookbuddy-app/bookbuddy/internal/library"
	"github.com/bookbuddy-app/bookbuddy/internal/models"
	"github.com/bookbuddy-app/bookbuddy/internal/sanitize"
)

// Remote is the backend the session talks to. *api.Client implements it.
type Remote interface {
	SubmitText(ctx context.Context, text, userID string) (*models.Book, error)
	FetchBook(ctx context.Context, bookID int64, userID string) (*models.Book, error)
	FetchLibrary(ctx context.Context, userID string) ([]models.Book, error)
	AppendPage(ctx context.Context, bookID int64, text, userID string) (*models.Book, error)
	RenameBook(ctx context.Context, bookID int64, title, userID string) (*models.Book, error)
	ExtractText(ctx context.Context, image []byte, filename string) (string, error)
}

// Identity supplies the local user identifier.
type Identity interface {
	UserID() (string, error)
}

// Orchestrator owns the session state machine.
//
// The mutex is never held across a call to Remote. Each display-changing
// action bumps epoch; a response carrying an older epoch is dropped. busy
// serializes submit, append, select, rename and extract.
type Orchestrator struct {
	remote   Remote
	identity Identity
	library  *library.Library

	mu     sync.Mutex
	mode   Mode
	draft  string
	busy   bool
	errMsg string
	prompt *TitlePrompt
	epoch  uint64
	closed bool
}

func New(remote Remote, identity Identity) *Orchestrator {
	return &Orchestrator{
		remote:   remote,
		identity: identity,
		library:  library.New(remote),
		mode:     Composing{},
	}
}

// Library returns the library list kept in step with this session.
func (o *Orchestrator) Library() *library.Library {
	return o.library
}

// Start loads the library for the first time.
func (o *Orchestrator) Start(ctx context.Context) error {
	userID, err := o.identity.UserID()
	if err != nil {
		return fmt.Errorf("failed to resolve user id: %w", err)
	}
	return o.library.Refresh(ctx, userID)
}

// Close ends the session. Responses that arrive afterwards are discarded.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.epoch++
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	mode := o.mode
	if r, ok := mode.(Reading); ok {
		r.Pages = append([]models.Page(nil), r.Pages...)
		mode = r
	}
	var prompt *TitlePrompt
	if o.prompt != nil {
		p := *o.prompt
		prompt = &p
	}
	return State{
		Mode:       mode,
		Draft:      o.draft,
		Processing: o.busy,
		Err:        o.errMsg,
		Prompt:     prompt,
	}
}

// SetDraft replaces the draft, keeping at most models.MaxTextLength
// characters. It reports whether the text was cut.
func (o *Orchestrator) SetDraft(text string) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch o.mode.(type) {
	case Submitting:
		return false, ErrBusy
	case Reading:
		return false, ErrNotComposing
	}
	var truncated bool
	o.draft, truncated = models.TruncateText(text)
	return truncated, nil
}

// CanSubmit reports whether Submit would issue a request.
func (o *Orchestrator) CanSubmit() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, composing := o.mode.(Composing)
	return composing && !o.busy && !o.closed && strings.TrimSpace(o.draft) != ""
}

// ClearError drops the current error message.
func (o *Orchestrator) ClearError() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errMsg = ""
}

// Submit sends the draft. Without a current book it creates one, otherwise
// the draft becomes the book's next page.
func (o *Orchestrator) Submit(ctx context.Context) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	if strings.TrimSpace(o.draft) == "" {
		o.mu.Unlock()
		return ErrEmptyDraft
	}
	if o.busy {
		o.mu.Unlock()
		return ErrBusy
	}
	composing, ok := o.mode.(Composing)
	if !ok {
		o.mu.Unlock()
		return ErrNotComposing
	}
	text, _ := models.TruncateText(o.draft)
	o.errMsg = ""
	o.busy = true
	o.epoch++
	epoch := o.epoch
	o.mode = Submitting{BookID: composing.BookID}
	o.mu.Unlock()

	userID, err := o.identity.UserID()
	if err != nil {
		o.fail(epoch, composing, msgUnexpected)
		return fmt.Errorf("failed to resolve user id: %w", err)
	}

	var book *models.Book
	if composing.BookID == 0 {
		slog.Info("Submitting text", "chars", len([]rune(text)))
		book, err = o.remote.SubmitText(ctx, text, userID)
	} else {
		slog.Info("Appending page", "book_id", composing.BookID, "chars", len([]rune(text)))
		book, err = o.remote.AppendPage(ctx, composing.BookID, text, userID)
	}

	o.mu.Lock()
	o.busy = false
	if o.stale(epoch) {
		o.mu.Unlock()
		slog.Debug("Discarding submit response", "book_id", composing.BookID)
		return ErrDiscarded
	}
	if err != nil {
		o.mode = composing
		o.errMsg = userMessage(err, msgProcessText)
		o.mu.Unlock()
		return err
	}

	index := 0
	if composing.BookID != 0 {
		index = len(book.Pages) - 1
	}
	reading, ok := newReading(book, index)
	if !ok {
		o.mode = composing
		o.errMsg = msgProcessText
		o.mu.Unlock()
		return fmt.Errorf("submit returned a book without pages")
	}
	o.mode = reading
	o.draft = ""
	o.mu.Unlock()

	o.refreshLibrary(ctx, userID)
	return nil
}

// SelectBook opens a book from the library at its first page. Selecting the
// book already on screen does nothing; from Composing the book is reopened.
func (o *Orchestrator) SelectBook(ctx context.Context, bookID int64) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	if _, composing := o.mode.(Composing); !composing && bookID != 0 && o.mode.bookID() == bookID {
		o.mu.Unlock()
		return nil
	}
	if o.busy {
		o.mu.Unlock()
		return ErrBusy
	}
	o.errMsg = ""
	o.busy = true
	o.epoch++
	epoch := o.epoch
	o.mu.Unlock()

	userID, err := o.identity.UserID()
	if err != nil {
		o.fail(epoch, nil, msgUnexpected)
		return fmt.Errorf("failed to resolve user id: %w", err)
	}

	book, err := o.remote.FetchBook(ctx, bookID, userID)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.busy = false
	if o.stale(epoch) {
		slog.Debug("Discarding book response", "book_id", bookID)
		return ErrDiscarded
	}
	if err != nil {
		o.errMsg = userMessage(err, msgLoadBook)
		return err
	}
	reading, ok := newReading(book, 0)
	if !ok {
		o.errMsg = msgLoadBook
		return fmt.Errorf("book %d has no pages", bookID)
	}
	o.mode = reading
	o.draft = ""
	o.prompt = nil
	return nil
}

// NewBook returns to an empty draft with no current book.
func (o *Orchestrator) NewBook() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.mode = Composing{}
	o.draft = ""
	o.errMsg = ""
	o.prompt = nil
	o.epoch++
}

// AddPage leaves the open book for an empty draft that will be appended to
// it. Growing a single-page book raises a TitlePrompt.
func (o *Orchestrator) AddPage() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	reading, ok := o.mode.(Reading)
	if !ok {
		return ErrNotReading
	}
	o.errMsg = ""
	if len(reading.Pages) == 1 {
		o.prompt = &TitlePrompt{BookID: reading.BookID, Suggested: reading.DisplayTitle()}
	}
	o.mode = Composing{BookID: reading.BookID}
	o.draft = ""
	return nil
}

// TitlePrompt returns the pending prompt, if any.
func (o *Orchestrator) TitlePrompt() *TitlePrompt {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.prompt == nil {
		return nil
	}
	p := *o.prompt
	return &p
}

// DismissTitlePrompt drops the pending prompt without renaming.
func (o *Orchestrator) DismissTitlePrompt() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prompt = nil
}

// Rename sets a book's title. The displayed page is not changed.
func (o *Orchestrator) Rename(ctx context.Context, bookID int64, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	if o.busy {
		o.mu.Unlock()
		return ErrBusy
	}
	o.errMsg = ""
	o.busy = true
	epoch := o.epoch
	o.mu.Unlock()

	userID, err := o.identity.UserID()
	if err != nil {
		o.fail(epoch, nil, msgUnexpected)
		return fmt.Errorf("failed to resolve user id: %w", err)
	}

	book, err := o.remote.RenameBook(ctx, bookID, title, userID)

	o.mu.Lock()
	o.busy = false
	if o.closed {
		o.mu.Unlock()
		return ErrDiscarded
	}
	if err != nil {
		o.errMsg = userMessage(err, msgUpdateTitle)
		o.mu.Unlock()
		return err
	}
	if reading, ok := o.mode.(Reading); ok && reading.BookID == bookID {
		reading.Title = book.Title
		o.mode = reading
	}
	if o.prompt != nil && o.prompt.BookID == bookID {
		o.prompt = nil
	}
	o.mu.Unlock()

	slog.Info("Book renamed", "book_id", bookID, "title", book.Title)
	o.refreshLibrary(ctx, userID)
	return nil
}

// GoToPage moves to page i, clamped to the book's bounds.
func (o *Orchestrator) GoToPage(i int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if reading, ok := o.mode.(Reading); ok {
		o.mode = reading.clamp(i)
	}
}

func (o *Orchestrator) NextPage() {
	o.step(1)
}

func (o *Orchestrator) PrevPage() {
	o.step(-1)
}

func (o *Orchestrator) step(delta int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if reading, ok := o.mode.(Reading); ok {
		o.mode = reading.clamp(reading.Index + delta)
	}
}

// ExtractImage reads text out of an image and places it in the draft.
// Payloads that are not images are rejected without contacting the backend.
func (o *Orchestrator) ExtractImage(ctx context.Context, data []byte, filename string) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	if _, ok := o.mode.(Composing); !ok {
		o.mu.Unlock()
		return ErrNotComposing
	}
	if o.busy {
		o.mu.Unlock()
		return ErrBusy
	}
	if _, ok := api.DetectImage(data); !ok {
		o.errMsg = msgNotImage
		o.mu.Unlock()
		return api.ErrNotImage
	}
	o.errMsg = ""
	o.busy = true
	epoch := o.epoch
	o.mu.Unlock()

	raw, err := o.remote.ExtractText(ctx, data, filename)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.busy = false
	if o.stale(epoch) {
		slog.Debug("Discarding extraction response", "filename", filename)
		return ErrDiscarded
	}
	if err != nil {
		o.errMsg = userMessage(err, msgProcessImage)
		return err
	}
	text, truncated := models.TruncateText(sanitize.ExtractedText(raw))
	if truncated {
		slog.Warn("Extracted text truncated", "filename", filename, "limit", models.MaxTextLength)
	}
	o.draft = text
	return nil
}

// stale reports whether a response for epoch should be dropped.
// Callers hold o.mu.
func (o *Orchestrator) stale(epoch uint64) bool {
	return o.closed || epoch != o.epoch
}

// fail clears the busy flag for an operation that never reached the
// backend. While epoch is current, msg is recorded and a non-nil mode is
// restored.
func (o *Orchestrator) fail(epoch uint64, mode Mode, msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.busy = false
	if o.stale(epoch) {
		return
	}
	if mode != nil {
		o.mode = mode
	}
	o.errMsg = msg
}

func (o *Orchestrator) refreshLibrary(ctx context.Context, userID string) {
	// failures are recorded on the library and logged there
	_ = o.library.Refresh(ctx, userID)
}
