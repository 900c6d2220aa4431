package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/bookbuddy-app/bookbuddy/internal/models"
	"github.com/bookbuddy-app/bookbuddy/internal/prefs"
	"github.com/bookbuddy-app/bookbuddy/internal/session"
)

type startDoneMsg struct{ err error }
type submitDoneMsg struct{ err error }
type selectDoneMsg struct{ err error }
type renameDoneMsg struct{ err error }
type extractDoneMsg struct {
	path    string
	err     error
	readErr bool
}

type focus int

const (
	focusMain focus = iota
	focusLibrary
)

type modalKind int

const (
	modalNone  modalKind = iota
	modalImage           // path of an image to extract text from
	modalTitle           // book title
)

// Options tune a new App.
type Options struct {
	// InitialBookID is opened once the library has loaded.
	InitialBookID int64
	// ReadFile loads images picked in the image dialog. Defaults to os.ReadFile.
	ReadFile func(string) ([]byte, error)
}

// App is the bubbletea model for the reader.
type App struct {
	ctx      context.Context
	orch     *session.Orchestrator
	prefs    *prefs.Store
	readFile func(string) ([]byte, error)
	initial  int64

	editor  textarea.Model
	input   textinput.Model
	spinner spinner.Model

	theme         theme
	renderer      *glamour.TermRenderer
	rendererWidth int
	rendererDark  bool

	width, height int
	focus         focus
	modal         modalKind
	renameID      int64
	showSidebar   bool
	cursor        int
	status        string
	quitting      bool
}

func New(ctx context.Context, orch *session.Orchestrator, store *prefs.Store, opts Options) *App {
	editor := textarea.New()
	editor.Placeholder = "Paste or type the text you want simplified..."
	editor.CharLimit = models.MaxTextLength
	editor.ShowLineNumbers = false
	_ = editor.Focus()

	input := textinput.New()
	input.CharLimit = 512

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	readFile := opts.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}

	a := &App{
		ctx:         ctx,
		orch:        orch,
		prefs:       store,
		readFile:    readFile,
		initial:     opts.InitialBookID,
		editor:      editor,
		input:       input,
		spinner:     sp,
		theme:       newTheme(store.DarkMode()),
		showSidebar: true,
		width:       100,
		height:      30,
	}
	a.resize()
	return a
}

// Run starts the reader full screen and blocks until the user quits.
func Run(ctx context.Context, orch *session.Orchestrator, store *prefs.Store, opts Options) error {
	app := New(ctx, orch, store, opts)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	orch.Close()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal reader: %w", err)
	}
	return nil
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.startCmd(), a.spinner.Tick)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.resize()
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case startDoneMsg:
		if msg.err != nil {
			a.status = "Could not load library"
		}
		if a.initial != 0 {
			id := a.initial
			a.initial = 0
			return a, a.selectCmd(id)
		}
		return a, nil

	case submitDoneMsg:
		if msg.err == nil {
			a.editor.Reset()
			a.status = ""
		}
		a.syncCursor()
		return a, nil

	case selectDoneMsg:
		if msg.err == nil {
			a.editor.Reset()
			a.focus = focusMain
		}
		return a, nil

	case renameDoneMsg:
		return a, nil

	case extractDoneMsg:
		switch {
		case msg.readErr:
			a.status = fmt.Sprintf("Could not read %s", msg.path)
		case msg.err == nil:
			a.editor.SetValue(a.orch.Snapshot().Draft)
			a.status = "Text extracted from " + filepath.Base(msg.path)
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		a.quitting = true
		a.orch.Close()
		return a, tea.Quit
	}
	if a.modal != modalNone {
		return a.handleModalKey(msg)
	}

	switch msg.String() {
	case "ctrl+n":
		a.orch.NewBook()
		a.editor.Reset()
		a.focus = focusMain
		a.status = ""
		return a, nil
	case "esc":
		if a.focus == focusMain {
			a.orch.ClearError()
			a.status = ""
			return a, nil
		}
	case "ctrl+t":
		return a, a.toggleTheme()
	case "ctrl+b":
		a.showSidebar = !a.showSidebar
		if !a.showSidebar {
			a.focus = focusMain
		}
		a.resize()
		return a, nil
	case "tab":
		if a.showSidebar {
			if a.focus == focusMain {
				a.focus = focusLibrary
			} else {
				a.focus = focusMain
			}
		}
		return a, nil
	}

	if a.focus == focusLibrary {
		return a.handleLibraryKey(msg)
	}

	switch mode := a.orch.Snapshot().Mode.(type) {
	case session.Reading:
		return a.handleReadingKey(msg, mode)
	case session.Composing:
		return a.handleComposingKey(msg)
	}
	return a, nil
}

func (a *App) handleLibraryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	books := a.orch.Library().Selectable()
	switch msg.String() {
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(books)-1 {
			a.cursor++
		}
	case "enter":
		if a.cursor < len(books) {
			return a, a.selectCmd(books[a.cursor].ID)
		}
	case "esc":
		a.focus = focusMain
	}
	return a, nil
}

func (a *App) handleReadingKey(msg tea.KeyMsg, mode session.Reading) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		a.orch.PrevPage()
	case "right", "l":
		a.orch.NextPage()
	case "home":
		a.orch.GoToPage(0)
	case "end":
		a.orch.GoToPage(len(mode.Pages) - 1)
	case "a":
		if err := a.orch.AddPage(); err != nil {
			return a, nil
		}
		a.editor.Reset()
		if prompt := a.orch.TitlePrompt(); prompt != nil {
			a.openModal(modalTitle, prompt.Suggested)
			a.renameID = prompt.BookID
		}
	case "r":
		a.openModal(modalTitle, mode.DisplayTitle())
		a.renameID = mode.BookID
	}
	return a, nil
}

func (a *App) handleComposingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+s":
		if !a.orch.CanSubmit() {
			if strings.TrimSpace(a.editor.Value()) == "" {
				a.status = "Enter some text first"
			}
			return a, nil
		}
		return a, tea.Batch(a.submitCmd(), a.spinner.Tick)
	case "ctrl+o":
		a.openModal(modalImage, "")
		return a, nil
	}

	var cmd tea.Cmd
	a.editor, cmd = a.editor.Update(msg)
	truncated, err := a.orch.SetDraft(a.editor.Value())
	if err == nil && truncated {
		a.editor.SetValue(a.orch.Snapshot().Draft)
		a.status = fmt.Sprintf("Text is limited to %d characters", models.MaxTextLength)
	}
	return a, cmd
}

func (a *App) handleModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if a.modal == modalTitle {
			a.orch.DismissTitlePrompt()
		}
		a.closeModal()
		return a, nil
	case "enter":
		value := strings.TrimSpace(a.input.Value())
		kind, id := a.modal, a.renameID
		if value == "" {
			if kind == modalTitle {
				a.status = "Title cannot be empty"
			}
			return a, nil
		}
		a.closeModal()
		if kind == modalImage {
			return a, tea.Batch(a.extractCmd(value), a.spinner.Tick)
		}
		return a, tea.Batch(a.renameCmd(id, value), a.spinner.Tick)
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) openModal(kind modalKind, value string) {
	a.modal = kind
	switch kind {
	case modalImage:
		a.input.Placeholder = "path/to/page.jpg or https://..."
	case modalTitle:
		a.input.Placeholder = models.PlaceholderTitle
	}
	a.input.SetValue(value)
	a.input.CursorEnd()
	_ = a.input.Focus()
}

func (a *App) closeModal() {
	a.modal = modalNone
	a.renameID = 0
	a.input.Blur()
	a.input.SetValue("")
}

func (a *App) toggleTheme() tea.Cmd {
	dark := !a.theme.dark
	a.theme = newTheme(dark)
	if err := a.prefs.SetDarkMode(dark); err != nil {
		slog.Warn("Failed to save theme preference", "err", err)
		a.status = "Could not save theme preference"
	}
	return nil
}

// syncCursor points the library cursor at the open book.
func (a *App) syncCursor() {
	id := a.orch.Snapshot().BookID()
	for i, b := range a.orch.Library().Selectable() {
		if b.ID == id {
			a.cursor = i
			return
		}
	}
}

func (a *App) startCmd() tea.Cmd {
	return func() tea.Msg {
		return startDoneMsg{err: a.orch.Start(a.ctx)}
	}
}

func (a *App) submitCmd() tea.Cmd {
	return func() tea.Msg {
		return submitDoneMsg{err: a.orch.Submit(a.ctx)}
	}
}

func (a *App) selectCmd(bookID int64) tea.Cmd {
	return func() tea.Msg {
		return selectDoneMsg{err: a.orch.SelectBook(a.ctx, bookID)}
	}
}

func (a *App) renameCmd(bookID int64, title string) tea.Cmd {
	return func() tea.Msg {
		return renameDoneMsg{err: a.orch.Rename(a.ctx, bookID, title)}
	}
}

func (a *App) extractCmd(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := a.readFile(path)
		if err != nil {
			slog.Warn("Failed to read image", "path", path, "err", err)
			return extractDoneMsg{path: path, err: err, readErr: true}
		}
		return extractDoneMsg{path: path, err: a.orch.ExtractImage(a.ctx, data, filepath.Base(path))}
	}
}
