package tui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/bookbuddy-app/bookbuddy/internal/models"
	"github.com/bookbuddy-app/bookbuddy/internal/session"
)

const (
	sidebarWidth = 28
	chromeHeight = 4 // header, page footer, status line, spacing
)

func (a *App) resize() {
	w := a.mainWidth()
	a.editor.SetWidth(w)
	h := a.height - chromeHeight - 2
	if h < 3 {
		h = 3
	}
	a.editor.SetHeight(h)
	a.input.Width = w - 6
}

func (a *App) mainWidth() int {
	w := a.width
	if a.showSidebar {
		w -= sidebarWidth + 2
	}
	if w < 20 {
		w = 20
	}
	return w
}

func (a *App) View() string {
	if a.quitting {
		return ""
	}
	state := a.orch.Snapshot()

	main := a.renderMain(state)
	if a.showSidebar {
		main = lipgloss.JoinHorizontal(lipgloss.Top, a.renderSidebar(state), " ", main)
	}

	var b strings.Builder
	b.WriteString(a.renderHeader(state))
	b.WriteString("\n\n")
	b.WriteString(main)
	b.WriteString("\n")
	if a.modal != modalNone {
		b.WriteString(a.renderModal())
		b.WriteString("\n")
	}
	b.WriteString(a.renderStatus(state))
	return b.String()
}

func (a *App) renderHeader(state session.State) string {
	title := "BookBuddy"
	switch mode := state.Mode.(type) {
	case session.Reading:
		title += " · " + mode.DisplayTitle()
	case session.Composing:
		if mode.BookID != 0 {
			title += " · adding a page"
		} else {
			title += " · new book"
		}
	case session.Submitting:
		title += " · simplifying"
	}
	return a.theme.title.Render(title)
}

func (a *App) renderSidebar(state session.State) string {
	var b strings.Builder
	b.WriteString(a.theme.title.Render("Library"))
	b.WriteString("\n")

	books := a.orch.Library().Selectable()
	if len(books) == 0 {
		b.WriteString(a.theme.muted.Render("No books yet"))
	}
	for i, book := range books {
		line := truncate(fmt.Sprintf("%s (%d)", book.DisplayTitle(), book.PageCount()), sidebarWidth-2)
		switch {
		case a.focus == focusLibrary && i == a.cursor:
			line = a.theme.selected.Render("> " + line)
		case book.ID == state.BookID():
			line = a.theme.current.Render("• " + line)
		default:
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if a.orch.Library().Err() != nil {
		b.WriteString(a.theme.muted.Render("(offline)"))
	}
	return a.theme.sidebar.Width(sidebarWidth).Render(b.String())
}

func (a *App) renderMain(state session.State) string {
	switch mode := state.Mode.(type) {
	case session.Reading:
		return a.renderPage(mode)
	case session.Submitting:
		return a.spinner.View() + " Simplifying your text..."
	default:
		counter := fmt.Sprintf("%d/%d", len([]rune(a.editor.Value())), models.MaxTextLength)
		return a.editor.View() + "\n" + a.theme.muted.Render(counter+"  ctrl+s simplify · ctrl+o image · ctrl+n new book")
	}
}

func (a *App) renderPage(mode session.Reading) string {
	content := mode.Page().Content
	if r := a.pageRenderer(); r != nil {
		if out, err := r.Render(content); err == nil {
			content = strings.Trim(out, "\n")
		} else {
			slog.Debug("Page render failed", "err", err)
		}
	}

	footer := fmt.Sprintf("Page %d of %d  %s", mode.Index+1, len(mode.Pages), pageStrip(mode.Index, len(mode.Pages)))
	help := "←/→ turn page · a add page · r rename"
	return a.theme.page.Render(content) + "\n\n" + a.theme.muted.Render(footer+"  "+help)
}

// pageRenderer returns a glamour renderer for the current width and theme.
func (a *App) pageRenderer() *glamour.TermRenderer {
	width := a.mainWidth() - 2
	if a.renderer != nil && a.rendererWidth == width && a.rendererDark == a.theme.dark {
		return a.renderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(a.theme.glamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		slog.Debug("Failed to create page renderer", "err", err)
		return nil
	}
	a.renderer, a.rendererWidth, a.rendererDark = r, width, a.theme.dark
	return r
}

func (a *App) renderModal() string {
	label := "Image file"
	if a.modal == modalTitle {
		label = "Book title"
	}
	body := a.theme.title.Render(label) + "\n" + a.input.View() + "\n" + a.theme.muted.Render("enter confirm · esc cancel")
	return a.theme.modal.Render(body)
}

func (a *App) renderStatus(state session.State) string {
	switch {
	case state.Err != "":
		return a.theme.err.Render(state.Err) + a.theme.muted.Render("  esc dismiss")
	case state.Processing:
		return a.spinner.View() + " Working..."
	case a.status != "":
		return a.theme.status.Render(a.status)
	default:
		return a.theme.muted.Render("tab library · ctrl+b sidebar · ctrl+t theme · ctrl+c quit")
	}
}

// pageStrip draws one dot per page with the current page filled, collapsing
// long books to a window around the current page.
func pageStrip(index, total int) string {
	const window = 15
	start, end := 0, total
	if total > window {
		start = index - window/2
		if start < 0 {
			start = 0
		}
		end = start + window
		if end > total {
			end = total
			start = end - window
		}
	}

	var b strings.Builder
	if start > 0 {
		b.WriteString("…")
	}
	for i := start; i < end; i++ {
		if i == index {
			b.WriteString("●")
		} else {
			b.WriteString("○")
		}
	}
	if end < total {
		b.WriteString("…")
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
