package cmd

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bookbuddy-app/bookbuddy/internal/export"
	"github.com/bookbuddy-app/bookbuddy/internal/handlers"
)

type cli struct {
	t      *testing.T
	apiURL string
	dir    string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	srv := httptest.NewServer(handlers.New().Routes())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("BOOKBUDDY_CONFIG", "")
	t.Setenv("BOOKBUDDY_PREFS_PATH", filepath.Join(dir, "prefs.yaml"))

	return &cli{t: t, apiURL: srv.URL + "/api", dir: dir}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--api-url", c.apiURL))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	if err != nil {
		c.t.Fatalf("bookbuddy %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestBookLifecycle(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun("simplify", "Hello", "world")
	if !strings.Contains(out, "Book 1: Untitled Book") || !strings.Contains(out, "Hello world") {
		t.Errorf("Unexpected simplify output:\n%s", out)
	}

	out = c.mustRun("simplify", "--book", "1", "A second page")
	if !strings.Contains(out, "Page 2 of 2") {
		t.Errorf("Expected second page, got:\n%s", out)
	}

	c.mustRun("books", "rename", "1", "Sea", "Life")

	out = c.mustRun("books", "list")
	if !strings.Contains(out, "Sea Life") || !strings.Contains(out, "2") {
		t.Errorf("Expected renamed book in list:\n%s", out)
	}

	out = c.mustRun("books", "list", "--find", "see life")
	if !strings.Contains(out, "Sea Life") {
		t.Errorf("Expected fuzzy match:\n%s", out)
	}

	out = c.mustRun("books", "show", "1", "--page", "2")
	if !strings.Contains(out, "A second page") || strings.Contains(out, "Hello world") {
		t.Errorf("Expected only page 2:\n%s", out)
	}

	if _, err := c.run("books", "show", "1", "--page", "5"); err == nil {
		t.Error("Expected error for missing page")
	}
	if _, err := c.run("books", "show", "abc"); err == nil {
		t.Error("Expected error for invalid id")
	}
}

func TestSimplifyFromStdinAndFile(t *testing.T) {
	c := newCLI(t)

	path := filepath.Join(c.dir, "input.txt")
	if err := os.WriteFile(path, []byte("From   a file"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	out := c.mustRun("simplify", "--file", path)
	if !strings.Contains(out, "From a file") {
		t.Errorf("Unexpected output:\n%s", out)
	}

	if _, err := c.run("simplify", "   "); err == nil {
		t.Error("Expected error for blank text")
	}
}

func TestSimplifyUnknownBook(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("simplify", "--book", "42", "text")
	if err == nil || err.Error() != "Book not found" {
		t.Errorf("Expected backend message, got %v", err)
	}
}

func TestExtract(t *testing.T) {
	c := newCLI(t)

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 3))); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	imagePath := filepath.Join(c.dir, "page.png")
	if err := os.WriteFile(imagePath, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	out := c.mustRun("extract", imagePath)
	if !strings.Contains(out, "Size: 3x3") {
		t.Errorf("Unexpected extract output:\n%s", out)
	}

	out = c.mustRun("extract", "--simplify", imagePath)
	if !strings.Contains(out, "Book 1") {
		t.Errorf("Expected a new book, got:\n%s", out)
	}

	textPath := filepath.Join(c.dir, "notes.txt")
	if err := os.WriteFile(textPath, []byte("plain text"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := c.run("extract", textPath); err == nil || err.Error() != "Please upload an image file" {
		t.Errorf("Expected validation message, got %v", err)
	}
}

func TestExport(t *testing.T) {
	c := newCLI(t)
	c.mustRun("simplify", "First")
	c.mustRun("simplify", "--book", "1", "Second")

	out := c.mustRun("books", "export")
	if !strings.Contains(out, "content: Second") || !strings.Contains(out, "user_id:") {
		t.Errorf("Unexpected YAML export:\n%s", out)
	}

	if _, err := c.run("books", "export", "--format", "parquet"); err == nil {
		t.Error("Expected parquet export without --output to fail")
	}

	path := filepath.Join(c.dir, "library.parquet")
	c.mustRun("books", "export", "--format", "parquet", "--output", path)
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	rows, err := export.ReadParquet(f, info.Size())
	if err != nil {
		t.Fatalf("ReadParquet failed: %v", err)
	}
	if len(rows) != 2 || rows[1].Content != "Second" {
		t.Errorf("Unexpected rows %+v", rows)
	}
}

func TestPrefs(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun("prefs", "show")
	if !strings.Contains(out, "(assigned on first use)") || !strings.Contains(out, "Theme:   light") {
		t.Errorf("Unexpected prefs:\n%s", out)
	}

	c.mustRun("prefs", "theme", "dark")
	c.mustRun("books", "list")

	out = c.mustRun("prefs", "show")
	if !strings.Contains(out, "Theme:   dark") || strings.Contains(out, "(assigned on first use)") {
		t.Errorf("Expected dark theme and an assigned user id:\n%s", out)
	}

	if _, err := c.run("prefs", "theme", "blue"); err == nil {
		t.Error("Expected error for unknown theme")
	}
}
