package prefs

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestUserIDCreatedOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("Expected no file before first use, stat err = %v", err)
	}

	const workers = 16
	ids := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := store.UserID()
			if err != nil {
				t.Errorf("UserID failed: %v", err)
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		if id == "" || id != ids[0] {
			t.Fatalf("Expected one stable id, got %v", ids)
		}
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	id, err := reopened.UserID()
	if err != nil {
		t.Fatalf("UserID failed: %v", err)
	}
	if id != ids[0] {
		t.Errorf("Expected persisted id %s, got %s", ids[0], id)
	}
}

func TestDarkModePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if store.DarkMode() {
		t.Error("Expected light mode by default")
	}
	if err := store.SetDarkMode(true); err != nil {
		t.Fatalf("SetDarkMode failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	if !reopened.DarkMode() {
		t.Error("Expected dark mode after reopen")
	}
	if reopened.Snapshot().UserID != "" {
		t.Error("Setting the theme should not create a user id")
	}
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	if err := os.WriteFile(path, []byte("user_id: [unterminated"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := Open(path); err == nil {
		t.Error("Expected parse error")
	}
}

func TestOpenReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	if err := os.WriteFile(path, []byte("user_id: abc\ndark_mode: true\n"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	id, err := store.UserID()
	if err != nil || id != "abc" {
		t.Errorf("Expected abc, got %q (%v)", id, err)
	}
	if !store.DarkMode() {
		t.Error("Expected dark mode")
	}
}
