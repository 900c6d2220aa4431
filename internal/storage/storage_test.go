package storage

import (
	"testing"
	"time"
)

func TestBookStoreLifecycle(t *testing.T) {
	store := New()

	book := store.Create("alice", "Some hard text", "Easy text")
	if book.ID != 1 {
		t.Errorf("Expected first book id 1, got %d", book.ID)
	}
	if len(book.Pages) != 1 || book.Pages[0].PageNumber != 1 {
		t.Fatalf("Expected one page numbered 1, got %+v", book.Pages)
	}

	updated, ok := store.AppendPage("alice", book.ID, "More text", "More")
	if !ok {
		t.Fatal("AppendPage failed")
	}
	if len(updated.Pages) != 2 || updated.Pages[1].PageNumber != 2 || updated.TotalPages != 2 {
		t.Errorf("Expected two dense pages, got %+v", updated.Pages)
	}

	renamed, ok := store.Rename("alice", book.ID, "My Book")
	if !ok || renamed.Title != "My Book" {
		t.Errorf("Expected title My Book, got %+v", renamed)
	}

	got, ok := store.Get("alice", book.ID)
	if !ok || got.Title != "My Book" || len(got.Pages) != 2 {
		t.Errorf("Get returned %+v", got)
	}
}

func TestBookStoreScopesByUser(t *testing.T) {
	store := New()
	book := store.Create("alice", "text", "text")

	if _, ok := store.Get("bob", book.ID); ok {
		t.Error("Expected bob not to see alice's book")
	}
	if _, ok := store.AppendPage("bob", book.ID, "x", "x"); ok {
		t.Error("Expected bob not to append to alice's book")
	}
	if _, ok := store.Rename("bob", book.ID, "x"); ok {
		t.Error("Expected bob not to rename alice's book")
	}
	if books := store.List("bob"); len(books) != 0 {
		t.Errorf("Expected empty library for bob, got %d books", len(books))
	}
}

func TestBookStoreListOrder(t *testing.T) {
	store := New()
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	first := store.Create("alice", "a", "a")
	second := store.Create("alice", "b", "b")
	if _, ok := store.AppendPage("alice", first.ID, "c", "c"); !ok {
		t.Fatal("AppendPage failed")
	}

	books := store.List("alice")
	if len(books) != 2 {
		t.Fatalf("Expected 2 books, got %d", len(books))
	}
	if books[0].ID != first.ID || books[1].ID != second.ID {
		t.Errorf("Expected most recently edited first, got ids %d, %d", books[0].ID, books[1].ID)
	}
}

func TestBookStoreReturnsCopies(t *testing.T) {
	store := New()
	book := store.Create("alice", "a", "a")
	book.Pages[0].Content = "mutated"
	book.Title = "mutated"

	got, _ := store.Get("alice", book.ID)
	if got.Pages[0].Content != "a" || got.Title != "" {
		t.Errorf("Store state leaked through returned copy: %+v", got)
	}
}
