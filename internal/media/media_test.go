package media

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/voicea-dev/voicea/internal/store"
)

func newTestLibrary(t *testing.T, st store.Store) *Library {
	t.Helper()
	fixed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	l, err := New(context.Background(), st, WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func TestLibrary_AddValidation(t *testing.T) {
	t.Parallel()
	l := newTestLibrary(t, &store.MemStore{})

	if _, err := l.Add(context.Background(), "   ", "blob:abc"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty name: got %v, want ErrInvalidInput", err)
	}
	if _, err := l.Add(context.Background(), "lecture-1.mp4", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty url: got %v, want ErrInvalidInput", err)
	}
	if got := l.List(); len(got) != 0 {
		t.Errorf("rejected adds must not mutate the set, got %d videos", len(got))
	}
}

func TestLibrary_AddTrimsAndTimestamps(t *testing.T) {
	t.Parallel()
	l := newTestLibrary(t, &store.MemStore{})

	v, err := l.Add(context.Background(), "  intro.mp4  ", " https://cdn.example/intro.mp4 ")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if v.Name != "intro.mp4" || v.URL != "https://cdn.example/intro.mp4" {
		t.Errorf("entry = %+v, want trimmed fields", v)
	}
	if v.AddedAt.IsZero() {
		t.Error("AddedAt not set")
	}
}

func TestLibrary_PersistsAcrossRestart(t *testing.T) {
	t.Parallel()
	st := &store.MemStore{}

	l1 := newTestLibrary(t, st)
	if _, err := l1.Add(context.Background(), "anatomy-01.mp4", "blob:one"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	l2 := newTestLibrary(t, st)
	got := l2.List()
	if len(got) != 1 || got[0].Name != "anatomy-01.mp4" {
		t.Fatalf("reloaded set = %+v, want the persisted entry", got)
	}
}

func TestLibrary_Delete(t *testing.T) {
	t.Parallel()
	st := &store.MemStore{}
	l := newTestLibrary(t, st)

	for _, name := range []string{"first.mp4", "second.mp4", "third.mp4"} {
		if _, err := l.Add(context.Background(), name, "blob:"+name); err != nil {
			t.Fatalf("Add(%q): %v", name, err)
		}
	}
	if err := l.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	got := l.List()
	if len(got) != 2 || got[0].Name != "first.mp4" || got[1].Name != "third.mp4" {
		t.Fatalf("after delete, set = %+v", got)
	}

	// The persisted set must reflect the deletion.
	l2 := newTestLibrary(t, st)
	if reloaded := l2.List(); len(reloaded) != 2 {
		t.Errorf("reloaded set has %d videos, want 2", len(reloaded))
	}
}

func TestLibrary_DeleteOutOfRange(t *testing.T) {
	t.Parallel()
	l := newTestLibrary(t, &store.MemStore{})

	if err := l.Delete(context.Background(), 0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Delete(0) on empty set: got %v, want ErrInvalidInput", err)
	}
	if err := l.Delete(context.Background(), -1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Delete(-1): got %v, want ErrInvalidInput", err)
	}
}
