package store

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type reminderRecord struct {
	Text   string `json:"text"`
	FireAt string `json:"fire_at"`
}

// roundTrip exercises the Save-then-Load law shared by every backend:
// loading a saved key returns a value deep-equal to what was saved.
func roundTrip(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	notes := []string{"buy milk", "call the library"}
	if err := s.Save(ctx, "voiceNotes", notes); err != nil {
		t.Fatalf("Save notes: %v", err)
	}

	var gotNotes []string
	if err := s.Load(ctx, "voiceNotes", &gotNotes); err != nil {
		t.Fatalf("Load notes: %v", err)
	}
	if !reflect.DeepEqual(gotNotes, notes) {
		t.Errorf("notes round trip = %v, want %v", gotNotes, notes)
	}

	reminders := []reminderRecord{{Text: "medication", FireAt: "2026-09-01T08:00:00Z"}}
	if err := s.Save(ctx, "reminders", reminders); err != nil {
		t.Fatalf("Save reminders: %v", err)
	}

	var gotReminders []reminderRecord
	if err := s.Load(ctx, "reminders", &gotReminders); err != nil {
		t.Fatalf("Load reminders: %v", err)
	}
	if !reflect.DeepEqual(gotReminders, reminders) {
		t.Errorf("reminders round trip = %v, want %v", gotReminders, reminders)
	}
}

func TestMemStore_RoundTrip(t *testing.T) {
	t.Parallel()
	roundTrip(t, NewMemStore())
}

func TestMemStore_ZeroValue(t *testing.T) {
	t.Parallel()

	var s MemStore
	if err := s.Save(context.Background(), "k", 42); err != nil {
		t.Fatalf("Save on zero value: %v", err)
	}
	var n int
	if err := s.Load(context.Background(), "k", &n); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n != 42 {
		t.Errorf("got %d, want 42", n)
	}
}

func TestMemStore_NotFound(t *testing.T) {
	t.Parallel()

	s := NewMemStore()
	var dest []string
	err := s.Load(context.Background(), "missing", &dest)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load missing key = %v, want ErrNotFound", err)
	}
}

func TestMemStore_Overwrite(t *testing.T) {
	t.Parallel()

	s := NewMemStore()
	ctx := context.Background()

	if err := s.Save(ctx, "k", []string{"a"}); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if err := s.Save(ctx, "k", []string{"b", "c"}); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	var got []string
	if err := s.Load(ctx, "k", &got); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("got %v, want the overwritten value", got)
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	t.Parallel()

	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	roundTrip(t, s)
}

func TestFileStore_NotFound(t *testing.T) {
	t.Parallel()

	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	var dest []string
	if err := s.Load(context.Background(), "missing", &dest); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load missing key = %v, want ErrNotFound", err)
	}
}

func TestFileStore_KeyEscaping(t *testing.T) {
	t.Parallel()

	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	// A hostile key must stay inside the store directory.
	key := "../../escape/attempt"
	if err := s.Save(ctx, key, "payload"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	var got string
	if err := s.Load(ctx, key, &got); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "payload" {
		t.Errorf("got %q, want %q", got, "payload")
	}
}

func TestFileStore_EmptyDir(t *testing.T) {
	t.Parallel()

	if _, err := NewFileStore(""); err == nil {
		t.Fatal("expected error for empty directory")
	}
}
