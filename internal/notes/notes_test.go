package notes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/voicea-dev/voicea/internal/store"
	speechmock "github.com/voicea-dev/voicea/pkg/speech/mock"
)

func newTestManager(t *testing.T, st store.Store) (*Manager, *speechmock.Synthesizer) {
	t.Helper()
	syn := &speechmock.Synthesizer{}
	fixed := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	m, err := New(context.Background(), st, syn, WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m, syn
}

func TestManager_AddRejectsEmpty(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager(t, &store.MemStore{})

	if _, err := m.Add(context.Background(), "   "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Add(blank): got %v, want ErrInvalidInput", err)
	}
	if got := m.List(); len(got) != 0 {
		t.Errorf("rejected add must not mutate the set, got %d notes", len(got))
	}
}

func TestManager_AddTrimsAndTimestamps(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager(t, &store.MemStore{})

	n, err := m.Add(context.Background(), "  buy oat milk  ")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if n.Text != "buy oat milk" {
		t.Errorf("Text = %q, want trimmed", n.Text)
	}
	if n.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero")
	}
}

func TestManager_PersistsAcrossRestart(t *testing.T) {
	t.Parallel()
	st := &store.MemStore{}

	m1, _ := newTestManager(t, st)
	if _, err := m1.Add(context.Background(), "meeting moved to three"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	m2, _ := newTestManager(t, st)
	got := m2.List()
	if len(got) != 1 || got[0].Text != "meeting moved to three" {
		t.Fatalf("reloaded set = %+v", got)
	}
}

func TestManager_Delete(t *testing.T) {
	t.Parallel()
	st := &store.MemStore{}
	m, _ := newTestManager(t, st)

	for _, text := range []string{"one", "two", "three"} {
		if _, err := m.Add(context.Background(), text); err != nil {
			t.Fatalf("Add(%q): %v", text, err)
		}
	}
	if err := m.Delete(context.Background(), 0); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got := m.List()
	if len(got) != 2 || got[0].Text != "two" || got[1].Text != "three" {
		t.Fatalf("after delete, set = %+v", got)
	}
	if err := m.Delete(context.Background(), 5); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Delete(5): got %v, want ErrInvalidInput", err)
	}
}

func TestManager_Play(t *testing.T) {
	t.Parallel()
	m, syn := newTestManager(t, &store.MemStore{})

	if _, err := m.Add(context.Background(), "water the ferns"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := m.Play(context.Background(), 0); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if spoken := syn.Spoken(); len(spoken) != 1 || spoken[0] != "water the ferns" {
		t.Errorf("spoken = %v", spoken)
	}
	if err := m.Play(context.Background(), 1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Play(1): got %v, want ErrInvalidInput", err)
	}
}
