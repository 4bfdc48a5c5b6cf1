// Package notes manages dictated voice notes: short transcribed snippets the
// user can save, replay through the synthesizer, and delete. The whole set is
// persisted after every mutation and reloaded at startup.
package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/voicea-dev/voicea/internal/store"
	"github.com/voicea-dev/voicea/pkg/speech"
)

// storeKey is the persistence key for the note set.
const storeKey = "voice_notes"

// ErrInvalidInput is returned when a note is empty or an index is out of
// range.
var ErrInvalidInput = errors.New("notes: invalid input")

// Note is one saved dictation.
type Note struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Option configures a [Manager].
type Option func(*Manager)

// WithClock replaces the time source used for note timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager owns the note set. Safe for concurrent use.
type Manager struct {
	store store.Store
	synth speech.Synthesizer
	now   func() time.Time

	mu    sync.Mutex
	notes []Note
}

// New creates a Manager and loads any persisted notes. A missing key is
// treated as an empty set.
func New(ctx context.Context, st store.Store, synth speech.Synthesizer, opts ...Option) (*Manager, error) {
	m := &Manager{
		store: st,
		synth: synth,
		now:   time.Now,
	}
	for _, o := range opts {
		o(m)
	}

	if err := st.Load(ctx, storeKey, &m.notes); err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("notes: load persisted set: %w", err)
	}
	return m, nil
}

// Add appends a note and persists the set. Whitespace-only text is rejected.
func (m *Manager) Add(ctx context.Context, text string) (Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Note{}, fmt.Errorf("%w: note text is empty", ErrInvalidInput)
	}

	n := Note{Text: text, CreatedAt: m.now()}

	// Save runs under the lock so concurrent mutations cannot persist
	// snapshots out of order.
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes = append(m.notes, n)
	if err := m.store.Save(ctx, storeKey, m.snapshotLocked()); err != nil {
		return Note{}, fmt.Errorf("notes: persist: %w", err)
	}
	return n, nil
}

// List returns a copy of the note set in insertion order.
func (m *Manager) List() []Note {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Delete removes the note at index and persists the remaining set.
func (m *Manager) Delete(ctx context.Context, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.notes) {
		return fmt.Errorf("%w: index %d out of range", ErrInvalidInput, index)
	}
	m.notes = append(m.notes[:index], m.notes[index+1:]...)
	if err := m.store.Save(ctx, storeKey, m.snapshotLocked()); err != nil {
		return fmt.Errorf("notes: persist after delete: %w", err)
	}
	return nil
}

// Play reads the note at index aloud.
func (m *Manager) Play(ctx context.Context, index int) error {
	m.mu.Lock()
	if index < 0 || index >= len(m.notes) {
		m.mu.Unlock()
		return fmt.Errorf("%w: index %d out of range", ErrInvalidInput, index)
	}
	text := m.notes[index].Text
	m.mu.Unlock()

	if err := m.synth.Speak(ctx, text); err != nil {
		return fmt.Errorf("notes: play: %w", err)
	}
	return nil
}

func (m *Manager) snapshotLocked() []Note {
	s := make([]Note, len(m.notes))
	copy(s, m.notes)
	return s
}
