// Package reminder implements spoken reminder scheduling: reminders are
// persisted, scanned on a fixed interval, and announced through the speech
// synthesizer once their fire time falls inside the tolerance window.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/voicea-dev/voicea/internal/store"
	"github.com/voicea-dev/voicea/pkg/speech"
)

// storeKey is the persistence key for the reminder set.
const storeKey = "reminders"

const (
	// defaultScanInterval is how often the reminder set is scanned.
	defaultScanInterval = 30 * time.Second

	// defaultFireWindow is the tolerance around "now" within which a
	// reminder fires. A reminder more than this far in the past is stale
	// and will simply never fire.
	defaultFireWindow = 60 * time.Second
)

// ErrInvalidInput is returned by Add and Delete when the input is rejected at
// the boundary: empty reminder text, an unparseable fire time, or an index
// out of range.
var ErrInvalidInput = errors.New("reminder: invalid input")

// fireAtLayouts are the accepted fire-time formats: RFC 3339 and the
// datetime-local format produced by HTML time inputs.
var fireAtLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"}

// Reminder is one scheduled announcement.
type Reminder struct {
	Text   string    `json:"text"`
	FireAt time.Time `json:"fire_at"`
}

// Option is a functional option for configuring a [Controller].
type Option func(*Controller)

// WithScanInterval overrides the scan period. Mainly useful in tests.
func WithScanInterval(d time.Duration) Option {
	return func(c *Controller) {
		c.interval = d
	}
}

// WithFireWindow overrides the ± tolerance around now within which a
// reminder fires.
func WithFireWindow(d time.Duration) Option {
	return func(c *Controller) {
		c.window = d
	}
}

// WithClock replaces the time source. Mainly useful in tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithFireObserver registers a callback invoked with the number of reminders
// announced by a scan. Used to feed the metrics layer.
func WithFireObserver(fn func(fired int)) Option {
	return func(c *Controller) {
		c.onFired = fn
	}
}

// Controller owns the reminder set for one user session. The set is loaded
// from the store at construction and the whole set is rewritten after every
// mutation. Firing is at-most-once per reminder: removal happens
// synchronously with the announcement, so overlapping scan ticks cannot
// double-fire. All exported methods are safe for concurrent use.
type Controller struct {
	store    store.Store
	synth    speech.Synthesizer
	interval time.Duration
	window   time.Duration
	now      func() time.Time
	onFired  func(int)

	mu        sync.Mutex
	reminders []Reminder
}

// New creates a Controller and loads any persisted reminders. A missing key
// is treated as an empty set.
func New(ctx context.Context, st store.Store, synth speech.Synthesizer, opts ...Option) (*Controller, error) {
	c := &Controller{
		store:    st,
		synth:    synth,
		interval: defaultScanInterval,
		window:   defaultFireWindow,
		now:      time.Now,
	}
	for _, o := range opts {
		o(c)
	}

	if err := st.Load(ctx, storeKey, &c.reminders); err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("reminder: load persisted set: %w", err)
	}
	return c, nil
}

// Add validates, appends, and persists a new reminder. fireAt must parse as
// RFC 3339 or an HTML datetime-local value; past timestamps are accepted
// (a reminder just inside the fire window still announces on the next scan).
func (c *Controller) Add(ctx context.Context, text, fireAt string) (Reminder, error) {
	if strings.TrimSpace(text) == "" {
		return Reminder{}, fmt.Errorf("%w: reminder text is empty", ErrInvalidInput)
	}
	at, err := parseFireAt(fireAt)
	if err != nil {
		return Reminder{}, fmt.Errorf("%w: fire time %q is not a valid timestamp", ErrInvalidInput, fireAt)
	}

	r := Reminder{Text: strings.TrimSpace(text), FireAt: at}

	// Save runs under the lock so concurrent mutations cannot persist
	// snapshots out of order.
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reminders = append(c.reminders, r)
	if err := c.store.Save(ctx, storeKey, c.snapshotLocked()); err != nil {
		return Reminder{}, fmt.Errorf("reminder: persist: %w", err)
	}
	return r, nil
}

// List returns a copy of the reminder set in insertion order.
func (c *Controller) List() []Reminder {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Delete removes the reminder at index and persists the remaining set.
func (c *Controller) Delete(ctx context.Context, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.reminders) {
		return fmt.Errorf("%w: index %d out of range", ErrInvalidInput, index)
	}
	c.reminders = append(c.reminders[:index], c.reminders[index+1:]...)
	if err := c.store.Save(ctx, storeKey, c.snapshotLocked()); err != nil {
		return fmt.Errorf("reminder: persist after delete: %w", err)
	}
	return nil
}

// Run scans the reminder set on the configured interval until ctx is
// cancelled. It blocks; run it in its own goroutine.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.ScanOnce(ctx)
		}
	}
}

// ScanOnce fires every reminder whose fire time is within the tolerance
// window of now. Fired reminders are removed and the set persisted in the
// same step.
func (c *Controller) ScanOnce(ctx context.Context) {
	now := c.now()

	c.mu.Lock()
	var due []Reminder
	remaining := c.reminders[:0]
	for _, r := range c.reminders {
		d := now.Sub(r.FireAt)
		if d < 0 {
			d = -d
		}
		if d <= c.window {
			due = append(due, r)
		} else {
			remaining = append(remaining, r)
		}
	}
	c.reminders = remaining
	// Persist the removal before announcing, still under the lock: a racing
	// Add or Delete cannot slip its own snapshot in between and leave the
	// fired reminders on disk.
	var persistErr error
	if len(due) > 0 {
		persistErr = c.store.Save(ctx, storeKey, c.snapshotLocked())
	}
	c.mu.Unlock()

	if len(due) == 0 {
		return
	}
	if persistErr != nil {
		slog.Error("reminder: persist after firing failed", "err", persistErr)
	}

	for _, r := range due {
		if err := c.synth.Speak(ctx, "Reminder: "+r.Text); err != nil {
			slog.Warn("reminder: announce failed", "text", r.Text, "err", err)
		}
	}
	if c.onFired != nil {
		c.onFired(len(due))
	}
}

// snapshotLocked copies the reminder slice. Caller holds c.mu.
func (c *Controller) snapshotLocked() []Reminder {
	s := make([]Reminder, len(c.reminders))
	copy(s, c.reminders)
	return s
}

// parseFireAt tries each accepted layout in order.
func parseFireAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("empty")
	}
	var lastErr error
	for _, layout := range fireAtLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
