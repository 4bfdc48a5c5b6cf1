// Package media manages uploaded video-lecture metadata: name/URL entries the
// front end lists and plays. The whole set is persisted after every mutation
// and reloaded at startup; the video content itself stays client-side.
package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/voicea-dev/voicea/internal/store"
)

// storeKey is the persistence key for the video metadata set.
const storeKey = "videos"

// ErrInvalidInput is returned when a video entry is incomplete or an index is
// out of range.
var ErrInvalidInput = errors.New("media: invalid input")

// Video is the metadata for one uploaded lecture.
type Video struct {
	Name    string    `json:"name"`
	URL     string    `json:"url"`
	AddedAt time.Time `json:"added_at"`
}

// Option configures a [Library].
type Option func(*Library)

// WithClock replaces the time source used for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Library) {
		l.now = now
	}
}

// Library owns the video metadata set. Safe for concurrent use.
type Library struct {
	store store.Store
	now   func() time.Time

	mu     sync.Mutex
	videos []Video
}

// New creates a Library and loads any persisted entries. A missing key is
// treated as an empty set.
func New(ctx context.Context, st store.Store, opts ...Option) (*Library, error) {
	l := &Library{
		store: st,
		now:   time.Now,
	}
	for _, o := range opts {
		o(l)
	}

	if err := st.Load(ctx, storeKey, &l.videos); err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("media: load persisted set: %w", err)
	}
	return l, nil
}

// Add appends a video entry and persists the set. Both name and URL are
// required.
func (l *Library) Add(ctx context.Context, name, url string) (Video, error) {
	name = strings.TrimSpace(name)
	url = strings.TrimSpace(url)
	if name == "" {
		return Video{}, fmt.Errorf("%w: video name is empty", ErrInvalidInput)
	}
	if url == "" {
		return Video{}, fmt.Errorf("%w: video url is empty", ErrInvalidInput)
	}

	v := Video{Name: name, URL: url, AddedAt: l.now()}

	// Save runs under the lock so concurrent mutations cannot persist
	// snapshots out of order.
	l.mu.Lock()
	defer l.mu.Unlock()
	l.videos = append(l.videos, v)
	if err := l.store.Save(ctx, storeKey, l.snapshotLocked()); err != nil {
		return Video{}, fmt.Errorf("media: persist: %w", err)
	}
	return v, nil
}

// List returns a copy of the video set in insertion order.
func (l *Library) List() []Video {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// Delete removes the entry at index and persists the remaining set.
func (l *Library) Delete(ctx context.Context, index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if index < 0 || index >= len(l.videos) {
		return fmt.Errorf("%w: index %d out of range", ErrInvalidInput, index)
	}
	l.videos = append(l.videos[:index], l.videos[index+1:]...)
	if err := l.store.Save(ctx, storeKey, l.snapshotLocked()); err != nil {
		return fmt.Errorf("media: persist after delete: %w", err)
	}
	return nil
}

func (l *Library) snapshotLocked() []Video {
	s := make([]Video, len(l.videos))
	copy(s, l.videos)
	return s
}
