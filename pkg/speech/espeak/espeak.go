// Package espeak provides a speech.Synthesizer backed by the espeak-ng
// command-line tool.
//
// Each Speak call launches one espeak-ng process. CancelAll kills whatever
// process is currently playing, which is how the dialogue engine flushes
// stale narration (e.g., when a quiz is stopped mid-question).
package espeak

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync"

	"github.com/voicea-dev/voicea/pkg/speech"
)

const defaultBinary = "espeak-ng"

// Compile-time assertion that Synthesizer implements speech.Synthesizer.
var _ speech.Synthesizer = (*Synthesizer)(nil)

// Option is a functional option for configuring a Synthesizer.
type Option func(*Synthesizer)

// WithBinary overrides the espeak-ng executable name or path.
func WithBinary(path string) Option {
	return func(s *Synthesizer) {
		s.binary = path
	}
}

// WithVoice sets the espeak-ng voice (-v flag), e.g. "en-us", "de".
func WithVoice(voice string) Option {
	return func(s *Synthesizer) {
		s.voice = voice
	}
}

// WithRate sets the speaking rate in words per minute (-s flag).
// espeak-ng's own default is 175.
func WithRate(wpm int) Option {
	return func(s *Synthesizer) {
		s.rate = wpm
	}
}

// Synthesizer shells out to espeak-ng for synthesis and playback.
// All methods are safe for concurrent use.
type Synthesizer struct {
	binary string
	voice  string
	rate   int

	mu      sync.Mutex
	current *utterance
}

// utterance tracks one in-flight espeak-ng process. The cancelled flag is set
// by CancelAll under the synthesizer mutex, so a killed Speak call can tell
// cancellation from a genuine failure even when a newer Speak has already
// replaced it as current.
type utterance struct {
	cmd       *exec.Cmd
	cancelled bool
}

// New returns an espeak-ng Synthesizer. It does not verify that the binary
// exists; the first Speak call surfaces a missing executable as an error.
func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{binary: defaultBinary}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Speak runs espeak-ng with text as its argument and waits for playback to
// finish. An empty text is a no-op. If CancelAll kills the process mid-
// utterance, Speak returns nil — cancellation is a normal outcome, not a
// synthesis failure.
func (s *Synthesizer) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	args := make([]string, 0, 5)
	if s.voice != "" {
		args = append(args, "-v", s.voice)
	}
	if s.rate > 0 {
		args = append(args, "-s", strconv.Itoa(s.rate))
	}
	args = append(args, text)

	u := &utterance{cmd: exec.CommandContext(ctx, s.binary, args...)}

	s.mu.Lock()
	s.current = u
	s.mu.Unlock()

	err := u.cmd.Run()

	s.mu.Lock()
	if s.current == u {
		s.current = nil
	}
	cancelled := u.cancelled
	s.mu.Unlock()

	if err != nil && !cancelled {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("espeak: %w", err)
	}
	return nil
}

// CancelAll kills the currently playing espeak-ng process, if any.
func (s *Synthesizer) CancelAll() {
	s.mu.Lock()
	u := s.current
	s.current = nil
	if u != nil {
		u.cancelled = true
	}
	s.mu.Unlock()

	if u != nil && u.cmd.Process != nil {
		_ = u.cmd.Process.Kill()
	}
}
