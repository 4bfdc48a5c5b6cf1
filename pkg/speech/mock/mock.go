// Package mock provides test doubles for the speech package interfaces.
//
// Use Recognizer to drive a dialogue session with scripted transcripts and
// Synthesizer to inspect what the engine spoke.
//
// Example:
//
//	rec := &mock.Recognizer{}
//	syn := &mock.Synthesizer{}
//	// ... hand both to the session under test ...
//	rec.EmitResult(speech.Transcript{Text: "go to home"})
//	got := syn.Spoken() // => ["Navigating to the home page."]
package mock

import (
	"context"
	"sync"

	"github.com/voicea-dev/voicea/pkg/speech"
)

// StartCall records a single invocation of Recognizer.Start.
type StartCall struct {
	// Ctx is the context passed to Start.
	Ctx context.Context
}

// Recognizer is a mock implementation of speech.Recognizer. The zero value is
// ready to use.
type Recognizer struct {
	mu sync.Mutex

	// StartErr, if non-nil, is returned by Start instead of opening a capture.
	// Set it to speech.ErrUnsupported to simulate an absent capability.
	StartErr error

	// StartCalls records every call to Start.
	StartCalls []StartCall

	active *Capture
}

// Start records the call and, when StartErr is nil, returns a live [Capture]
// wired to the given callbacks.
func (r *Recognizer) Start(ctx context.Context, cb speech.Callbacks) (speech.Capture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.StartCalls = append(r.StartCalls, StartCall{Ctx: ctx})
	if r.StartErr != nil {
		return nil, r.StartErr
	}
	c := &Capture{cb: cb}
	r.active = c
	return c, nil
}

// StartCallCount returns the number of Start calls. Thread-safe.
func (r *Recognizer) StartCallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.StartCalls)
}

// EmitResult delivers t to the most recently started capture's OnResult
// callback. It panics if Start was never called.
func (r *Recognizer) EmitResult(t speech.Transcript) {
	r.mu.Lock()
	c := r.active
	r.mu.Unlock()
	c.emitResult(t)
}

// EmitError delivers err to the most recently started capture's OnError
// callback. It panics if Start was never called.
func (r *Recognizer) EmitError(err error) {
	r.mu.Lock()
	c := r.active
	r.mu.Unlock()
	c.emitError(err)
}

// Reset clears all recorded calls. Thread-safe.
func (r *Recognizer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.StartCalls = nil
	r.active = nil
}

// Ensure Recognizer implements speech.Recognizer at compile time.
var _ speech.Recognizer = (*Recognizer)(nil)

// Capture is the mock capture session returned by [Recognizer.Start].
type Capture struct {
	mu      sync.Mutex
	cb      speech.Callbacks
	stopped bool

	// StopCallCount is the number of times Stop was called.
	StopCallCount int
}

// Stop marks the capture stopped. Subsequent emits are dropped, matching the
// real contract that no callbacks fire after Stop.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	c.StopCallCount++
	return nil
}

func (c *Capture) emitResult(t speech.Transcript) {
	c.mu.Lock()
	stopped, cb := c.stopped, c.cb
	c.mu.Unlock()
	if stopped || cb.OnResult == nil {
		return
	}
	cb.OnResult(t)
}

func (c *Capture) emitError(err error) {
	c.mu.Lock()
	stopped, cb := c.stopped, c.cb
	c.mu.Unlock()
	if stopped || cb.OnError == nil {
		return
	}
	cb.OnError(err)
}

// Ensure Capture implements speech.Capture at compile time.
var _ speech.Capture = (*Capture)(nil)

// SpeakCall records a single invocation of Synthesizer.Speak.
type SpeakCall struct {
	// Ctx is the context passed to Speak.
	Ctx context.Context
	// Text is the text passed to Speak.
	Text string
}

// Synthesizer is a mock implementation of speech.Synthesizer. The zero value
// is ready to use.
type Synthesizer struct {
	mu sync.Mutex

	// SpeakErr, if non-nil, is returned by every Speak call.
	SpeakErr error

	// SpeakCalls records every call to Speak in order.
	SpeakCalls []SpeakCall

	// CancelAllCount is the number of times CancelAll was called.
	CancelAllCount int
}

// Speak records the call and returns SpeakErr.
func (s *Synthesizer) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SpeakCalls = append(s.SpeakCalls, SpeakCall{Ctx: ctx, Text: text})
	return s.SpeakErr
}

// CancelAll records the call.
func (s *Synthesizer) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CancelAllCount++
}

// Spoken returns the texts passed to Speak, in order. Thread-safe.
func (s *Synthesizer) Spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	texts := make([]string, len(s.SpeakCalls))
	for i, c := range s.SpeakCalls {
		texts[i] = c.Text
	}
	return texts
}

// Cancellations returns the CancelAll call count. Thread-safe.
func (s *Synthesizer) Cancellations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.CancelAllCount
}

// Reset clears all recorded calls. Thread-safe.
func (s *Synthesizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SpeakCalls = nil
	s.CancelAllCount = 0
}

// Ensure Synthesizer implements speech.Synthesizer at compile time.
var _ speech.Synthesizer = (*Synthesizer)(nil)

// Transcriber is a mock implementation of speech.Transcriber.
type Transcriber struct {
	mu sync.Mutex

	// Result is returned by every Transcribe call.
	Result speech.Transcript

	// TranscribeErr, if non-nil, is returned instead of Result.
	TranscribeErr error

	// TranscribeCalls records the WAV payload sizes passed to Transcribe.
	TranscribeCalls []int
}

// Transcribe records the call and returns Result, TranscribeErr.
func (t *Transcriber) Transcribe(ctx context.Context, wav []byte) (speech.Transcript, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.TranscribeCalls = append(t.TranscribeCalls, len(wav))
	if t.TranscribeErr != nil {
		return speech.Transcript{}, t.TranscribeErr
	}
	return t.Result, nil
}

// Ensure Transcriber implements speech.Transcriber at compile time.
var _ speech.Transcriber = (*Transcriber)(nil)
