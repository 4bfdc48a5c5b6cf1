// Package speech defines the capability interfaces over speech recognition
// and synthesis that the Voicea dialogue engine depends on.
//
// The engine never talks to a platform speech API directly. Instead it is
// handed a [Recognizer] and a [Synthesizer] at construction time, which keeps
// the dialogue logic deterministic under test: the mock subpackage provides
// implementations that feed scripted transcripts and record spoken output.
//
// Implementations must be safe for concurrent use.
package speech

import (
	"context"
	"errors"
	"time"
)

// ErrUnsupported is returned by Start when the recognition capability is not
// available on this platform or backend. Callers should report the condition
// once and disable the voice feature for the session rather than crash.
var ErrUnsupported = errors.New("speech: capability not supported")

// Transcript is the text produced by one recognition event.
type Transcript struct {
	// Text is the recognized speech content, exactly as the backend
	// produced it (no normalization applied).
	Text string

	// Confidence is the recognition confidence in [0, 1]. Zero when the
	// backend does not report confidence.
	Confidence float64

	// Timestamp marks when the recognition result was produced.
	Timestamp time.Time
}

// Callbacks bundles the handlers invoked by a capture session. Exactly one of
// OnResult or OnError is invoked per recognition attempt. Either field may be
// nil, in which case the corresponding event is dropped.
type Callbacks struct {
	// OnResult receives each recognized transcript.
	OnResult func(Transcript)

	// OnError receives transient recognition failures (no speech detected,
	// audio device error). The capture session is finished once OnError is
	// invoked; the caller decides whether to start a new one.
	OnError func(error)
}

// Capture represents one active recognition session.
type Capture interface {
	// Stop cancels the capture. Pending audio is discarded and no further
	// callbacks are invoked. Calling Stop more than once is safe and
	// returns nil.
	Stop() error
}

// Recognizer is the abstraction over any speech-to-text capture backend.
//
// Implementations must be safe for concurrent use; it is the caller's
// responsibility to hold at most one open [Capture] per dialogue session.
type Recognizer interface {
	// Start opens a recognition session and begins capturing. The returned
	// Capture is live until a callback fires or Stop is called.
	//
	// Returns [ErrUnsupported] when the backend cannot capture on this
	// platform. Other errors indicate the session could not be opened.
	Start(ctx context.Context, cb Callbacks) (Capture, error)
}

// Transcriber converts a complete recorded audio clip to text in one shot.
// It is the upload-path counterpart to [Recognizer]: forum voice posts and
// note recordings arrive as finished WAV clips rather than live capture.
type Transcriber interface {
	// Transcribe submits wav (16-bit PCM WAV bytes) for recognition and
	// returns the resulting transcript.
	Transcribe(ctx context.Context, wav []byte) (Transcript, error)
}

// Synthesizer is the abstraction over any text-to-speech backend.
//
// Speak is fire-and-forget from the dialogue engine's point of view: the
// engine does not wait for playback to finish. Where immediacy matters (e.g.
// stopping a quiz) callers invoke CancelAll before speaking new text.
type Synthesizer interface {
	// Speak queues text for synthesis and playback.
	Speak(ctx context.Context, text string) error

	// CancelAll flushes any queued or in-flight utterances.
	CancelAll()
}
