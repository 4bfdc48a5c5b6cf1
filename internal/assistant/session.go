package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/voicea-dev/voicea/pkg/speech"
)

// Speaker identifies who produced a history message.
type Speaker string

const (
	SpeakerBot  Speaker = "bot"
	SpeakerUser Speaker = "user"
)

// Message is one entry in a session's conversation history.
type Message struct {
	Text    string  `json:"text"`
	Speaker Speaker `json:"speaker"`
}

// State is the dialogue session state.
type State string

const (
	StateIdle       State = "idle"
	StateListening  State = "listening"
	StateProcessing State = "processing"
)

// Greeting is the bot message every new session opens with.
const Greeting = "Hi! I'm your voice assistant. How can I help you today?"

// ApologyResponse is spoken after a recognition error. The session does not
// retry automatically; the user starts a new capture when ready.
const ApologyResponse = "Sorry, I couldn't understand that. Please try again."

// Navigator is the host application's routing capability. Navigation happens
// by route name, not page reload, preserving single-page semantics.
type Navigator interface {
	NavigateTo(route string)
	NavigateBack()
}

// Corrector adjusts a normalized utterance before intent matching, e.g.
// snapping phonetic near-misses of route names. A nil Corrector leaves
// utterances untouched.
type Corrector interface {
	Correct(utterance string) string
}

// AnswerHandler consumes utterances in place of intent matching while a
// controller (e.g. a running quiz) is attached to the session. The handler
// owns any speech it produces; the returned text is recorded in the history
// as the bot's response. Return "" to record nothing.
type AnswerHandler interface {
	HandleAnswer(ctx context.Context, answer string) string
}

// Session orchestrates one listen→match→act→speak conversation. It owns its
// conversation history exclusively: history is append-only and cleared only
// when the session is closed.
//
// At most one recognition capture is active per session at any instant;
// StartListening while already listening is a no-op. All exported methods are
// safe for concurrent use.
type Session struct {
	recognizer  speech.Recognizer
	synthesizer speech.Synthesizer
	navigator   Navigator
	corrector   Corrector

	mu          sync.Mutex
	state       State
	capture     speech.Capture
	history     []Message
	handler     AnswerHandler
	unsupported bool
}

// SessionConfig holds the capabilities a [Session] depends on.
// Recognizer, Synthesizer, and Navigator are required; Corrector is optional.
type SessionConfig struct {
	Recognizer  speech.Recognizer
	Synthesizer speech.Synthesizer
	Navigator   Navigator
	Corrector   Corrector
}

// NewSession creates a Session in the Idle state with the greeting already
// appended to its history.
func NewSession(cfg SessionConfig) *Session {
	return &Session{
		recognizer:  cfg.Recognizer,
		synthesizer: cfg.Synthesizer,
		navigator:   cfg.Navigator,
		corrector:   cfg.Corrector,
		state:       StateIdle,
		history:     []Message{{Text: Greeting, Speaker: SpeakerBot}},
	}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// History returns a copy of the conversation history.
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := make([]Message, len(s.history))
	copy(h, s.history)
	return h
}

// AttachAnswerHandler routes subsequent utterances to h instead of the
// intent matcher. Pass nil to detach and restore command matching.
func (s *Session) AttachAnswerHandler(h AnswerHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// StartListening opens a recognition capture. It is a no-op when a capture
// is already active (listening exclusivity) or when the capability was
// previously reported unsupported.
//
// An unsupported recognizer is reported once via the returned error and the
// log; the session stays usable through SubmitText.
func (s *Session) StartListening(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateListening {
		s.mu.Unlock()
		slog.Debug("assistant: already listening, ignoring start")
		return nil
	}
	if s.unsupported {
		s.mu.Unlock()
		return speech.ErrUnsupported
	}
	s.mu.Unlock()

	capture, err := s.recognizer.Start(ctx, speech.Callbacks{
		OnResult: func(t speech.Transcript) { s.handleResult(ctx, t) },
		OnError:  func(err error) { s.handleError(ctx, err) },
	})
	if err != nil {
		if errors.Is(err, speech.ErrUnsupported) {
			s.mu.Lock()
			s.unsupported = true
			s.mu.Unlock()
			slog.Error("assistant: speech recognition not supported, voice input disabled")
			return err
		}
		return fmt.Errorf("assistant: start listening: %w", err)
	}

	s.mu.Lock()
	// A concurrent start may have won the race; keep the first capture.
	if s.state == StateListening {
		s.mu.Unlock()
		_ = capture.Stop()
		return nil
	}
	s.state = StateListening
	s.capture = capture
	s.mu.Unlock()
	return nil
}

// StopListening cancels the active capture, if any. It is an explicit
// user-initiated cancellation and a no-op when not listening.
func (s *Session) StopListening() {
	s.mu.Lock()
	capture := s.capture
	s.capture = nil
	if s.state == StateListening {
		s.state = StateIdle
	}
	s.mu.Unlock()

	if capture != nil {
		_ = capture.Stop()
	}
}

// SubmitText processes typed input, bypassing the Listening state entirely.
// It exists so the assistant remains usable when voice input is unavailable.
func (s *Session) SubmitText(ctx context.Context, text string) {
	if Normalize(text) == "" {
		return
	}
	s.process(ctx, text)
}

// Close tears the session down: the capture is stopped, in-flight speech is
// cancelled, and the history is cleared.
func (s *Session) Close() {
	s.StopListening()
	s.synthesizer.CancelAll()

	s.mu.Lock()
	s.history = nil
	s.handler = nil
	s.state = StateIdle
	s.mu.Unlock()
}

// handleResult is the capture's OnResult callback.
func (s *Session) handleResult(ctx context.Context, t speech.Transcript) {
	s.mu.Lock()
	s.capture = nil
	s.mu.Unlock()
	s.process(ctx, t.Text)
}

// handleError is the capture's OnError callback: a fixed apology, spoken,
// no automatic retry.
func (s *Session) handleError(ctx context.Context, err error) {
	slog.Warn("assistant: recognition error", "err", err)

	s.mu.Lock()
	s.capture = nil
	s.state = StateIdle
	s.history = append(s.history, Message{Text: ApologyResponse, Speaker: SpeakerBot})
	s.mu.Unlock()

	s.speak(ctx, ApologyResponse)
}

// process runs one utterance through the normalize→match→act→speak turn.
// Side effects (navigation, speech) are confined to this step.
func (s *Session) process(ctx context.Context, text string) {
	s.mu.Lock()
	s.state = StateProcessing
	s.history = append(s.history, Message{Text: text, Speaker: SpeakerUser})
	handler := s.handler
	s.mu.Unlock()

	var response string
	if handler != nil {
		response = handler.HandleAnswer(ctx, text)
	} else {
		normalized := Normalize(text)
		if s.corrector != nil {
			normalized = s.corrector.Correct(normalized)
		}
		intent := Match(normalized)
		s.act(intent)
		response = Response(intent)
	}

	s.mu.Lock()
	if response != "" {
		s.history = append(s.history, Message{Text: response, Speaker: SpeakerBot})
	}
	s.state = StateIdle
	s.mu.Unlock()

	if response != "" && handler == nil {
		s.speak(ctx, response)
	}
}

// act executes the single side-effecting action for intent.
func (s *Session) act(intent Intent) {
	switch intent {
	case Unknown:
		// No side effect for unrecognized utterances.
	case NavigateBack:
		s.navigator.NavigateBack()
	default:
		s.navigator.NavigateTo(route(intent))
	}
}

func (s *Session) speak(ctx context.Context, text string) {
	if err := s.synthesizer.Speak(ctx, text); err != nil {
		slog.Warn("assistant: speech synthesis failed", "err", err)
	}
}
