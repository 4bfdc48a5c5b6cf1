package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/voicea-dev/voicea/internal/assistant"
	"github.com/voicea-dev/voicea/internal/observe"
	"github.com/voicea-dev/voicea/internal/quiz"
	"github.com/voicea-dev/voicea/pkg/speech"
)

// Client event types accepted on the websocket.
const (
	eventUtterance = "utterance"
	eventStartQuiz = "start_quiz"
	eventStopQuiz  = "stop_quiz"
)

// Server event types emitted on the websocket.
const (
	eventMessage      = "message"
	eventSpeak        = "speak"
	eventCancelSpeech = "cancel_speech"
	eventNavigate     = "navigate"
	eventNavigateBack = "navigate_back"
)

// clientEvent is one inbound websocket frame.
type clientEvent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// serverEvent is one outbound websocket frame.
type serverEvent struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Speaker string `json:"speaker,omitempty"`
	Route   string `json:"route,omitempty"`
}

// sendBuffer bounds the outbound queue per connection. Events beyond it are
// dropped rather than blocking quiz timers on a slow client.
const sendBuffer = 32

// wsClient adapts one websocket connection into the session's Synthesizer
// and Navigator capabilities: speech and navigation become events the
// browser executes.
type wsClient struct {
	mu     sync.Mutex
	closed bool
	send   chan serverEvent
}

var (
	_ speech.Synthesizer  = (*wsClient)(nil)
	_ assistant.Navigator = (*wsClient)(nil)
)

func newWSClient() *wsClient {
	return &wsClient{send: make(chan serverEvent, sendBuffer)}
}

func (c *wsClient) Speak(_ context.Context, text string) error {
	c.enqueue(serverEvent{Type: eventSpeak, Text: text})
	return nil
}

func (c *wsClient) CancelAll() {
	c.enqueue(serverEvent{Type: eventCancelSpeech})
}

func (c *wsClient) NavigateTo(route string) {
	c.enqueue(serverEvent{Type: eventNavigate, Route: route})
}

func (c *wsClient) NavigateBack() {
	c.enqueue(serverEvent{Type: eventNavigateBack})
}

func (c *wsClient) enqueue(ev serverEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- ev:
	default:
	}
}

func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// noVoiceRecognizer backs websocket sessions, where the microphone lives in
// the browser and utterances arrive as text events.
type noVoiceRecognizer struct{}

func (noVoiceRecognizer) Start(context.Context, speech.Callbacks) (speech.Capture, error) {
	return nil, speech.ErrUnsupported
}

// handleWS upgrades the connection and runs one dialogue session over it.
// Each connection gets its own session and quiz controller; speech and
// navigation are relayed to the client as events.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		observe.Logger(r.Context()).Warn("websocket accept failed", "err", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	log := observe.Logger(ctx)

	client := newWSClient()

	sess := assistant.NewSession(assistant.SessionConfig{
		Recognizer:  noVoiceRecognizer{},
		Synthesizer: client,
		Navigator:   client,
		Corrector:   s.opts.Corrector,
	})
	defer sess.Close()

	qc := quiz.New(client, s.opts.QuizOptions...)
	defer qc.Stop()

	s.opts.Metrics.ActiveSessions.Add(ctx, 1)
	defer s.opts.Metrics.ActiveSessions.Add(ctx, -1)

	// Writer goroutine: the only place that writes frames.
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for ev := range client.send {
			if err := wsjson.Write(ctx, conn, ev); err != nil {
				return
			}
		}
	}()
	// The writer only exits once the send channel is closed, so the close and
	// the wait must run as one step. This defer runs before the ones above,
	// which then find the client already closed and drop their events.
	defer func() {
		client.close()
		<-writerDone
	}()

	var (
		sentLen      int
		quizAttached bool
	)
	flushHistory := func() {
		h := sess.History()
		for _, m := range h[sentLen:] {
			client.enqueue(serverEvent{Type: eventMessage, Text: m.Text, Speaker: string(m.Speaker)})
		}
		sentLen = len(h)
	}

	detachQuiz := func(outcome string) {
		sess.AttachAnswerHandler(nil)
		quizAttached = false
		s.opts.Metrics.RecordQuizSession(ctx, outcome)
	}

	// Push the greeting before the first client event.
	flushHistory()

	for {
		var ev clientEvent
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			log.Debug("websocket closed", "err", err)
			return
		}

		switch ev.Type {
		case eventUtterance:
			// The final answer leaves the controller in progress until its
			// feedback timer announces the score, so the finished state may
			// only become visible on the next utterance. Detach before
			// submitting, or this utterance would be fed to a finished quiz
			// and swallowed.
			if quizAttached && qc.State() == quiz.StateFinished {
				detachQuiz("finished")
			}

			if quizAttached {
				s.opts.Metrics.RecordUtterance(ctx, "quiz_answer")
			} else {
				utterance := assistant.Normalize(ev.Text)
				if s.opts.Corrector != nil {
					utterance = s.opts.Corrector.Correct(utterance)
				}
				s.opts.Metrics.RecordUtterance(ctx, string(assistant.Match(utterance)))
			}

			sess.SubmitText(ctx, ev.Text)
			flushHistory()

			if quizAttached && qc.State() == quiz.StateFinished {
				detachQuiz("finished")
			}

		case eventStartQuiz:
			qc.Restart(ctx)
			sess.AttachAnswerHandler(qc)
			quizAttached = true

		case eventStopQuiz:
			if quizAttached {
				qc.Stop()
				detachQuiz("stopped")
			}

		default:
			log.Debug("unknown websocket event", "type", ev.Type)
		}
	}
}
