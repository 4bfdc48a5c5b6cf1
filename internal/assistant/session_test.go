package assistant

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/voicea-dev/voicea/pkg/speech"
	speechmock "github.com/voicea-dev/voicea/pkg/speech/mock"
)

// fakeNavigator records navigation calls.
type fakeNavigator struct {
	mu    sync.Mutex
	to    []string
	backs int
}

func (n *fakeNavigator) NavigateTo(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.to = append(n.to, route)
}

func (n *fakeNavigator) NavigateBack() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.backs++
}

func newTestSession() (*Session, *speechmock.Recognizer, *speechmock.Synthesizer, *fakeNavigator) {
	rec := &speechmock.Recognizer{}
	syn := &speechmock.Synthesizer{}
	nav := &fakeNavigator{}
	s := NewSession(SessionConfig{Recognizer: rec, Synthesizer: syn, Navigator: nav})
	return s, rec, syn, nav
}

func TestSession_Greeting(t *testing.T) {
	t.Parallel()

	s, _, _, _ := newTestSession()
	h := s.History()
	if len(h) != 1 || h[0].Text != Greeting || h[0].Speaker != SpeakerBot {
		t.Fatalf("new session history = %v, want single greeting bot message", h)
	}
	if s.State() != StateIdle {
		t.Errorf("new session state = %v, want idle", s.State())
	}
}

func TestSession_VoiceCommandNavigates(t *testing.T) {
	t.Parallel()

	s, rec, syn, nav := newTestSession()
	ctx := context.Background()

	if err := s.StartListening(ctx); err != nil {
		t.Fatalf("StartListening: %v", err)
	}
	rec.EmitResult(speech.Transcript{Text: "Go To HOME"})

	if got := nav.to; len(got) != 1 || got[0] != "home" {
		t.Errorf("NavigateTo calls = %v, want [home]", got)
	}
	if spoken := syn.Spoken(); len(spoken) != 1 || spoken[0] != "Navigating to the home page." {
		t.Errorf("spoken = %v", spoken)
	}

	h := s.History()
	if len(h) != 3 {
		t.Fatalf("history length = %d, want 3 (greeting, user, bot)", len(h))
	}
	if h[1].Speaker != SpeakerUser || h[1].Text != "Go To HOME" {
		t.Errorf("user message = %+v", h[1])
	}
	if h[2].Speaker != SpeakerBot {
		t.Errorf("bot message = %+v", h[2])
	}
	if s.State() != StateIdle {
		t.Errorf("state after turn = %v, want idle", s.State())
	}
}

func TestSession_UnknownUtteranceNoSideEffect(t *testing.T) {
	t.Parallel()

	s, _, syn, nav := newTestSession()
	s.SubmitText(context.Background(), "what time is it")

	if len(nav.to) != 0 || nav.backs != 0 {
		t.Errorf("unexpected navigation: to=%v backs=%d", nav.to, nav.backs)
	}
	if spoken := syn.Spoken(); len(spoken) != 1 || spoken[0] != FallbackResponse {
		t.Errorf("spoken = %v, want fallback", spoken)
	}
}

func TestSession_BackNavigation(t *testing.T) {
	t.Parallel()

	s, _, _, nav := newTestSession()
	s.SubmitText(context.Background(), "go back")

	if nav.backs != 1 {
		t.Errorf("NavigateBack calls = %d, want 1", nav.backs)
	}
	if len(nav.to) != 0 {
		t.Errorf("unexpected NavigateTo calls: %v", nav.to)
	}
}

func TestSession_ListeningExclusivity(t *testing.T) {
	t.Parallel()

	s, rec, _, _ := newTestSession()
	ctx := context.Background()

	if err := s.StartListening(ctx); err != nil {
		t.Fatalf("first StartListening: %v", err)
	}
	if err := s.StartListening(ctx); err != nil {
		t.Fatalf("second StartListening: %v", err)
	}

	if got := rec.StartCallCount(); got != 1 {
		t.Errorf("recognizer Start calls = %d, want 1 (second start is a no-op)", got)
	}
	if s.State() != StateListening {
		t.Errorf("state = %v, want listening", s.State())
	}
}

func TestSession_StopListeningNoopWhenIdle(t *testing.T) {
	t.Parallel()

	s, _, _, _ := newTestSession()
	s.StopListening()
	if s.State() != StateIdle {
		t.Errorf("state = %v, want idle", s.State())
	}
}

func TestSession_UnsupportedRecognizer(t *testing.T) {
	t.Parallel()

	rec := &speechmock.Recognizer{StartErr: speech.ErrUnsupported}
	syn := &speechmock.Synthesizer{}
	s := NewSession(SessionConfig{Recognizer: rec, Synthesizer: syn, Navigator: &fakeNavigator{}})

	if err := s.StartListening(context.Background()); !errors.Is(err, speech.ErrUnsupported) {
		t.Fatalf("StartListening = %v, want ErrUnsupported", err)
	}
	// Reported once; later attempts short-circuit without touching the recognizer.
	if err := s.StartListening(context.Background()); !errors.Is(err, speech.ErrUnsupported) {
		t.Fatalf("second StartListening = %v, want ErrUnsupported", err)
	}
	if got := rec.StartCallCount(); got != 1 {
		t.Errorf("recognizer Start calls = %d, want 1", got)
	}

	// Text input stays available.
	s.SubmitText(context.Background(), "go to about")
	if s.State() != StateIdle {
		t.Errorf("state = %v, want idle", s.State())
	}
}

func TestSession_RecognitionErrorApology(t *testing.T) {
	t.Parallel()

	s, rec, syn, _ := newTestSession()
	ctx := context.Background()

	if err := s.StartListening(ctx); err != nil {
		t.Fatalf("StartListening: %v", err)
	}
	rec.EmitError(errors.New("no-speech"))

	if s.State() != StateIdle {
		t.Errorf("state after error = %v, want idle (no auto-retry)", s.State())
	}
	if spoken := syn.Spoken(); len(spoken) != 1 || spoken[0] != ApologyResponse {
		t.Errorf("spoken = %v, want the apology", spoken)
	}
	h := s.History()
	if h[len(h)-1].Text != ApologyResponse {
		t.Errorf("last history entry = %+v, want apology", h[len(h)-1])
	}
}

func TestSession_SubmitTextBypassesListening(t *testing.T) {
	t.Parallel()

	s, rec, _, nav := newTestSession()
	s.SubmitText(context.Background(), "go to contact")

	if rec.StartCallCount() != 0 {
		t.Error("SubmitText must not open a recognition capture")
	}
	if len(nav.to) != 1 || nav.to[0] != "contact" {
		t.Errorf("NavigateTo calls = %v, want [contact]", nav.to)
	}
}

func TestSession_SubmitTextEmptyIgnored(t *testing.T) {
	t.Parallel()

	s, _, syn, _ := newTestSession()
	s.SubmitText(context.Background(), "   ")
	if len(syn.Spoken()) != 0 {
		t.Error("empty input must not produce a response")
	}
	if len(s.History()) != 1 {
		t.Error("empty input must not be appended to history")
	}
}

// echoHandler records the answers it receives and returns a fixed response.
type echoHandler struct {
	mu      sync.Mutex
	answers []string
}

func (h *echoHandler) HandleAnswer(_ context.Context, answer string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.answers = append(h.answers, answer)
	return "noted"
}

func TestSession_AnswerHandlerTakesPrecedence(t *testing.T) {
	t.Parallel()

	s, _, syn, nav := newTestSession()
	h := &echoHandler{}
	s.AttachAnswerHandler(h)

	s.SubmitText(context.Background(), "go to home")

	if len(nav.to) != 0 {
		t.Errorf("handler attached but navigation fired: %v", nav.to)
	}
	if len(h.answers) != 1 || h.answers[0] != "go to home" {
		t.Errorf("handler answers = %v", h.answers)
	}
	// Speaking is owned by the handler, not the session.
	if len(syn.Spoken()) != 0 {
		t.Errorf("session spoke %v while a handler was attached", syn.Spoken())
	}
	hist := s.History()
	if hist[len(hist)-1].Text != "noted" {
		t.Errorf("handler response not recorded: %+v", hist[len(hist)-1])
	}

	// Detach restores command matching.
	s.AttachAnswerHandler(nil)
	s.SubmitText(context.Background(), "go to home")
	if len(nav.to) != 1 {
		t.Errorf("after detach, NavigateTo calls = %v, want 1", nav.to)
	}
}

func TestSession_CloseClearsHistoryAndCancelsSpeech(t *testing.T) {
	t.Parallel()

	s, _, syn, _ := newTestSession()
	s.SubmitText(context.Background(), "go to home")
	s.Close()

	if len(s.History()) != 0 {
		t.Error("Close must clear history")
	}
	if syn.Cancellations() != 1 {
		t.Errorf("CancelAll calls = %d, want 1", syn.Cancellations())
	}
}
