// Package quiz implements the audio quiz controller: a small state machine
// that narrates questions, judges spoken or typed answers, and announces the
// final score.
//
// Pacing timers (the pause between a question and its options, and between
// answer feedback and the next question) are owned by the controller and
// cancelled on Stop, so a stopped quiz never speaks a stale narration.
package quiz

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/voicea-dev/voicea/pkg/speech"
)

// Pacing defaults, long enough for the preceding utterance to finish.
const (
	defaultNarrationDelay = 2 * time.Second
	defaultFeedbackDelay  = 3 * time.Second
)

// State is the quiz controller state.
type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateFinished   State = "finished"
)

// Question is one quiz entry. Questions are read-only at runtime.
type Question struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Answer  string   `json:"answer"`
}

// DefaultQuestions returns the built-in three-question quiz.
func DefaultQuestions() []Question {
	return []Question{
		{
			Prompt:  "What is the capital of France?",
			Options: []string{"Paris", "London", "Berlin", "Madrid"},
			Answer:  "Paris",
		},
		{
			Prompt:  "Which planet is known as the Red Planet?",
			Options: []string{"Earth", "Mars", "Jupiter", "Saturn"},
			Answer:  "Mars",
		},
		{
			Prompt:  "What is the largest mammal in the world?",
			Options: []string{"Elephant", "Blue Whale", "Giraffe", "Shark"},
			Answer:  "Blue Whale",
		},
	}
}

// Option is a functional option for configuring a [Controller].
type Option func(*Controller)

// WithQuestions replaces the default question set.
func WithQuestions(qs []Question) Option {
	return func(c *Controller) {
		c.questions = qs
	}
}

// WithNarrationDelay overrides the pause between a question and its options.
// Mainly useful in tests.
func WithNarrationDelay(d time.Duration) Option {
	return func(c *Controller) {
		c.narrationDelay = d
	}
}

// WithFeedbackDelay overrides the pause between answer feedback and the next
// question. Mainly useful in tests.
func WithFeedbackDelay(d time.Duration) Option {
	return func(c *Controller) {
		c.feedbackDelay = d
	}
}

// Controller drives one audio quiz. Each instance owns its state exclusively;
// there is no cross-session sharing. All exported methods are safe for
// concurrent use.
//
// Pacing timers exist for narration only, never as an input gate: an answer
// submitted while the options narration is still pending is judged normally.
type Controller struct {
	synth          speech.Synthesizer
	questions      []Question
	narrationDelay time.Duration
	feedbackDelay  time.Duration

	mu    sync.Mutex
	state State
	index int
	score int
	// judged marks the current question as already answered: further
	// submissions are ignored until the feedback timer advances the quiz,
	// so a repeated answer cannot double-score or double-advance.
	judged bool
	timers []*time.Timer
	// generation invalidates pending timer callbacks from a previous run:
	// Stop and Start bump it, and a callback whose generation no longer
	// matches does nothing.
	generation int
}

// New creates a Controller in the NotStarted state.
func New(synth speech.Synthesizer, opts ...Option) *Controller {
	c := &Controller{
		synth:          synth,
		questions:      DefaultQuestions(),
		narrationDelay: defaultNarrationDelay,
		feedbackDelay:  defaultFeedbackDelay,
		state:          StateNotStarted,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns the current controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Score returns the current score and the total number of questions.
func (c *Controller) Score() (score, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.score, len(c.questions)
}

// Index returns the zero-based index of the current question.
func (c *Controller) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Start resets the quiz and narrates the first question, with its options
// following after the narration delay. Starting an already-running quiz
// restarts it from the beginning.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	c.cancelTimersLocked()
	c.generation++
	c.state = StateInProgress
	c.index = 0
	c.score = 0
	c.judged = false
	c.mu.Unlock()

	c.synth.CancelAll()
	c.narrateCurrent(ctx)
}

// Restart behaves identically to Start.
func (c *Controller) Restart(ctx context.Context) {
	c.Start(ctx)
}

// Stop forcibly finishes the quiz. The in-flight question is not scored,
// pending narration and feedback timers are cancelled, and in-flight speech
// is flushed.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.cancelTimersLocked()
	c.generation++
	c.state = StateFinished
	c.mu.Unlock()

	c.synth.CancelAll()
}

// Submit judges a candidate answer against the current question. The answer
// comparison is case-insensitive after trimming. Feedback is spoken and also
// returned so a dialogue session can record it in its history; an empty
// string is returned when the quiz is not in progress.
//
// After the feedback delay the quiz advances to the next question, or
// finishes and announces the final score when the answered question was the
// last one. A question is judged once: submissions arriving while the
// feedback delay is still pending are ignored.
func (c *Controller) Submit(ctx context.Context, answer string) string {
	c.mu.Lock()
	if c.state != StateInProgress || c.judged {
		c.mu.Unlock()
		return ""
	}
	q := c.questions[c.index]
	correct := strings.EqualFold(strings.TrimSpace(answer), q.Answer)
	if correct {
		c.score++
	}
	c.judged = true
	gen := c.generation
	c.mu.Unlock()

	var feedback string
	if correct {
		feedback = "Correct!"
	} else {
		feedback = fmt.Sprintf("Incorrect. The correct answer is %s.", q.Answer)
	}
	c.speak(ctx, feedback)

	c.schedule(c.feedbackDelay, gen, func() {
		c.advance(ctx)
	})
	return feedback
}

// HandleAnswer lets the controller act as a dialogue session's attached
// answer handler: utterances are judged as quiz answers and the feedback is
// recorded as the session's bot response.
func (c *Controller) HandleAnswer(ctx context.Context, answer string) string {
	return c.Submit(ctx, answer)
}

// advance moves to the next question or finishes the quiz.
func (c *Controller) advance(ctx context.Context) {
	c.mu.Lock()
	if c.state != StateInProgress {
		c.mu.Unlock()
		return
	}
	c.judged = false
	if c.index < len(c.questions)-1 {
		c.index++
		c.mu.Unlock()
		c.narrateCurrent(ctx)
		return
	}
	c.state = StateFinished
	score, total := c.score, len(c.questions)
	c.mu.Unlock()

	c.speak(ctx, fmt.Sprintf("Quiz finished. Your score is %d out of %d.", score, total))
}

// narrateCurrent speaks the current question and schedules its options.
func (c *Controller) narrateCurrent(ctx context.Context) {
	c.mu.Lock()
	if c.state != StateInProgress {
		c.mu.Unlock()
		return
	}
	idx := c.index
	q := c.questions[idx]
	gen := c.generation
	c.mu.Unlock()

	c.speak(ctx, fmt.Sprintf("Question %d: %s", idx+1, q.Prompt))

	c.schedule(c.narrationDelay, gen, func() {
		parts := make([]string, len(q.Options))
		for i, opt := range q.Options {
			parts[i] = fmt.Sprintf("%d. %s", i+1, opt)
		}
		c.speak(ctx, "Options are: "+strings.Join(parts, ", "))
	})
}

// schedule runs fn after d unless the controller's generation has moved on
// (Stop or Start happened in between).
func (c *Controller) schedule(d time.Duration, gen int, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		c.mu.Lock()
		stale := gen != c.generation
		c.removeTimerLocked(t)
		c.mu.Unlock()
		if stale {
			return
		}
		fn()
	})
	c.timers = append(c.timers, t)
}

// cancelTimersLocked stops all pending timers. Caller holds c.mu.
func (c *Controller) cancelTimersLocked() {
	for _, t := range c.timers {
		t.Stop()
	}
	c.timers = nil
}

// removeTimerLocked drops t from the pending list. Caller holds c.mu.
func (c *Controller) removeTimerLocked(target *time.Timer) {
	for i, t := range c.timers {
		if t == target {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return
		}
	}
}

func (c *Controller) speak(ctx context.Context, text string) {
	_ = c.synth.Speak(ctx, text)
}
