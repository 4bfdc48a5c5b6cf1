// Package api exposes the Voicea HTTP surface: REST endpoints for notes,
// reminders, video-lecture metadata, and transcription, the SMS and chat
// relays, a websocket dialogue gateway, and the health and metrics endpoints.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voicea-dev/voicea/internal/assistant"
	"github.com/voicea-dev/voicea/internal/chat"
	"github.com/voicea-dev/voicea/internal/health"
	"github.com/voicea-dev/voicea/internal/media"
	"github.com/voicea-dev/voicea/internal/notes"
	"github.com/voicea-dev/voicea/internal/observe"
	"github.com/voicea-dev/voicea/internal/quiz"
	"github.com/voicea-dev/voicea/internal/reminder"
	"github.com/voicea-dev/voicea/internal/sms"
	"github.com/voicea-dev/voicea/pkg/speech"
)

// maxUploadBytes caps transcription uploads. Whisper-ready WAV clips of a
// spoken command are well under this.
const maxUploadBytes = 32 << 20

// Options wires the server to its collaborators. Notes, Reminders, Videos,
// and Metrics are required. SMS, Chat, and Transcriber may be nil, which
// disables the corresponding endpoint with a 503.
type Options struct {
	Notes     *notes.Manager
	Reminders *reminder.Controller
	Videos    *media.Library
	Metrics   *observe.Metrics
	Health    *health.Handler

	SMS       sms.Sender
	AlertBody string

	Chat chat.Completer

	Transcriber speech.Transcriber

	// Corrector adjusts utterances before intent matching in websocket
	// sessions. Optional.
	Corrector assistant.Corrector

	// QuizOptions tune the per-session quiz controllers.
	QuizOptions []quiz.Option
}

// Server is the Voicea HTTP server.
type Server struct {
	opts   Options
	router chi.Router
}

// NewServer builds the route table. The returned server is ready to serve.
func NewServer(opts Options) *Server {
	s := &Server{opts: opts}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(observe.Middleware(opts.Metrics))

	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	})

	if opts.Health != nil {
		opts.Health.Register(r)
	}
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/data", s.handleSendAlert)
	r.Post("/chat", s.handleChat)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/notes", s.handleListNotes)
		r.Post("/notes", s.handleAddNote)
		r.Delete("/notes/{index}", s.handleDeleteNote)
		r.Post("/notes/{index}/play", s.handlePlayNote)

		r.Get("/reminders", s.handleListReminders)
		r.Post("/reminders", s.handleAddReminder)
		r.Delete("/reminders/{index}", s.handleDeleteReminder)

		r.Get("/videos", s.handleListVideos)
		r.Post("/videos", s.handleAddVideo)
		r.Delete("/videos/{index}", s.handleDeleteVideo)

		r.Post("/transcribe", s.handleTranscribe)
	})

	r.Get("/ws", s.handleWS)

	s.router = r
	return s
}

// Handler returns the server's root handler for mounting on an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.Notes.List())
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	n, err := s.opts.Notes.Add(r.Context(), req.Text)
	if err != nil {
		writeDomainError(w, err, notes.ErrInvalidInput)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	if err := s.opts.Notes.Delete(r.Context(), index); err != nil {
		writeDomainError(w, err, notes.ErrInvalidInput)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handlePlayNote(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	start := time.Now()
	if err := s.opts.Notes.Play(r.Context(), index); err != nil {
		writeDomainError(w, err, notes.ErrInvalidInput)
		return
	}
	s.opts.Metrics.TTSDuration.Record(r.Context(), time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, map[string]string{"status": "playing"})
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.Reminders.List())
}

func (s *Server) handleAddReminder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text   string `json:"text"`
		FireAt string `json:"fire_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	rem, err := s.opts.Reminders.Add(r.Context(), req.Text, req.FireAt)
	if err != nil {
		writeDomainError(w, err, reminder.ErrInvalidInput)
		return
	}
	writeJSON(w, http.StatusCreated, rem)
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	if err := s.opts.Reminders.Delete(r.Context(), index); err != nil {
		writeDomainError(w, err, reminder.ErrInvalidInput)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.Videos.List())
}

func (s *Server) handleAddVideo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	v, err := s.opts.Videos.Add(r.Context(), req.Name, req.URL)
	if err != nil {
		writeDomainError(w, err, media.ErrInvalidInput)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	if err := s.opts.Videos.Delete(r.Context(), index); err != nil {
		writeDomainError(w, err, media.ErrInvalidInput)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if s.opts.Transcriber == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "transcription is not configured"})
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "expected multipart form with a file field"})
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file field is required"})
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "could not read upload"})
		return
	}

	start := time.Now()
	transcript, err := s.opts.Transcriber.Transcribe(r.Context(), audio)
	if err != nil {
		s.opts.Metrics.RecognitionErrors.Add(r.Context(), 1)
		observe.Logger(r.Context()).Error("transcription failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "transcription failed"})
		return
	}
	s.opts.Metrics.STTDuration.Record(r.Context(), time.Since(start).Seconds())

	writeJSON(w, http.StatusOK, map[string]string{"text": transcript.Text})
}

// indexParam parses the {index} URL parameter, writing a 400 on failure.
func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "index must be an integer"})
		return 0, false
	}
	return index, true
}

// writeDomainError maps a controller error to 400 when it matches the given
// invalid-input sentinel, 500 otherwise.
func writeDomainError(w http.ResponseWriter, err, invalid error) {
	if errors.Is(err, invalid) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
