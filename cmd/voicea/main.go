// Command voicea is the main entry point for the Voicea dialogue server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/voicea-dev/voicea/internal/api"
	"github.com/voicea-dev/voicea/internal/assistant"
	"github.com/voicea-dev/voicea/internal/chat"
	"github.com/voicea-dev/voicea/internal/config"
	"github.com/voicea-dev/voicea/internal/health"
	"github.com/voicea-dev/voicea/internal/media"
	"github.com/voicea-dev/voicea/internal/notes"
	"github.com/voicea-dev/voicea/internal/observe"
	"github.com/voicea-dev/voicea/internal/quiz"
	"github.com/voicea-dev/voicea/internal/reminder"
	"github.com/voicea-dev/voicea/internal/sms"
	"github.com/voicea-dev/voicea/internal/store"
	"github.com/voicea-dev/voicea/internal/transcript"
	"github.com/voicea-dev/voicea/pkg/speech"
	"github.com/voicea-dev/voicea/pkg/speech/espeak"
	"github.com/voicea-dev/voicea/pkg/speech/whisper"
)

// shutdownTimeout bounds graceful HTTP shutdown and telemetry flushing.
const shutdownTimeout = 15 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// Secrets may live in a .env file during development; a missing file is
	// fine.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "voicea: load .env: %v\n", err)
	}

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "voicea: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "voicea: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("voicea starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	telemetryShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "voicea",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := telemetryShutdown(sctx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Storage ───────────────────────────────────────────────────────────────
	st, closeStore, err := buildStore(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to initialise storage", "err", err)
		return 1
	}
	defer closeStore()

	// ── Speech backends ───────────────────────────────────────────────────────
	synth := buildSynthesizer(cfg.Speech.Espeak)
	transcriber, err := buildTranscriber(cfg.Speech.Whisper)
	if err != nil {
		slog.Error("failed to initialise transcriber", "err", err)
		return 1
	}

	// ── Domain controllers ────────────────────────────────────────────────────
	noteManager, err := notes.New(ctx, st, synth)
	if err != nil {
		slog.Error("failed to load notes", "err", err)
		return 1
	}
	reminders, err := reminder.New(ctx, st, synth, reminder.WithFireObserver(func(n int) {
		metrics.RemindersFired.Add(ctx, int64(n))
	}))
	if err != nil {
		slog.Error("failed to load reminders", "err", err)
		return 1
	}
	videoLibrary, err := media.New(ctx, st)
	if err != nil {
		slog.Error("failed to load video metadata", "err", err)
		return 1
	}

	// ── Relays ────────────────────────────────────────────────────────────────
	var smsSender sms.Sender
	if cfg.SMS.AccountSID != "" {
		smsSender, err = sms.NewTwilioSender(sms.Config{
			AccountSID: cfg.SMS.AccountSID,
			AuthToken:  cfg.SMS.AuthToken,
			From:       cfg.SMS.From,
			To:         cfg.SMS.To,
		})
		if err != nil {
			slog.Error("failed to initialise SMS relay", "err", err)
			return 1
		}
		slog.Info("SMS relay enabled", "to", cfg.SMS.To)
	}

	var completer chat.Completer
	if cfg.Chat.APIKey != "" {
		completer, err = chat.NewOpenAICompleter(chat.Config{
			APIKey:  cfg.Chat.APIKey,
			Model:   cfg.Chat.Model,
			BaseURL: cfg.Chat.BaseURL,
		})
		if err != nil {
			slog.Error("failed to initialise chat relay", "err", err)
			return 1
		}
		slog.Info("chat relay enabled", "model", cfg.Chat.Model)
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	server := api.NewServer(api.Options{
		Notes:       noteManager,
		Reminders:   reminders,
		Videos:      videoLibrary,
		Metrics:     metrics,
		Health:      health.New(health.StoreChecker(st)),
		SMS:         smsSender,
		AlertBody:   alertBody(cfg.SMS),
		Chat:        completer,
		Transcriber: transcriber,
		Corrector:   transcript.New(correctionRoutes(cfg.Assistant)),
		QuizOptions: quizOptions(cfg.Quiz),
	})

	addr := cfg.Server.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	printStartupSummary(cfg, addr)
	slog.Info("server ready — press Ctrl+C to shut down")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if cfg.Server.TLS != nil {
			err = httpSrv.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile)
		} else {
			err = httpSrv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		reminders.Run(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, stopping…")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	synth.CancelAll()
	slog.Info("goodbye")
	return 0
}

// ── Wiring helpers ────────────────────────────────────────────────────────────

// buildStore creates the configured persistence backend. The returned close
// function releases any underlying connections.
func buildStore(ctx context.Context, cfg config.StorageConfig) (store.Store, func(), error) {
	switch cfg.Backend {
	case config.StoragePostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		pg := store.NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		slog.Info("storage ready", "backend", "postgres")
		return pg, pool.Close, nil

	case config.StorageFile:
		fs, err := store.NewFileStore(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("storage ready", "backend", "file", "dir", cfg.Dir)
		return fs, func() {}, nil

	default:
		slog.Info("storage ready", "backend", "memory")
		return &store.MemStore{}, func() {}, nil
	}
}

// buildSynthesizer configures the espeak-ng subprocess synthesizer.
func buildSynthesizer(cfg config.EspeakConfig) speech.Synthesizer {
	var opts []espeak.Option
	if cfg.Binary != "" {
		opts = append(opts, espeak.WithBinary(cfg.Binary))
	}
	if cfg.Voice != "" {
		opts = append(opts, espeak.WithVoice(cfg.Voice))
	}
	if cfg.Rate > 0 {
		opts = append(opts, espeak.WithRate(cfg.Rate))
	}
	return espeak.New(opts...)
}

// buildTranscriber points at the whisper.cpp server when one is configured.
// Returns nil when server-side transcription is disabled.
func buildTranscriber(cfg config.WhisperConfig) (speech.Transcriber, error) {
	if cfg.ServerURL == "" {
		slog.Warn("speech.whisper.server_url is empty; /api/v1/transcribe will be disabled")
		return nil, nil
	}
	var opts []whisper.Option
	if cfg.Model != "" {
		opts = append(opts, whisper.WithModel(cfg.Model))
	}
	if cfg.Language != "" {
		opts = append(opts, whisper.WithLanguage(cfg.Language))
	}
	return whisper.New(cfg.ServerURL, opts...)
}

// defaultAlertBody is sent when the config does not override the message.
const defaultAlertBody = "Emergency! I need help. This is an automated alert from Voicea."

func alertBody(cfg config.SMSConfig) string {
	if cfg.AlertBody != "" {
		return cfg.AlertBody
	}
	return defaultAlertBody
}

func correctionRoutes(cfg config.AssistantConfig) []string {
	if len(cfg.Routes) > 0 {
		return cfg.Routes
	}
	return assistant.Routes()
}

func quizOptions(cfg config.QuizConfig) []quiz.Option {
	var opts []quiz.Option
	if cfg.NarrationDelaySeconds > 0 {
		opts = append(opts, quiz.WithNarrationDelay(time.Duration(cfg.NarrationDelaySeconds)*time.Second))
	}
	if cfg.FeedbackDelaySeconds > 0 {
		opts = append(opts, quiz.WithFeedbackDelay(time.Duration(cfg.FeedbackDelaySeconds)*time.Second))
	}
	return opts
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, addr string) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║         Voicea — startup summary      ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printEntry("Listen addr", addr)
	printEntry("Storage", string(storageBackend(cfg.Storage)))
	printEntry("Whisper STT", orDisabled(cfg.Speech.Whisper.ServerURL))
	printEntry("Espeak voice", orDisabled(cfg.Speech.Espeak.Voice))
	printEntry("SMS relay", enabledWhen(cfg.SMS.AccountSID != ""))
	printEntry("Chat relay", enabledWhen(cfg.Chat.APIKey != ""))
	fmt.Println("╚═══════════════════════════════════════╝")
}

func storageBackend(cfg config.StorageConfig) config.StorageBackend {
	if cfg.Backend == "" {
		return config.StorageMemory
	}
	return cfg.Backend
}

func orDisabled(v string) string {
	if v == "" {
		return "(disabled)"
	}
	return v
}

func enabledWhen(on bool) string {
	if on {
		return "enabled"
	}
	return "(disabled)"
}

func printEntry(name, value string) {
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-14s  : %-19s ║\n", name, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
