package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies environment variable
// overrides for secrets, and validates the result. Useful in tests where
// configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyEnv(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays secret values from the environment. Environment
// variables take precedence over the config file so that credentials never
// need to be written to disk.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("TWILIO_ACCOUNT_SID"); v != "" {
		cfg.SMS.AccountSID = v
	}
	if v := os.Getenv("TWILIO_AUTH_TOKEN"); v != "" {
		cfg.SMS.AuthToken = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Chat.APIKey = v
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Storage
	if cfg.Storage.Backend != "" && !cfg.Storage.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("storage.backend %q is invalid; valid values: memory, file, postgres", cfg.Storage.Backend))
	}
	if cfg.Storage.Backend == StorageFile && cfg.Storage.Dir == "" {
		errs = append(errs, errors.New("storage.dir is required when storage.backend is file"))
	}
	if cfg.Storage.Backend == StoragePostgres && cfg.Storage.PostgresDSN == "" {
		errs = append(errs, errors.New("storage.postgres_dsn is required when storage.backend is postgres"))
	}
	if cfg.Storage.Backend == StorageMemory {
		slog.Warn("storage.backend is memory; notes and reminders will not survive a restart")
	}

	// SMS — partial credentials are an error, fully absent just disables the relay.
	smsFields := []string{cfg.SMS.AccountSID, cfg.SMS.AuthToken, cfg.SMS.From, cfg.SMS.To}
	var smsSet int
	for _, f := range smsFields {
		if f != "" {
			smsSet++
		}
	}
	if smsSet > 0 && smsSet < len(smsFields) {
		errs = append(errs, errors.New("sms: account_sid, auth_token, from, and to must all be set together"))
	}
	if smsSet == 0 {
		slog.Warn("sms is not configured; the emergency SMS relay will be disabled")
	}

	// Chat
	if cfg.Chat.APIKey == "" {
		slog.Warn("chat.api_key is not set; the chat relay will be disabled")
	}

	// Quiz
	if cfg.Quiz.NarrationDelaySeconds < 0 {
		errs = append(errs, fmt.Errorf("quiz.narration_delay_seconds %d must not be negative", cfg.Quiz.NarrationDelaySeconds))
	}
	if cfg.Quiz.FeedbackDelaySeconds < 0 {
		errs = append(errs, fmt.Errorf("quiz.feedback_delay_seconds %d must not be negative", cfg.Quiz.FeedbackDelaySeconds))
	}

	return errors.Join(errs...)
}
