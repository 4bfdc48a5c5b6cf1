// Package whisper provides a speech.Transcriber backed by a local
// whisper.cpp HTTP server.
//
// It submits complete WAV clips to the server's POST /inference endpoint as
// multipart/form-data and returns the transcribed text. This is the
// upload-path recognizer: forum voice posts and recorded notes arrive as
// finished clips, so no streaming or silence segmentation is needed here.
//
// Usage:
//
//	c, err := whisper.New("http://localhost:8080", whisper.WithLanguage("en"))
//	t, err := c.Transcribe(ctx, wavBytes)
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/voicea-dev/voicea/pkg/speech"
)

const defaultLanguage = "en"

// Compile-time assertion that Client implements speech.Transcriber.
var _ speech.Transcriber = (*Client)(nil)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithModel sets the model identifier forwarded to the whisper.cpp server
// (e.g., "base.en", "small"). When empty the server uses whichever model it
// was started with — this is the default.
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithLanguage sets the language code sent to the whisper.cpp server
// (e.g., "en", "de", "fr"). Defaults to "en".
func WithLanguage(lang string) Option {
	return func(c *Client) {
		c.language = lang
	}
}

// WithHTTPClient overrides the HTTP client used for inference requests.
// The default client has a 30 second timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Client implements speech.Transcriber against a whisper.cpp HTTP server.
// It is safe for concurrent use; each Transcribe call is an independent
// request.
type Client struct {
	serverURL  string
	model      string
	language   string
	httpClient *http.Client
}

// New creates a Client that connects to the whisper.cpp HTTP server at
// serverURL (e.g., "http://localhost:8080"). serverURL must be non-empty.
func New(serverURL string, opts ...Option) (*Client, error) {
	if serverURL == "" {
		return nil, errors.New("whisper: serverURL must not be empty")
	}
	c := &Client{
		serverURL:  strings.TrimRight(serverURL, "/"),
		language:   defaultLanguage,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Transcribe POSTs wav to the /inference endpoint and returns the recognized
// text. An empty recognition result is returned as an empty Transcript, not
// an error; callers reject empty transcripts at their own boundary.
func (c *Client) Transcribe(ctx context.Context, wav []byte) (speech.Transcript, error) {
	if len(wav) == 0 {
		return speech.Transcript{}, errors.New("whisper: empty audio payload")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return speech.Transcript{}, fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := fw.Write(wav); err != nil {
		return speech.Transcript{}, fmt.Errorf("whisper: write audio: %w", err)
	}
	if c.language != "" {
		if err := mw.WriteField("language", c.language); err != nil {
			return speech.Transcript{}, fmt.Errorf("whisper: write language field: %w", err)
		}
	}
	if c.model != "" {
		if err := mw.WriteField("model", c.model); err != nil {
			return speech.Transcript{}, fmt.Errorf("whisper: write model field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return speech.Transcript{}, fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	endpoint := c.serverURL + "/inference"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return speech.Transcript{}, fmt.Errorf("whisper: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return speech.Transcript{}, fmt.Errorf("whisper: inference request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return speech.Transcript{}, fmt.Errorf("whisper: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return speech.Transcript{}, fmt.Errorf("whisper: server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return speech.Transcript{}, fmt.Errorf("whisper: decode response: %w", err)
	}

	return speech.Transcript{
		Text:      strings.TrimSpace(result.Text),
		Timestamp: time.Now(),
	}, nil
}
