package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://generativelanguage.googleapis.com"
	defaultModel       = "gemini-2.5-flash"
	defaultHTTPTimeout = 60 * time.Second
)

// ErrMalformedResponse marks responses the client received but could not
// interpret: undecodable bodies, API-level error payloads, empty candidates.
// Callers distinguish it from transport failures when classifying attempts.
var ErrMalformedResponse = errors.New("malformed response")

// Config captures the runtime settings required to talk to the Gemini API.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Client wraps the Gemini generateContent API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a Gemini API client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.Model == "" {
		client.cfg.Model = defaultModel
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: timeout}
	}
	return client
}

// Model returns the configured model name for logging.
func (c *Client) Model() string {
	return c.cfg.Model
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GenerateText issues a single text-generation request and returns the
// concatenated candidate text. There is no client-side retry loop: the
// caller owns fallback semantics and issues exactly one request per call.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("gemini generate: prompt required")
	}
	if c.cfg.APIKey == "" {
		return "", errors.New("gemini generate: api key required")
	}

	endpoint, err := url.JoinPath(c.cfg.BaseURL, "v1beta", "models", c.cfg.Model+":generateContent")
	if err != nil {
		return "", fmt.Errorf("gemini generate: build url: %w", err)
	}
	payload := generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{Temperature: 0},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("gemini generate: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("gemini generate: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini generate: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini generate: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("gemini generate: http %d: %s", resp.StatusCode, summarize(body))
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("gemini generate: decode response: %w: %w", ErrMalformedResponse, err)
	}
	if decoded.Error != nil {
		return "", fmt.Errorf("gemini generate: api error %d (%s): %w", decoded.Error.Code, strings.TrimSpace(decoded.Error.Message), ErrMalformedResponse)
	}
	if len(decoded.Candidates) == 0 {
		return "", fmt.Errorf("gemini generate: empty candidates: %w", ErrMalformedResponse)
	}

	var out strings.Builder
	for _, p := range decoded.Candidates[0].Content.Parts {
		out.WriteString(p.Text)
	}
	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", fmt.Errorf("gemini generate: empty content (finish_reason=%q): %w",
			decoded.Candidates[0].FinishReason, ErrMalformedResponse)
	}
	return text, nil
}

func summarize(body []byte) string {
	clean := strings.Join(strings.Fields(string(body)), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
