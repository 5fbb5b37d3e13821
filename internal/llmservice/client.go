package llmservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/patelhet04/EssayBot-API/internal/config"
)

// Options are the sampling parameters sent with one generation call.
type Options struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// Client talks to an Ollama-compatible completion endpoint. One client
// is shared across a whole grading run; the underlying http.Client
// bounds every call with the configured timeout.
type Client struct {
	httpClient *http.Client
	url        string
	model      string
	opts       Options
}

type generateRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	MaxTokens   int     `json:"max_tokens"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func New(cfg config.GenerateConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSecs) * time.Second},
		url:        cfg.URL,
		model:      cfg.Model,
		opts: Options{
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
			MaxTokens:   cfg.MaxTokens,
		},
	}
}

// WithModel returns a client bound to a different model that shares the
// HTTP client and sampling defaults.
func (c *Client) WithModel(model string) *Client {
	if model == "" {
		return c
	}
	clone := *c
	clone.model = model
	return &clone
}

func (c *Client) Model() string { return c.model }

// Generate completes the prompt with the client's default sampling
// parameters.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.GenerateWith(ctx, prompt, c.opts)
}

// GenerateWith completes the prompt with explicit sampling parameters.
// Any transport problem, including a non-2xx status, is returned as an
// error; the raw completion text is never inspected here.
func (c *Client) GenerateWith(ctx context.Context, prompt string, opts Options) (string, error) {
	payload := generateRequest{
		Model:       c.model,
		Prompt:      prompt,
		Stream:      false,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		MaxTokens:   opts.MaxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Debug().Str("model", c.model).Int("prompt_chars", len(prompt)).Msg("Calling generation service")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call generation service: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("generation service returned %d: %s",
			resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %v", err)
	}
	return out.Response, nil
}
