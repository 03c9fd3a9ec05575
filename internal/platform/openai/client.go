package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yungbote/docqa-backend/internal/platform/ctxutil"
	"github.com/yungbote/docqa-backend/internal/platform/logger"
)

// Embedder turns texts into fixed-size vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// Generator produces a single answer for a system and user prompt.
type Generator interface {
	GenerateText(ctx context.Context, system, user string) (string, error)
	Generate(ctx context.Context, system, user string) (Completion, error)
}

type Client interface {
	Embedder
	Generator
	Provider() string
	Model() string
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

// NewClient builds a client for one endpoint. Every call is a single round
// trip; retry policy belongs to the caller.
func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	return newClient(log, cfg, nil)
}

func newClient(log *logger.Logger, cfg Config, httpClient *http.Client) (*client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &client{
		log:        log.With("service", "OpenAIClient", "provider", cfg.Provider),
		cfg:        cfg,
		httpClient: httpClient,
	}, nil
}

func (c *client) Provider() string { return c.cfg.Provider }
func (c *client) Model() string    { return c.cfg.Model }

func (c *client) doOnce(ctx context.Context, method, path string, body any) ([]byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, c.cfg.BaseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}

	c.log.Debug("Provider request finished",
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: truncate(raw)}
	}
	return raw, nil
}

func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	raw, err := c.doOnce(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("openai decode error: %w; raw=%s", err, truncate(raw))
	}
	return nil
}
