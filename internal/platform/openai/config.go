package openai

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	apperr "github.com/yungbote/docqa-backend/internal/pkg/errors"
)

const (
	DefaultBaseURL     = "https://api.openai.com"
	DefaultEmbedModel  = "text-embedding-3-small"
	DefaultChatModel   = "openai/gpt-3.5-turbo"
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 1000
	DefaultTimeout     = 30 * time.Second
)

// Config describes one OpenAI-compatible endpoint. The embedding and
// generation providers are configured separately so they can point at
// different vendors (OpenRouter for chat, OpenAI or a local server for
// embeddings).
type Config struct {
	// Provider names the endpoint in logs and errors, e.g. "openrouter".
	Provider    string
	BaseURL     string
	APIKey      string
	Model       string
	Temperature *float64
	MaxTokens   int
	// Dimensions is sent with embedding requests when positive.
	Dimensions int
	Timeout    time.Duration
	// Referer and Title are sent as OpenRouter attribution headers when set.
	Referer string
	Title   string
}

func (c Config) validate() error {
	component := c.Provider
	if component == "" {
		component = "openai"
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return apperr.Misconfigured(component, "api_key", fmt.Errorf("missing API key"))
	}
	u, err := url.Parse(strings.TrimSpace(c.BaseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return apperr.Misconfigured(component, "base_url", fmt.Errorf("invalid base url %q", c.BaseURL))
	}
	if strings.TrimSpace(c.Model) == "" {
		return apperr.Misconfigured(component, "model", fmt.Errorf("model is required"))
	}
	return nil
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Provider) == "" {
		c.Provider = "openai"
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}
