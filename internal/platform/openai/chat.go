package openai

import (
	"context"
	"fmt"
	"strings"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Completion is one generated answer with the provider's token accounting.
type Completion struct {
	Text             string
	Model            string
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

func (c *client) GenerateText(ctx context.Context, system, user string) (string, error) {
	out, err := c.Generate(ctx, system, user)
	if err != nil {
		return "", err
	}
	return out.Text, nil
}

func (c *client) Generate(ctx context.Context, system, user string) (Completion, error) {
	req := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}

	var resp chatResponse
	if err := c.do(ctx, "POST", "/v1/chat/completions", req, &resp); err != nil {
		return Completion{}, err
	}
	if len(resp.Choices) == 0 {
		return Completion{}, fmt.Errorf("no choices in completion response")
	}
	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return Completion{}, fmt.Errorf("model refused: %s", choice.Message.Refusal)
	}
	text := strings.TrimSpace(choice.Message.Content)
	if text == "" {
		return Completion{}, fmt.Errorf("empty completion content")
	}
	model := resp.Model
	if model == "" {
		model = c.cfg.Model
	}
	return Completion{
		Text:             text,
		Model:            model,
		FinishReason:     choice.FinishReason,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}
