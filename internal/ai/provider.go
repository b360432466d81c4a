package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Completion is one raw answer from the language-model provider.
type Completion struct {
	Content    string
	Model      string
	TokensUsed int
	Cost       float64
}

// Provider abstracts the external language-model service so the AI layer can
// be exercised with a stub in tests.
type Provider interface {
	Complete(ctx context.Context, prompt string) (Completion, error)
	Name() string
}

// OpenAIProvider calls an OpenAI-compatible chat-completions endpoint.
type OpenAIProvider struct {
	APIKey   string
	Model    string
	Endpoint string
	Client   *http.Client
}

// cost per 1K tokens for the default model, used for cache bookkeeping
const costPer1KTokens = 0.00015

func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{
		APIKey:   apiKey,
		Model:    "gpt-4o-mini",
		Endpoint: "https://api.openai.com/v1/chat/completions",
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *OpenAIProvider) Name() string { return "gpt4" }

func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (Completion, error) {
	body := map[string]interface{}{
		"model": p.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"response_format": map[string]string{"type": "json_object"},
		"temperature":     0.2,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Completion{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return Completion{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return Completion{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Completion{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Completion{}, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, raw)
	}

	var parsed struct {
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			TotalTokens int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Completion{}, err
	}
	if len(parsed.Choices) == 0 {
		return Completion{}, fmt.Errorf("provider returned no choices")
	}

	return Completion{
		Content:    parsed.Choices[0].Message.Content,
		Model:      parsed.Model,
		TokensUsed: parsed.Usage.TotalTokens,
		Cost:       float64(parsed.Usage.TotalTokens) / 1000 * costPer1KTokens,
	}, nil
}
