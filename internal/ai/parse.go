package ai

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"sgti/internal/models"
)

// ParsedTask is the structured shape the parser extracts from free text.
type ParsedTask struct {
	Title             string     `json:"title"`
	Description       *string    `json:"description"`
	Priority          string     `json:"priority"`
	DueDate           *time.Time `json:"due_date"`
	EstimatedDuration *int       `json:"estimated_duration"`
	Tags              []string   `json:"tags"`
}

const parsePromptTemplate = `Extraia os campos estruturados desta descrição de tarefa em linguagem natural:

"%s"

Data/hora atual: %s

Retorne um objeto JSON com esta estrutura exata:
{
  "title": "título curto da tarefa",
  "description": "descrição ou null",
  "priority": "low|medium|high|urgent",
  "due_date": "ISO datetime ou null",
  "estimated_duration": minutos inteiros ou null,
  "tags": ["tag1", "tag2"]
}

Retorne APENAS o objeto JSON, sem texto adicional.`

// ParseTask turns natural-language input into structured task fields,
// memoized through the gpt_cache table. The raw provider payload is returned
// so the caller can keep it for audit.
func ParseTask(ctx context.Context, db *sql.DB, provider Provider, text string) (ParsedTask, json.RawMessage, bool, error) {
	inputHash := HashInput("parse:" + text)

	if cached, hit, err := CacheLookup(db, inputHash); err == nil && hit {
		parsed, err := decodeParsedTask(cached)
		if err == nil {
			return parsed, cached, true, nil
		}
	}

	prompt := fmt.Sprintf(parsePromptTemplate, text, time.Now().Format(time.RFC3339))
	completion, err := provider.Complete(ctx, prompt)
	if err != nil {
		return ParsedTask{}, nil, false, err
	}

	raw := json.RawMessage(completion.Content)
	parsed, err := decodeParsedTask(raw)
	if err != nil {
		return ParsedTask{}, nil, false, fmt.Errorf("malformed provider response: %w", err)
	}

	_ = CacheStore(db, inputHash, text, raw, completion.Model, completion.TokensUsed, completion.Cost)
	return parsed, raw, false, nil
}

func decodeParsedTask(raw json.RawMessage) (ParsedTask, error) {
	var wire struct {
		Title             string   `json:"title"`
		Description       *string  `json:"description"`
		Priority          string   `json:"priority"`
		DueDate           *string  `json:"due_date"`
		EstimatedDuration *int     `json:"estimated_duration"`
		Tags              []string `json:"tags"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return ParsedTask{}, err
	}
	if strings.TrimSpace(wire.Title) == "" {
		return ParsedTask{}, fmt.Errorf("parsed task has no title")
	}

	parsed := ParsedTask{
		Title:             strings.TrimSpace(wire.Title),
		Description:       wire.Description,
		Priority:          models.PriorityMedium,
		EstimatedDuration: wire.EstimatedDuration,
		Tags:              wire.Tags,
	}
	if p, ok := models.CanonicalPriority(wire.Priority); ok {
		parsed.Priority = p
	}
	if wire.DueDate != nil && *wire.DueDate != "" {
		if due, err := time.Parse(time.RFC3339, strings.Replace(*wire.DueDate, "Z", "+00:00", 1)); err == nil {
			parsed.DueDate = &due
		} else if due, err := time.Parse(time.RFC3339, *wire.DueDate); err == nil {
			parsed.DueDate = &due
		}
	}
	if parsed.Tags == nil {
		parsed.Tags = []string{}
	}
	return parsed, nil
}

// FallbackParse builds a best-effort structured task when the provider is
// unavailable, so natural-language creation still succeeds. Title is the
// input itself; priority and rough deadlines come from keyword matching.
func FallbackParse(text string, now time.Time) ParsedTask {
	title := strings.TrimSpace(text)
	if idx := strings.IndexAny(title, "\n"); idx > 0 {
		title = title[:idx]
	}
	if len(title) > 500 {
		title = title[:500]
	}

	parsed := ParsedTask{
		Title:    title,
		Priority: models.PriorityMedium,
		Tags:     []string{},
	}

	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, "urgente", "urgent", "asap", "imediato", "crítico", "critical"):
		parsed.Priority = models.PriorityUrgent
	case containsAny(lower, "importante", "important", "prioritário", "priority"):
		parsed.Priority = models.PriorityHigh
	case containsAny(lower, "quando der", "eventually", "algum dia", "someday", "se possível"):
		parsed.Priority = models.PriorityLow
	}

	switch {
	case containsAny(lower, "hoje", "today"):
		due := time.Date(now.Year(), now.Month(), now.Day(), 18, 0, 0, 0, now.Location())
		parsed.DueDate = &due
	case containsAny(lower, "amanhã", "amanha", "tomorrow"):
		t := now.AddDate(0, 0, 1)
		due := time.Date(t.Year(), t.Month(), t.Day(), 9, 0, 0, 0, now.Location())
		parsed.DueDate = &due
	}

	return parsed
}

func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
