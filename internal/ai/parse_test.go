package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"sgti/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider returns a canned completion or error.
type stubProvider struct {
	content string
	err     error
	calls   int
}

func (s *stubProvider) Complete(ctx context.Context, prompt string) (Completion, error) {
	s.calls++
	if s.err != nil {
		return Completion{}, s.err
	}
	return Completion{Content: s.content, Model: "stub", TokensUsed: 10}, nil
}

func (s *stubProvider) Name() string { return "stub" }

func TestParseTaskWithProvider(t *testing.T) {
	provider := &stubProvider{content: `{
		"title": "Pagar aluguel",
		"description": "Transferência para o proprietário",
		"priority": "alta",
		"due_date": "2025-06-15T18:00:00Z",
		"estimated_duration": 15,
		"tags": ["financas"]
	}`}

	parsed, raw, cacheHit, err := ParseTask(context.Background(), nil, provider, "pagar aluguel até domingo")
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.Equal(t, "Pagar aluguel", parsed.Title)
	assert.Equal(t, models.PriorityHigh, parsed.Priority)
	require.NotNil(t, parsed.DueDate)
	assert.Equal(t, 15, *parsed.EstimatedDuration)
	assert.Equal(t, []string{"financas"}, parsed.Tags)
	assert.True(t, json.Valid(raw))
}

func TestParseTaskRejectsMissingTitle(t *testing.T) {
	provider := &stubProvider{content: `{"title": "  ", "priority": "low"}`}

	_, _, _, err := ParseTask(context.Background(), nil, provider, "whatever")
	assert.Error(t, err)
}

func TestParseTaskPropagatesProviderError(t *testing.T) {
	provider := &stubProvider{err: fmt.Errorf("timeout")}

	_, _, _, err := ParseTask(context.Background(), nil, provider, "whatever")
	assert.Error(t, err)
	assert.Equal(t, 1, provider.calls)
}

func TestFallbackParsePriorityKeywords(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, models.PriorityUrgent, FallbackParse("resolver bug urgente no servidor", now).Priority)
	assert.Equal(t, models.PriorityHigh, FallbackParse("reunião importante com cliente", now).Priority)
	assert.Equal(t, models.PriorityLow, FallbackParse("organizar fotos quando der", now).Priority)
	assert.Equal(t, models.PriorityMedium, FallbackParse("comprar pão", now).Priority)
}

func TestFallbackParseDueDates(t *testing.T) {
	now := time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC)

	parsed := FallbackParse("entregar relatório hoje", now)
	require.NotNil(t, parsed.DueDate)
	assert.Equal(t, time.Date(2025, 6, 10, 18, 0, 0, 0, time.UTC), *parsed.DueDate)

	parsed = FallbackParse("ligar para o médico amanhã", now)
	require.NotNil(t, parsed.DueDate)
	assert.Equal(t, time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC), *parsed.DueDate)

	parsed = FallbackParse("comprar pão", now)
	assert.Nil(t, parsed.DueDate)
}

func TestFallbackParseTitleIsFirstLine(t *testing.T) {
	now := time.Now()
	parsed := FallbackParse("primeira linha\nsegunda linha", now)
	assert.Equal(t, "primeira linha", parsed.Title)
	assert.NotNil(t, parsed.Tags)
}
