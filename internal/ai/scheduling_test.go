package ai

import (
	"context"
	"fmt"
	"testing"

	"sgti/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestScheduling(t *testing.T) {
	provider := &stubProvider{content: `{
		"suggestion": "amanhã de manhã",
		"suggested_time": "2025-06-11T09:00:00Z",
		"reason": "Agenda livre e prioridade alta",
		"confidence": 0.85
	}`}

	task := models.Task{Title: "Preparar apresentação", Priority: "alta", Status: "todo"}
	suggestion, err := SuggestScheduling(context.Background(), provider, task, nil)
	require.NoError(t, err)
	assert.Equal(t, "amanhã de manhã", suggestion.Suggestion)
	assert.Equal(t, "2025-06-11T09:00:00Z", suggestion.SuggestedTime)
	assert.Equal(t, 0.85, suggestion.Confidence)
}

// Scheduling is the entire purpose of the call, so failures surface.
func TestSuggestSchedulingSurfacesProviderError(t *testing.T) {
	provider := &stubProvider{err: fmt.Errorf("unavailable")}

	_, err := SuggestScheduling(context.Background(), provider, models.Task{Title: "x"}, nil)
	assert.Error(t, err)
}

func TestSuggestSchedulingRejectsIncompleteResponse(t *testing.T) {
	provider := &stubProvider{content: `{"reason": "sem horário"}`}

	_, err := SuggestScheduling(context.Background(), provider, models.Task{Title: "x"}, nil)
	assert.Error(t, err)
}
