package ai

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"sgti/pkg/logger"

	"go.uber.org/zap"
)

// SubtaskSuggestion is one proposed subtask for a larger task.
type SubtaskSuggestion struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	EstimatedDuration int    `json:"estimated_duration"`
}

const subtasksPromptTemplate = `Dada esta tarefa, sugira 3-5 subtarefas lógicas para dividi-la:

Tarefa: %s
%s

Retorne um objeto JSON com um campo "subtasks" contendo um array no seguinte formato EXATO:

{
  "subtasks": [
    {"title": "Nome da subtarefa", "description": "Descrição detalhada", "estimated_duration": 30}
  ]
}

REGRAS OBRIGATÓRIAS:
- Todas as subtarefas DEVEM estar em PORTUGUÊS BRASILEIRO
- Mantenha as subtarefas específicas, acionáveis e em ordem lógica
- Retorne APENAS o objeto JSON, sem texto adicional`

// SuggestSubtasks asks the provider to break a task down. Subtask suggestion
// is a non-critical enrichment: any failure degrades to an empty list with
// provider "unknown" instead of propagating.
func SuggestSubtasks(ctx context.Context, db *sql.DB, provider Provider, title, description string) ([]SubtaskSuggestion, string) {
	inputHash := HashInput("subtasks:" + title + description)

	if cached, hit, err := CacheLookup(db, inputHash); err == nil && hit {
		if subtasks, err := decodeSubtasks(cached); err == nil {
			return subtasks, provider.Name()
		}
	}

	descLine := ""
	if description != "" {
		descLine = "Descrição: " + description
	}
	completion, err := provider.Complete(ctx, fmt.Sprintf(subtasksPromptTemplate, title, descLine))
	if err != nil {
		logger.ErrorLogger.Error("Subtask suggestion failed", zap.Error(err))
		return []SubtaskSuggestion{}, "unknown"
	}

	raw := json.RawMessage(completion.Content)
	subtasks, err := decodeSubtasks(raw)
	if err != nil {
		logger.ErrorLogger.Error("Malformed subtask suggestion response", zap.Error(err))
		return []SubtaskSuggestion{}, "unknown"
	}

	_ = CacheStore(db, inputHash, title, raw, completion.Model, completion.TokensUsed, completion.Cost)
	return subtasks, provider.Name()
}

func decodeSubtasks(raw json.RawMessage) ([]SubtaskSuggestion, error) {
	var wire struct {
		Subtasks []SubtaskSuggestion `json:"subtasks"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		// Some responses come back as a bare array
		var list []SubtaskSuggestion
		if err2 := json.Unmarshal(raw, &list); err2 != nil {
			return nil, err
		}
		return list, nil
	}
	if wire.Subtasks == nil {
		return []SubtaskSuggestion{}, nil
	}
	return wire.Subtasks, nil
}
