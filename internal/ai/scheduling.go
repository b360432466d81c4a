package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"sgti/internal/models"
)

// SchedulingSuggestion is the provider's answer for when to work on a task.
type SchedulingSuggestion struct {
	Suggestion    string  `json:"suggestion"`
	SuggestedTime string  `json:"suggested_time"`
	Reason        string  `json:"reason"`
	Confidence    float64 `json:"confidence"`
}

// SuggestScheduling asks the provider for the best slot to schedule a task
// given the rest of the workload. Scheduling is the entire purpose of the
// call, so provider failures surface as errors instead of degrading.
func SuggestScheduling(ctx context.Context, provider Provider, task models.Task, existing []models.Task) (SchedulingSuggestion, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Tarefa para agendar:\n- Título: %s\n", task.Title)
	if task.Description != nil {
		fmt.Fprintf(&b, "- Descrição: %s\n", *task.Description)
	}
	fmt.Fprintf(&b, "- Prioridade: %s\n", task.Priority)
	if task.DueDate != nil {
		fmt.Fprintf(&b, "- Data de Vencimento: %s\n", task.DueDate.Format(time.RFC3339))
	}
	if task.EstimatedDuration != nil {
		fmt.Fprintf(&b, "- Duração Estimada: %d minutos\n", *task.EstimatedDuration)
	}
	fmt.Fprintf(&b, "\nData/hora atual: %s\n\nTarefas existentes (para contexto):\n", time.Now().Format(time.RFC3339))

	for i, t := range existing {
		if i == 10 {
			break
		}
		fmt.Fprintf(&b, "- %s (Prioridade: %s, Status: %s)\n", t.Title, t.Priority, t.Status)
	}

	b.WriteString(`
Com base nos detalhes da tarefa e na carga de trabalho existente, sugira o momento ideal para agendar esta tarefa.

Retorne um objeto JSON com esta estrutura exata:
{
  "suggestion": "string (ex: 'hoje', 'amanhã', 'em 3 dias')",
  "suggested_time": "string ISO datetime",
  "reason": "string explicando o raciocínio em português brasileiro",
  "confidence": número entre 0 e 1
}

Retorne APENAS o objeto JSON, sem texto adicional.`)

	completion, err := provider.Complete(ctx, b.String())
	if err != nil {
		return SchedulingSuggestion{}, err
	}

	var suggestion SchedulingSuggestion
	if err := json.Unmarshal([]byte(completion.Content), &suggestion); err != nil {
		return SchedulingSuggestion{}, fmt.Errorf("malformed provider response: %w", err)
	}
	if suggestion.Suggestion == "" || suggestion.SuggestedTime == "" {
		return SchedulingSuggestion{}, fmt.Errorf("provider response missing required fields")
	}
	return suggestion, nil
}
