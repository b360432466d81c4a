package ai

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"sgti/internal/models"
)

// ActionButton is one explicit choice offered to the user before a mutating
// chat action runs.
type ActionButton struct {
	Label  string                 `json:"label"`
	Action string                 `json:"action"`
	Data   map[string]interface{} `json:"data"`
}

// ChatResponse is one assistant turn. Mutating intents never execute here:
// they come back with RequiresConfirmation and the buttons for the second
// leg of the confirm/execute protocol.
type ChatResponse struct {
	Message              string         `json:"message"`
	Action               *string        `json:"action"`
	Data                 interface{}    `json:"data"`
	RequiresConfirmation bool           `json:"requires_confirmation"`
	ActionButtons        []ActionButton `json:"action_buttons,omitempty"`
}

// HistoryEntry is one stored conversation message.
type HistoryEntry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

const maxHistorySize = 30

// Assistant is the conversational command interface. Conversation history is
// kept in memory per user.
type Assistant struct {
	mu        sync.Mutex
	histories map[string][]HistoryEntry
}

func NewAssistant() *Assistant {
	return &Assistant{histories: make(map[string][]HistoryEntry)}
}

func (a *Assistant) record(userID, role, content string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	history := append(a.histories[userID], HistoryEntry{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	if len(history) > maxHistorySize {
		history = history[len(history)-maxHistorySize:]
	}
	a.histories[userID] = history
}

// History returns a copy of the user's conversation history.
func (a *Assistant) History(userID string) []HistoryEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	history := a.histories[userID]
	out := make([]HistoryEntry, len(history))
	copy(out, history)
	return out
}

// ClearHistory drops the user's conversation history.
func (a *Assistant) ClearHistory(userID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.histories, userID)
}

var quickIntents = map[string]string{
	"oi": "greeting", "olá": "greeting", "ola": "greeting", "hey": "greeting",
	"bom dia": "greeting", "boa tarde": "greeting", "boa noite": "greeting",
	"obrigado": "thanks", "obrigada": "thanks", "valeu": "thanks", "thanks": "thanks",
	"ajuda": "help", "help": "help", "comandos": "help", "?": "help",
}

const helpMessage = `Posso ajudar você a gerenciar suas tarefas. Experimente:
- "criar tarefa pagar aluguel amanhã"
- "concluir <nome da tarefa>"
- "deletar <nome da tarefa>"
- "listar tarefas"
- "resumo do dia"`

// ProcessMessage parses one user message and produces the assistant's turn.
// Read-only intents (list, summary) resolve directly; mutating intents
// (create, complete, delete) always come back confirmation-gated.
func (a *Assistant) ProcessMessage(userID, message string, tasks []models.Task) ChatResponse {
	a.record(userID, "user", message)
	response := a.dispatch(message, tasks)
	a.record(userID, "assistant", response.Message)
	return response
}

func (a *Assistant) dispatch(message string, tasks []models.Task) ChatResponse {
	trimmed := strings.TrimSpace(message)
	lower := strings.ToLower(trimmed)

	if intent, ok := quickIntents[strings.TrimRight(lower, "!.")]; ok {
		switch intent {
		case "greeting":
			return ChatResponse{Message: "Olá! Como posso ajudar com suas tarefas hoje?"}
		case "thanks":
			return ChatResponse{Message: "De nada! Estou aqui quando precisar."}
		default:
			return ChatResponse{Message: helpMessage}
		}
	}

	switch {
	case hasPrefixAny(lower, "criar tarefa", "crie tarefa", "criar", "crie", "nova tarefa", "adicionar tarefa", "adicionar", "add task", "create task", "create"):
		return proposeCreate(trimmed, lower)
	case hasPrefixAny(lower, "concluir", "concluí", "finalizar", "completar", "complete", "done"):
		return proposeByTitle(trimmed, lower, tasks, "complete")
	case hasPrefixAny(lower, "deletar", "excluir", "remover", "delete", "remove"):
		return proposeByTitle(trimmed, lower, tasks, "delete")
	case containsAny(lower, "listar", "minhas tarefas", "mostrar tarefas", "list tasks", "quais tarefas"):
		return listTasks(tasks)
	case containsAny(lower, "resumo", "summary"):
		period := "daily"
		if containsAny(lower, "semana", "weekly") {
			period = "weekly"
		} else if containsAny(lower, "mês", "mes", "monthly") {
			period = "monthly"
		}
		summary := GenerateSummary(tasks, period, time.Now())
		action := "summary"
		return ChatResponse{
			Message: strings.Join(summary.Insights, "\n"),
			Action:  &action,
			Data:    summary,
		}
	}

	return ChatResponse{Message: "Não entendi o que você quer fazer.\n\n" + helpMessage}
}

func hasPrefixAny(text string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(text, p) {
			return true
		}
	}
	return false
}

// proposeCreate extracts title, priority and a rough due date from a create
// command and answers with the confirmation round-trip.
func proposeCreate(original, lower string) ChatResponse {
	title := original
	for _, prefix := range []string{"criar tarefa", "crie tarefa", "nova tarefa", "adicionar tarefa", "create task", "add task", "adicionar", "criar", "crie", "create"} {
		if strings.HasPrefix(lower, prefix) {
			title = strings.TrimSpace(original[len(prefix):])
			break
		}
	}
	if title == "" {
		return ChatResponse{Message: "Qual tarefa você quer criar? Ex: \"criar tarefa pagar aluguel amanhã\""}
	}

	parsed := FallbackParse(title, time.Now())
	data := map[string]interface{}{
		"title":    parsed.Title,
		"text":     parsed.Title,
		"priority": parsed.Priority,
	}
	var dueDate interface{}
	if parsed.DueDate != nil {
		dueDate = parsed.DueDate.Format(time.RFC3339)
	}
	data["due_date"] = dueDate

	action := "confirm_create"
	return ChatResponse{
		Message:              fmt.Sprintf("Criar a tarefa '%s'?", parsed.Title),
		Action:               &action,
		Data:                 data,
		RequiresConfirmation: true,
		ActionButtons: []ActionButton{
			{Label: "Confirmar", Action: "create", Data: data},
			{Label: "Cancelar", Action: "cancel", Data: nil},
		},
	}
}

// proposeByTitle matches a complete/delete command against the user's open
// tasks and answers with the confirmation round-trip for the best match.
func proposeByTitle(original, lower string, tasks []models.Task, action string) ChatResponse {
	query := lower
	for _, prefix := range []string{"concluir tarefa", "concluir", "concluí", "finalizar tarefa", "finalizar", "completar", "complete", "done",
		"deletar tarefa", "deletar", "excluir tarefa", "excluir", "remover tarefa", "remover", "delete", "remove"} {
		if strings.HasPrefix(lower, prefix) {
			query = strings.TrimSpace(lower[len(prefix):])
			break
		}
	}
	query = strings.TrimPrefix(query, "a tarefa ")

	if query == "" {
		return ChatResponse{Message: "Qual tarefa? Diga o nome dela, ex: \"concluir pagar aluguel\""}
	}

	match := findTask(query, tasks)
	if match == nil {
		return ChatResponse{Message: fmt.Sprintf("Não encontrei nenhuma tarefa parecida com '%s'.", query)}
	}

	if action == "complete" {
		confirmAction := "confirm_complete"
		return ChatResponse{
			Message:              fmt.Sprintf("Marcar '%s' como concluída?", match.Title),
			Action:               &confirmAction,
			RequiresConfirmation: true,
			ActionButtons: []ActionButton{
				{Label: "Confirmar", Action: "complete", Data: map[string]interface{}{"task_id": match.ID}},
				{Label: "Cancelar", Action: "cancel", Data: nil},
			},
		}
	}

	confirmAction := "confirm_delete"
	return ChatResponse{
		Message:              fmt.Sprintf("Excluir a tarefa '%s'? Essa ação não pode ser desfeita.", match.Title),
		Action:               &confirmAction,
		RequiresConfirmation: true,
		ActionButtons: []ActionButton{
			{Label: "Excluir", Action: "delete", Data: map[string]interface{}{"task_id": match.ID}},
			{Label: "Cancelar", Action: "cancel", Data: nil},
		},
	}
}

// findTask returns the open task whose title best matches the query.
func findTask(query string, tasks []models.Task) *models.Task {
	var best *models.Task
	bestScore := 0
	queryWords := strings.Fields(query)

	for i := range tasks {
		task := &tasks[i]
		if !models.IsStatusActive(task.Status) {
			continue
		}
		title := strings.ToLower(task.Title)
		if title == query {
			return task
		}
		score := 0
		for _, w := range queryWords {
			if strings.Contains(title, w) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = task
		}
	}
	return best
}

func listTasks(tasks []models.Task) ChatResponse {
	var open []models.Task
	for _, t := range tasks {
		if models.IsStatusActive(t.Status) {
			open = append(open, t)
		}
	}

	if len(open) == 0 {
		action := "list"
		return ChatResponse{
			Message: "Você não tem tarefas abertas no momento.",
			Action:  &action,
			Data:    []models.Task{},
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Você tem %d tarefa(s) aberta(s):\n", len(open))
	for i, t := range open {
		if i == 10 {
			fmt.Fprintf(&b, "... e mais %d tarefa(s)", len(open)-10)
			break
		}
		fmt.Fprintf(&b, "- %s (%s)\n", t.Title, t.Priority)
	}

	action := "list"
	return ChatResponse{
		Message: strings.TrimRight(b.String(), "\n"),
		Action:  &action,
		Data:    open,
	}
}
