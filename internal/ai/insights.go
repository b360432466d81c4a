package ai

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"sgti/internal/models"
)

// SentimentResult maps free text to a suggested priority plus confidence.
type SentimentResult struct {
	Priority     string  `json:"priority"`
	UrgencyScore float64 `json:"urgency_score"`
	Sentiment    string  `json:"sentiment"`
	Confidence   float64 `json:"confidence"`
}

// AnalyzeSentiment infers urgency and sentiment from task text using the
// bilingual keyword tables. Deterministic; no provider call.
func AnalyzeSentiment(text string) SentimentResult {
	lower := strings.ToLower(text)

	result := SentimentResult{
		Priority:     models.PriorityMedium,
		UrgencyScore: 0.5,
		Sentiment:    "neutral",
		Confidence:   0.7,
	}

	switch {
	case containsAny(lower, "urgente", "urgent", "asap", "imediato", "immediate", "crítico", "critical"):
		result.Priority = models.PriorityHigh
		result.UrgencyScore = 1.0
	case containsAny(lower, "importante", "important", "prioritário", "priority", "logo", "soon"):
		result.Priority = models.PriorityHigh
		result.UrgencyScore = 0.8
	case containsAny(lower, "quando der", "eventually", "algum dia", "someday", "se possível", "if possible"):
		result.Priority = models.PriorityLow
		result.UrgencyScore = 0.2
	}

	if containsAny(lower, "ótimo", "excelente", "bom", "great", "excellent", "good") {
		result.Sentiment = "positive"
	} else if containsAny(lower, "problema", "bug", "erro", "falha", "problem", "error", "issue") {
		result.Sentiment = "negative"
	}

	return result
}

// EstimateDuration guesses task duration in minutes from content keywords,
// blended with the actual durations of similar historical tasks.
func EstimateDuration(title, description string, historical []models.Task) int {
	base := 60
	text := strings.ToLower(title + " " + description)

	switch {
	case containsAny(text, "rápido", "quick", "simples", "simple"):
		base = 30
	case containsAny(text, "complexo", "complex", "grande", "large", "desenvolver", "develop"):
		base = 180
	case containsAny(text, "reunião", "meeting"):
		base = 60
	case containsAny(text, "bug", "erro", "fix"):
		base = 45
	}

	titleWords := strings.Fields(strings.ToLower(title))
	if len(titleWords) > 3 {
		titleWords = titleWords[:3]
	}

	start := 0
	if len(historical) > 10 {
		start = len(historical) - 10
	}
	var similar []int
	for _, task := range historical[start:] {
		if task.ActualDuration == nil {
			continue
		}
		taskTitle := strings.ToLower(task.Title)
		for _, word := range titleWords {
			if strings.Contains(taskTitle, word) {
				similar = append(similar, *task.ActualDuration)
				break
			}
		}
	}
	if len(similar) > 0 {
		sum := 0
		for _, d := range similar {
			sum += d
		}
		base = (base + sum/len(similar)) / 2
	}

	return base
}

// Dependency is one detected relation between two of the user's tasks.
type Dependency struct {
	TaskID       string  `json:"task_id"`
	TaskTitle    string  `json:"task_title"`
	Relationship string  `json:"relationship"`
	Confidence   float64 `json:"confidence"`
	Reason       string  `json:"reason"`
}

// DetectDependencies flags tasks likely related to or blocking the given
// task, based on shared title keywords and the develop-before-test rule.
// Returns the top five by confidence.
func DetectDependencies(task models.Task, all []models.Task) []Dependency {
	taskWords := wordSet(task.Title)
	var deps []Dependency

	for _, other := range all {
		if other.ID == task.ID || models.IsStatusDone(other.Status) {
			continue
		}

		otherWords := wordSet(other.Title)
		var common []string
		for w := range taskWords {
			if otherWords[w] {
				common = append(common, w)
			}
		}
		if len(common) >= 2 {
			sort.Strings(common)
			if len(common) > 3 {
				common = common[:3]
			}
			denom := len(taskWords)
			if len(otherWords) > denom {
				denom = len(otherWords)
			}
			deps = append(deps, Dependency{
				TaskID:       other.ID,
				TaskTitle:    other.Title,
				Relationship: "relates",
				Confidence:   float64(len(common)) / float64(denom),
				Reason:       "Tarefas compartilham palavras-chave: " + strings.Join(common, ", "),
			})
		}

		if containsAny(strings.ToLower(task.Title), "testar", "test", "deploy") &&
			containsAny(strings.ToLower(other.Title), "desenvolver", "implement", "criar", "create") {
			deps = append(deps, Dependency{
				TaskID:       other.ID,
				TaskTitle:    other.Title,
				Relationship: "blocks",
				Confidence:   0.8,
				Reason:       "Desenvolvimento deve ser concluído antes de testes/deploy",
			})
		}
	}

	sort.SliceStable(deps, func(i, j int) bool { return deps[i].Confidence > deps[j].Confidence })
	if len(deps) > 5 {
		deps = deps[:5]
	}
	return deps
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = true
	}
	return set
}

// TaskDigest is the reduced task shape embedded in summaries.
type TaskDigest struct {
	Title    string  `json:"title"`
	Priority string  `json:"priority,omitempty"`
	DueDate  *string `json:"due_date,omitempty"`
}

// SummaryResult is the periodic activity digest.
type SummaryResult struct {
	Period              string         `json:"period"`
	Summary             SummaryCounts  `json:"summary"`
	Insights            []string       `json:"insights"`
	TopCompleted        []TaskDigest   `json:"top_completed"`
	HighPriorityPending []TaskDigest   `json:"high_priority_pending"`
	Recommendations     []string       `json:"recommendations"`
}

type SummaryCounts struct {
	Completed        int `json:"completed"`
	InProgress       int `json:"in_progress"`
	Todo             int `json:"todo"`
	TotalTimeMinutes int `json:"total_time_minutes"`
}

// GenerateSummary builds the daily/weekly/monthly digest from real task
// data with rule-based insights and recommendations.
func GenerateSummary(tasks []models.Task, period string, now time.Time) SummaryResult {
	var periodStart time.Time
	switch period {
	case "weekly":
		periodStart = now.AddDate(0, 0, -7)
	case "monthly":
		periodStart = now.AddDate(0, 0, -30)
	default:
		period = "daily"
		periodStart = now.AddDate(0, 0, -1)
	}

	var completed, inProgress, todo []models.Task
	for _, t := range tasks {
		switch {
		case models.IsStatusDone(t.Status):
			completed = append(completed, t)
		case models.IsStatusInProgress(t.Status):
			inProgress = append(inProgress, t)
		case models.IsStatusTodo(t.Status):
			todo = append(todo, t)
		}
	}

	var completedInPeriod []models.Task
	totalTime := 0
	for _, t := range completed {
		if t.CompletedAt != nil && !t.CompletedAt.Before(periodStart) {
			completedInPeriod = append(completedInPeriod, t)
		}
		if t.ActualDuration != nil {
			totalTime += *t.ActualDuration
		} else if t.EstimatedDuration != nil {
			totalTime += *t.EstimatedDuration
		}
	}

	var highPriorityPending, overdue []models.Task
	for _, t := range append(append([]models.Task{}, todo...), inProgress...) {
		if models.IsPriorityHighOrUrgent(t.Priority) {
			highPriorityPending = append(highPriorityPending, t)
		}
		if t.DueDate != nil && t.DueDate.Before(now) {
			overdue = append(overdue, t)
		}
	}

	totalActive := len(todo) + len(inProgress)
	var insights []string

	switch {
	case len(completedInPeriod) >= 5:
		insights = append(insights, fmt.Sprintf("Excelente produtividade! Você completou %d tarefas neste período.", len(completedInPeriod)))
	case len(completedInPeriod) >= 2:
		insights = append(insights, fmt.Sprintf("Bom progresso! %d tarefas concluídas neste período.", len(completedInPeriod)))
	case len(completedInPeriod) == 1:
		insights = append(insights, "Você concluiu 1 tarefa neste período. Continue focado!")
	case totalActive > 0:
		insights = append(insights, "Nenhuma tarefa concluída ainda neste período. Que tal começar pela mais importante?")
	default:
		insights = append(insights, "Você não tem tarefas ativas. Crie novas tarefas para começar!")
	}

	if len(overdue) > 0 {
		insights = append(insights, fmt.Sprintf("ATENÇÃO: %d tarefas estão atrasadas e precisam de ação imediata.", len(overdue)))
	}
	if len(highPriorityPending) > 3 {
		insights = append(insights, fmt.Sprintf("Você tem %d tarefas de alta prioridade pendentes. Priorize-as!", len(highPriorityPending)))
	} else if len(highPriorityPending) > 0 {
		insights = append(insights, fmt.Sprintf("%d tarefa(s) de alta prioridade aguardam conclusão.", len(highPriorityPending)))
	}
	if len(inProgress) > 5 {
		insights = append(insights, "Muitas tarefas em progresso. Considere focar em finalizar algumas antes de iniciar novas.")
	}
	if totalActive == 0 && len(completed) > 0 {
		insights = append(insights, "Parabéns! Todas as tarefas foram concluídas. Que tal planejar novas metas?")
	}

	var recommendations []string
	if len(overdue) > 0 {
		recommendations = append(recommendations, fmt.Sprintf("Resolva as %d tarefas atrasadas - elas impactam sua produtividade.", len(overdue)))
	}
	if len(highPriorityPending) > 0 {
		recommendations = append(recommendations, "Comece seu dia pelas tarefas de alta prioridade para maximizar resultados.")
	}
	if len(inProgress) > 3 {
		recommendations = append(recommendations, "Finalize tarefas em andamento antes de iniciar novas para manter o foco.")
	}
	if totalTime > 0 {
		hours, minutes := totalTime/60, totalTime%60
		if hours > 0 {
			recommendations = append(recommendations, fmt.Sprintf("Você investiu %dh%dmin em tarefas. Continue o bom trabalho!", hours, minutes))
		} else {
			recommendations = append(recommendations, fmt.Sprintf("Você investiu %d minutos em tarefas. Continue focado!", minutes))
		}
	}
	if len(todo) > 10 {
		recommendations = append(recommendations, "Sua lista de tarefas está grande. Considere priorizar ou delegar algumas.")
	}
	if len(recommendations) == 0 {
		recommendations = append(recommendations,
			"Defina prazos para suas tarefas para manter o foco.",
			"Revise suas tarefas diariamente para manter a produtividade.")
	}
	if len(recommendations) > 4 {
		recommendations = recommendations[:4]
	}

	result := SummaryResult{
		Period: period,
		Summary: SummaryCounts{
			Completed:        len(completed),
			InProgress:       len(inProgress),
			Todo:             len(todo),
			TotalTimeMinutes: totalTime,
		},
		Insights:            insights,
		TopCompleted:        []TaskDigest{},
		HighPriorityPending: []TaskDigest{},
		Recommendations:     recommendations,
	}

	for i, t := range completedInPeriod {
		if i == 5 {
			break
		}
		result.TopCompleted = append(result.TopCompleted, TaskDigest{Title: t.Title, Priority: t.Priority})
	}
	for i, t := range highPriorityPending {
		if i == 5 {
			break
		}
		digest := TaskDigest{Title: t.Title}
		if t.DueDate != nil {
			due := t.DueDate.Format(time.RFC3339)
			digest.DueDate = &due
		}
		result.HighPriorityPending = append(result.HighPriorityPending, digest)
	}

	return result
}
