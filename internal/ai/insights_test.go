package ai

import (
	"strings"
	"testing"
	"time"

	"sgti/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeSentiment(t *testing.T) {
	result := AnalyzeSentiment("resolver isso URGENTE, é crítico")
	assert.Equal(t, models.PriorityHigh, result.Priority)
	assert.Equal(t, 1.0, result.UrgencyScore)

	result = AnalyzeSentiment("tarefa importante para a semana")
	assert.Equal(t, models.PriorityHigh, result.Priority)
	assert.Equal(t, 0.8, result.UrgencyScore)

	result = AnalyzeSentiment("organizar gaveta algum dia")
	assert.Equal(t, models.PriorityLow, result.Priority)
	assert.Equal(t, 0.2, result.UrgencyScore)

	result = AnalyzeSentiment("comprar mantimentos")
	assert.Equal(t, models.PriorityMedium, result.Priority)
	assert.Equal(t, 0.5, result.UrgencyScore)
	assert.Equal(t, "neutral", result.Sentiment)
	assert.Equal(t, 0.7, result.Confidence)
}

func TestAnalyzeSentimentTone(t *testing.T) {
	assert.Equal(t, "negative", AnalyzeSentiment("corrigir bug no login").Sentiment)
	assert.Equal(t, "positive", AnalyzeSentiment("excelente oportunidade de melhoria").Sentiment)
}

func TestEstimateDurationKeywords(t *testing.T) {
	assert.Equal(t, 30, EstimateDuration("tarefa simples", "", nil))
	assert.Equal(t, 180, EstimateDuration("desenvolver novo módulo", "", nil))
	assert.Equal(t, 60, EstimateDuration("reunião semanal", "", nil))
	assert.Equal(t, 45, EstimateDuration("corrigir bug", "", nil))
	assert.Equal(t, 60, EstimateDuration("tarefa comum", "", nil))
}

func TestEstimateDurationBlendsHistory(t *testing.T) {
	historical := []models.Task{
		{Title: "reunião de planejamento", ActualDuration: ptrInt(120)},
		{Title: "reunião de retrospectiva", ActualDuration: ptrInt(80)},
		{Title: "comprar mantimentos", ActualDuration: ptrInt(500)},
	}

	// base 60 blended with avg(120, 80) = 100 -> 80
	assert.Equal(t, 80, EstimateDuration("reunião planejamento equipe", "", historical))
}

func ptrInt(i int) *int { return &i }

func TestDetectDependenciesSharedKeywords(t *testing.T) {
	task := models.Task{ID: "1", Title: "escrever documentação da API de pagamentos"}
	all := []models.Task{
		task,
		{ID: "2", Title: "revisar documentação da API", Status: "todo"},
		{ID: "3", Title: "comprar café", Status: "todo"},
		{ID: "4", Title: "documentação da API antiga", Status: "done"},
	}

	deps := DetectDependencies(task, all)
	require.Len(t, deps, 1)
	assert.Equal(t, "2", deps[0].TaskID)
	assert.Equal(t, "relates", deps[0].Relationship)
	assert.Greater(t, deps[0].Confidence, 0.0)
}

func TestDetectDependenciesBlocking(t *testing.T) {
	task := models.Task{ID: "1", Title: "testar fluxo de checkout"}
	all := []models.Task{
		{ID: "2", Title: "desenvolver fluxo de checkout", Status: "in_progress"},
	}

	deps := DetectDependencies(task, all)
	var blocking *Dependency
	for i := range deps {
		if deps[i].Relationship == "blocks" {
			blocking = &deps[i]
		}
	}
	require.NotNil(t, blocking)
	assert.Equal(t, "2", blocking.TaskID)
	assert.Equal(t, 0.8, blocking.Confidence)
}

func TestDetectDependenciesCapsAtFive(t *testing.T) {
	task := models.Task{ID: "0", Title: "migrar banco de dados legado"}
	var all []models.Task
	for i := 0; i < 8; i++ {
		all = append(all, models.Task{
			ID:     string(rune('a' + i)),
			Title:  "migrar banco de dados etapa",
			Status: "todo",
		})
	}

	assert.Len(t, DetectDependencies(task, all), 5)
}

func TestGenerateSummaryCounts(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	tasks := []models.Task{
		{Title: "feita hoje", Status: "done", Priority: "media", CompletedAt: ptrTime(now.Add(-2 * time.Hour)), ActualDuration: ptrInt(30)},
		{Title: "feita semana passada", Status: "concluida", Priority: "media", CompletedAt: ptrTime(now.AddDate(0, 0, -6)), EstimatedDuration: ptrInt(45)},
		{Title: "em andamento", Status: "em_progresso", Priority: "alta"},
		{Title: "pendente", Status: "a_fazer", Priority: "urgente"},
	}

	daily := GenerateSummary(tasks, "daily", now)
	assert.Equal(t, "daily", daily.Period)
	assert.Equal(t, 2, daily.Summary.Completed)
	assert.Equal(t, 1, daily.Summary.InProgress)
	assert.Equal(t, 1, daily.Summary.Todo)
	assert.Equal(t, 75, daily.Summary.TotalTimeMinutes)
	// Only today's completion falls inside the daily window
	require.Len(t, daily.TopCompleted, 1)
	assert.Equal(t, "feita hoje", daily.TopCompleted[0].Title)

	weekly := GenerateSummary(tasks, "weekly", now)
	assert.Len(t, weekly.TopCompleted, 2)
}

func TestGenerateSummaryHighPriorityPending(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	due := now.AddDate(0, 0, 2)
	tasks := []models.Task{
		{Title: "alta com prazo", Status: "todo", Priority: "alta", DueDate: &due},
		{Title: "urgente sem prazo", Status: "em_progresso", Priority: "urgent"},
		{Title: "comum", Status: "todo", Priority: "media"},
	}

	summary := GenerateSummary(tasks, "daily", now)
	assert.Len(t, summary.HighPriorityPending, 2)

	joined := strings.Join(summary.Insights, "\n")
	assert.Contains(t, joined, "alta prioridade")
	assert.NotEmpty(t, summary.Recommendations)
}

func TestGenerateSummaryUnknownPeriodDefaultsToDaily(t *testing.T) {
	summary := GenerateSummary(nil, "hourly", time.Now())
	assert.Equal(t, "daily", summary.Period)
	assert.NotEmpty(t, summary.Insights)
	assert.NotNil(t, summary.TopCompleted)
	assert.NotNil(t, summary.HighPriorityPending)
}

func ptrTime(t time.Time) *time.Time { return &t }
