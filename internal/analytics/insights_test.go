package analytics

import (
	"strings"
	"testing"
	"time"

	"sgti/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestGenerateInsightsNoTasks(t *testing.T) {
	insights := GenerateInsights(Report{})
	assert.Len(t, insights, 1)
	assert.Contains(t, insights[0], "ainda não tem tarefas")
}

func TestGenerateInsightsHighCompletionRate(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	var tasks []models.Task
	for i := 0; i < 9; i++ {
		tasks = append(tasks, models.Task{
			Status:      "done",
			CreatedAt:   now.Add(-2 * time.Hour),
			CompletedAt: ptrTime(now.Add(-time.Hour)),
		})
	}
	tasks = append(tasks, models.Task{Status: "todo", CreatedAt: now})

	insights := GenerateInsights(GenerateFullReport(tasks, now, 30))
	assert.Contains(t, insights[0], "Excelente")
	assert.Contains(t, insights[0], "90.00%")
}

func TestGenerateInsightsManyOverdue(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	var tasks []models.Task
	for i := 0; i < 5; i++ {
		tasks = append(tasks, models.Task{
			Status:    "todo",
			Priority:  "media",
			DueDate:   ptrTime(now.AddDate(0, 0, -2)),
			CreatedAt: now.AddDate(0, 0, -3),
		})
	}

	insights := GenerateInsights(GenerateFullReport(tasks, now, 30))
	joined := strings.Join(insights, "\n")
	assert.Contains(t, joined, "ATENÇÃO: 5 tarefas atrasadas")
}

func TestGenerateInsightsFallbackLine(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	// One cancelled task only: no rule fires
	tasks := []models.Task{{Status: "cancelada", CreatedAt: now.AddDate(0, -2, 0)}}

	insights := GenerateInsights(GenerateFullReport(tasks, now, 30))
	assert.Equal(t, []string{"Continue mantendo suas tarefas organizadas! Você está indo bem."}, insights)
}
