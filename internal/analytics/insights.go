package analytics

import "fmt"

// GenerateInsights runs the rule-based classifier over an analytics report
// and returns user-facing insight lines. Deterministic; no provider call.
func GenerateInsights(report Report) []string {
	var insights []string

	if report.Summary.TotalTasks == 0 {
		return []string{"Você ainda não tem tarefas cadastradas. Comece criando sua primeira tarefa!"}
	}

	rate := report.Summary.CompletionRate
	switch {
	case rate >= 80:
		insights = append(insights, fmt.Sprintf("Excelente! Você tem %.2f%% de taxa de conclusão. Continue assim!", rate))
	case rate >= 60:
		insights = append(insights, fmt.Sprintf("Boa taxa de conclusão: %.2f%%. Você está no caminho certo!", rate))
	case rate >= 40:
		insights = append(insights, fmt.Sprintf("Taxa de conclusão em %.2f%%. Com foco, você pode melhorar!", rate))
	case rate > 0:
		insights = append(insights, fmt.Sprintf("Taxa de conclusão baixa (%.2f%%). Revise suas prioridades e foque nas mais importantes.", rate))
	}

	if overdue := report.OverdueAnalysis.TotalOverdue; overdue > 0 {
		if overdue >= 5 {
			insights = append(insights, fmt.Sprintf("ATENÇÃO: %d tarefas atrasadas (média de %.1f dias). Ação urgente necessária!",
				overdue, report.OverdueAnalysis.AvgDaysOverdue))
		} else {
			insights = append(insights, fmt.Sprintf("%d tarefa(s) atrasada(s) precisam de atenção.", overdue))
		}
	}

	important := report.PriorityDistribution["urgente"] + report.PriorityDistribution["alta"]
	if important > 5 {
		insights = append(insights, fmt.Sprintf("Você tem %d tarefas de alta prioridade/urgentes. Foque nelas primeiro!", important))
	} else if important > 0 {
		insights = append(insights, fmt.Sprintf("%d tarefa(s) importante(s) aguardam sua atenção.", important))
	}

	if velocity := report.Productivity.CompletionVelocity; velocity >= 70 {
		insights = append(insights, fmt.Sprintf("Ótima velocidade de conclusão: %.2f%%! Produtividade excelente.", velocity))
	} else if velocity > 0 && velocity < 30 {
		insights = append(insights, fmt.Sprintf("Velocidade de conclusão em %.2f%%. Considere focar em menos tarefas por vez.", velocity))
	}

	if perDay := report.Productivity.AvgTasksCompletedPerDay; perDay >= 3 {
		insights = append(insights, fmt.Sprintf("Incrível! Média de %.1f tarefas por dia concluídas.", perDay))
	}

	if onTime := report.Completion.OnTimeRate; onTime >= 80 {
		insights = append(insights, fmt.Sprintf("Parabéns! %.2f%% das tarefas foram concluídas no prazo.", onTime))
	} else if onTime > 0 && onTime < 50 {
		insights = append(insights, fmt.Sprintf("Apenas %.2f%% das tarefas no prazo. Tente definir prazos mais realistas.", onTime))
	}

	if dueToday := report.TimeAnalysis.DueTodayCount; dueToday > 0 {
		insights = append(insights, fmt.Sprintf("%d tarefa(s) vencem hoje. Priorize-as!", dueToday))
	}
	if dueWeek := report.TimeAnalysis.DueThisWeekCount; dueWeek > 5 {
		insights = append(insights, fmt.Sprintf("Semana movimentada: %d tarefas vencem esta semana.", dueWeek))
	}

	if without := report.ProjectDistribution.TasksWithoutProject; without > 10 {
		insights = append(insights, fmt.Sprintf("%d tarefas sem projeto. Organize-as para melhor visualização.", without))
	}

	if len(insights) == 0 {
		insights = append(insights, "Continue mantendo suas tarefas organizadas! Você está indo bem.")
	}
	return insights
}
