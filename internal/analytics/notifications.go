package analytics

import (
	"fmt"
	"strings"
	"time"

	"sgti/internal/models"
)

// Notifications groups the tasks that need the user's attention, derived on
// demand from current task state.
type Notifications struct {
	Overdue             []models.Task `json:"overdue"`
	DueToday            []models.Task `json:"due_today"`
	DueTomorrow         []models.Task `json:"due_tomorrow"`
	DueSoon             []models.Task `json:"due_soon"`
	HighPriorityPending []models.Task `json:"high_priority_pending"`
}

// NotificationSummary is the numeric digest of a Notifications value.
type NotificationSummary struct {
	OverdueCount             int  `json:"overdue_count"`
	DueTodayCount            int  `json:"due_today_count"`
	DueTomorrowCount         int  `json:"due_tomorrow_count"`
	DueSoonCount             int  `json:"due_soon_count"`
	HighPriorityPendingCount int  `json:"high_priority_pending_count"`
	TotalNotifications       int  `json:"total_notifications"`
	HasUrgent                bool `json:"has_urgent"`
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// BucketNotifications sorts open tasks into urgency buckets. Done and
// cancelled tasks never appear. A task lands in at most one due-date bucket;
// the high-priority bucket is independent of due dates.
func BucketNotifications(tasks []models.Task, now time.Time, hoursAhead int) Notifications {
	threshold := now.Add(time.Duration(hoursAhead) * time.Hour)
	tomorrow := now.AddDate(0, 0, 1)

	var n Notifications
	for _, task := range tasks {
		if !models.IsStatusActive(task.Status) {
			continue
		}

		if task.DueDate != nil {
			due := *task.DueDate
			switch {
			case due.Before(now):
				n.Overdue = append(n.Overdue, task)
			case sameDay(due, now):
				n.DueToday = append(n.DueToday, task)
			case sameDay(due, tomorrow):
				n.DueTomorrow = append(n.DueTomorrow, task)
			case !due.After(threshold):
				n.DueSoon = append(n.DueSoon, task)
			}
		}

		if models.IsPriorityHighOrUrgent(task.Priority) {
			n.HighPriorityPending = append(n.HighPriorityPending, task)
		}
	}
	return n
}

// Summarize derives the numeric summary. HasUrgent is true when anything is
// overdue or any pending task carries urgent priority.
func Summarize(n Notifications) NotificationSummary {
	hasUrgent := len(n.Overdue) > 0
	if !hasUrgent {
		for _, task := range n.HighPriorityPending {
			if models.IsPriorityUrgent(task.Priority) {
				hasUrgent = true
				break
			}
		}
	}

	total := len(n.Overdue) + len(n.DueToday) + len(n.DueTomorrow) +
		len(n.DueSoon) + len(n.HighPriorityPending)

	return NotificationSummary{
		OverdueCount:             len(n.Overdue),
		DueTodayCount:            len(n.DueToday),
		DueTomorrowCount:         len(n.DueTomorrow),
		DueSoonCount:             len(n.DueSoon),
		HighPriorityPendingCount: len(n.HighPriorityPending),
		TotalNotifications:       total,
		HasUrgent:                hasUrgent,
	}
}

// FormatMessage renders the notifications as the human-readable digest shown
// in the client, in Brazilian Portuguese like the rest of the user-facing
// text.
func FormatMessage(n Notifications, now time.Time) string {
	var messages []string

	appendBucket := func(header string, tasks []models.Task, line func(models.Task) string) {
		if len(tasks) == 0 {
			return
		}
		messages = append(messages, fmt.Sprintf(header, len(tasks)))
		for i, task := range tasks {
			if i == 3 {
				messages = append(messages, fmt.Sprintf("  ... e mais %d tarefa(s)", len(tasks)-3))
				break
			}
			messages = append(messages, line(task))
		}
	}

	appendBucket("URGENTE: %d tarefa(s) ATRASADA(S)!", n.Overdue, func(t models.Task) string {
		daysLate := int(now.Sub(*t.DueDate).Hours() / 24)
		return fmt.Sprintf("  - %s (atrasada há %d dia(s))", t.Title, daysLate)
	})
	appendBucket("VENCE HOJE: %d tarefa(s)", n.DueToday, func(t models.Task) string {
		return fmt.Sprintf("  - %s às %s", t.Title, t.DueDate.Format("15:04"))
	})
	appendBucket("VENCE AMANHÃ: %d tarefa(s)", n.DueTomorrow, func(t models.Task) string {
		return fmt.Sprintf("  - %s às %s", t.Title, t.DueDate.Format("15:04"))
	})
	appendBucket("ALTA PRIORIDADE: %d tarefa(s)", n.HighPriorityPending, func(t models.Task) string {
		return fmt.Sprintf("  - %s", t.Title)
	})

	if len(messages) == 0 {
		return "Nenhuma notificação pendente. Você está em dia com suas tarefas!"
	}
	return strings.Join(messages, "\n")
}
