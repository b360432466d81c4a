package analytics

import (
	"math"
	"sort"
	"time"

	"sgti/internal/models"
)

// Report is the full analytics payload for one user, recomputed on demand
// from the current task set.
type Report struct {
	Summary              SummaryStats           `json:"summary"`
	Completion           CompletionStats        `json:"completion"`
	PriorityDistribution map[string]int         `json:"priority_distribution"`
	StatusDistribution   map[string]int         `json:"status_distribution"`
	TimeAnalysis         TimeAnalysis           `json:"time_analysis"`
	Productivity         ProductivityMetrics    `json:"productivity"`
	Trends               Trends                 `json:"trends"`
	TagsAnalysis         TagsAnalysis           `json:"tags_analysis"`
	OverdueAnalysis      OverdueAnalysis        `json:"overdue_analysis"`
	ProjectDistribution  ProjectDistribution    `json:"project_distribution"`
}

type SummaryStats struct {
	TotalTasks       int     `json:"total_tasks"`
	ActiveTasks      int     `json:"active_tasks"`
	CompletedTasks   int     `json:"completed_tasks"`
	CancelledTasks   int     `json:"cancelled_tasks"`
	CompletionRate   float64 `json:"completion_rate"`
	CancellationRate float64 `json:"cancellation_rate"`
}

type CompletionStats struct {
	CompletedInPeriod      int      `json:"completed_in_period"`
	AvgCompletionTimeHours *float64 `json:"avg_completion_time_hours"`
	CompletedOnTime        int      `json:"completed_on_time"`
	CompletedLate          int      `json:"completed_late"`
	OnTimeRate             float64  `json:"on_time_rate"`
}

type TimeAnalysis struct {
	OverdueCount         int     `json:"overdue_count"`
	DueTodayCount        int     `json:"due_today_count"`
	DueThisWeekCount     int     `json:"due_this_week_count"`
	TotalEstimatedHours  float64 `json:"total_estimated_hours"`
	ActiveEstimatedHours float64 `json:"active_estimated_hours"`
	TasksWithEstimate    int     `json:"tasks_with_estimate"`
}

type ProductivityMetrics struct {
	TasksCreatedInPeriod   int     `json:"tasks_created_in_period"`
	TasksCompletedInPeriod int     `json:"tasks_completed_in_period"`
	AvgTasksCreatedPerDay  float64 `json:"avg_tasks_created_per_day"`
	AvgTasksCompletedPerDay float64 `json:"avg_tasks_completed_per_day"`
	CompletionVelocity     float64 `json:"completion_velocity"`
}

type DailyTrend struct {
	Date      string `json:"date"`
	Created   int    `json:"created"`
	Completed int    `json:"completed"`
}

type Trends struct {
	DailyTrends []DailyTrend `json:"daily_trends"`
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type TagsAnalysis struct {
	TotalUniqueTags int            `json:"total_unique_tags"`
	MostUsedTags    []TagCount     `json:"most_used_tags"`
	TagsUsage       map[string]int `json:"tags_usage"`
}

type OverdueAnalysis struct {
	TotalOverdue      int            `json:"total_overdue"`
	AvgDaysOverdue    float64        `json:"avg_days_overdue"`
	MaxDaysOverdue    int            `json:"max_days_overdue"`
	OverdueByPriority map[string]int `json:"overdue_by_priority"`
}

type ProjectDistribution struct {
	TasksWithProject    int            `json:"tasks_with_project"`
	TasksWithoutProject int            `json:"tasks_without_project"`
	UniqueProjects      int            `json:"unique_projects"`
	TasksPerProject     map[string]int `json:"tasks_per_project"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// GenerateFullReport computes every section of the analytics report over the
// given task set, with the trailing window starting periodDays before now.
func GenerateFullReport(tasks []models.Task, now time.Time, periodDays int) Report {
	periodStart := now.AddDate(0, 0, -periodDays)

	return Report{
		Summary:              summaryStats(tasks),
		Completion:           completionStats(tasks, periodStart),
		PriorityDistribution: priorityDistribution(tasks),
		StatusDistribution:   statusDistribution(tasks),
		TimeAnalysis:         timeAnalysis(tasks, now),
		Productivity:         productivityMetrics(tasks, now, periodStart),
		Trends:               trends(tasks, now, periodDays),
		TagsAnalysis:         tagsAnalysis(tasks),
		OverdueAnalysis:      overdueAnalysis(tasks, now),
		ProjectDistribution:  projectDistribution(tasks),
	}
}

func summaryStats(tasks []models.Task) SummaryStats {
	total := len(tasks)
	if total == 0 {
		return SummaryStats{}
	}

	var active, completed, cancelled int
	for _, t := range tasks {
		switch {
		case models.IsStatusDone(t.Status):
			completed++
		case models.IsStatusCancelled(t.Status):
			cancelled++
		default:
			active++
		}
	}

	return SummaryStats{
		TotalTasks:       total,
		ActiveTasks:      active,
		CompletedTasks:   completed,
		CancelledTasks:   cancelled,
		CompletionRate:   round2(float64(completed) / float64(total) * 100),
		CancellationRate: round2(float64(cancelled) / float64(total) * 100),
	}
}

func completionStats(tasks []models.Task, periodStart time.Time) CompletionStats {
	var completionHours []float64
	var onTime, late, completedInPeriod int

	for _, t := range tasks {
		if !models.IsStatusDone(t.Status) || t.CompletedAt == nil || t.CompletedAt.Before(periodStart) {
			continue
		}
		completedInPeriod++

		completionHours = append(completionHours, t.CompletedAt.Sub(t.CreatedAt).Hours())

		if t.DueDate != nil {
			if !t.CompletedAt.After(*t.DueDate) {
				onTime++
			} else {
				late++
			}
		}
	}

	stats := CompletionStats{
		CompletedInPeriod: completedInPeriod,
		CompletedOnTime:   onTime,
		CompletedLate:     late,
	}
	if len(completionHours) > 0 {
		var sum float64
		for _, h := range completionHours {
			sum += h
		}
		avg := round2(sum / float64(len(completionHours)))
		stats.AvgCompletionTimeHours = &avg
	}
	if onTime+late > 0 {
		stats.OnTimeRate = round2(float64(onTime) / float64(onTime+late) * 100)
	}
	return stats
}

// priorityLabels maps canonical priority classes to the Portuguese labels
// the dashboard renders.
var priorityLabels = map[string]string{
	models.PriorityUrgent: "urgente",
	models.PriorityHigh:   "alta",
	models.PriorityMedium: "media",
	models.PriorityLow:    "baixa",
}

// priorityDistribution counts active tasks per priority class.
func priorityDistribution(tasks []models.Task) map[string]int {
	dist := map[string]int{"urgente": 0, "alta": 0, "media": 0, "baixa": 0}
	for _, t := range tasks {
		if !models.IsStatusActive(t.Status) {
			continue
		}
		if p, ok := models.CanonicalPriority(t.Priority); ok {
			dist[priorityLabels[p]]++
		}
	}
	return dist
}

func statusDistribution(tasks []models.Task) map[string]int {
	dist := map[string]int{
		models.StatusTodo:       0,
		models.StatusInProgress: 0,
		models.StatusDone:       0,
		models.StatusCancelled:  0,
	}
	for _, t := range tasks {
		if s, ok := models.CanonicalStatus(t.Status); ok {
			dist[s]++
		}
	}
	return dist
}

func timeAnalysis(tasks []models.Task, now time.Time) TimeAnalysis {
	var ta TimeAnalysis
	var totalEstimated, activeEstimated int
	weekEnd := now.AddDate(0, 0, 7)

	for _, t := range tasks {
		if t.EstimatedDuration != nil {
			ta.TasksWithEstimate++
			totalEstimated += *t.EstimatedDuration
			if models.IsStatusActive(t.Status) {
				activeEstimated += *t.EstimatedDuration
			}
		}

		if t.DueDate == nil || !models.IsStatusActive(t.Status) {
			continue
		}
		due := *t.DueDate
		switch {
		case due.Before(now):
			ta.OverdueCount++
		case sameDay(due, now):
			ta.DueTodayCount++
		case !due.After(weekEnd):
			ta.DueThisWeekCount++
		}
	}

	ta.TotalEstimatedHours = round2(float64(totalEstimated) / 60)
	ta.ActiveEstimatedHours = round2(float64(activeEstimated) / 60)
	return ta
}

func productivityMetrics(tasks []models.Task, now, periodStart time.Time) ProductivityMetrics {
	var created, completed int
	for _, t := range tasks {
		if t.CreatedAt.Before(periodStart) {
			continue
		}
		created++
		if models.IsStatusDone(t.Status) && t.CompletedAt != nil {
			completed++
		}
	}

	days := int(now.Sub(periodStart).Hours() / 24)
	if days < 1 {
		days = 1
	}

	m := ProductivityMetrics{
		TasksCreatedInPeriod:    created,
		TasksCompletedInPeriod:  completed,
		AvgTasksCreatedPerDay:   round2(float64(created) / float64(days)),
		AvgTasksCompletedPerDay: round2(float64(completed) / float64(days)),
	}
	if created > 0 {
		m.CompletionVelocity = round2(float64(completed) / float64(created) * 100)
	}
	return m
}

func trends(tasks []models.Task, now time.Time, days int) Trends {
	start := now.AddDate(0, 0, -days)
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())

	createdByDay := make(map[string]int)
	completedByDay := make(map[string]int)
	for _, t := range tasks {
		if !t.CreatedAt.Before(startDay) {
			createdByDay[t.CreatedAt.Format("2006-01-02")]++
		}
		if models.IsStatusDone(t.Status) && t.CompletedAt != nil && !t.CompletedAt.Before(startDay) {
			completedByDay[t.CompletedAt.Format("2006-01-02")]++
		}
	}

	var daily []DailyTrend
	for d := startDay; !d.After(now); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		daily = append(daily, DailyTrend{
			Date:      key,
			Created:   createdByDay[key],
			Completed: completedByDay[key],
		})
	}
	return Trends{DailyTrends: daily}
}

func tagsAnalysis(tasks []models.Task) TagsAnalysis {
	counts := make(map[string]int)
	for _, t := range tasks {
		for _, tag := range t.Tags {
			counts[tag]++
		}
	}

	if len(counts) == 0 {
		return TagsAnalysis{MostUsedTags: []TagCount{}, TagsUsage: map[string]int{}}
	}

	mostUsed := make([]TagCount, 0, len(counts))
	for tag, count := range counts {
		mostUsed = append(mostUsed, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(mostUsed, func(i, j int) bool {
		if mostUsed[i].Count != mostUsed[j].Count {
			return mostUsed[i].Count > mostUsed[j].Count
		}
		return mostUsed[i].Tag < mostUsed[j].Tag
	})
	if len(mostUsed) > 10 {
		mostUsed = mostUsed[:10]
	}

	return TagsAnalysis{
		TotalUniqueTags: len(counts),
		MostUsedTags:    mostUsed,
		TagsUsage:       counts,
	}
}

func overdueAnalysis(tasks []models.Task, now time.Time) OverdueAnalysis {
	var daysOverdue []int
	byPriority := make(map[string]int)

	for _, t := range tasks {
		if t.DueDate == nil || !t.DueDate.Before(now) || !models.IsStatusActive(t.Status) {
			continue
		}
		daysOverdue = append(daysOverdue, int(now.Sub(*t.DueDate).Hours()/24))
		// Key by canonical class so aliases from both locales land in one
		// bucket, labeled like priorityDistribution
		if p, ok := models.CanonicalPriority(t.Priority); ok {
			byPriority[priorityLabels[p]]++
		}
	}

	if len(daysOverdue) == 0 {
		return OverdueAnalysis{OverdueByPriority: map[string]int{}}
	}

	sum, max := 0, 0
	for _, d := range daysOverdue {
		sum += d
		if d > max {
			max = d
		}
	}

	return OverdueAnalysis{
		TotalOverdue:      len(daysOverdue),
		AvgDaysOverdue:    math.Round(float64(sum)/float64(len(daysOverdue))*10) / 10,
		MaxDaysOverdue:    max,
		OverdueByPriority: byPriority,
	}
}

func projectDistribution(tasks []models.Task) ProjectDistribution {
	perProject := make(map[string]int)
	var with, without int
	for _, t := range tasks {
		if t.ProjectID != nil {
			with++
			perProject[*t.ProjectID]++
		} else {
			without++
		}
	}
	return ProjectDistribution{
		TasksWithProject:    with,
		TasksWithoutProject: without,
		UniqueProjects:      len(perProject),
		TasksPerProject:     perProject,
	}
}
