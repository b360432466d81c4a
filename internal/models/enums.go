package models

import "strings"

// Task status and priority come over the wire in two vocabularies: the
// canonical English values and the Brazilian Portuguese aliases the original
// client sends. One logical enum, two serializations. Comparisons must go
// through the Canonical* helpers, never raw string equality.

const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusCancelled  = "cancelled"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

var statusAliases = map[string]string{
	"todo":         StatusTodo,
	"pending":      StatusTodo,
	"a_fazer":      StatusTodo,
	"in_progress":  StatusInProgress,
	"em_progresso": StatusInProgress,
	"done":         StatusDone,
	"concluida":    StatusDone,
	"cancelled":    StatusCancelled,
	"cancelada":    StatusCancelled,
}

var priorityAliases = map[string]string{
	"low":     PriorityLow,
	"baixa":   PriorityLow,
	"medium":  PriorityMedium,
	"media":   PriorityMedium,
	"high":    PriorityHigh,
	"alta":    PriorityHigh,
	"urgent":  PriorityUrgent,
	"urgente": PriorityUrgent,
}

// CanonicalStatus maps any known alias to its canonical value.
// Unknown input returns ("", false).
func CanonicalStatus(status string) (string, bool) {
	s, ok := statusAliases[strings.ToLower(strings.TrimSpace(status))]
	return s, ok
}

// CanonicalPriority maps any known alias to its canonical value.
func CanonicalPriority(priority string) (string, bool) {
	p, ok := priorityAliases[strings.ToLower(strings.TrimSpace(priority))]
	return p, ok
}

// StatusAliases returns every stored spelling of the status equivalence
// class, for use in SQL IN clauses. Unknown input returns nil.
func StatusAliases(status string) []string {
	canonical, ok := CanonicalStatus(status)
	if !ok {
		return nil
	}
	var aliases []string
	for alias, c := range statusAliases {
		if c == canonical {
			aliases = append(aliases, alias)
		}
	}
	return aliases
}

func ValidStatus(status string) bool {
	_, ok := CanonicalStatus(status)
	return ok
}

func ValidPriority(priority string) bool {
	_, ok := CanonicalPriority(priority)
	return ok
}

func IsStatusDone(status string) bool {
	s, _ := CanonicalStatus(status)
	return s == StatusDone
}

func IsStatusCancelled(status string) bool {
	s, _ := CanonicalStatus(status)
	return s == StatusCancelled
}

func IsStatusInProgress(status string) bool {
	s, _ := CanonicalStatus(status)
	return s == StatusInProgress
}

func IsStatusTodo(status string) bool {
	s, _ := CanonicalStatus(status)
	return s == StatusTodo
}

// IsStatusActive reports whether a task still counts as open work.
func IsStatusActive(status string) bool {
	return !IsStatusDone(status) && !IsStatusCancelled(status)
}

func IsPriorityUrgent(priority string) bool {
	p, _ := CanonicalPriority(priority)
	return p == PriorityUrgent
}

// IsPriorityHighOrUrgent reports whether the priority belongs to the
// high-attention classes.
func IsPriorityHighOrUrgent(priority string) bool {
	p, _ := CanonicalPriority(priority)
	return p == PriorityHigh || p == PriorityUrgent
}
