package models

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalStatusAliases(t *testing.T) {
	cases := map[string]string{
		"todo":         StatusTodo,
		"pending":      StatusTodo,
		"a_fazer":      StatusTodo,
		"A_FAZER":      StatusTodo,
		" em_progresso ": StatusInProgress,
		"in_progress":  StatusInProgress,
		"done":         StatusDone,
		"concluida":    StatusDone,
		"cancelled":    StatusCancelled,
		"cancelada":    StatusCancelled,
	}
	for input, want := range cases {
		got, ok := CanonicalStatus(input)
		assert.True(t, ok, "input %q should be a known status", input)
		assert.Equal(t, want, got, "input %q", input)
	}

	_, ok := CanonicalStatus("doing")
	assert.False(t, ok)
}

func TestCanonicalPriorityAliases(t *testing.T) {
	cases := map[string]string{
		"low":     PriorityLow,
		"baixa":   PriorityLow,
		"medium":  PriorityMedium,
		"media":   PriorityMedium,
		"high":    PriorityHigh,
		"alta":    PriorityHigh,
		"urgent":  PriorityUrgent,
		"urgente": PriorityUrgent,
	}
	for input, want := range cases {
		got, ok := CanonicalPriority(input)
		assert.True(t, ok, "input %q should be a known priority", input)
		assert.Equal(t, want, got, "input %q", input)
	}

	_, ok := CanonicalPriority("critical")
	assert.False(t, ok)
}

func TestStatusAliasesCoverWholeClass(t *testing.T) {
	aliases := StatusAliases("concluida")
	sort.Strings(aliases)
	assert.Equal(t, []string{"concluida", "done"}, aliases)

	aliases = StatusAliases("pending")
	sort.Strings(aliases)
	assert.Equal(t, []string{"a_fazer", "pending", "todo"}, aliases)

	assert.Nil(t, StatusAliases("unknown"))
}

func TestStatusPredicatesAcceptBothLocales(t *testing.T) {
	assert.True(t, IsStatusDone("concluida"))
	assert.True(t, IsStatusDone("done"))
	assert.False(t, IsStatusDone("todo"))

	assert.True(t, IsStatusActive("a_fazer"))
	assert.True(t, IsStatusActive("em_progresso"))
	assert.False(t, IsStatusActive("cancelada"))
	assert.False(t, IsStatusActive("done"))
}

func TestPriorityPredicates(t *testing.T) {
	assert.True(t, IsPriorityUrgent("urgente"))
	assert.False(t, IsPriorityUrgent("alta"))

	assert.True(t, IsPriorityHighOrUrgent("alta"))
	assert.True(t, IsPriorityHighOrUrgent("urgent"))
	assert.False(t, IsPriorityHighOrUrgent("media"))
}
