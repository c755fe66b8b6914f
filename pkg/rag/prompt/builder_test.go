package prompt

import (
	"testing"

	"doc-chat-be/pkg/llm"

	"github.com/stretchr/testify/assert"
)

func TestBuildIncludesMarkedPassagesAndQuestion(t *testing.T) {
	b := NewGroundedBuilder("What is the refund policy?", []Passage{
		{Marker: "S1", Text: "Refunds are issued within 30 days."},
		{Marker: "S2", Text: "Store credit is offered after 30 days."},
	})

	got := b.Build()

	assert.Contains(t, got, "[S1] Refunds are issued within 30 days.")
	assert.Contains(t, got, "[S2] Store credit is offered after 30 days.")
	assert.Contains(t, got, "based *only* on the context")
	assert.Contains(t, got, "What is the refund policy?")
	assert.NotContains(t, got, "No supporting documents")
}

func TestBuildWithoutPassagesUsesNoContextInstruction(t *testing.T) {
	got := NewGroundedBuilder("Who wrote this?", nil).Build()

	assert.Contains(t, got, "No supporting documents were found")
	assert.Contains(t, got, "may be unreliable")
	assert.Contains(t, got, "Who wrote this?")
	assert.NotContains(t, got, "<context>")
}

func TestBoundHistoryKeepsMostRecentTurns(t *testing.T) {
	history := []llm.Message{
		{Role: "user", Content: "q1"},
		{Role: "assistant", Content: "a1"},
		{Role: "user", Content: "q2"},
		{Role: "assistant", Content: "a2"},
		{Role: "user", Content: "q3"},
		{Role: "assistant", Content: "a3"},
	}

	got := BoundHistory(history, 2)

	assert.Len(t, got, 4)
	assert.Equal(t, "q2", got[0].Content)
	assert.Equal(t, "a3", got[3].Content)
}

func TestBoundHistoryShortHistoryUnchanged(t *testing.T) {
	history := []llm.Message{
		{Role: "user", Content: "q1"},
		{Role: "assistant", Content: "a1"},
	}

	assert.Equal(t, history, BoundHistory(history, 6))
	assert.Nil(t, BoundHistory(history, 0))
}
