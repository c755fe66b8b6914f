package prompt

import (
	"fmt"
	"strings"

	"doc-chat-be/pkg/llm"
)

// Passage is one retrieved chunk presented to the model, tagged with the
// source marker the model must cite it by.
type Passage struct {
	Marker string
	Text   string
}

// GroundedBuilder builds the answer prompt from retrieved passages. With no
// passages it falls back to an explicit no-context instruction so the model
// states its low confidence instead of silently hallucinating grounding.
type GroundedBuilder struct {
	question string
	passages []Passage
}

func NewGroundedBuilder(question string, passages []Passage) *GroundedBuilder {
	return &GroundedBuilder{
		question: question,
		passages: passages,
	}
}

func (b *GroundedBuilder) Build() string {
	var prompt strings.Builder

	if len(b.passages) == 0 {
		b.writeNoContextTask(&prompt)
	} else {
		b.writeContext(&prompt)
		b.writeTask(&prompt)
	}
	b.writeUserQuestion(&prompt)

	return prompt.String()
}

func (b *GroundedBuilder) writeContext(prompt *strings.Builder) {
	prompt.WriteString("<context>\n")
	for _, passage := range b.passages {
		fmt.Fprintf(prompt, "[%s] %s\n\n", passage.Marker, strings.TrimSpace(passage.Text))
	}
	prompt.WriteString("</context>\n\n")
}

func (b *GroundedBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString("Answer the question based *only* on the context above.\n")
	prompt.WriteString("Every claim you take from the context must cite its source by writing the marker inline, e.g. [S1] or [S3].\n")
	prompt.WriteString("Only cite markers that actually support the claim; do not cite sources you did not use.\n")
	prompt.WriteString("If the context does not contain the answer, say so honestly instead of guessing.\n")
	prompt.WriteString("</task>\n\n")
}

func (b *GroundedBuilder) writeNoContextTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString("No supporting documents were found for this question.\n")
	prompt.WriteString("Answer from general knowledge, and begin your response by clearly stating that no relevant documents were found and the answer may be unreliable.\n")
	prompt.WriteString("</task>\n\n")
}

func (b *GroundedBuilder) writeUserQuestion(prompt *strings.Builder) {
	prompt.WriteString("<user_question>\n")
	prompt.WriteString(b.question)
	prompt.WriteString("\n</user_question>\n")
}

// BoundHistory keeps only the most recent turns so long sessions do not grow
// the prompt without limit. A turn is one user/assistant message pair; window
// is counted in turns.
func BoundHistory(history []llm.Message, window int) []llm.Message {
	if window <= 0 {
		return nil
	}
	keep := window * 2
	if len(history) <= keep {
		return history
	}
	return history[len(history)-keep:]
}
