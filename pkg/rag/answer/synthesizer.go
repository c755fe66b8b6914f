package answer

import (
	"context"
	"fmt"
	"regexp"

	"doc-chat-be/pkg/llm"
	"doc-chat-be/pkg/rag/prompt"

	"github.com/google/uuid"
)

// Source is one retrieved chunk offered to the model, identified by the
// marker it may be cited with.
type Source struct {
	Marker        string
	ChunkID       uuid.UUID
	DocumentID    uuid.UUID
	SequenceIndex int
	Text          string
}

// Citation points at a source the answer actually referenced.
type Citation struct {
	Marker        string
	ChunkID       uuid.UUID
	DocumentID    uuid.UUID
	SequenceIndex int
}

// Answer is the completed synthesis: the full text and the cited sources.
type Answer struct {
	Text      string
	Citations []Citation
}

// Sink receives answer fragments as the model produces them.
type Sink func(fragment string) error

var markerPattern = regexp.MustCompile(`\[S\d+\]`)

// Synthesizer turns retrieved sources into a grounded, streamed answer.
// Citations are decided after the fact: only markers the model wrote into the
// answer survive, offered-but-unused sources are dropped.
type Synthesizer struct {
	router        *llm.Router
	historyWindow int
}

func NewSynthesizer(router *llm.Router, historyWindow int) *Synthesizer {
	return &Synthesizer{
		router:        router,
		historyWindow: historyWindow,
	}
}

// Synthesize streams the answer for a question. Fragments reach the sink in
// production order before Synthesize returns. With zero sources the model is
// still invoked, under an explicit no-context instruction, and the answer
// carries no citations. A mid-stream failure returns the partial text already
// relayed together with the error.
func (s *Synthesizer) Synthesize(ctx context.Context, sel llm.Selection, question string, history []llm.Message, sources []Source, sink Sink) (Answer, error) {
	passages := make([]prompt.Passage, len(sources))
	for i, src := range sources {
		passages[i] = prompt.Passage{Marker: src.Marker, Text: src.Text}
	}

	messages := append(
		prompt.BoundHistory(history, s.historyWindow),
		llm.Message{Role: "user", Content: prompt.NewGroundedBuilder(question, passages).Build()},
	)

	fragments, err := s.router.Stream(ctx, sel, messages)
	if err != nil {
		return Answer{}, err
	}

	var text string
	for fragment := range fragments {
		if fragment.Err != nil {
			return Answer{Text: text}, fmt.Errorf("answer stream failed: %w", fragment.Err)
		}
		if err := sink(fragment.Content); err != nil {
			return Answer{Text: text}, fmt.Errorf("write answer fragment: %w", err)
		}
		text += fragment.Content
	}

	return Answer{
		Text:      text,
		Citations: extractCitations(text, sources),
	}, nil
}

// extractCitations keeps sources in their offered order, filtered to markers
// that appear in the answer text. Repeated references yield one citation.
func extractCitations(text string, sources []Source) []Citation {
	referenced := make(map[string]bool)
	for _, marker := range markerPattern.FindAllString(text, -1) {
		referenced[marker[1:len(marker)-1]] = true
	}

	var citations []Citation
	for _, src := range sources {
		if referenced[src.Marker] {
			citations = append(citations, Citation{
				Marker:        src.Marker,
				ChunkID:       src.ChunkID,
				DocumentID:    src.DocumentID,
				SequenceIndex: src.SequenceIndex,
			})
		}
	}
	return citations
}
