package ingest

import (
	"context"
	"fmt"

	"doc-chat-be/pkg/apperrors"
	"doc-chat-be/pkg/chunker"
	"doc-chat-be/pkg/embedding"

	"github.com/google/uuid"
)

// Document identifies what is being ingested.
type Document struct {
	ID          uuid.UUID
	ProjectID   uuid.UUID
	ContentType string
}

// StoredChunk is one passage ready for persistence, embedding included.
type StoredChunk struct {
	ID            uuid.UUID
	DocumentID    uuid.UUID
	ProjectID     uuid.UUID
	SequenceIndex int
	StartOffset   int
	EndOffset     int
	Text          string
	Embedding     []float32
}

// Decoder extracts plain text from raw bytes.
type Decoder interface {
	Decode(data []byte, contentType string) (string, error)
}

// Splitter cuts decoded text into passages.
type Splitter interface {
	Split(text string) ([]chunker.Chunk, error)
}

// Embedder produces one vector per passage, all-or-nothing.
type Embedder interface {
	EmbedMany(ctx context.Context, texts []string, taskType string) ([][]float32, error)
	Dimension() int
}

// ChunkWriter persists passages into the vector store.
type ChunkWriter interface {
	UpsertBulk(ctx context.Context, chunks []StoredChunk) error
	DeleteByDocument(ctx context.Context, documentID uuid.UUID) error
}

// LexicalWriter is satisfied by *lexical.Index.
type LexicalWriter interface {
	Add(projectID, documentID, chunkID uuid.UUID, sequenceIndex int, text string)
	RemoveDocument(projectID, documentID uuid.UUID)
}

// Pipeline runs decode, chunk, embed and the two index inserts for one
// document. Any failure cleans up whatever was already written so a failed
// document never leaves orphan chunks behind.
type Pipeline struct {
	decoder  Decoder
	splitter Splitter
	embedder Embedder
	chunks   ChunkWriter
	lexical  LexicalWriter
}

func NewPipeline(decoder Decoder, splitter Splitter, embedder Embedder, chunks ChunkWriter, lexical LexicalWriter) *Pipeline {
	return &Pipeline{
		decoder:  decoder,
		splitter: splitter,
		embedder: embedder,
		chunks:   chunks,
		lexical:  lexical,
	}
}

// Process ingests one document's bytes and returns how many chunks were
// stored. A document that decodes to empty text succeeds with zero chunks.
func (p *Pipeline) Process(ctx context.Context, doc Document, data []byte) (int, error) {
	text, err := p.decoder.Decode(data, doc.ContentType)
	if err != nil {
		return 0, fmt.Errorf("decode document: %w", err)
	}

	pieces, err := p.splitter.Split(text)
	if err != nil {
		return 0, fmt.Errorf("split document: %w", err)
	}
	if len(pieces) == 0 {
		return 0, nil
	}

	texts := make([]string, len(pieces))
	for i, piece := range pieces {
		texts[i] = piece.Text
	}
	vectors, err := p.embedder.EmbedMany(ctx, texts, embedding.TaskRetrievalDocument)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}

	expected := p.embedder.Dimension()
	for i, vec := range vectors {
		if len(vec) != expected {
			return 0, fmt.Errorf("%w: embedding dimension %d for chunk %d, store expects %d",
				apperrors.ErrConfiguration, len(vec), i, expected)
		}
	}

	stored := make([]StoredChunk, len(pieces))
	for i, piece := range pieces {
		stored[i] = StoredChunk{
			ID:            uuid.New(),
			DocumentID:    doc.ID,
			ProjectID:     doc.ProjectID,
			SequenceIndex: piece.Index,
			StartOffset:   piece.Start,
			EndOffset:     piece.End,
			Text:          piece.Text,
			Embedding:     vectors[i],
		}
	}

	if err := p.chunks.UpsertBulk(ctx, stored); err != nil {
		p.Cleanup(ctx, doc)
		return 0, fmt.Errorf("store chunks: %w", err)
	}

	for _, chunk := range stored {
		p.lexical.Add(doc.ProjectID, doc.ID, chunk.ID, chunk.SequenceIndex, chunk.Text)
	}

	return len(stored), nil
}

// Cleanup removes whatever the document left in either index. Best-effort:
// the caller marks the document failed regardless.
func (p *Pipeline) Cleanup(ctx context.Context, doc Document) {
	_ = p.chunks.DeleteByDocument(ctx, doc.ID)
	p.lexical.RemoveDocument(doc.ProjectID, doc.ID)
}
