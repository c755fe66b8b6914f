package apperrors

import "errors"

// Sentinel errors for the ingestion and query pipelines.
// Wrap with fmt.Errorf("...: %w", Err...) and check with errors.Is.
var (
	// ErrChunking signals an invalid chunking configuration or a split failure.
	ErrChunking = errors.New("chunking error")

	// ErrEmbedding signals that an embedding backend call failed. The whole
	// batch fails; callers retry at the document level, not per chunk.
	ErrEmbedding = errors.New("embedding error")

	// ErrConfiguration is fatal misconfiguration (e.g. vector dimension
	// mismatch). Never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrRetrieval is recoverable: the project has no ready documents to
	// search. Surfaced to the user as an empty-context answer.
	ErrRetrieval = errors.New("retrieval error")

	// ErrProviderUnavailable means the LLM backend could not be reached after
	// connection retries. Surfaced as a retryable failure.
	ErrProviderUnavailable = errors.New("llm provider unavailable")

	// ErrUnsupportedFormat means the document content type cannot be decoded.
	// Fatal for that document.
	ErrUnsupportedFormat = errors.New("unsupported document format")
)
