package embedding

import "context"

// Task types hint the backend at how the vector will be used. Ollama ignores
// them; Gemini distinguishes document vs query embeddings.
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// Provider generates text embeddings. EmbedMany must preserve input order and
// return exactly one vector per input; if any item fails, the whole batch
// fails (callers retry at document granularity, never per chunk).
type Provider interface {
	EmbedOne(ctx context.Context, text string, taskType string) ([]float32, error)
	EmbedMany(ctx context.Context, texts []string, taskType string) ([][]float32, error)

	// Dimension is the fixed vector length for the configured model. Checked
	// against produced vectors at store-write time.
	Dimension() int
}
