package embedding

import "context"

// Task types understood by the embedding backends. Queries and indexed
// documents are embedded differently by Gemini; Ollama ignores the hint.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// Provider defines the interface for generating text embeddings.
type Provider interface {
	Generate(ctx context.Context, text string, taskType string) ([]float32, error)
}
