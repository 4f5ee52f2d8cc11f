package retrieval

import (
	"context"

	"oneask-be/pkg/qa"
)

// Retriever performs similarity search over the indexed documents.
// docID restricts the search to one document; empty means corpus-wide.
type Retriever interface {
	Retrieve(ctx context.Context, question, docID string, topK int) (*qa.RetrievalResult, error)
}
