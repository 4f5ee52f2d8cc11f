package retrieval

import (
	"context"
	"fmt"
	"strings"

	"oneask-be/pkg/embedding"
	"oneask-be/pkg/qa"
)

// ScoredChunk is a similarity-search hit from the local vector store.
type ScoredChunk struct {
	DocID      string
	Source     string
	ChunkIndex int
	Content    string
	Page       *int
	Similarity float64
}

// ChunkStore is the narrow slice of the chunk repository the local
// retriever needs.
type ChunkStore interface {
	SearchScored(ctx context.Context, vector []float32, docID string, limit int) ([]ScoredChunk, error)
}

// LocalRetriever answers retrieval requests from the pgvector chunk store
// instead of the external RAG backend. Selected with RETRIEVER_PROVIDER=local.
type LocalRetriever struct {
	embedder embedding.Provider
	store    ChunkStore
}

var _ Retriever = &LocalRetriever{}

func NewLocalRetriever(embedder embedding.Provider, store ChunkStore) *LocalRetriever {
	return &LocalRetriever{
		embedder: embedder,
		store:    store,
	}
}

func (r *LocalRetriever) Retrieve(ctx context.Context, question, docID string, topK int) (*qa.RetrievalResult, error) {
	vector, err := r.embedder.Generate(ctx, question, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, &qa.RetrievalError{Err: fmt.Errorf("embed question: %w", err)}
	}

	hits, err := r.store.SearchScored(ctx, vector, docID, topK)
	if err != nil {
		return nil, &qa.RetrievalError{Err: fmt.Errorf("vector search: %w", err)}
	}

	matches := make([]qa.RetrievedChunk, 0, len(hits))
	var contextBuilder strings.Builder
	for i, hit := range hits {
		reference := fmt.Sprintf("[chunk %d]", i+1)
		if contextBuilder.Len() > 0 {
			contextBuilder.WriteString("\n\n")
		}
		contextBuilder.WriteString(reference)
		contextBuilder.WriteString("\n")
		contextBuilder.WriteString(hit.Content)

		matches = append(matches, qa.RetrievedChunk{
			Reference:  reference,
			ChunkIndex: hit.ChunkIndex,
			Content:    hit.Content,
			Preview:    preview(hit.Content),
			Source:     hit.Source,
			Page:       hit.Page,
			Metadata:   map[string]interface{}{"score": hit.Similarity},
		})
	}

	return &qa.RetrievalResult{Context: contextBuilder.String(), Matches: matches}, nil
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= 200 {
		return content
	}
	return string(runes[:200]) + "..."
}
