package contract

import (
	"context"

	"oneask-be/internal/entity"
	"oneask-be/internal/repository/specification"
	"oneask-be/pkg/qa/retrieval"

	"github.com/google/uuid"
)

type DocumentChunkRepository interface {
	CreateBatch(ctx context.Context, chunks []*entity.DocumentChunk, embeddings [][]float32) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// SearchScored runs a cosine-similarity search over chunk embeddings,
	// optionally narrowed to one document.
	SearchScored(ctx context.Context, vector []float32, docID string, limit int) ([]retrieval.ScoredChunk, error)
}
