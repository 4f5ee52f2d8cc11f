package implementation

import (
	"context"
	"fmt"

	"oneask-be/internal/entity"
	"oneask-be/internal/mapper"
	"oneask-be/internal/model"
	"oneask-be/internal/repository/contract"
	"oneask-be/internal/repository/specification"
	"oneask-be/pkg/qa/retrieval"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type DocumentChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentChunkMapper
}

func NewDocumentChunkRepository(db *gorm.DB) contract.DocumentChunkRepository {
	return &DocumentChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentChunkMapper(),
	}
}

func (r *DocumentChunkRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DocumentChunkRepositoryImpl) CreateBatch(ctx context.Context, chunks []*entity.DocumentChunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d vs %d", len(chunks), len(embeddings))
	}
	if len(chunks) == 0 {
		return nil
	}

	models := make([]*model.DocumentChunk, len(chunks))
	for i, c := range chunks {
		models[i] = &model.DocumentChunk{
			Id:             c.Id,
			DocumentId:     c.DocumentId,
			ChunkIndex:     c.ChunkIndex,
			Content:        c.Content,
			Page:           c.Page,
			EmbeddingValue: pgvector.NewVector(embeddings[i]),
		}
	}
	return r.db.WithContext(ctx).CreateInBatches(models, 100).Error
}

func (r *DocumentChunkRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().Where("document_id = ?", documentId).Delete(&model.DocumentChunk{}).Error
}

func (r *DocumentChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error) {
	var models []*model.DocumentChunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *DocumentChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.DocumentChunk{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// scoredChunkRow is the scan target for the similarity query.
type scoredChunkRow struct {
	DocumentId uuid.UUID
	Source     string
	ChunkIndex int
	Content    string
	Page       *int
	Similarity float64
}

func (r *DocumentChunkRepositoryImpl) SearchScored(ctx context.Context, vector []float32, docID string, limit int) ([]retrieval.ScoredChunk, error) {
	if limit <= 0 {
		limit = 4
	}

	// Cosine similarity via pgvector: 1 - (embedding_value <=> query).
	query := r.db.WithContext(ctx).
		Table("document_chunks").
		Select("document_chunks.document_id, documents.original_name AS source, "+
			"document_chunks.chunk_index, document_chunks.content, document_chunks.page, "+
			"1 - (document_chunks.embedding_value <=> ?) AS similarity",
			pgvector.NewVector(vector)).
		Joins("JOIN documents ON documents.id = document_chunks.document_id").
		Where("document_chunks.deleted_at IS NULL").
		Where("documents.deleted_at IS NULL")

	if docID != "" {
		query = query.Where("document_chunks.document_id = ?", docID)
	}

	var rows []scoredChunkRow
	err := query.
		Order("similarity DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	hits := make([]retrieval.ScoredChunk, len(rows))
	for i, row := range rows {
		hits[i] = retrieval.ScoredChunk{
			DocID:      row.DocumentId.String(),
			Source:     row.Source,
			ChunkIndex: row.ChunkIndex,
			Content:    row.Content,
			Page:       row.Page,
			Similarity: row.Similarity,
		}
	}
	return hits, nil
}
