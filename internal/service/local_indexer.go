package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"oneask-be/internal/entity"
	"oneask-be/internal/repository/contract"
	"oneask-be/pkg/embedding"
	"oneask-be/pkg/qa/indexing"
	"oneask-be/pkg/textsplit"

	"github.com/google/uuid"
)

// plainTextExtensions are the formats the local indexer can read directly.
// Binary formats (PDF, Office) are indexed by the HTTP backend only.
var plainTextExtensions = map[string]bool{
	".txt": true, ".md": true, ".csv": true, ".log": true,
	".json": true, ".xml": true, ".html": true, ".htm": true,
}

// LocalIndexer chunks and embeds documents into the pgvector store. It backs
// the RETRIEVER_PROVIDER=local deployment where no external RAG backend runs.
type LocalIndexer struct {
	chunkRepo    contract.DocumentChunkRepository
	embedder     embedding.Provider
	chunkSize    int
	chunkOverlap int
}

var _ indexing.Indexer = &LocalIndexer{}

func NewLocalIndexer(chunkRepo contract.DocumentChunkRepository, embedder embedding.Provider, chunkSize, chunkOverlap int) *LocalIndexer {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 5
	}
	return &LocalIndexer{
		chunkRepo:    chunkRepo,
		embedder:     embedder,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

func (i *LocalIndexer) IndexFile(ctx context.Context, docID, filePath, originalName string) error {
	documentId, err := uuid.Parse(docID)
	if err != nil {
		return fmt.Errorf("parse document id: %w", err)
	}

	text, err := extractPlainText(filePath, originalName)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return indexing.ErrSkipped
	}

	// Reindex replaces, never appends.
	if err := i.chunkRepo.DeleteByDocumentId(ctx, documentId); err != nil {
		return fmt.Errorf("clear previous chunks: %w", err)
	}

	pieces := textsplit.Split(text, i.chunkSize, i.chunkOverlap)
	chunks := make([]*entity.DocumentChunk, len(pieces))
	embeddings := make([][]float32, len(pieces))
	for idx, piece := range pieces {
		vector, err := i.embedder.Generate(ctx, piece, embedding.TaskRetrievalDocument)
		if err != nil {
			return fmt.Errorf("embed chunk %d: %w", idx, err)
		}
		chunks[idx] = &entity.DocumentChunk{
			DocumentId: documentId,
			ChunkIndex: idx,
			Content:    piece,
		}
		embeddings[idx] = vector
	}

	return i.chunkRepo.CreateBatch(ctx, chunks, embeddings)
}

func (i *LocalIndexer) Remove(ctx context.Context, docID string) error {
	documentId, err := uuid.Parse(docID)
	if err != nil {
		return fmt.Errorf("parse document id: %w", err)
	}
	return i.chunkRepo.DeleteByDocumentId(ctx, documentId)
}

// extractPlainText reads a stored file as text when its format allows it.
// Unsupported formats surface as ErrSkipped.
func extractPlainText(filePath, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !plainTextExtensions[ext] {
		return "", indexing.ErrSkipped
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("read stored file: %w", err)
	}
	if !utf8.Valid(data) {
		return "", indexing.ErrSkipped
	}
	return string(data), nil
}
