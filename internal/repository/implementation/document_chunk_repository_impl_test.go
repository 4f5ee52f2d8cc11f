package implementation

import (
	"context"
	"database/sql"
	"testing"

	"oneask-be/internal/repository/contract"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupChunkRepository(t *testing.T) (contract.DocumentChunkRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewDocumentChunkRepository(gormDB), mock, db
}

func TestSearchScoredOrdersBySimilarity(t *testing.T) {
	repo, mock, db := setupChunkRepository(t)
	defer db.Close()

	docId := uuid.New()
	mock.ExpectQuery(`ORDER BY similarity DESC LIMIT \$\d+`).
		WillReturnRows(sqlmock.NewRows(
			[]string{"document_id", "source", "chunk_index", "content", "page", "similarity"}).
			AddRow(docId.String(), "handbook.pdf", 0, "Annual leave is 15 days.", nil, 0.91))

	hits, err := repo.SearchScored(context.Background(), []float32{0.1, 0.2, 0.3}, "", 4)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, docId.String(), hits[0].DocID)
	assert.Equal(t, "handbook.pdf", hits[0].Source)
	assert.InDelta(t, 0.91, hits[0].Similarity, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchScoredScopesToDocument(t *testing.T) {
	repo, mock, db := setupChunkRepository(t)
	defer db.Close()

	docId := uuid.New().String()
	mock.ExpectQuery(`document_chunks\.document_id = \$\d+.*ORDER BY similarity DESC`).
		WillReturnRows(sqlmock.NewRows(
			[]string{"document_id", "source", "chunk_index", "content", "page", "similarity"}))

	hits, err := repo.SearchScored(context.Background(), []float32{0.1, 0.2, 0.3}, docId, 4)
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.NoError(t, mock.ExpectationsWereMet())
}
