package entity

import (
	"time"

	"github.com/google/uuid"
)

// IndexingStatus tracks the lifecycle of a document inside the search index.
type IndexingStatus string

const (
	IndexingPending    IndexingStatus = "PENDING"
	IndexingProcessing IndexingStatus = "PROCESSING"
	IndexingSucceeded  IndexingStatus = "SUCCEEDED"
	IndexingFailed     IndexingStatus = "FAILED"
	IndexingSkipped    IndexingStatus = "SKIPPED"
)

type Document struct {
	Id             uuid.UUID
	OriginalName   string
	StoredName     string
	ContentType    string
	SizeBytes      int64
	UploadedBy     string
	Description    string
	Preview        string
	IndexingStatus IndexingStatus
	IndexingError  string
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}

// DocumentChunk is one indexed slice of a document's text.
type DocumentChunk struct {
	Id         uuid.UUID
	DocumentId uuid.UUID
	ChunkIndex int
	Content    string
	Page       *int
	CreatedAt  time.Time
}
