package dto

import (
	"time"

	"github.com/google/uuid"
)

type DocumentResponse struct {
	Id             uuid.UUID  `json:"id"`
	OriginalName   string     `json:"original_name"`
	ContentType    string     `json:"content_type"`
	SizeBytes      int64      `json:"size_bytes"`
	UploadedBy     string     `json:"uploaded_by,omitempty"`
	Description    string     `json:"description,omitempty"`
	Preview        string     `json:"preview,omitempty"`
	IndexingStatus string     `json:"indexing_status"`
	IndexingError  string     `json:"indexing_error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

type ListDocumentsRequest struct {
	Search     string `query:"search"`
	UploadedBy string `query:"uploaded_by"`
	From       string `query:"from"`
	To         string `query:"to"`
	Limit      int    `query:"limit"`
	Offset     int    `query:"offset"`
}

type ListDocumentsResponse struct {
	Documents []*DocumentResponse `json:"documents"`
	Total     int64               `json:"total"`
}

type ReindexResponse struct {
	Id             uuid.UUID `json:"id"`
	IndexingStatus string    `json:"indexing_status"`
}
