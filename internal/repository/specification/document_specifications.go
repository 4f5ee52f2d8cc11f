package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByDocumentId filters chunk rows by their owning document.
type ByDocumentId struct {
	DocumentId uuid.UUID
}

func (s ByDocumentId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id = ?", s.DocumentId)
}

// ByIndexingStatus filters documents by indexing lifecycle state.
type ByIndexingStatus struct {
	Status string
}

func (s ByIndexingStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("indexing_status = ?", s.Status)
}

// ByStoredName filters by the on-disk file name, which is unique.
type ByStoredName struct {
	StoredName string
}

func (s ByStoredName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("stored_name = ?", s.StoredName)
}

// CreatedBetween filters by upload date range; either bound may be nil.
type CreatedBetween struct {
	From *time.Time
	To   *time.Time
}

func (s CreatedBetween) Apply(db *gorm.DB) *gorm.DB {
	if s.From != nil {
		db = db.Where("created_at >= ?", *s.From)
	}
	if s.To != nil {
		db = db.Where("created_at <= ?", *s.To)
	}
	return db
}

// NameSearch matches documents whose original name contains the term.
type NameSearch struct {
	Term string
}

func (s NameSearch) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("original_name ILIKE ?", "%"+s.Term+"%")
}
