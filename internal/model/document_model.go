package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Document struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OriginalName   string         `gorm:"type:varchar(512);not null"`
	StoredName     string         `gorm:"type:varchar(512);not null;uniqueIndex"`
	ContentType    string         `gorm:"type:varchar(255)"`
	SizeBytes      int64          `gorm:"not null;default:0"`
	UploadedBy     string         `gorm:"type:varchar(255)"`
	Description    string         `gorm:"type:text"`
	Preview        string         `gorm:"type:text"`
	IndexingStatus string         `gorm:"type:varchar(32);not null;default:'PENDING';index"`
	IndexingError  string         `gorm:"type:text"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}
