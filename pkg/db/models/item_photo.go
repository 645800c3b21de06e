package models

import (
	"time"

	"github.com/google/uuid"
)

// ItemPhoto is the photo metadata record behind one stored object.
// Exactly one of ItemID/UserID is set: item photos carry an ordinal
// position, profile pictures do not.
type ItemPhoto struct {
	ID               uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemID           *uuid.UUID `gorm:"column:item_id;type:uuid;index"`
	UserID           *uuid.UUID `gorm:"column:user_id;type:uuid;index"`
	URL              string     `gorm:"column:url;not null"`
	FileName         string     `gorm:"column:file_name;not null"`
	OriginalFileName string     `gorm:"column:original_file_name;not null"`
	SizeBytes        int64      `gorm:"column:size_bytes;not null"`
	Position         int        `gorm:"column:position;not null;default:0"`
	UploadedAt       time.Time  `gorm:"column:uploaded_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
