package models

import (
	"time"

	"github.com/google/uuid"
)

// DatasetHistoryEntry tracks a dataset a user has worked with. Entries
// are keyed by filename: loading the same file again bumps usage_count
// and last_used instead of inserting a duplicate.
type DatasetHistoryEntry struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Filename string    `json:"filename"`
	Columns  []string  `json:"columns,omitempty"`
	RowCount *int      `json:"row_count,omitempty"`

	IsFavorite bool      `json:"is_favorite"`
	UsageCount int       `json:"usage_count"`
	UploadedAt time.Time `json:"uploaded_at"`
	LastUsed   time.Time `json:"last_used"`
}
