package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

// Document processing statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Document represents one uploaded document with its chunked text and
// the chunk vectors. Documents are immutable after creation and owned
// by exactly one user.
type Document struct {
	ID         string      `json:"id" gorm:"primaryKey;type:varchar(32)"`
	UserID     string      `json:"user_id" gorm:"type:varchar(32);index:idx_user_id;not null"`
	Filename   string      `json:"filename" gorm:"size:255;not null"`
	Content    string      `json:"content,omitempty" gorm:"type:text;not null"`
	Chunks     StringArray `json:"chunks,omitempty" gorm:"type:text;not null"`
	Embeddings VectorArray `json:"embeddings,omitempty" gorm:"type:text;not null"`
	UploadTime time.Time   `json:"upload_time" gorm:"autoCreateTime"`
	ChunkCount int         `json:"chunk_count" gorm:"not null"`
	Status     string      `json:"status" gorm:"size:32;not null"`
}

// TableName returns the table name for GORM.
func (Document) TableName() string {
	return "documents"
}

// DocumentSummary is the listing view of a document, without the chunk
// and vector payload.
type DocumentSummary struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	UploadTime time.Time `json:"upload_time"`
	ChunkCount int       `json:"chunk_count"`
	Status     string    `json:"status"`
}

// StringArray stores a []string as a JSON array column.
type StringArray []string

// Value serializes the array for storage.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		a = StringArray{}
	}
	return sonic.MarshalString([]string(a))
}

// Scan deserializes the array from storage.
func (a *StringArray) Scan(value any) error {
	data, err := columnBytes(value)
	if err != nil {
		return fmt.Errorf("failed to scan string array: %w", err)
	}
	return sonic.Unmarshal(data, a)
}

// VectorArray stores a [][]float64 as a JSON array column. Serializing
// and deserializing must reproduce the original values exactly.
type VectorArray [][]float64

// Value serializes the vectors for storage.
func (a VectorArray) Value() (driver.Value, error) {
	if a == nil {
		a = VectorArray{}
	}
	return sonic.MarshalString([][]float64(a))
}

// Scan deserializes the vectors from storage.
func (a *VectorArray) Scan(value any) error {
	data, err := columnBytes(value)
	if err != nil {
		return fmt.Errorf("failed to scan vector array: %w", err)
	}
	return sonic.Unmarshal(data, a)
}

func columnBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported column type %T", value)
	}
}

// QueryResult is the answer to a question together with the chunks it
// was grounded on.
type QueryResult struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Source identifies one retrieved chunk in a query response.
type Source struct {
	Filename       string  `json:"filename"`
	ChunkIndex     int     `json:"chunk_index"`
	RelevanceScore float64 `json:"relevance_score"`
}
