package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/kart-io/docbrain/internal/model"
)

type documents struct {
	db *gorm.DB
}

func newDocuments(db *gorm.DB) *documents {
	return &documents{db}
}

// Create creates a new document record with its full payload.
func (d *documents) Create(ctx context.Context, doc *model.Document) error {
	return d.db.WithContext(ctx).Create(doc).Error
}

// ListByUser returns document summaries for a user, newest first.
func (d *documents) ListByUser(ctx context.Context, userID string) ([]*model.DocumentSummary, error) {
	var summaries []*model.DocumentSummary
	err := d.db.WithContext(ctx).
		Model(&model.Document{}).
		Select("id", "filename", "upload_time", "chunk_count", "status").
		Where("user_id = ?", userID).
		Order("upload_time DESC").
		Find(&summaries).Error
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// ListWithContent returns a user's documents with chunks and vectors.
func (d *documents) ListWithContent(ctx context.Context, userID string) ([]*model.Document, error) {
	var docs []*model.Document
	if err := d.db.WithContext(ctx).Where("user_id = ?", userID).Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}
