// Package store provides persistence for users and documents.
package store

import (
	"context"

	"github.com/kart-io/docbrain/internal/model"
)

// Factory defines the factory interface for creating stores.
type Factory interface {
	Users() UserStore
	Documents() DocumentStore
	Close() error
}

// UserStore defines the user storage interface.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*model.User, error)
}

// DocumentStore defines the document storage interface. Documents are
// created once and never updated or deleted.
type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	// ListByUser returns document summaries for a user, newest first.
	ListByUser(ctx context.Context, userID string) ([]*model.DocumentSummary, error)
	// ListWithContent returns a user's documents with their full chunk
	// and vector payload, for querying.
	ListWithContent(ctx context.Context, userID string) ([]*model.Document, error)
}
