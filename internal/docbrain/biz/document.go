package biz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kart-io/logger"
	"github.com/oklog/ulid/v2"

	"github.com/kart-io/docbrain/internal/docbrain/store"
	"github.com/kart-io/docbrain/internal/model"
	"github.com/kart-io/docbrain/internal/pkg/chunker"
	"github.com/kart-io/docbrain/internal/pkg/vectorizer"
)

// ErrEmptyDocument is returned when an uploaded document contains no
// extractable text.
var ErrEmptyDocument = errors.New("document contains no extractable text")

// DocumentService ingests documents: chunking, vectorization and
// persistence.
type DocumentService struct {
	store      store.Factory
	vectorizer *vectorizer.Vectorizer
	chunkSize  int
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(factory store.Factory, vec *vectorizer.Vectorizer, chunkSize int) *DocumentService {
	if chunkSize <= 0 {
		chunkSize = chunker.DefaultChunkSize
	}
	return &DocumentService{store: factory, vectorizer: vec, chunkSize: chunkSize}
}

// Ingest chunks and vectorizes text content and stores the resulting
// document for the given user.
func (s *DocumentService) Ingest(ctx context.Context, userID, filename, content string) (*model.Document, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyDocument
	}

	chunks := chunker.Split(content, s.chunkSize)
	if len(chunks) == 0 {
		return nil, ErrEmptyDocument
	}

	embeddings := s.vectorizer.FitTransform(chunks)

	doc := &model.Document{
		ID:         ulid.Make().String(),
		UserID:     userID,
		Filename:   filename,
		Content:    content,
		Chunks:     chunks,
		Embeddings: embeddings,
		ChunkCount: len(chunks),
		Status:     model.StatusCompleted,
	}

	if err := s.store.Documents().Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	logger.Infow("document ingested",
		"user_id", userID,
		"document_id", doc.ID,
		"filename", filename,
		"chunks", doc.ChunkCount,
	)

	return doc, nil
}

// List returns the user's document summaries, newest first.
func (s *DocumentService) List(ctx context.Context, userID string) ([]*model.DocumentSummary, error) {
	return s.store.Documents().ListByUser(ctx, userID)
}
