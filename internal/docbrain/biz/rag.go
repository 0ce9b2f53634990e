// Package biz provides business logic for the document Q&A service.
package biz

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"

	"github.com/kart-io/docbrain/internal/docbrain/store"
	"github.com/kart-io/docbrain/internal/model"
	"github.com/kart-io/docbrain/internal/pkg/ranker"
	"github.com/kart-io/docbrain/internal/pkg/vectorizer"
	"github.com/kart-io/docbrain/pkg/llm"
)

// ErrNoDocuments is returned when a user queries before uploading any
// documents.
var ErrNoDocuments = errors.New("No documents found. Please upload some documents first.")

// noAnswerText is returned when retrieval finds no relevant chunks.
const noAnswerText = "I couldn't find relevant information in your documents to answer this question."

const promptTemplate = `Based on the following context from the user's documents, answer the question. Only use information from the provided context.

Context:
%s

Question: %s

Answer:`

// RAGConfig contains retrieval configuration.
type RAGConfig struct {
	// PerDocTopK bounds hits kept per document before merging.
	PerDocTopK int
	// MaxSources bounds chunks fed to the generator.
	MaxSources int
	// PoolSize bounds concurrent per-document ranking tasks.
	PoolSize int
}

// DefaultRAGConfig returns the default retrieval configuration.
func DefaultRAGConfig() *RAGConfig {
	return &RAGConfig{
		PerDocTopK: 3,
		MaxSources: 5,
		PoolSize:   8,
	}
}

// RAGService answers questions over a user's documents: it ranks every
// document's chunks against the question, merges the best hits and asks
// the chat provider to answer from them.
type RAGService struct {
	store      store.Factory
	vectorizer *vectorizer.Vectorizer
	ranker     *ranker.Ranker
	provider   llm.ChatProvider
	cache      *QueryCache
	pool       *ants.Pool
	cfg        *RAGConfig
}

// NewRAGService creates a new RAGService. The cache may be nil.
func NewRAGService(
	factory store.Factory,
	vec *vectorizer.Vectorizer,
	rk *ranker.Ranker,
	provider llm.ChatProvider,
	cache *QueryCache,
	cfg *RAGConfig,
) (*RAGService, error) {
	if cfg == nil {
		cfg = DefaultRAGConfig()
	}
	if cfg.PerDocTopK <= 0 {
		cfg.PerDocTopK = 3
	}
	if cfg.MaxSources <= 0 {
		cfg.MaxSources = 5
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 8
	}

	pool, err := ants.NewPool(cfg.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create ranking pool: %w", err)
	}

	return &RAGService{
		store:      factory,
		vectorizer: vec,
		ranker:     rk,
		provider:   provider,
		cache:      cache,
		pool:       pool,
		cfg:        cfg,
	}, nil
}

// Close releases the ranking pool.
func (s *RAGService) Close() {
	s.pool.Release()
}

// Query answers a question from the user's documents. Generation
// failures are absorbed into the answer text so retrieval results are
// never lost to a flaky provider.
func (s *RAGService) Query(ctx context.Context, userID, question string) (*model.QueryResult, error) {
	if s.cache != nil {
		if cached := s.cache.Get(ctx, userID, question); cached != nil {
			return cached, nil
		}
	}

	docs, err := s.store.Documents().ListWithContent(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	hits := s.retrieve(docs, question)
	if len(hits) == 0 {
		return &model.QueryResult{Answer: noAnswerText, Sources: []model.Source{}}, nil
	}

	result := &model.QueryResult{
		Answer:  s.generate(ctx, question, hits),
		Sources: make([]model.Source, 0, len(hits)),
	}
	for _, h := range hits {
		result.Sources = append(result.Sources, model.Source{
			Filename:       h.Filename,
			ChunkIndex:     h.ChunkIndex,
			RelevanceScore: h.Score,
		})
	}

	if s.cache != nil {
		s.cache.Set(ctx, userID, question, result)
	}

	return result, nil
}

// retrieve ranks each document's chunks against the question
// concurrently and merges the per-document winners into a single
// score-ordered list.
func (s *RAGService) retrieve(docs []*model.Document, question string) []ranker.Hit {
	queryVec := s.vectorizer.TransformQuery(question)

	perDoc := make([][]ranker.Hit, len(docs))
	var wg sync.WaitGroup
	for i := range docs {
		i := i
		doc := docs[i]
		wg.Add(1)
		task := func() {
			defer wg.Done()
			hits := s.ranker.Rank(question, queryVec, doc.Chunks, doc.Embeddings, s.cfg.PerDocTopK)
			for j := range hits {
				hits[j].Filename = doc.Filename
			}
			perDoc[i] = hits
		}
		if err := s.pool.Submit(task); err != nil {
			// Pool released or overloaded; rank inline.
			logger.Warnw("ranking pool submit failed, running inline", "error", err.Error())
			task()
		}
	}
	wg.Wait()

	var merged []ranker.Hit
	for _, hits := range perDoc {
		merged = append(merged, hits...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	if len(merged) > s.cfg.MaxSources {
		merged = merged[:s.cfg.MaxSources]
	}
	return merged
}

// generate asks the chat provider to answer from the retrieved chunks.
// Provider errors become part of the answer text.
func (s *RAGService) generate(ctx context.Context, question string, hits []ranker.Hit) string {
	contents := make([]string, 0, len(hits))
	for _, h := range hits {
		contents = append(contents, h.Content)
	}

	prompt := fmt.Sprintf(promptTemplate, strings.Join(contents, "\n\n"), question)

	answer, err := s.provider.Generate(ctx, prompt, "")
	if err != nil {
		logger.Errorw("answer generation failed", "error", err.Error(), "provider", s.provider.Name())
		return "Error generating response: " + err.Error()
	}
	return answer
}
