// Package ranker scores document chunks against a query and selects the
// most relevant ones.
//
// The primary algorithm is cosine similarity between the query vector
// and each chunk vector. When that computation is impossible (vector
// dimensionality mismatch, a zero query vector), a keyword-overlap
// fallback scores chunks by the fraction of query words they contain.
// Exactly one of the two algorithms runs per call.
package ranker

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kart-io/logger"
)

// DefaultScoreThreshold is the minimum cosine similarity a hit must
// exceed to be kept. Hand-tuned for sparse lexical vectors; carried as
// configuration rather than an invariant.
const DefaultScoreThreshold = 0.1

var errZeroQueryVector = errors.New("query vector has zero norm")

// Hit is one retrieved chunk with its relevance score. Hits are
// transient: constructed per query and discarded after the response is
// built.
type Hit struct {
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Filename   string  `json:"filename,omitempty"`
	Score      float64 `json:"relevance_score"`
}

// Config contains ranker tuning parameters.
type Config struct {
	// ScoreThreshold discards cosine hits at or below this similarity.
	ScoreThreshold float64
}

// DefaultConfig returns the default ranker configuration.
func DefaultConfig() *Config {
	return &Config{ScoreThreshold: DefaultScoreThreshold}
}

// Ranker selects the top chunks for a query.
type Ranker struct {
	threshold float64
}

// New creates a Ranker.
func New(cfg *Config) *Ranker {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	threshold := cfg.ScoreThreshold
	if threshold <= 0 {
		threshold = DefaultScoreThreshold
	}
	return &Ranker{threshold: threshold}
}

// Rank returns up to topK hits for the query, ordered by non-increasing
// score with ties keeping original chunk order. It never fails: when the
// cosine path reports an error the keyword fallback is substituted and
// the error is only logged.
func (r *Ranker) Rank(query string, queryVec []float64, chunks []string, vectors [][]float64, topK int) []Hit {
	hits, err := r.rankCosine(queryVec, chunks, vectors, topK)
	if err != nil {
		logger.Warnw("cosine ranking failed, using keyword fallback",
			"error", err.Error(), "chunks", len(chunks))
		return r.rankKeywords(query, chunks, topK)
	}
	return hits
}

// rankCosine is the error-returning primary path; Rank maps its error
// variant to the keyword fallback.
func (r *Ranker) rankCosine(queryVec []float64, chunks []string, vectors [][]float64, topK int) ([]Hit, error) {
	queryNorm := norm(queryVec)
	if queryNorm == 0 {
		return nil, errZeroQueryVector
	}

	hits := make([]Hit, 0, len(vectors))
	for i, vec := range vectors {
		if len(vec) != len(queryVec) {
			return nil, fmt.Errorf("vector dimension mismatch: query %d, chunk %d has %d",
				len(queryVec), i, len(vec))
		}

		candNorm := norm(vec)
		if candNorm == 0 {
			continue
		}

		score := dot(queryVec, vec) / (queryNorm * candNorm)
		if score <= r.threshold {
			continue
		}
		hits = append(hits, Hit{ChunkIndex: i, Content: chunks[i], Score: score})
	}

	return truncate(sortHits(hits), topK), nil
}

// rankKeywords scores each chunk by the fraction of query words it
// contains. Hits with zero overlap are discarded; an empty query yields
// no hits.
func (r *Ranker) rankKeywords(query string, chunks []string, topK int) []Hit {
	queryWords := wordSet(query)
	if len(queryWords) == 0 {
		return nil
	}

	hits := make([]Hit, 0, len(chunks))
	for i, chunk := range chunks {
		chunkWords := wordSet(chunk)

		overlap := 0
		for w := range queryWords {
			if _, ok := chunkWords[w]; ok {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}

		hits = append(hits, Hit{
			ChunkIndex: i,
			Content:    chunks[i],
			Score:      float64(overlap) / float64(len(queryWords)),
		})
	}

	return truncate(sortHits(hits), topK)
}

// sortHits orders hits by descending score; the stable sort keeps
// original chunk order on ties.
func sortHits(hits []Hit) []Hit {
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	return hits
}

func truncate(hits []Hit, topK int) []Hit {
	if topK > 0 && len(hits) > topK {
		return hits[:topK]
	}
	return hits
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = struct{}{}
	}
	return set
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func norm(v []float64) float64 {
	return math.Sqrt(dot(v, v))
}
