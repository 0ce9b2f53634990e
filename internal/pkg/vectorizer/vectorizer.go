// Package vectorizer builds a process-wide lexical vector space over
// document chunks and projects arbitrary text into it.
//
// The primary encoding is TF-IDF over unigrams and bigrams with English
// stop-words removed. The space is fitted lazily from the first batch of
// chunks the process ever sees and is frozen afterwards; every later
// document and query is projected into the same space. When fitting or
// transformation degenerates (for example an empty vocabulary), a
// stateless binary word-presence encoding takes over for that call.
package vectorizer

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/kart-io/logger"
)

const (
	// DefaultMaxFeatures caps the fitted vocabulary size.
	DefaultMaxFeatures = 1000

	// DefaultFallbackMaxWords caps the fallback word list size.
	DefaultFallbackMaxWords = 500
)

var tokenPattern = regexp.MustCompile(`\w\w+`)

// ErrEmptyVocabulary is returned by the primary path when the corpus
// contains no usable terms after tokenization and stop-word removal.
var ErrEmptyVocabulary = errors.New("empty vocabulary: corpus contains only stop words or no valid tokens")

// Config contains vectorizer tuning parameters. The caps are hand-tuned
// values carried as configuration, not invariants.
type Config struct {
	// MaxFeatures is the vocabulary cap of the fitted space.
	MaxFeatures int
	// FallbackMaxWords is the word list cap of the fallback encoding.
	FallbackMaxWords int
}

// DefaultConfig returns the default vectorizer configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxFeatures:      DefaultMaxFeatures,
		FallbackMaxWords: DefaultFallbackMaxWords,
	}
}

// Vectorizer owns the shared vector space. A single instance is
// constructed at startup and passed into the ingestion and query paths.
type Vectorizer struct {
	cfg *Config

	mu     sync.Mutex
	fitted bool
	vocab  map[string]int
	idf    []float64
}

// New creates an unfitted Vectorizer.
func New(cfg *Config) *Vectorizer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.MaxFeatures <= 0 {
		cfg.MaxFeatures = DefaultMaxFeatures
	}
	if cfg.FallbackMaxWords <= 0 {
		cfg.FallbackMaxWords = DefaultFallbackMaxWords
	}
	return &Vectorizer{cfg: cfg}
}

// FitTransform encodes a batch of chunk texts, fitting the shared space
// on the first call of the process lifetime and reusing it afterwards.
// It never fails: when the primary path reports an error the fallback
// encoding is substituted and the error is only logged.
func (v *Vectorizer) FitTransform(texts []string) [][]float64 {
	vecs, err := v.fitTransform(texts)
	if err != nil {
		logger.Warnw("tfidf vectorization failed, using fallback encoding",
			"error", err.Error(), "texts", len(texts))
		return fallbackEncode(texts, v.cfg.FallbackMaxWords)
	}
	return vecs
}

// TransformQuery projects a single text into the fitted space. If the
// space was never fitted, the text is encoded in a fresh fallback space
// instead.
func (v *Vectorizer) TransformQuery(text string) []float64 {
	if !v.Fitted() {
		return fallbackEncode([]string{text}, v.cfg.FallbackMaxWords)[0]
	}
	return v.transform(text)
}

// Fitted reports whether the vector space has been fitted.
func (v *Vectorizer) Fitted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fitted
}

// Dimension returns the dimensionality of the fitted space, or 0 when
// unfitted.
func (v *Vectorizer) Dimension() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.idf)
}

// fitTransform is the error-returning primary path; FitTransform maps
// its error variant to the fallback encoding.
func (v *Vectorizer) fitTransform(texts []string) ([][]float64, error) {
	if err := v.ensureFitted(texts); err != nil {
		return nil, err
	}

	out := make([][]float64, len(texts))
	for i, text := range texts {
		out[i] = v.transform(text)
	}
	return out, nil
}

// ensureFitted performs the one-time check-and-fit transition. The lock
// covers only this transition; steady-state transforms read the frozen
// vocabulary without contention.
func (v *Vectorizer) ensureFitted(texts []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.fitted {
		return nil
	}

	vocab, idf, err := fit(texts, v.cfg.MaxFeatures)
	if err != nil {
		return err
	}

	v.vocab = vocab
	v.idf = idf
	v.fitted = true
	return nil
}

// fit builds the vocabulary and IDF weights from the corpus. Terms are
// capped at maxFeatures, selected by corpus-wide frequency with
// alphabetical tie-breaking, and indexed in sorted order.
func fit(texts []string, maxFeatures int) (map[string]int, []float64, error) {
	tf := make(map[string]int)
	df := make(map[string]int)

	for _, text := range texts {
		seen := make(map[string]struct{})
		for _, term := range terms(text) {
			tf[term]++
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				df[term]++
			}
		}
	}

	if len(tf) == 0 {
		return nil, nil, ErrEmptyVocabulary
	}

	selected := make([]string, 0, len(tf))
	for term := range tf {
		selected = append(selected, term)
	}
	sort.Slice(selected, func(i, j int) bool {
		if tf[selected[i]] != tf[selected[j]] {
			return tf[selected[i]] > tf[selected[j]]
		}
		return selected[i] < selected[j]
	})
	if len(selected) > maxFeatures {
		selected = selected[:maxFeatures]
	}
	sort.Strings(selected)

	vocab := make(map[string]int, len(selected))
	idf := make([]float64, len(selected))
	n := float64(len(texts))
	for i, term := range selected {
		vocab[term] = i
		// Smoothed IDF.
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	return vocab, idf, nil
}

// transform encodes one text against the frozen vocabulary: term counts
// weighted by IDF, L2-normalized. Texts sharing no terms with the
// vocabulary produce all-zero vectors.
func (v *Vectorizer) transform(text string) []float64 {
	vec := make([]float64, len(v.idf))

	for _, term := range terms(text) {
		if idx, ok := v.vocab[term]; ok {
			vec[idx] += v.idf[idx]
		}
	}

	norm := 0.0
	for _, x := range vec {
		norm += x * x
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}

	return vec
}

// terms tokenizes text into lowercase unigrams and adjacent bigrams,
// stop-words removed before bigram formation.
func terms(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)

	tokens := raw[:0]
	for _, tok := range raw {
		if _, stop := stopWords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}

	out := make([]string, 0, 2*len(tokens))
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}

// fallbackEncode is the stateless fallback: each text becomes a binary
// presence vector over the sorted set of distinct lowercase words across
// the given texts, capped at maxWords. Fallback vectors live in their
// own per-call space and are never comparable with fitted vectors.
func fallbackEncode(texts []string, maxWords int) [][]float64 {
	wordSet := make(map[string]struct{})
	for _, text := range texts {
		for _, w := range strings.Fields(strings.ToLower(text)) {
			wordSet[w] = struct{}{}
		}
	}

	words := make([]string, 0, len(wordSet))
	for w := range wordSet {
		words = append(words, w)
	}
	sort.Strings(words)
	if len(words) > maxWords {
		words = words[:maxWords]
	}

	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		present := make(map[string]struct{})
		for _, w := range strings.Fields(strings.ToLower(text)) {
			present[w] = struct{}{}
		}

		vec := make([]float64, len(words))
		for j, w := range words {
			if _, ok := present[w]; ok {
				vec[j] = 1
			}
		}
		vectors[i] = vec
	}

	return vectors
}
