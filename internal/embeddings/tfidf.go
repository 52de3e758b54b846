// Package embeddings turns NLVR utterances into TF-IDF vectors so stored
// scenes can be ranked against a free-text query.
package embeddings

import (
	"math"
	"sort"
	"strings"
	"sync"
)

// EmbeddingDimension is the dimension of generated embeddings.
const EmbeddingDimension = 256

// TFIDFEmbedder generates TF-IDF embeddings for sentences.
type TFIDFEmbedder struct {
	mu       sync.RWMutex
	idf      map[string]float64 // term -> IDF score
	docCount int
	vocab    map[string]int // term -> index in embedding vector
}

// NewTFIDFEmbedder creates a new TF-IDF embedder.
func NewTFIDFEmbedder() *TFIDFEmbedder {
	return &TFIDFEmbedder{
		idf:   make(map[string]float64),
		vocab: make(map[string]int),
	}
}

// Fit builds the vocabulary and IDF table from docs, replacing any
// previous state.
func (e *TFIDFEmbedder) Fit(docs []string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.vocab = make(map[string]int)
	e.idf = make(map[string]float64)
	e.docCount = len(docs)

	docFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, term := range Tokenize(doc) {
			if seen[term] {
				continue
			}
			seen[term] = true
			docFreq[term]++
			if _, ok := e.vocab[term]; !ok && len(e.vocab) < EmbeddingDimension {
				e.vocab[term] = len(e.vocab)
			}
		}
	}

	// Smoothed so a term in every document still carries some weight.
	for term, df := range docFreq {
		e.idf[term] = math.Log(float64(1+e.docCount)/float64(1+df)) + 1
	}
}

// Embed generates an L2-normalized TF-IDF embedding for doc. Terms outside
// the vocabulary are ignored.
func (e *TFIDFEmbedder) Embed(doc string) []float32 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	embedding := make([]float32, EmbeddingDimension)

	tf := make(map[string]int)
	maxTF := 0
	for _, term := range Tokenize(doc) {
		tf[term]++
		if tf[term] > maxTF {
			maxTF = tf[term]
		}
	}

	for term, count := range tf {
		idx, ok := e.vocab[term]
		if !ok {
			continue
		}
		embedding[idx] = float32(float64(count) / float64(maxTF) * e.idf[term])
	}

	norm := 0.0
	for _, v := range embedding {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range embedding {
			embedding[i] = float32(float64(embedding[i]) / norm)
		}
	}

	return embedding
}

// Ranked is a document index with its similarity to a query.
type Ranked struct {
	Index int
	Score float64
}

// Rank fits the embedder on docs and returns the indexes of the docs most
// similar to query, best first. Docs with zero similarity are dropped.
// A limit <= 0 returns every match.
func (e *TFIDFEmbedder) Rank(query string, docs []string, limit int) []Ranked {
	e.Fit(docs)
	q := e.Embed(query)

	var ranked []Ranked
	for i, doc := range docs {
		score := CosineSimilarity(q, e.Embed(doc))
		if score <= 0 {
			continue
		}
		ranked = append(ranked, Ranked{Index: i, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// CosineSimilarity computes the cosine similarity between two vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Tokenize lower-cases text and splits it on non-alphanumeric runes,
// dropping single-character terms.
func Tokenize(text string) []string {
	terms := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})

	filtered := terms[:0]
	for _, term := range terms {
		if len(term) >= 2 {
			filtered = append(filtered, term)
		}
	}
	return filtered
}
