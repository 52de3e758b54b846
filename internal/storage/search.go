package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/Benny93/nlvr-graph/internal/embeddings"
)

// rrfK is the Reciprocal Rank Fusion constant.
const rrfK = 60

// RecordLister is the part of SceneStore that search needs.
type RecordLister interface {
	ListRecords(ctx context.Context) ([]SceneRecord, error)
}

// SearchSentences ranks stored records against query by fusing a keyword
// ranking with a TF-IDF similarity ranking using Reciprocal Rank Fusion.
func SearchSentences(ctx context.Context, store RecordLister, query string, limit int) ([]SearchResult, error) {
	records, err := store.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	if len(records) == 0 || limit <= 0 {
		return []SearchResult{}, nil
	}

	docs := make([]string, len(records))
	for i, r := range records {
		docs[i] = r.Sentence
	}

	scores := make(map[int]float64)
	for rank, idx := range keywordRanking(query, docs) {
		scores[idx] += 1.0 / float64(rrfK+rank)
	}
	for rank, r := range embeddings.NewTFIDFEmbedder().Rank(query, docs, 0) {
		scores[r.Index] += 1.0 / float64(rrfK+rank)
	}

	results := make([]SearchResult, 0, len(scores))
	for idx, score := range scores {
		r := records[idx]
		results = append(results, SearchResult{
			Identifier: r.Identifier,
			Score:      score,
			Sentence:   r.Sentence,
			Label:      r.Label,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Identifier < results[j].Identifier
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// keywordRanking orders docs by the number of distinct query terms they
// contain, dropping docs with none.
func keywordRanking(query string, docs []string) []int {
	terms := make(map[string]bool)
	for _, t := range embeddings.Tokenize(query) {
		terms[t] = true
	}

	hits := make(map[int]int)
	for i, doc := range docs {
		seen := make(map[string]bool)
		for _, t := range embeddings.Tokenize(doc) {
			if terms[t] && !seen[t] {
				seen[t] = true
				hits[i]++
			}
		}
	}

	ranked := make([]int, 0, len(hits))
	for i := range hits {
		ranked = append(ranked, i)
	}
	sort.Slice(ranked, func(a, b int) bool {
		if hits[ranked[a]] != hits[ranked[b]] {
			return hits[ranked[a]] > hits[ranked[b]]
		}
		return ranked[a] < ranked[b]
	})
	return ranked
}
