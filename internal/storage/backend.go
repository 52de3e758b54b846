// Package storage persists NLVR dataset records so scene graphs can be
// rebuilt on demand.
//
// Only the input records are stored. Graphs are never serialized; every
// consumer rebuilds them with graph.Build.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/Benny93/nlvr-graph/internal/scene"
)

// ErrSceneNotFound is returned when no record has the requested identifier.
var ErrSceneNotFound = errors.New("storage: scene not found")

// SceneRecord is one line of an NLVR dataset file.
type SceneRecord struct {
	Identifier    string            `json:"identifier"`
	Sentence      string            `json:"sentence,omitempty"`
	Label         string            `json:"label,omitempty"`
	StructuredRep scene.Description `json:"structured_rep"`
}

// Validate reports whether the record carries the fields needed to build a
// graph.
func (r SceneRecord) Validate() error {
	if r.Identifier == "" {
		return errors.New("missing identifier")
	}
	if r.StructuredRep == nil {
		return fmt.Errorf("record %s: missing structured_rep", r.Identifier)
	}
	return nil
}

// SearchResult is a record matched by an utterance search.
type SearchResult struct {
	// Identifier is the matching record.
	Identifier string

	// Score is the fused relevance score (higher is better).
	Score float64

	// Sentence is the record's utterance.
	Sentence string

	// Label is the record's truth label.
	Label string
}

// SceneStore defines the interface for record storage implementations.
//
// Implementations must be thread-safe and support concurrent access.
type SceneStore interface {
	// Initialize opens or creates the store at the given path.
	// If readOnly is true, the store is opened in read-only mode.
	Initialize(path string, readOnly bool) error

	// Close releases all resources held by the store.
	Close() error

	// PutRecords inserts or replaces records by identifier.
	PutRecords(ctx context.Context, records []SceneRecord) error

	// GetRecord returns a record, or ErrSceneNotFound.
	GetRecord(ctx context.Context, identifier string) (SceneRecord, error)

	// ListIdentifiers returns every stored identifier in sorted order.
	ListIdentifiers(ctx context.Context) ([]string, error)

	// ListRecords returns every stored record ordered by identifier.
	ListRecords(ctx context.Context) ([]SceneRecord, error)

	// DeleteRecord removes a record. Deleting a missing record is not an
	// error; the return value reports whether anything was removed.
	DeleteRecord(ctx context.Context, identifier string) (bool, error)

	// RecordCount returns the number of stored records.
	RecordCount() int
}
