// Package graph builds the typed entity/relation graph of an NLVR scene.
//
// Build turns a scene.Description into a SceneGraph: boxes and objects with
// deterministic identifiers, the relation triples linking them to their
// attribute values, and the unary color and shape predicates that the
// scene's data can answer. A SceneGraph is never modified after Build
// returns (apart from the externally owned entity formula set), so it can
// be shared read-only between any number of goroutines.
package graph

import (
	"github.com/Benny93/nlvr-graph/internal/formula"
	"github.com/Benny93/nlvr-graph/internal/vocab"
)

// Triple is one fact of the graph: (First, Relation, Second). First is
// always of the relation's domain type and Second of its range type.
type Triple struct {
	Relation vocab.Relation
	First    formula.Value
	Second   formula.Value
}

// Pair returns the triple as a relation pair.
func (t Triple) Pair() formula.Pair {
	return formula.Pair{First: t.First, Second: t.Second}
}

// relationIndex holds the triples of one relation plus adjacency maps
// keyed by the canonical string of a value.
type relationIndex struct {
	triples  []Triple
	byFirst  map[string][]int
	bySecond map[string][]int
}

func newRelationIndex() *relationIndex {
	return &relationIndex{
		byFirst:  make(map[string][]int),
		bySecond: make(map[string][]int),
	}
}

func (ri *relationIndex) add(t Triple) {
	i := len(ri.triples)
	ri.triples = append(ri.triples, t)
	fk := t.First.String()
	ri.byFirst[fk] = append(ri.byFirst[fk], i)
	sk := t.Second.String()
	ri.bySecond[sk] = append(ri.bySecond[sk], i)
}
