package graph

import (
	"errors"
	"fmt"

	"github.com/Benny93/nlvr-graph/internal/formula"
	"github.com/Benny93/nlvr-graph/internal/vocab"
)

// ErrUnsupportedFormula indicates a formula shape Denotation cannot evaluate.
var ErrUnsupportedFormula = errors.New("graph: unsupported formula")

// JoinFirst returns the seconds of every pair of relation whose first is in
// firsts, deduplicated in triple order. A reversed relation name ("!r")
// swaps the roles of first and second.
func (g *SceneGraph) JoinFirst(relation string, firsts []formula.Value) ([]formula.Value, error) {
	pairs, err := g.FilterFirst(relation, firsts)
	if err != nil {
		return nil, err
	}
	return distinct(pairs, func(p formula.Pair) formula.Value { return p.Second }), nil
}

// JoinSecond returns the firsts of every pair of relation whose second is
// in seconds, deduplicated in triple order.
func (g *SceneGraph) JoinSecond(relation string, seconds []formula.Value) ([]formula.Value, error) {
	pairs, err := g.FilterSecond(relation, seconds)
	if err != nil {
		return nil, err
	}
	return distinct(pairs, func(p formula.Pair) formula.Value { return p.First }), nil
}

// FilterFirst returns the pairs of relation whose first is in firsts.
func (g *SceneGraph) FilterFirst(relation string, firsts []formula.Value) ([]formula.Pair, error) {
	rel, reversed, err := vocab.ParseRelation(relation)
	if err != nil {
		return nil, err
	}
	ri := g.relations[rel]
	if reversed {
		return swap(ri.collect(ri.bySecond, firsts)), nil
	}
	return ri.collect(ri.byFirst, firsts), nil
}

// FilterSecond returns the pairs of relation whose second is in seconds.
func (g *SceneGraph) FilterSecond(relation string, seconds []formula.Value) ([]formula.Pair, error) {
	rel, reversed, err := vocab.ParseRelation(relation)
	if err != nil {
		return nil, err
	}
	ri := g.relations[rel]
	if reversed {
		return swap(ri.collect(ri.byFirst, seconds)), nil
	}
	return ri.collect(ri.bySecond, seconds), nil
}

// Denotation evaluates f against the graph. Value formulas denote
// themselves and (r child) denotes JoinFirst(r, denotation(child)). This
// covers the color and shape predicates and joins nested over them:
// (!nlvr:object.box (!nlvr:color.object nlvr:color.blue)) yields the
// boxes that contain a blue object.
func (g *SceneGraph) Denotation(f formula.Formula) ([]formula.Value, error) {
	switch f := f.(type) {
	case formula.ValueFormula:
		return []formula.Value{f.Value}, nil
	case formula.JoinFormula:
		rel, ok := f.Relation.(formula.ValueFormula)
		if !ok {
			return nil, fmt.Errorf("%w: relation %s is not a name", ErrUnsupportedFormula, f.Relation)
		}
		name, ok := rel.Value.(formula.NameValue)
		if !ok {
			return nil, fmt.Errorf("%w: relation %s is not a name", ErrUnsupportedFormula, f.Relation)
		}
		child, err := g.Denotation(f.Child)
		if err != nil {
			return nil, err
		}
		return g.JoinFirst(name.ID, child)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormula, f)
	}
}

// collect gathers, in triple order, the pairs whose key side (selected by
// index) matches one of values.
func (ri *relationIndex) collect(index map[string][]int, values []formula.Value) []formula.Pair {
	hits := make(map[int]struct{})
	for _, v := range values {
		for _, i := range index[v.String()] {
			hits[i] = struct{}{}
		}
	}
	out := make([]formula.Pair, 0, len(hits))
	for i, t := range ri.triples {
		if _, ok := hits[i]; ok {
			out = append(out, t.Pair())
		}
	}
	return out
}

func swap(pairs []formula.Pair) []formula.Pair {
	for i, p := range pairs {
		pairs[i] = formula.Pair{First: p.Second, Second: p.First}
	}
	return pairs
}

func distinct(pairs []formula.Pair, pick func(formula.Pair) formula.Value) []formula.Value {
	seen := make(map[string]struct{}, len(pairs))
	out := make([]formula.Value, 0, len(pairs))
	for _, p := range pairs {
		v := pick(p)
		key := v.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
