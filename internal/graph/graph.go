package graph

import (
	"fmt"
	"slices"

	"github.com/Benny93/nlvr-graph/internal/formula"
	"github.com/Benny93/nlvr-graph/internal/scene"
	"github.com/Benny93/nlvr-graph/internal/vocab"
)

// SceneGraph is the immutable graph of one scene.
//
// Boxes own their objects. The flat object list is a non-owning index of
// pointers into the boxes, ordered by global object index.
type SceneGraph struct {
	identifier string
	panelSize  int

	boxes   []scene.Box
	objects []*scene.Object

	relations map[vocab.Relation]*relationIndex

	// Secondary indexes keyed by entity identifier.
	boxByID    map[string]int
	objectByID map[string]*scene.Object

	unaryFormulas  *formula.Set
	entityFormulas *formula.Set
}

// Option configures Build.
type Option func(*buildOptions)

type buildOptions struct {
	panelSize int
}

// WithPanelSize sets the side length used to derive object distances.
// The default is scene.DefaultPanelSize.
func WithPanelSize(n int) Option {
	return func(o *buildOptions) {
		o.panelSize = n
	}
}

// Build constructs the graph of desc. identifier is opaque and only kept
// for the caller's correlation.
//
// Panels become boxes 0..n-1 in input order. Shapes are numbered with one
// global counter that keeps running across panel boundaries. Construction
// is all-or-nothing: the first shape whose type or color does not parse
// aborts the build with an error matching scene.ErrUnrecognizedValue.
func Build(desc scene.Description, identifier string, opts ...Option) (*SceneGraph, error) {
	o := buildOptions{panelSize: scene.DefaultPanelSize}
	for _, opt := range opts {
		opt(&o)
	}

	boxes := make([]scene.Box, 0, len(desc))
	objectIndex := 0
	for boxIndex, panel := range desc {
		box := scene.NewBox(boxIndex, o.panelSize, len(panel))
		for shapeIndex, rec := range panel {
			obj, err := scene.NewObject(objectIndex, boxIndex, o.panelSize, rec)
			if err != nil {
				return nil, fmt.Errorf("panel %d shape %d: %w", boxIndex, shapeIndex, err)
			}
			box.Objects = append(box.Objects, obj)
			objectIndex++
		}
		boxes = append(boxes, box)
	}

	return newSceneGraph(identifier, o.panelSize, boxes, objectIndex), nil
}

// newSceneGraph indexes fully built boxes. The boxes' object slices must
// not grow afterwards since the flat index points into them.
func newSceneGraph(identifier string, panelSize int, boxes []scene.Box, objectCount int) *SceneGraph {
	g := &SceneGraph{
		identifier:     identifier,
		panelSize:      panelSize,
		boxes:          boxes,
		objects:        make([]*scene.Object, 0, objectCount),
		relations:      make(map[vocab.Relation]*relationIndex),
		boxByID:        make(map[string]int, len(boxes)),
		objectByID:     make(map[string]*scene.Object, objectCount),
		unaryFormulas:  formula.NewSet(),
		entityFormulas: formula.NewSet(),
	}
	for _, rel := range vocab.Relations() {
		g.relations[rel] = newRelationIndex()
	}

	for bi := range g.boxes {
		box := &g.boxes[bi]
		g.boxByID[box.ID] = bi
		boxValue := formula.NameValue{ID: box.ID}

		for oi := range box.Objects {
			obj := &box.Objects[oi]
			g.objects = append(g.objects, obj)
			g.objectByID[obj.ID] = obj

			objValue := formula.NameValue{ID: obj.ID}
			g.addTriple(vocab.Contains, boxValue, objValue)
			g.addTriple(vocab.ColorOf, objValue, formula.NameValue{ID: obj.Color.ValueName()})
			g.addTriple(vocab.ShapeOf, objValue, formula.NameValue{ID: obj.Shape.ValueName()})
			g.addTriple(vocab.XPosOf, objValue, formula.NumberValue{N: obj.X})
			g.addTriple(vocab.YPosOf, objValue, formula.NumberValue{N: obj.Y})
			g.addTriple(vocab.SizeOf, objValue, formula.NumberValue{N: obj.Size})
		}
	}

	// Only values present in the scene get a predicate.
	for _, obj := range g.objects {
		g.unaryFormulas.Add(formula.ColorPredicate(obj.Color))
		g.unaryFormulas.Add(formula.ShapePredicate(obj.Shape))
	}

	return g
}

func (g *SceneGraph) addTriple(rel vocab.Relation, first, second formula.Value) {
	g.relations[rel].add(Triple{Relation: rel, First: first, Second: second})
}

// Identifier returns the caller-supplied scene identifier.
func (g *SceneGraph) Identifier() string {
	return g.identifier
}

// PanelSize returns the panel side length the graph was built with.
func (g *SceneGraph) PanelSize() int {
	return g.panelSize
}

// BoxCount returns the number of boxes.
func (g *SceneGraph) BoxCount() int {
	return len(g.boxes)
}

// ObjectCount returns the number of objects across all boxes.
func (g *SceneGraph) ObjectCount() int {
	return len(g.objects)
}

// Boxes returns copies of the boxes in index order.
func (g *SceneGraph) Boxes() []scene.Box {
	out := make([]scene.Box, len(g.boxes))
	for i, box := range g.boxes {
		out[i] = cloneBox(box)
	}
	return out
}

// Box returns the box with the given index.
func (g *SceneGraph) Box(index int) (scene.Box, bool) {
	if index < 0 || index >= len(g.boxes) {
		return scene.Box{}, false
	}
	return cloneBox(g.boxes[index]), true
}

// Objects returns copies of all objects ordered by global index.
func (g *SceneGraph) Objects() []scene.Object {
	out := make([]scene.Object, len(g.objects))
	for i, obj := range g.objects {
		out[i] = *obj
	}
	return out
}

// Object returns the object with the given global index.
func (g *SceneGraph) Object(index int) (scene.Object, bool) {
	if index < 0 || index >= len(g.objects) {
		return scene.Object{}, false
	}
	return *g.objects[index], true
}

// ObjectByID returns the object with the given identifier.
func (g *SceneGraph) ObjectByID(id string) (scene.Object, bool) {
	obj, ok := g.objectByID[id]
	if !ok {
		return scene.Object{}, false
	}
	return *obj, true
}

// BoxByID returns the box with the given identifier.
func (g *SceneGraph) BoxByID(id string) (scene.Box, bool) {
	i, ok := g.boxByID[id]
	if !ok {
		return scene.Box{}, false
	}
	return cloneBox(g.boxes[i]), true
}

// cloneBox detaches the box's objects from the arrays g.objects points into.
func cloneBox(box scene.Box) scene.Box {
	box.Objects = slices.Clone(box.Objects)
	return box
}

// Triples returns the facts of rel in construction order.
func (g *SceneGraph) Triples(rel vocab.Relation) []Triple {
	ri, ok := g.relations[rel]
	if !ok {
		return nil
	}
	out := make([]Triple, len(ri.triples))
	copy(out, ri.triples)
	return out
}

// AllUnaryFormulas returns one color predicate per distinct color and one
// shape predicate per distinct shape present in the scene.
func (g *SceneGraph) AllUnaryFormulas() []formula.Formula {
	return g.unaryFormulas.Slice()
}

// HasUnaryFormula reports whether f is among the scene's unary formulas.
func (g *SceneGraph) HasUnaryFormula(f formula.Formula) bool {
	return g.unaryFormulas.Contains(f)
}

// AllEntityFormulas returns the formulas referring to concrete entities
// that callers have registered so far. The set starts empty.
func (g *SceneGraph) AllEntityFormulas() []formula.Formula {
	return g.entityFormulas.Slice()
}

// AddEntityFormula registers f and reports whether it was new. It is safe
// to call concurrently with every read method.
func (g *SceneGraph) AddEntityFormula(f formula.Formula) bool {
	return g.entityFormulas.Add(f)
}

// AllFormulas returns the entity formulas followed by the unary formulas.
func (g *SceneGraph) AllFormulas() []formula.Formula {
	out := g.entityFormulas.Slice()
	return append(out, g.unaryFormulas.Slice()...)
}

// Stats returns a summary of graph size.
func (g *SceneGraph) Stats() map[string]int {
	triples := 0
	for _, ri := range g.relations {
		triples += len(ri.triples)
	}
	return map[string]int{
		"boxes":          len(g.boxes),
		"objects":        len(g.objects),
		"triples":        triples,
		"unary_formulas": g.unaryFormulas.Len(),
	}
}
