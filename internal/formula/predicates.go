package formula

import (
	"github.com/Benny93/nlvr-graph/internal/scene"
	"github.com/Benny93/nlvr-graph/internal/vocab"
)

// Relation returns the value formula naming rel.
func Relation(rel vocab.Relation) ValueFormula {
	return Name(string(rel))
}

// Reverse returns the value formula naming rel traversed backwards.
func Reverse(rel vocab.Relation) ValueFormula {
	return Name(rel.Reverse())
}

// ColorPredicate selects every entity whose color is c:
// (!nlvr:color.object nlvr:color.<c>).
func ColorPredicate(c scene.Color) Formula {
	return Join(Reverse(vocab.ColorOf), Name(c.ValueName()))
}

// ShapePredicate selects every entity whose shape is s:
// (!nlvr:shape.object nlvr:shape.<s>).
func ShapePredicate(s scene.Shape) Formula {
	return Join(Reverse(vocab.ShapeOf), Name(s.ValueName()))
}

// Entity returns the value formula referring to a concrete entity.
func Entity(id string) Formula {
	return Name(id)
}
