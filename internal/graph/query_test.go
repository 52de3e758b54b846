package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/nlvr-graph/internal/formula"
	"github.com/Benny93/nlvr-graph/internal/scene"
	"github.com/Benny93/nlvr-graph/internal/vocab"
)

func names(ids ...string) []formula.Value {
	out := make([]formula.Value, len(ids))
	for i, id := range ids {
		out[i] = formula.NameValue{ID: id}
	}
	return out
}

func TestSceneGraph_JoinFirst(t *testing.T) {
	t.Parallel()

	g, err := Build(threePanelScene(), "join")
	require.NoError(t, err)

	t.Run("ColorOfObjects", func(t *testing.T) {
		t.Parallel()
		got, err := g.JoinFirst(string(vocab.ColorOf), names("nlvr:object.obj0", "nlvr:object.obj3"))
		require.NoError(t, err)
		// Both are yellow: deduplicated.
		assert.Equal(t, names("nlvr:color.yellow"), got)
	})

	t.Run("ContainsBox", func(t *testing.T) {
		t.Parallel()
		got, err := g.JoinFirst(string(vocab.Contains), names("nlvr:box.b2"))
		require.NoError(t, err)
		assert.Equal(t, names("nlvr:object.obj2", "nlvr:object.obj3", "nlvr:object.obj4"), got)
	})

	t.Run("ReversedColor", func(t *testing.T) {
		t.Parallel()
		got, err := g.JoinFirst(vocab.ColorOf.Reverse(), names("nlvr:color.blue"))
		require.NoError(t, err)
		assert.Equal(t, names("nlvr:object.obj1", "nlvr:object.obj2"), got)
	})

	t.Run("NumericRange", func(t *testing.T) {
		t.Parallel()
		got, err := g.JoinFirst(vocab.SizeOf.Reverse(), []formula.Value{formula.NumberValue{N: 10}})
		require.NoError(t, err)
		assert.Equal(t, names("nlvr:object.obj1", "nlvr:object.obj3"), got)
	})

	t.Run("NoMatch", func(t *testing.T) {
		t.Parallel()
		got, err := g.JoinFirst(string(vocab.ColorOf), names("nlvr:object.obj42"))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("UnknownRelation", func(t *testing.T) {
		t.Parallel()
		_, err := g.JoinFirst("nlvr:weight.object", names("nlvr:object.obj0"))
		assert.ErrorIs(t, err, vocab.ErrUnknownRelation)
	})
}

func TestSceneGraph_JoinSecond(t *testing.T) {
	t.Parallel()

	g, err := Build(threePanelScene(), "join2")
	require.NoError(t, err)

	got, err := g.JoinSecond(string(vocab.ShapeOf), names("nlvr:shape.square"))
	require.NoError(t, err)
	assert.Equal(t, names("nlvr:object.obj2", "nlvr:object.obj3"), got)

	boxes, err := g.JoinSecond(string(vocab.Contains), names("nlvr:object.obj4", "nlvr:object.obj0"))
	require.NoError(t, err)
	// Triple order, not argument order.
	assert.Equal(t, names("nlvr:box.b0", "nlvr:box.b2"), boxes)

	reversed, err := g.JoinSecond(vocab.ShapeOf.Reverse(), names("nlvr:object.obj0"))
	require.NoError(t, err)
	assert.Equal(t, names("nlvr:shape.triangle"), reversed)
}

func TestSceneGraph_Filter(t *testing.T) {
	t.Parallel()

	g, err := Build(threePanelScene(), "filter")
	require.NoError(t, err)

	t.Run("FilterFirst", func(t *testing.T) {
		t.Parallel()
		pairs, err := g.FilterFirst(string(vocab.XPosOf), names("nlvr:object.obj1", "nlvr:object.obj2"))
		require.NoError(t, err)
		assert.Equal(t, []formula.Pair{
			{First: formula.NameValue{ID: "nlvr:object.obj1"}, Second: formula.NumberValue{N: 60}},
			{First: formula.NameValue{ID: "nlvr:object.obj2"}, Second: formula.NumberValue{N: 0}},
		}, pairs)
	})

	t.Run("FilterSecond", func(t *testing.T) {
		t.Parallel()
		pairs, err := g.FilterSecond(string(vocab.ColorOf), names("nlvr:color.blue"))
		require.NoError(t, err)
		require.Len(t, pairs, 2)
		for _, p := range pairs {
			assert.Equal(t, formula.NameValue{ID: "nlvr:color.blue"}, p.Second)
		}
	})

	t.Run("FilterFirstReversedSwapsPairs", func(t *testing.T) {
		t.Parallel()
		pairs, err := g.FilterFirst(vocab.Contains.Reverse(), names("nlvr:object.obj1"))
		require.NoError(t, err)
		assert.Equal(t, []formula.Pair{
			{First: formula.NameValue{ID: "nlvr:object.obj1"}, Second: formula.NameValue{ID: "nlvr:box.b0"}},
		}, pairs)
	})

	t.Run("FilterSecondReversed", func(t *testing.T) {
		t.Parallel()
		pairs, err := g.FilterSecond(vocab.Contains.Reverse(), names("nlvr:box.b1"))
		require.NoError(t, err)
		assert.Empty(t, pairs)
	})

	t.Run("UnknownRelation", func(t *testing.T) {
		t.Parallel()
		_, err := g.FilterSecond("!nope", nil)
		assert.ErrorIs(t, err, vocab.ErrUnknownRelation)
	})
}

func TestSceneGraph_Denotation(t *testing.T) {
	t.Parallel()

	g, err := Build(threePanelScene(), "denote")
	require.NoError(t, err)

	t.Run("ColorPredicate", func(t *testing.T) {
		t.Parallel()
		got, err := g.Denotation(formula.ColorPredicate(scene.ColorYellow))
		require.NoError(t, err)
		assert.Equal(t, names("nlvr:object.obj0", "nlvr:object.obj3", "nlvr:object.obj4"), got)
	})

	t.Run("AbsentColor", func(t *testing.T) {
		t.Parallel()
		got, err := g.Denotation(formula.ColorPredicate(scene.ColorBlack))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("EveryUnaryFormulaSelectsObjects", func(t *testing.T) {
		t.Parallel()
		for _, f := range g.AllUnaryFormulas() {
			got, err := g.Denotation(f)
			require.NoError(t, err)
			assert.NotEmpty(t, got, f.String())
		}
	})

	t.Run("BoxesContainingBlue", func(t *testing.T) {
		t.Parallel()
		f := formula.Join(formula.Reverse(vocab.Contains), formula.ColorPredicate(scene.ColorBlue))
		got, err := g.Denotation(f)
		require.NoError(t, err)
		assert.Equal(t, names("nlvr:box.b0", "nlvr:box.b2"), got)
	})

	t.Run("ValueFormula", func(t *testing.T) {
		t.Parallel()
		got, err := g.Denotation(formula.Entity("nlvr:object.obj1"))
		require.NoError(t, err)
		assert.Equal(t, names("nlvr:object.obj1"), got)
	})

	t.Run("NonNameRelation", func(t *testing.T) {
		t.Parallel()
		_, err := g.Denotation(formula.Join(formula.Number(3), formula.Entity("nlvr:object.obj1")))
		assert.ErrorIs(t, err, ErrUnsupportedFormula)
	})

	t.Run("UnknownRelation", func(t *testing.T) {
		t.Parallel()
		_, err := g.Denotation(formula.Join(formula.Name("nlvr:weight.object"), formula.Entity("nlvr:object.obj1")))
		assert.ErrorIs(t, err, vocab.ErrUnknownRelation)
	})
}
