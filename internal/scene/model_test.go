package scene

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	t.Parallel()

	t.Run("CaseInsensitive", func(t *testing.T) {
		t.Parallel()
		for _, text := range []string{"BLUE", "Blue", "blue", "bLuE"} {
			c, err := ParseColor(text)
			require.NoError(t, err, text)
			assert.Equal(t, ColorBlue, c, text)
		}
	})

	t.Run("AllMembers", func(t *testing.T) {
		t.Parallel()
		for _, c := range Colors() {
			parsed, err := ParseColor(c.String())
			require.NoError(t, err)
			assert.Equal(t, c, parsed)
		}
	})

	t.Run("Unrecognized", func(t *testing.T) {
		t.Parallel()
		for _, text := range []string{"bluish", "", " blue", "red", "blue "} {
			_, err := ParseColor(text)
			require.Error(t, err, text)
			assert.True(t, errors.Is(err, ErrUnrecognizedValue), text)
		}

		_, err := ParseColor("bluish")
		var valErr *UnrecognizedValueError
		require.ErrorAs(t, err, &valErr)
		assert.Equal(t, "color", valErr.Kind)
		assert.Equal(t, "bluish", valErr.Value)
	})
}

func TestParseShape(t *testing.T) {
	t.Parallel()

	t.Run("CaseInsensitive", func(t *testing.T) {
		t.Parallel()
		for _, text := range []string{"SQUARE", "Square", "square"} {
			s, err := ParseShape(text)
			require.NoError(t, err, text)
			assert.Equal(t, ShapeSquare, s, text)
		}
	})

	t.Run("AllMembers", func(t *testing.T) {
		t.Parallel()
		for _, s := range Shapes() {
			parsed, err := ParseShape(s.String())
			require.NoError(t, err)
			assert.Equal(t, s, parsed)
		}
	})

	t.Run("Hexagon", func(t *testing.T) {
		t.Parallel()
		_, err := ParseShape("hexagon")
		assert.ErrorIs(t, err, ErrUnrecognizedValue)
		assert.EqualError(t, err, `scene: unrecognized shape "hexagon"`)
	})
}

func TestAttributeNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "nlvr:color.yellow", ColorYellow.ValueName())
	assert.Equal(t, "nlvr:shape.triangle", ShapeTriangle.ValueName())
	assert.Equal(t, "Color(7)", Color(7).String())
	assert.False(t, Shape(-1).Valid())
}

func TestNewObject(t *testing.T) {
	t.Parallel()

	t.Run("DerivedDistances", func(t *testing.T) {
		t.Parallel()
		obj, err := NewObject(3, 1, DefaultPanelSize, ShapeRecord{
			Size: 10, Type: "Square", Color: "BLUE", XLoc: 5, YLoc: 20,
		})
		require.NoError(t, err)

		assert.Equal(t, "nlvr:object.obj3", obj.ID)
		assert.Equal(t, 3, obj.Index)
		assert.Equal(t, 1, obj.Box)
		assert.Equal(t, ShapeSquare, obj.Shape)
		assert.Equal(t, ColorBlue, obj.Color)
		assert.Equal(t, 85, obj.DistanceToRight)
		assert.Equal(t, 70, obj.DistanceToBottom)
	})

	t.Run("OutOfBoundsKeepsNegative", func(t *testing.T) {
		t.Parallel()
		obj, err := NewObject(0, 0, DefaultPanelSize, ShapeRecord{
			Size: 30, Type: "circle", Color: "black", XLoc: 90, YLoc: 100,
		})
		require.NoError(t, err)

		assert.Equal(t, -20, obj.DistanceToRight)
		assert.Equal(t, -30, obj.DistanceToBottom)
		assert.Equal(t, DefaultPanelSize, obj.DistanceToRight+obj.X+obj.Size)
		assert.Equal(t, DefaultPanelSize, obj.DistanceToBottom+obj.Y+obj.Size)
	})

	t.Run("BadShape", func(t *testing.T) {
		t.Parallel()
		_, err := NewObject(0, 0, DefaultPanelSize, ShapeRecord{Size: 10, Type: "hexagon", Color: "blue"})
		assert.ErrorIs(t, err, ErrUnrecognizedValue)
	})

	t.Run("BadColor", func(t *testing.T) {
		t.Parallel()
		_, err := NewObject(0, 0, DefaultPanelSize, ShapeRecord{Size: 10, Type: "circle", Color: "red"})
		assert.ErrorIs(t, err, ErrUnrecognizedValue)
	})
}

func TestDescriptionJSON(t *testing.T) {
	t.Parallel()

	raw := `[[{"y_loc": 21, "size": 20, "type": "triangle", "x_loc": 27, "color": "Yellow"}],
		[],
		[{"y_loc": 0, "size": 10, "type": "circle", "x_loc": 0, "color": "#0099ff"}]]`

	var desc Description
	require.NoError(t, json.Unmarshal([]byte(raw), &desc))

	require.Len(t, desc, 3)
	assert.Len(t, desc[1], 0)
	assert.Equal(t, 2, desc.ObjectCount())
	assert.Equal(t, ShapeRecord{Size: 20, Type: "triangle", Color: "Yellow", XLoc: 27, YLoc: 21}, desc[0][0])
	assert.Equal(t, "#0099ff", desc[2][0].Color)
}

func TestObjectJSON(t *testing.T) {
	t.Parallel()

	obj, err := NewObject(0, 0, DefaultPanelSize, ShapeRecord{Size: 10, Type: "square", Color: "blue", XLoc: 5, YLoc: 5})
	require.NoError(t, err)

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"shape":"square"`)
	assert.Contains(t, string(data), `"color":"blue"`)

	var back Object
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, obj, back)
}
