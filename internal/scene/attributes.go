package scene

import (
	"fmt"
	"strings"

	"github.com/Benny93/nlvr-graph/internal/vocab"
)

// Shape is the kind of a geometric shape. The set is closed.
type Shape int

const (
	ShapeCircle Shape = iota
	ShapeTriangle
	ShapeSquare
)

var shapeNames = [...]string{
	ShapeCircle:   "circle",
	ShapeTriangle: "triangle",
	ShapeSquare:   "square",
}

// Shapes returns every shape kind in declaration order.
func Shapes() []Shape {
	return []Shape{ShapeCircle, ShapeTriangle, ShapeSquare}
}

// ParseShape lower-cases text and matches it exactly against the shape
// names. There is no fuzzy matching and no default.
func ParseShape(text string) (Shape, error) {
	lower := strings.ToLower(text)
	for i, name := range shapeNames {
		if name == lower {
			return Shape(i), nil
		}
	}
	return 0, &UnrecognizedValueError{Kind: "shape", Value: text}
}

// Valid reports whether s is a member of the closed set.
func (s Shape) Valid() bool {
	return s >= 0 && int(s) < len(shapeNames)
}

func (s Shape) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Shape(%d)", int(s))
	}
	return shapeNames[s]
}

// ValueName returns the vocabulary identifier of the shape value.
func (s Shape) ValueName() string {
	return vocab.ShapeValueName(s.String())
}

// MarshalText implements encoding.TextMarshaler.
func (s Shape) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, &UnrecognizedValueError{Kind: "shape", Value: s.String()}
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Shape) UnmarshalText(text []byte) error {
	v, err := ParseShape(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Color is the fill color of a shape. The set is closed.
type Color int

const (
	ColorBlue Color = iota
	ColorBlack
	ColorYellow
)

var colorNames = [...]string{
	ColorBlue:   "blue",
	ColorBlack:  "black",
	ColorYellow: "yellow",
}

// Colors returns every color in declaration order.
func Colors() []Color {
	return []Color{ColorBlue, ColorBlack, ColorYellow}
}

// ParseColor lower-cases text and matches it exactly against the color
// names.
func ParseColor(text string) (Color, error) {
	lower := strings.ToLower(text)
	for i, name := range colorNames {
		if name == lower {
			return Color(i), nil
		}
	}
	return 0, &UnrecognizedValueError{Kind: "color", Value: text}
}

// Valid reports whether c is a member of the closed set.
func (c Color) Valid() bool {
	return c >= 0 && int(c) < len(colorNames)
}

func (c Color) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Color(%d)", int(c))
	}
	return colorNames[c]
}

// ValueName returns the vocabulary identifier of the color value.
func (c Color) ValueName() string {
	return vocab.ColorValueName(c.String())
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, &UnrecognizedValueError{Kind: "color", Value: c.String()}
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(text []byte) error {
	v, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
