// Package scene provides the entity model of an NLVR scene.
//
// A scene is a short sequence of square panels (boxes), each holding a few
// geometric objects. This package defines the raw input records as they
// arrive from the dataset, the closed Shape and Color enumerations with
// their parse functions, and the immutable Box and Object values built
// from those records.
package scene

import "github.com/Benny93/nlvr-graph/internal/vocab"

// DefaultPanelSize is the side length of an NLVR panel.
const DefaultPanelSize = 100

// ShapeRecord is one shape entry of a panel as found in the dataset's
// structured representation. Only Type and Color are textual.
type ShapeRecord struct {
	Size  int    `json:"size"`
	Type  string `json:"type"`
	Color string `json:"color"`
	XLoc  int    `json:"x_loc"`
	YLoc  int    `json:"y_loc"`
}

// Panel is the ordered shape records of one box.
type Panel []ShapeRecord

// Description is the ordered panels of one scene.
type Description []Panel

// ObjectCount returns the number of shape records across all panels.
func (d Description) ObjectCount() int {
	n := 0
	for _, p := range d {
		n += len(p)
	}
	return n
}

// Object is a single shape placed inside exactly one box.
type Object struct {
	// ID is the stable identifier, derived from Index.
	ID string `json:"id"`

	// Index is the global index across the whole scene.
	Index int `json:"index"`

	// Box is the index of the owning box.
	Box int `json:"box"`

	Size  int   `json:"size"`
	Shape Shape `json:"shape"`
	Color Color `json:"color"`

	// X and Y are measured from the panel's top-left corner.
	X int `json:"x"`
	Y int `json:"y"`

	// DistanceToRight and DistanceToBottom are panel size minus the far
	// edge of the shape. Negative values mean the shape sticks out of
	// the panel and are kept as is.
	DistanceToRight  int `json:"distance_to_right"`
	DistanceToBottom int `json:"distance_to_bottom"`
}

// NewObject builds the object with the given global index from rec.
// Shape and color text must parse; positions are taken verbatim.
func NewObject(index, box, panelSize int, rec ShapeRecord) (Object, error) {
	shape, err := ParseShape(rec.Type)
	if err != nil {
		return Object{}, err
	}
	color, err := ParseColor(rec.Color)
	if err != nil {
		return Object{}, err
	}
	return Object{
		ID:               vocab.ObjectName(index),
		Index:            index,
		Box:              box,
		Size:             rec.Size,
		Shape:            shape,
		Color:            color,
		X:                rec.XLoc,
		Y:                rec.YLoc,
		DistanceToRight:  panelSize - (rec.XLoc + rec.Size),
		DistanceToBottom: panelSize - (rec.YLoc + rec.Size),
	}, nil
}

// Box is one square panel of a scene and owns its objects.
type Box struct {
	ID      string   `json:"id"`
	Index   int      `json:"index"`
	Size    int      `json:"size"`
	Objects []Object `json:"objects"`
}

// NewBox returns an empty box with room for n objects.
func NewBox(index, panelSize, n int) Box {
	return Box{
		ID:      vocab.BoxName(index),
		Index:   index,
		Size:    panelSize,
		Objects: make([]Object, 0, n),
	}
}
