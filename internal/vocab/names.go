package vocab

import "strconv"

// EntityKind is the kind of a scene entity.
type EntityKind string

const (
	KindBox    EntityKind = "box"
	KindObject EntityKind = "object"
)

// Name prefixes. Box and object prefixes are followed directly by the
// decimal index; color and shape prefixes by "." and the value name.
const (
	BoxNamePrefix    = "nlvr:box.b"
	ObjectNamePrefix = "nlvr:object.obj"
	ColorNamePrefix  = "nlvr:color"
	ShapeNamePrefix  = "nlvr:shape"
)

// EntityName formats the identifier of the entity of the given kind and
// index. It is a pure function of its arguments and injective per kind.
func EntityName(kind EntityKind, index int) string {
	switch kind {
	case KindBox:
		return BoxNamePrefix + strconv.Itoa(index)
	case KindObject:
		return ObjectNamePrefix + strconv.Itoa(index)
	default:
		return "nlvr:" + string(kind) + "." + strconv.Itoa(index)
	}
}

// BoxName returns the identifier of the box with the given index.
func BoxName(index int) string {
	return EntityName(KindBox, index)
}

// ObjectName returns the identifier of the object with the given global index.
func ObjectName(index int) string {
	return EntityName(KindObject, index)
}

// ColorValueName returns the identifier of a color value, e.g. nlvr:color.blue.
func ColorValueName(color string) string {
	return ColorNamePrefix + "." + color
}

// ShapeValueName returns the identifier of a shape value, e.g. nlvr:shape.square.
func ShapeValueName(shape string) string {
	return ShapeNamePrefix + "." + shape
}
