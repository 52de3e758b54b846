// Package vocab defines the fixed vocabulary of an NLVR scene graph.
//
// It names the semantic types (box, object, color, shape, int), the six
// attribute and containment relations with their declared type pairings,
// and the naming scheme that gives every box, object and attribute value
// a stable identifier. Everything here is constant data: the tables are
// built once at package initialization and never written to again, so
// they can be read from any number of goroutines without locking.
package vocab

// Atomic type names.
const (
	BoxTypeName    = "nlvr:type.box"
	ObjectTypeName = "nlvr:type.object"
	ColorTypeName  = "nlvr:type.color"
	ShapeTypeName  = "nlvr:type.shape"
	IntTypeName    = "fb:type.int"
)

// SemType is the semantic type of a vocabulary name. It is either atomic
// (Name set) or a function type from Arg to Ret.
type SemType struct {
	Name string
	Arg  string
	Ret  string
}

// Atomic returns the atomic type with the given name.
func Atomic(name string) SemType {
	return SemType{Name: name}
}

// Func returns the function type (-> arg ret).
func Func(arg, ret string) SemType {
	return SemType{Arg: arg, Ret: ret}
}

// IsFunc reports whether t is a function type.
func (t SemType) IsFunc() bool {
	return t.Name == "" && t.Arg != ""
}

// String renders t the way downstream type inference prints it.
func (t SemType) String() string {
	if t.IsFunc() {
		return "(-> " + t.Arg + " " + t.Ret + ")"
	}
	return t.Name
}

var (
	BoxType    = Atomic(BoxTypeName)
	ObjectType = Atomic(ObjectTypeName)
	ColorType  = Atomic(ColorTypeName)
	ShapeType  = Atomic(ShapeTypeName)
	IntType    = Atomic(IntTypeName)
)

// AttributeKind classifies the value side of an attribute relation.
type AttributeKind string

const (
	AttrColor AttributeKind = "color"
	AttrShape AttributeKind = "shape"
	AttrInt   AttributeKind = "int"
)

// AttributeType returns the atomic type shared by every value of the given
// attribute kind. Any color maps to ColorType and any shape to ShapeType,
// which keeps attribute values distinguishable from integers.
func AttributeType(kind AttributeKind) (SemType, bool) {
	switch kind {
	case AttrColor:
		return ColorType, true
	case AttrShape:
		return ShapeType, true
	case AttrInt:
		return IntType, true
	default:
		return SemType{}, false
	}
}
