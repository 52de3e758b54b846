package vocab

import "strings"

// Relation is the name of one of the fixed scene relations.
type Relation string

const (
	ColorOf  Relation = "nlvr:color.object"
	ShapeOf  Relation = "nlvr:shape.object"
	XPosOf   Relation = "nlvr:xpos.object"
	YPosOf   Relation = "nlvr:ypos.object"
	SizeOf   Relation = "nlvr:size.object"
	Contains Relation = "nlvr:object.box"
)

// reversePre marks a relation traversed from range to domain.
const reversePre = "!"

// RelationSpec is the declared type pairing of a relation. Domain is the
// type of the first element of every pair, Range the type of the second.
type RelationSpec struct {
	Name   Relation
	Domain SemType
	Range  SemType
}

// Type returns the relation's function type (-> Domain Range).
func (s RelationSpec) Type() SemType {
	return Func(s.Domain.Name, s.Range.Name)
}

var relationOrder = []Relation{ColorOf, ShapeOf, XPosOf, YPosOf, SizeOf, Contains}

var relationTable = map[Relation]RelationSpec{
	ColorOf:  {Name: ColorOf, Domain: ObjectType, Range: ColorType},
	ShapeOf:  {Name: ShapeOf, Domain: ObjectType, Range: ShapeType},
	XPosOf:   {Name: XPosOf, Domain: ObjectType, Range: IntType},
	YPosOf:   {Name: YPosOf, Domain: ObjectType, Range: IntType},
	SizeOf:   {Name: SizeOf, Domain: ObjectType, Range: IntType},
	Contains: {Name: Contains, Domain: BoxType, Range: ObjectType},
}

// Relations returns the six relations in declaration order.
func Relations() []Relation {
	out := make([]Relation, len(relationOrder))
	copy(out, relationOrder)
	return out
}

// Reverse returns the reversed relation name, e.g. !nlvr:color.object.
func (r Relation) Reverse() string {
	return reversePre + string(r)
}

// Spec returns the relation's declared type pairing.
func (r Relation) Spec() (RelationSpec, error) {
	spec, ok := relationTable[r]
	if !ok {
		return RelationSpec{}, &UnknownRelationError{Name: string(r)}
	}
	return spec, nil
}

// RelationType returns the (domain, range) pairing of the named relation.
// Names outside the fixed set yield an error matching ErrUnknownRelation.
func RelationType(name string) (SemType, SemType, error) {
	spec, err := Relation(name).Spec()
	if err != nil {
		return SemType{}, SemType{}, err
	}
	return spec.Domain, spec.Range, nil
}

// MustRelationType is RelationType for call sites where an unknown name is
// a programming error.
func MustRelationType(name string) (SemType, SemType) {
	dom, ran, err := RelationType(name)
	if err != nil {
		panic(err)
	}
	return dom, ran
}

// ParseRelation resolves a possibly reversed relation name ("!r") to the
// underlying relation.
func ParseRelation(name string) (Relation, bool, error) {
	reversed := strings.HasPrefix(name, reversePre)
	rel := Relation(strings.TrimPrefix(name, reversePre))
	if _, ok := relationTable[rel]; !ok {
		return "", false, &UnknownRelationError{Name: name}
	}
	return rel, reversed, nil
}

// FlipDirection toggles the reversal marker of a relation name:
// r becomes !r and !r becomes r.
func FlipDirection(name string) string {
	if strings.HasPrefix(name, reversePre) {
		return strings.TrimPrefix(name, reversePre)
	}
	return reversePre + name
}
