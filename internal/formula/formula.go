// Package formula provides the query objects an NLVR scene graph hands to
// a semantic parser: values, value formulas, joins and the unary attribute
// predicates synthesized from colors and shapes.
//
// Formulas are plain comparable values. Two formulas built from the same
// parts compare equal with ==, and their canonical lisp form (String) is
// identical, which is what Set uses as its key.
package formula

import (
	"strconv"
	"strings"
)

// Value is an atomic denotation: an entity or attribute name, or a number.
type Value interface {
	String() string
	isValue()
}

// NameValue refers to a named entity, attribute value or relation.
type NameValue struct {
	ID string
}

func (v NameValue) String() string { return v.ID }
func (NameValue) isValue()         {}

// NumberValue is an integer attribute value.
type NumberValue struct {
	N int
}

func (v NumberValue) String() string { return strconv.Itoa(v.N) }
func (NumberValue) isValue()         {}

// ParseValue turns text into a NumberValue when it is a decimal integer and
// into a NameValue otherwise.
func ParseValue(text string) Value {
	text = strings.TrimSpace(text)
	if n, err := strconv.Atoi(text); err == nil {
		return NumberValue{N: n}
	}
	return NameValue{ID: text}
}

// Pair is one (first, second) element of a relation.
type Pair struct {
	First  Value
	Second Value
}

// Formula is a logical form over the scene vocabulary.
type Formula interface {
	String() string
	isFormula()
}

// ValueFormula wraps a single value.
type ValueFormula struct {
	Value Value
}

func (f ValueFormula) String() string { return f.Value.String() }
func (ValueFormula) isFormula()       {}

// JoinFormula applies a relation to a child formula: (relation child).
type JoinFormula struct {
	Relation Formula
	Child    Formula
}

func (f JoinFormula) String() string {
	return "(" + f.Relation.String() + " " + f.Child.String() + ")"
}
func (JoinFormula) isFormula() {}

// Name returns the value formula of a named value.
func Name(id string) ValueFormula {
	return ValueFormula{Value: NameValue{ID: id}}
}

// Number returns the value formula of an integer.
func Number(n int) ValueFormula {
	return ValueFormula{Value: NumberValue{N: n}}
}

// Join returns (relation child).
func Join(relation, child Formula) JoinFormula {
	return JoinFormula{Relation: relation, Child: child}
}

// Equal reports whether a and b are structurally identical.
func Equal(a, b Formula) bool {
	return a == b
}
