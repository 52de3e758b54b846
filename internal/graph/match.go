package graph

import (
	"strings"

	"github.com/Benny93/nlvr-graph/internal/formula"
	"github.com/Benny93/nlvr-graph/internal/scene"
)

// FuzzyMatchedFormulas returns the unary formulas of the scene whose color
// or shape name appears as a word of phrase. A trailing plural "s" is
// ignored ("squares" matches square). Words naming a value absent from
// the scene, and phrases with no such word, yield nothing.
func (g *SceneGraph) FuzzyMatchedFormulas(phrase string) []formula.Formula {
	var out []formula.Formula
	seen := make(map[string]bool)
	for _, token := range tokenize(phrase) {
		for _, f := range predicatesFor(token) {
			key := f.String()
			if seen[key] || !g.unaryFormulas.Contains(f) {
				continue
			}
			seen[key] = true
			out = append(out, f)
		}
	}
	return out
}

// FuzzyMatchedSpan matches the words sentence[start:end] joined by spaces.
func (g *SceneGraph) FuzzyMatchedSpan(sentence []string, start, end int) []formula.Formula {
	if start < 0 || end > len(sentence) || start >= end {
		return nil
	}
	return g.FuzzyMatchedFormulas(strings.Join(sentence[start:end], " "))
}

func predicatesFor(token string) []formula.Formula {
	candidates := []string{token}
	if trimmed := strings.TrimSuffix(token, "s"); trimmed != token {
		candidates = append(candidates, trimmed)
	}

	var out []formula.Formula
	for _, c := range candidates {
		if color, err := scene.ParseColor(c); err == nil {
			out = append(out, formula.ColorPredicate(color))
		}
		if shape, err := scene.ParseShape(c); err == nil {
			out = append(out, formula.ShapePredicate(shape))
		}
	}
	return out
}

// tokenize lower-cases text and splits it on anything but letters and digits.
func tokenize(text string) []string {
	text = strings.ToLower(text)
	return strings.FieldsFunc(text, func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})
}
