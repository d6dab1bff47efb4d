package svg

import (
	"unicode"
	"unicode/utf8"
)

// Vocabulary lists the SVG tag names eligible for component renaming.
// Matching is exact and case-sensitive; tags outside this list are never
// renamed. Both the structured and the textual pipelines consume this set.
var Vocabulary = []string{
	"svg",
	"circle",
	"ellipse",
	"g",
	"text",
	"tspan",
	"line",
	"path",
	"polygon",
	"polyline",
	"rect",
	"use",
	"defs",
	"stop",
	"linearGradient",
	"radialGradient",
	"mask",
	"pattern",
	"clipPath",
	"filter",
	"feGaussianBlur",
	"feOffset",
	"feBlend",
	"feColorMatrix",
}

var renamedTags = make(map[string]string, len(Vocabulary))

func init() {
	for _, tag := range Vocabulary {
		renamedTags[tag] = capitalize(tag)
	}
}

// RenamedTag returns the component name for a vocabulary tag: the first rune
// uppercased, the remainder unchanged (tspan -> Tspan, clipPath -> ClipPath).
func RenamedTag(tag string) (string, bool) {
	name, ok := renamedTags[tag]
	return name, ok
}

func capitalize(tag string) string {
	r, size := utf8.DecodeRuneInString(tag)
	if r == utf8.RuneError {
		return tag
	}
	return string(unicode.ToUpper(r)) + tag[size:]
}
