package svg

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// Document is a parsed SVG tree, mutated in place by the pipeline stages and
// serialized once at the end. One Document serves one conversion.
type Document struct {
	doc *etree.Document
	log *zap.Logger
}

// Parse builds a Document from raw SVG text. Parsing is permissive about
// common XML mistakes; inputs it still cannot load are left to the textual
// fallback.
func Parse(data []byte, log *zap.Logger) (*Document, error) {
	if log == nil {
		log = zap.NewNop()
	}

	doc := etree.NewDocument()
	doc.WriteSettings = etree.WriteSettings{
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		ValidateInput: false,
		Permissive:    true,
	}

	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("unable to read SVG: %w", err)
	}
	if doc.Root() == nil {
		return nil, errors.New("document has no root element")
	}
	return &Document{doc: doc, log: log.Named("svg")}, nil
}

// Bytes serializes the current tree.
func (d *Document) Bytes() ([]byte, error) {
	out, err := d.doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("unable to serialize SVG: %w", err)
	}
	return out, nil
}

// Root returns the document root element.
func (d *Document) Root() *etree.Element {
	return d.doc.Root()
}

// Elements returns every element in document order. The slice is a snapshot:
// renaming or pruning while iterating does not disturb it.
func (d *Document) Elements() []*etree.Element {
	var els []*etree.Element
	var walk func(*etree.Element)
	walk = func(el *etree.Element) {
		els = append(els, el)
		for _, child := range el.ChildElements() {
			walk(child)
		}
	}
	for _, el := range d.doc.ChildElements() {
		walk(el)
	}
	return els
}

// findFirst returns the first element with the given tag in pre-order,
// considering el itself.
func findFirst(el *etree.Element, tag string) *etree.Element {
	if el == nil {
		return nil
	}
	if el.Tag == tag {
		return el
	}
	for _, child := range el.ChildElements() {
		if found := findFirst(child, tag); found != nil {
			return found
		}
	}
	return nil
}

// elementText concatenates the character data children of el, covering text
// split around comments or CDATA sections.
func elementText(el *etree.Element) string {
	var sb strings.Builder
	for _, node := range el.Child {
		if cd, ok := node.(*etree.CharData); ok {
			sb.WriteString(cd.Data)
		}
	}
	return sb.String()
}

// containerEmpty reports whether el has no children besides whitespace text.
func containerEmpty(el *etree.Element) bool {
	for _, node := range el.Child {
		switch t := node.(type) {
		case *etree.CharData:
			if strings.TrimSpace(t.Data) != "" {
				return false
			}
		default:
			return false
		}
	}
	return true
}
