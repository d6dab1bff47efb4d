package svg

import (
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"svgc/css"
)

// InlineClassStyles resolves the class rules declared in the first
// <defs><style> block into per-element style attributes. Consumed class
// tokens are removed from each element, an exhausted class attribute is
// dropped, and the style element and its defs container are pruned once
// empty. Returns false when there is no style element to process.
func (d *Document) InlineClassStyles(parser *css.Parser) bool {
	var style *etree.Element
	defs := findFirst(d.doc.Root(), "defs")
	if defs != nil {
		style = findFirst(defs, "style")
	}
	if style == nil {
		d.log.Info("No style element found")
		return false
	}

	sheet := parser.Parse([]byte(elementText(style)), "defs/style")
	for _, w := range sheet.Warnings {
		d.log.Warn("Ignoring selector", zap.String("reason", w))
	}

	applied := 0
	for _, el := range d.Elements() {
		if d.applyClassRules(el, parser, sheet) {
			applied++
		}
	}
	d.log.Debug("Applied class styles", zap.Int("rules", len(sheet.Rules)), zap.Int("elements", applied))

	style.Parent().RemoveChild(style)
	if containerEmpty(defs) && defs.Parent() != nil {
		defs.Parent().RemoveChild(defs)
		d.log.Debug("Removed empty defs container")
	}
	return true
}

// applyClassRules layers the rules matching el's class tokens onto its style
// attribute. Rules merge in stylesheet order on top of any existing inline
// style, later properties overwriting earlier ones; both pipelines share
// these semantics. Reports whether el was rewritten.
func (d *Document) applyClassRules(el *etree.Element, parser *css.Parser, sheet *css.Stylesheet) bool {
	if sheet.Empty() {
		return false
	}
	classAttr := el.SelectAttr("class")
	if classAttr == nil {
		return false
	}

	tokens := strings.Fields(classAttr.Value)
	matched := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		if _, ok := sheet.Class(token); ok {
			matched[token] = true
		}
	}
	if len(matched) == 0 {
		return false
	}

	var decls css.Declarations
	if style := el.SelectAttrValue("style", ""); style != "" {
		decls = parser.ParseInline([]byte(style))
	}
	for _, class := range sheet.Classes() {
		if !matched[class] {
			continue
		}
		rule, _ := sheet.Class(class)
		decls = decls.Merge(rule)
	}

	var remaining []string
	for _, token := range tokens {
		if !matched[token] {
			remaining = append(remaining, token)
		}
	}
	if len(remaining) == 0 {
		el.RemoveAttr("class")
	} else {
		classAttr.Value = strings.Join(remaining, " ")
	}

	// Recreate the style attribute so it lands after the surviving ones.
	el.RemoveAttr("style")
	el.CreateAttr("style", decls.String())
	return true
}
