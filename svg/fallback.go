package svg

import (
	"bytes"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/xml"
	"go.uber.org/zap"

	"svgc/css"
)

// Fallback rewrites SVG text by token scanning instead of building a tree.
// It reproduces the structured pipeline's contract on inputs the structured
// parser cannot load; the scanner never fails on malformed markup, so the
// rewrite degrades instead of erroring.
type Fallback struct {
	parser *css.Parser
	log    *zap.Logger
}

// NewFallback creates a textual rewriter sharing the declaration parser with
// the structured pipeline.
func NewFallback(parser *css.Parser, log *zap.Logger) *Fallback {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fallback{parser: parser, log: log.Named("fallback")}
}

// Rewrite applies the inline-style transform and, when rename is set, the
// component tag rename to raw SVG text. Without a style block the input
// passes through verbatim (rename excepted).
func (f *Fallback) Rewrite(data []byte, rename bool) []byte {
	styleText, found := f.findStyleText(data)
	if !found {
		f.log.Info("No style element found")
		if !rename {
			return data
		}
		return f.renameTags(data)
	}

	sheet := f.parser.Parse(styleText, "style block")
	for _, w := range sheet.Warnings {
		f.log.Warn("Ignoring selector", zap.String("reason", w))
	}

	out := f.applyStyles(data, sheet)
	out = f.pruneEmptyDefs(out)
	if rename {
		out = f.renameTags(out)
	}
	return out
}

// findStyleText locates the first non-void style element and returns its
// character data. An unterminated or self-closing style yields no block.
func (f *Fallback) findStyleText(data []byte) ([]byte, bool) {
	l := xml.NewLexer(parse.NewInputBytes(data))

	var text bytes.Buffer
	var opening, inStyle bool
	for {
		tt, tokenData := l.Next()
		switch tt {
		case xml.ErrorToken:
			return nil, false
		case xml.StartTagToken:
			if !inStyle && string(l.Text()) == "style" {
				opening = true
			}
		case xml.StartTagCloseToken:
			if opening {
				opening = false
				inStyle = true
			}
		case xml.StartTagCloseVoidToken:
			opening = false
		case xml.TextToken:
			if inStyle {
				text.Write(tokenData)
			}
		case xml.CDATAToken:
			if inStyle {
				text.Write(l.Text())
			}
		case xml.EndTagToken:
			if inStyle && string(l.Text()) == "style" {
				return text.Bytes(), true
			}
		}
	}
}

// tagAttr is one attribute of a buffered start tag. raw keeps the source
// bytes verbatim, leading whitespace included, so untouched attributes
// survive byte-for-byte.
type tagAttr struct {
	raw  []byte
	name string
	val  []byte
}

// applyStyles removes the first style block and rewrites every class
// attribute whose tokens have rules: matched tokens are dropped and one style
// attribute with the merged declarations is emitted in the class attribute's
// position. All classes of an element merge into a single attribute, in
// stylesheet order, layered on top of any existing inline style.
func (f *Fallback) applyStyles(data []byte, sheet *css.Stylesheet) []byte {
	l := xml.NewLexer(parse.NewInputBytes(data))

	var out bytes.Buffer
	out.Grow(len(data))

	var (
		openRaw   []byte
		tagName   string
		attrs     []tagAttr
		buffering bool
		skipping  bool
		styleDone bool
	)
	rewritten := 0

	for {
		tt, tokenData := l.Next()
		if tt == xml.ErrorToken {
			if buffering {
				// Unterminated open tag: restore its bytes untouched.
				out.Write(openRaw)
				for i := range attrs {
					out.Write(attrs[i].raw)
				}
			}
			f.log.Debug("Rewrote class attributes", zap.Int("elements", rewritten))
			return out.Bytes()
		}
		if skipping {
			if tt == xml.EndTagToken && string(l.Text()) == "style" {
				skipping = false
			}
			continue
		}

		switch tt {
		case xml.StartTagToken:
			buffering = true
			tagName = string(l.Text())
			openRaw = tokenData
			attrs = attrs[:0]

		case xml.AttributeToken:
			if !buffering {
				out.Write(tokenData)
				continue
			}
			attrs = append(attrs, tagAttr{raw: tokenData, name: string(l.Text()), val: l.AttrVal()})

		case xml.StartTagCloseToken, xml.StartTagCloseVoidToken:
			if !buffering {
				out.Write(tokenData)
				continue
			}
			buffering = false
			if tagName == "style" && !styleDone && tt == xml.StartTagCloseToken {
				// The first style block goes away wholesale.
				styleDone = true
				skipping = true
				continue
			}
			if f.rewriteTag(&out, openRaw, attrs, tokenData, sheet) {
				rewritten++
			}

		default:
			out.Write(tokenData)
		}
	}
}

// rewriteTag emits a buffered start tag, rewriting its class attribute when
// any of its tokens carry rules. Reports whether a rewrite happened.
func (f *Fallback) rewriteTag(out *bytes.Buffer, openRaw []byte, attrs []tagAttr, closeRaw []byte, sheet *css.Stylesheet) bool {
	classIdx, styleIdx := -1, -1
	for i := range attrs {
		switch attrs[i].name {
		case "class":
			if classIdx < 0 {
				classIdx = i
			}
		case "style":
			if styleIdx < 0 {
				styleIdx = i
			}
		}
	}

	var (
		remaining []string
		merged    css.Declarations
		matched   map[string]bool
	)
	if classIdx >= 0 && !sheet.Empty() {
		tokens := strings.Fields(string(unquoteAttr(attrs[classIdx].val)))
		matched = make(map[string]bool, len(tokens))
		for _, token := range tokens {
			if _, ok := sheet.Class(token); ok {
				matched[token] = true
			}
		}
		if len(matched) > 0 {
			if styleIdx >= 0 {
				merged = f.parser.ParseInline(unquoteAttr(attrs[styleIdx].val))
			}
			for _, class := range sheet.Classes() {
				if !matched[class] {
					continue
				}
				rule, _ := sheet.Class(class)
				merged = merged.Merge(rule)
			}
			for _, token := range tokens {
				if !matched[token] {
					remaining = append(remaining, token)
				}
			}
		}
	}

	if len(matched) == 0 {
		out.Write(openRaw)
		for i := range attrs {
			out.Write(attrs[i].raw)
		}
		out.Write(closeRaw)
		return false
	}

	out.Write(openRaw)
	for i := range attrs {
		switch i {
		case classIdx:
			if len(remaining) > 0 {
				out.WriteString(` class="`)
				out.WriteString(escapeAttr(strings.Join(remaining, " ")))
				out.WriteString(`"`)
			}
			out.WriteString(` style="`)
			out.WriteString(escapeAttr(merged.String()))
			out.WriteString(`"`)
		case styleIdx:
			// Folded into the attribute emitted at the class position.
		default:
			out.Write(attrs[i].raw)
		}
	}
	out.Write(closeRaw)
	return true
}

// defsFrame buffers one defs element so it can be dropped wholesale if no
// content besides whitespace remains when its end tag arrives.
type defsFrame struct {
	open  bytes.Buffer
	body  bytes.Buffer
	empty bool
}

// pruneEmptyDefs removes defs containers whose content is whitespace only,
// including ones emptied by the style block removal.
func (f *Fallback) pruneEmptyDefs(data []byte) []byte {
	l := xml.NewLexer(parse.NewInputBytes(data))

	var out bytes.Buffer
	out.Grow(len(data))

	var (
		stack   []*defsFrame
		opening *defsFrame
	)
	write := func(b []byte) {
		if len(stack) > 0 {
			stack[len(stack)-1].body.Write(b)
			return
		}
		out.Write(b)
	}
	markUsed := func() {
		if len(stack) > 0 {
			stack[len(stack)-1].empty = false
		}
	}

	for {
		tt, tokenData := l.Next()
		if tt == xml.ErrorToken {
			// Unterminated containers are restored untouched, outermost first.
			for _, frame := range stack {
				out.Write(frame.open.Bytes())
				out.Write(frame.body.Bytes())
			}
			if opening != nil {
				out.Write(opening.open.Bytes())
			}
			return out.Bytes()
		}

		switch tt {
		case xml.StartTagToken:
			if string(l.Text()) == "defs" {
				opening = &defsFrame{empty: true}
				opening.open.Write(tokenData)
				continue
			}
			markUsed()
			write(tokenData)

		case xml.AttributeToken:
			if opening != nil {
				opening.open.Write(tokenData)
				continue
			}
			write(tokenData)

		case xml.StartTagCloseToken:
			if opening != nil {
				opening.open.Write(tokenData)
				stack = append(stack, opening)
				opening = nil
				continue
			}
			write(tokenData)

		case xml.StartTagCloseVoidToken:
			if opening != nil {
				// A childless <defs/> goes away immediately.
				opening = nil
				continue
			}
			write(tokenData)

		case xml.EndTagToken:
			if string(l.Text()) == "defs" && len(stack) > 0 {
				frame := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if frame.empty {
					f.log.Debug("Removed empty defs container")
					continue
				}
				markUsed()
				write(frame.open.Bytes())
				write(frame.body.Bytes())
				write(tokenData)
				continue
			}
			markUsed()
			write(tokenData)

		case xml.TextToken:
			if len(stack) > 0 && len(bytes.TrimSpace(tokenData)) == 0 {
				write(tokenData)
				continue
			}
			markUsed()
			write(tokenData)

		default:
			markUsed()
			write(tokenData)
		}
	}
}

// renameTags rewrites vocabulary open and close tag tokens to their
// capitalized forms, independent of nesting depth. Everything else passes
// through byte-for-byte.
func (f *Fallback) renameTags(data []byte) []byte {
	l := xml.NewLexer(parse.NewInputBytes(data))

	var out bytes.Buffer
	out.Grow(len(data))

	count := 0
	for {
		tt, tokenData := l.Next()
		switch tt {
		case xml.ErrorToken:
			f.log.Debug("Renamed tags", zap.Int("count", count))
			return out.Bytes()
		case xml.StartTagToken:
			if name, ok := RenamedTag(string(l.Text())); ok {
				out.WriteByte('<')
				out.WriteString(name)
				count++
				continue
			}
		case xml.EndTagToken:
			if name, ok := RenamedTag(string(l.Text())); ok {
				out.WriteString("</")
				out.WriteString(name)
				out.WriteByte('>')
				count++
				continue
			}
		}
		out.Write(tokenData)
	}
}

// unquoteAttr strips the surrounding quotes the lexer keeps on values.
func unquoteAttr(val []byte) []byte {
	if len(val) >= 2 && (val[0] == '"' || val[0] == '\'') && val[len(val)-1] == val[0] {
		return val[1 : len(val)-1]
	}
	return val
}

// escapeAttr escapes quotes and tag openers in constructed attribute values.
// Ampersands pass through: the source text is already entity-escaped.
func escapeAttr(s string) string {
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return strings.ReplaceAll(s, "<", "&lt;")
}
