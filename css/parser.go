package css

import (
	"bytes"
	"errors"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses style blocks into class rules.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css")}
}

// Parse parses CSS text into a Stylesheet of class rules. Only simple class
// selectors (".name") produce rules; everything else is skipped and recorded
// in Warnings. At-rules and their blocks are skipped entirely. A text without
// usable rules yields an empty Stylesheet, not an error.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	sheet := &Stylesheet{}

	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing style block", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	input := parse.NewInput(bytes.NewReader(data))
	parser := css.NewParser(input, false)

	// Selector list members before the one that opens the block.
	var pending []string

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				p.log.Debug("Style text not fully parsed", zap.Error(err))
			}
			return sheet

		case css.BeginAtRuleGrammar:
			p.log.Debug("Skipping @-rule block", zap.String("rule", string(data)))
			p.skipAtRuleBlock(parser)

		case css.AtRuleGrammar:
			p.log.Debug("Skipping @-rule", zap.String("rule", string(data)))

		case css.QualifiedRuleGrammar:
			pending = append(pending, selectorText(data, parser.Values()))

		case css.BeginRulesetGrammar:
			pending = append(pending, selectorText(data, parser.Values()))
			decls := p.parseDeclarations(parser)
			for _, sel := range pending {
				class, ok := classSelector(sel)
				if !ok {
					sheet.Warnings = append(sheet.Warnings, "unsupported selector: "+sel)
					p.log.Debug("Skipping unsupported selector", zap.String("selector", sel))
					continue
				}
				if len(decls) == 0 {
					continue
				}
				sheet.add(class, decls.Clone())
			}
			pending = nil
		}
	}
}

// ParseInline parses the contents of a style attribute into declarations.
func (p *Parser) ParseInline(data []byte) Declarations {
	var decls Declarations

	input := parse.NewInput(bytes.NewReader(data))
	parser := css.NewParser(input, true)

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				p.log.Debug("Style attribute not fully parsed", zap.Error(err))
			}
			return decls

		case css.DeclarationGrammar:
			if value := tokensText(parser.Values()); value != "" {
				decls = decls.Set(string(data), value)
			}
		}
	}
}

// parseDeclarations collects property declarations until the ruleset ends.
// A property repeated within one rule overwrites its earlier value.
func (p *Parser) parseDeclarations(parser *css.Parser) Declarations {
	var decls Declarations

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return decls

		case css.DeclarationGrammar:
			if value := tokensText(parser.Values()); value != "" {
				decls = decls.Set(string(data), value)
			}

		case css.CustomPropertyGrammar:
			p.log.Debug("Skipping custom property", zap.String("property", string(data)))
		}
	}
}

// skipAtRuleBlock skips tokens until the matching end of an @-rule block.
func (p *Parser) skipAtRuleBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

// selectorText rebuilds the selector string from grammar data and tokens.
func selectorText(data []byte, values []css.Token) string {
	var sb strings.Builder
	sb.Write(data)
	for _, v := range values {
		sb.Write(v.Data)
	}
	return strings.TrimSpace(sb.String())
}

// classSelector reports whether sel is a single class selector and returns
// the class name without the leading dot.
func classSelector(sel string) (string, bool) {
	if len(sel) < 2 || sel[0] != '.' {
		return "", false
	}
	name := sel[1:]
	if strings.ContainsAny(name, " \t\r\n.,:#[]()>+~*") {
		return "", false
	}
	return name, true
}

// tokensText joins value tokens into a trimmed string, collapsing whitespace
// runs to a single space.
func tokensText(tokens []css.Token) string {
	var parts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			parts = append(parts, string(t.Data))
		} else if len(parts) > 0 {
			parts = append(parts, " ")
		}
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}
