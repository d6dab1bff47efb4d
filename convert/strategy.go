package convert

import (
	"fmt"

	"go.uber.org/zap"

	"svgc/css"
	"svgc/svg"
)

// variant names the rewrite pipeline that produced an output.
type variant int

const (
	variantStructured variant = iota
	variantTextual
)

func (v variant) String() string {
	switch v {
	case variantStructured:
		return "structured"
	case variantTextual:
		return "textual"
	default:
		return "unknown"
	}
}

// transform rewrites a single SVG document, inlining class styles and, when
// rename is set, capitalizing component tags. The structured pipeline runs
// first; if it cannot load or rewrite the document the textual scanner
// re-derives the output from the unmodified input. The scanner itself never
// fails, it degrades on markup it does not understand.
func transform(data []byte, rename bool, log *zap.Logger) ([]byte, variant) {
	parser := css.NewParser(log)

	out, err := structuredRewrite(data, rename, parser, log)
	if err == nil {
		return out, variantStructured
	}
	log.Debug("Structured rewrite failed, switching to textual scan", zap.Error(err))

	return svg.NewFallback(parser, log).Rewrite(data, rename), variantTextual
}

// structuredRewrite runs the tree based pipeline. A panic anywhere inside it
// is converted to an error so the caller can fall back instead of dying on a
// pathological document.
func structuredRewrite(data []byte, rename bool, parser *css.Parser, log *zap.Logger) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("structured rewrite panic: %v", r)
		}
	}()

	doc, err := svg.Parse(data, log)
	if err != nil {
		return nil, fmt.Errorf("unable to load document: %w", err)
	}

	doc.InlineClassStyles(parser)
	if rename {
		doc.RenameToComponents()
	}

	out, err = doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("unable to serialize document: %w", err)
	}
	return out, nil
}
