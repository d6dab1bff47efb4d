package convert

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"svgc/css"
)

func testLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller()))
}

// TestTransform_Structured tests that well-formed documents go through the
// tree pipeline
func TestTransform_Structured(t *testing.T) {
	input := []byte(`<svg><defs><style>.a{fill:red;stroke:blue;}</style></defs><path class="a" d="M0 0"/></svg>`)

	out, v := transform(input, false, testLogger(t))
	if v != variantStructured {
		t.Fatalf("transform() variant = %v, want %v", v, variantStructured)
	}
	want := `<svg><path d="M0 0" style="fill:red;stroke:blue;"/></svg>`
	if string(out) != want {
		t.Errorf("transform() = %s\nwant      = %s", out, want)
	}
}

// TestTransform_StructuredRename tests tag renaming on the tree pipeline
func TestTransform_StructuredRename(t *testing.T) {
	input := []byte(`<svg><defs><style>.a{fill:red;}</style></defs><path class="a" d="M0 0"/></svg>`)

	out, v := transform(input, true, testLogger(t))
	if v != variantStructured {
		t.Fatalf("transform() variant = %v, want %v", v, variantStructured)
	}
	want := `<Svg><Path d="M0 0" style="fill:red;"/></Svg>`
	if string(out) != want {
		t.Errorf("transform() = %s\nwant      = %s", out, want)
	}
}

// TestTransform_FallbackOnMalformed tests that documents the tree parser
// rejects still come out rewritten through the token scanner
func TestTransform_FallbackOnMalformed(t *testing.T) {
	// unquoted attribute value, tree parser rejects it
	input := []byte(`<svg><defs><style>.a{fill:red;}</style></defs><path class="a" d=M0/></svg>`)

	out, v := transform(input, false, testLogger(t))
	if v != variantTextual {
		t.Fatalf("transform() variant = %v, want %v", v, variantTextual)
	}
	want := `<svg><path style="fill:red;" d=M0/></svg>`
	if string(out) != want {
		t.Errorf("transform() = %s\nwant      = %s", out, want)
	}
}

// TestTransform_FallbackRename tests renaming on the token scanner
func TestTransform_FallbackRename(t *testing.T) {
	input := []byte(`<svg><path class="a" d=M0/></svg>`)

	out, v := transform(input, true, testLogger(t))
	if v != variantTextual {
		t.Fatalf("transform() variant = %v, want %v", v, variantTextual)
	}
	if !strings.Contains(string(out), "<Svg>") || !strings.Contains(string(out), "<Path") {
		t.Errorf("transform() did not rename tags: %s", out)
	}
}

// TestTransform_NoStyleBlock tests that documents without a style block pass
// through the tree pipeline unchanged apart from serialization
func TestTransform_NoStyleBlock(t *testing.T) {
	input := []byte(`<svg viewBox="0 0 24 24"><g><path d="M0 0"/></g></svg>`)

	out, v := transform(input, false, testLogger(t))
	if v != variantStructured {
		t.Fatalf("transform() variant = %v, want %v", v, variantStructured)
	}
	if string(out) != string(input) {
		t.Errorf("transform() = %s\nwant      = %s", out, input)
	}
}

// TestStructuredRewrite_Error tests error reporting for unparseable input
func TestStructuredRewrite_Error(t *testing.T) {
	log := testLogger(t)
	_, err := structuredRewrite([]byte("just text, no markup"), false, css.NewParser(log), log)
	if err == nil {
		t.Error("structuredRewrite() expected error for input without root element")
	}
}

// TestVariantString tests pipeline names used in logs
func TestVariantString(t *testing.T) {
	tests := []struct {
		v    variant
		want string
	}{
		{variantStructured, "structured"},
		{variantTextual, "textual"},
		{variant(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("variant(%d).String() = %q, want %q", int(tt.v), got, tt.want)
		}
	}
}
