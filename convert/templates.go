package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/gosimple/slug"

	"svgc/config"
	"svgc/state"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	SourceFile string
	SourceDir  string
	Slug       string
	Mode       string
	RunID      string
}

func expandTemplate(name config.TemplateFieldName, field, src string, env *state.LocalEnv) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))

	values := Values{
		Context:    string(name),
		SourceFile: base,
		SourceDir:  filepath.ToSlash(filepath.Dir(src)),
		Slug:       slug.Make(base),
		Mode:       strings.TrimPrefix(modeSuffix(env.Rename), "-"),
		RunID:      env.RunID.String(),
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
