package collab

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/lucasnoah/testfactory/internal/pipeline"
)

// TemplateRenderer renders test cases into script source via per-
// framework text templates.
type TemplateRenderer struct {
	templates map[string]*template.Template
}

// NewTemplateRenderer builds a renderer with the built-in pytest and
// unittest templates.
func NewTemplateRenderer() (*TemplateRenderer, error) {
	r := &TemplateRenderer{templates: make(map[string]*template.Template)}
	for name, text := range map[string]string{
		"pytest":   pytestTemplate,
		"unittest": unittestTemplate,
		"generic":  shTemplate,
	} {
		tmpl, err := template.New(name).Funcs(template.FuncMap{
			"ident": pyIdent,
		}).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

// Render produces script source for one test case. Unknown frameworks
// are an error; the generation stage validates framework names before
// rendering.
func (r *TemplateRenderer) Render(tc pipeline.TestCase, framework string) (string, error) {
	tmpl, ok := r.templates[framework]
	if !ok {
		return "", fmt.Errorf("no template for framework %q", framework)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, tc); err != nil {
		return "", fmt.Errorf("render %s: %w", tc.ID, err)
	}
	return b.String(), nil
}

// pyIdent converts a case name into a valid python identifier suffix.
func pyIdent(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		out = "case"
	}
	return out
}

const pytestTemplate = `"""{{.ID}}: {{.Name}}
{{if .Description}}
{{.Description}}
{{end}}"""


def test_{{ident .Name}}():
{{- range .Steps}}
    # step {{.Number}}: {{.Action}}{{if .Target}} {{.Target}}{{end}}{{if .Value}} = {{.Value}}{{end}}
{{- end}}
{{- if .Expected}}
    # expected: {{.Expected}}
{{- end}}
    assert True
`

const shTemplate = `#!/bin/sh
# {{.ID}}: {{.Name}}
{{- range .Steps}}
echo "step {{.Number}}: {{.Action}} {{.Target}}"
{{- end}}
exit 0
`

const unittestTemplate = `"""{{.ID}}: {{.Name}}"""

import unittest


class Test_{{ident .Name}}(unittest.TestCase):
    def test_{{ident .Name}}(self):
{{- range .Steps}}
        # step {{.Number}}: {{.Action}}{{if .Target}} {{.Target}}{{end}}
{{- end}}
        self.assertTrue(True)


if __name__ == "__main__":
    unittest.main()
`
