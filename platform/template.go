package platform

import (
	"strings"
	"text/template"
)

// Resolve executes the provided format string as a template with the Layout's fields.
// e.g. "/opt/{{.Name}}" resolves to "/opt/shelf" for the shelf program.
// It returns the resolved string and any error that occurred during template parsing or execution.
func (l Layout) Resolve(format string) (string, error) {
	tmpl, err := template.New("layout").Parse(format)
	if err != nil {
		return "", err
	}

	var bld strings.Builder
	if err := tmpl.Execute(&bld, l); err != nil {
		return "", err
	}

	return bld.String(), nil
}

// MustResolve is like [Layout.Resolve] but panics if the template can't be resolved.
func (l Layout) MustResolve(format string) string {
	resolved, err := l.Resolve(format)
	if err != nil {
		panic(err)
	}
	return resolved
}
