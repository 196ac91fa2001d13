// Package template renders {name} and {{name}} placeholders in strings.
package template

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnresolvedPlaceholder is returned by RenderStrict when a placeholder has
// no value in the context.
var ErrUnresolvedPlaceholder = errors.New("unresolved placeholder")

// Placeholder is one {name} or {{name}} occurrence in a template.
type Placeholder struct {
	Name   string
	Double bool
	start  int
	end    int
}

// Parse returns the placeholders of tmpl in order of appearance. Braces that
// do not form a placeholder are ignored.
func Parse(tmpl string) []Placeholder {
	var placeholders []Placeholder

	for i := 0; i < len(tmpl); {
		if tmpl[i] != '{' {
			i++

			continue
		}

		if strings.HasPrefix(tmpl[i:], "{{") {
			if p, ok := scan(tmpl, i, 2); ok {
				placeholders = append(placeholders, p)
				i = p.end

				continue
			}
		}

		if p, ok := scan(tmpl, i, 1); ok {
			placeholders = append(placeholders, p)
			i = p.end

			continue
		}

		i++
	}

	return placeholders
}

func scan(tmpl string, start, width int) (Placeholder, bool) {
	open := start + width
	closing := strings.Repeat("}", width)

	end := strings.Index(tmpl[open:], closing)
	if end < 0 {
		return Placeholder{}, false
	}

	inner := tmpl[open : open+end]
	if strings.ContainsAny(inner, "{}") {
		return Placeholder{}, false
	}

	name := strings.TrimSpace(inner)
	if name == "" {
		return Placeholder{}, false
	}

	return Placeholder{
		Name:   name,
		Double: width == 2,
		start:  start,
		end:    open + end + width,
	}, true
}

// Names returns the distinct placeholder names of tmpl in order of appearance.
func Names(tmpl string) []string {
	seen := make(map[string]bool)

	var names []string

	for _, p := range Parse(tmpl) {
		if !seen[p.Name] {
			seen[p.Name] = true
			names = append(names, p.Name)
		}
	}

	return names
}

// Render substitutes every placeholder found in context. Placeholders without
// a value are left verbatim.
func Render(tmpl string, context map[string]string) string {
	rendered, _ := render(tmpl, context)

	return rendered
}

// RenderStrict is Render but fails when any placeholder has no value.
func RenderStrict(tmpl string, context map[string]string) (string, error) {
	rendered, missing := render(tmpl, context)
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrUnresolvedPlaceholder, strings.Join(missing, ", "))
	}

	return rendered, nil
}

func render(tmpl string, context map[string]string) (string, []string) {
	placeholders := Parse(tmpl)
	if len(placeholders) == 0 {
		return tmpl, nil
	}

	var (
		builder strings.Builder
		missing []string
		last    int
	)

	for _, p := range placeholders {
		builder.WriteString(tmpl[last:p.start])

		if value, ok := context[p.Name]; ok {
			builder.WriteString(value)
		} else {
			builder.WriteString(tmpl[p.start:p.end])
			missing = append(missing, p.Name)
		}

		last = p.end
	}

	builder.WriteString(tmpl[last:])

	return builder.String(), missing
}
