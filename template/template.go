// Package template loads named GraphQL query templates and renders them
// by keyed substitution. Templates are trusted, hand-authored strings;
// rendering is textual, not an AST transform.
//
// A template resource is a line-oriented text file with one
// "name|queryTemplateText" pair per line. Inside a template, a variable
// token is written "$name^" and an array token "$name[]^"; array tokens
// render as a JSON array of quoted elements.
package template

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

var (
	// ErrMissingVariable is returned when a template references a token
	// that has no binding.
	ErrMissingVariable = errors.New("template: missing variable binding")

	// ErrMalformedTemplate is returned for an unterminated token or a
	// resource line without a name|template separator.
	ErrMalformedTemplate = errors.New("template: malformed template")
)

// Set is an immutable mapping from query name to template string for
// one logical group (user, platform, identity).
type Set struct {
	group   string
	queries map[string]string
}

// Load reads the resource for a logical group from fsys. The resource
// path is "<group>.txt". An empty or missing resource is an error.
func Load(fsys fs.FS, group string) (*Set, error) {
	data, err := fs.ReadFile(fsys, group+".txt")
	if err != nil {
		return nil, fmt.Errorf("template: read group %q: %w", group, err)
	}

	queries := make(map[string]string)
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		name, tmpl, ok := strings.Cut(line, "|")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: group %q line %d has no name|template separator",
				ErrMalformedTemplate, group, i+1)
		}
		queries[name] = tmpl
	}

	if len(queries) == 0 {
		return nil, fmt.Errorf("template: group %q resource is empty", group)
	}

	return &Set{group: group, queries: queries}, nil
}

// Group returns the logical group name the set was loaded for.
func (s *Set) Group() string { return s.group }

// Len returns the number of templates in the set.
func (s *Set) Len() int { return len(s.queries) }

// Query returns the raw template registered under name.
func (s *Set) Query(name string) (string, bool) {
	tmpl, ok := s.queries[name]
	return tmpl, ok
}

// Render looks up the named template and renders it with b.
func (s *Set) Render(name string, b *Bindings) (string, error) {
	tmpl, ok := s.queries[name]
	if !ok {
		return "", fmt.Errorf("template: group %q has no query %q", s.group, name)
	}
	return Render(tmpl, b)
}

// Bindings holds the variable and array values for one render.
type Bindings struct {
	vars   map[string]string
	arrays map[string][]string
}

// NewBindings returns an empty binding set.
func NewBindings() *Bindings {
	return &Bindings{
		vars:   make(map[string]string),
		arrays: make(map[string][]string),
	}
}

// Set binds a plain variable token.
func (b *Bindings) Set(key, value string) *Bindings {
	b.vars[key] = value
	return b
}

// SetInt binds a plain variable token from an int.
func (b *Bindings) SetInt(key string, value int) *Bindings {
	return b.Set(key, fmt.Sprintf("%d", value))
}

// SetBool binds a plain variable token from a bool, rendered lowercase.
func (b *Bindings) SetBool(key string, value bool) *Bindings {
	return b.Set(key, fmt.Sprintf("%t", value))
}

// SetArray binds an array token. Elements render quoted inside a JSON
// array: ["a","b"].
func (b *Bindings) SetArray(key string, values []string) *Bindings {
	b.arrays[key] = values
	return b
}

// Render substitutes every "$name^" and "$name[]^" token in tmpl from b.
// A token without a closing '^' and a token with no binding are both
// reported as errors rather than rendered through.
func Render(tmpl string, b *Bindings) (string, error) {
	if b == nil {
		b = NewBindings()
	}

	var out strings.Builder
	rest := tmpl
	for {
		start := strings.IndexByte(rest, '$')
		if start < 0 {
			out.WriteString(rest)
			return out.String(), nil
		}
		out.WriteString(rest[:start])
		rest = rest[start+1:]

		end := strings.IndexByte(rest, '^')
		if end < 0 {
			return "", fmt.Errorf("%w: unterminated token near %q", ErrMalformedTemplate, rest)
		}
		token := rest[:end]
		rest = rest[end+1:]

		if name, isArray := strings.CutSuffix(token, "[]"); isArray {
			values, ok := b.arrays[name]
			if !ok {
				return "", fmt.Errorf("%w: array %q", ErrMissingVariable, name)
			}
			out.WriteString(JSONArrayString(values))
			continue
		}

		value, ok := b.vars[token]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrMissingVariable, token)
		}
		out.WriteString(value)
	}
}

// JSONArrayString renders values as a JSON array of quoted elements.
func JSONArrayString(values []string) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range values {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		sb.WriteString(v)
		sb.WriteByte('"')
	}
	sb.WriteByte(']')
	return sb.String()
}
