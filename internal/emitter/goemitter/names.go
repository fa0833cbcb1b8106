package goemitter

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
)

var nonIdent = regexp.MustCompile(`[^A-Za-z0-9]+`)

// exported turns an arbitrary document name into an exported Go identifier.
func exported(name string) string {
	id := strcase.ToCamel(nonIdent.ReplaceAllString(name, "_"))
	if id == "" {
		return "X"
	}
	if id[0] >= '0' && id[0] <= '9' {
		return "N" + id
	}
	return id
}

// wildcard turns a path template variable into a valid http.ServeMux
// wildcard name.
func wildcard(name string) string {
	w := nonIdent.ReplaceAllString(name, "_")
	if w == "" {
		return "_"
	}
	if w[0] >= '0' && w[0] <= '9' {
		return "_" + w
	}
	return w
}

// registry hands out unique identifiers within one namespace. A name that is
// already taken gets the smallest free numeric suffix.
type registry struct {
	used map[string]bool
}

func newRegistry() *registry {
	return &registry{used: map[string]bool{}}
}

func (r *registry) claim(id string) string {
	if !r.used[id] {
		r.used[id] = true
		return id
	}
	for i := 2; ; i++ {
		candidate := id + strconv.Itoa(i)
		if !r.used[candidate] {
			r.used[candidate] = true
			return candidate
		}
	}
}

// comment renders text as // lines prefixed by indent. Empty text renders
// nothing.
func comment(indent, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			b.WriteString(indent + "//\n")
			continue
		}
		b.WriteString(indent + "// " + line + "\n")
	}
	return b.String()
}
