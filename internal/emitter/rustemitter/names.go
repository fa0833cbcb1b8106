package rustemitter

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
)

var nonIdent = regexp.MustCompile(`[^A-Za-z0-9]+`)

var keywords = map[string]bool{
	"as": true, "async": true, "await": true, "break": true, "const": true, "continue": true,
	"dyn": true, "else": true, "enum": true, "extern": true, "false": true, "fn": true,
	"for": true, "if": true, "impl": true, "in": true, "let": true, "loop": true,
	"match": true, "mod": true, "move": true, "mut": true, "pub": true, "ref": true,
	"return": true, "static": true, "struct": true, "trait": true, "true": true, "type": true,
	"unsafe": true, "use": true, "where": true, "while": true, "abstract": true, "become": true,
	"box": true, "do": true, "final": true, "macro": true, "override": true, "priv": true,
	"try": true, "typeof": true, "unsized": true, "virtual": true, "yield": true,
}

// typeName turns a document name into an UpperCamelCase Rust type name.
func typeName(name string) string {
	id := strcase.ToCamel(nonIdent.ReplaceAllString(name, "_"))
	if id == "" {
		return "X"
	}
	if id[0] >= '0' && id[0] <= '9' {
		return "N" + id
	}
	return id
}

// fieldName turns a document name into a snake_case Rust identifier,
// escaping keywords as raw identifiers.
func fieldName(name string) string {
	id := strings.Trim(strcase.ToSnake(nonIdent.ReplaceAllString(name, "_")), "_")
	if id == "" {
		return "x"
	}
	if id[0] >= '0' && id[0] <= '9' {
		return "n" + id
	}
	// self, super, crate and Self cannot be raw identifiers.
	switch id {
	case "self", "super", "crate":
		return id + "_"
	}
	if keywords[id] {
		return "r#" + id
	}
	return id
}

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
