package template

import (
	"fmt"
	"strings"
)

// Vars holds the values available to a template. The engine is
// name-agnostic: it substitutes whatever keys are supplied.
type Vars map[string]any

// Render resolves conditional blocks and then substitutes variable
// placeholders. Conditionals must run first: a block's body may contain
// placeholders that only make sense once the branch is chosen.
//
// Supported syntax:
//
//	{{name}}                        substitution; unknown names render empty
//	{{#if name}}...{{/if}}          body kept iff name is truthy
//	{{#unless name}}...{{/unless}}  body kept iff name is falsy
//
// Blocks do not nest; each opening tag matches the nearest closing tag of
// the same kind. The engine never trims the result; that is the caller's
// concern.
func Render(tmpl string, vars Vars) string {
	out := resolveBlocks(tmpl, vars, "if", false)
	out = resolveBlocks(out, vars, "unless", true)
	return substitute(out, vars)
}

// truthy reports whether a value keeps an {{#if}} body. Only a missing
// key, nil, boolean false and the empty string are falsy. The number 0
// and the strings "0" and "false" are truthy, so authors who store flags
// as strings are not surprised.
func truthy(v any, ok bool) bool {
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	default:
		return true
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(t)
	}
}

func isIdentChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// resolveBlocks collapses every {{#kind name}}...{{/kind}} block of one
// kind. Malformed tags (no variable name, or no closing tag) are left
// verbatim for the substitution pass to ignore.
func resolveBlocks(s string, vars Vars, kind string, negate bool) string {
	openTag := "{{#" + kind
	closeTag := "{{/" + kind + "}}"

	var b strings.Builder
	for {
		i := strings.Index(s, openTag)
		if i < 0 {
			b.WriteString(s)
			break
		}
		b.WriteString(s[:i])
		rest := s[i+len(openTag):]

		// Variable name: at least one space, then an identifier, then }}.
		j := 0
		for j < len(rest) && (rest[j] == ' ' || rest[j] == '\t') {
			j++
		}
		nameStart := j
		for j < len(rest) && isIdentChar(rest[j]) {
			j++
		}
		if nameStart == 0 || j == nameStart || !strings.HasPrefix(rest[j:], "}}") {
			b.WriteString(openTag)
			s = rest
			continue
		}
		name := rest[nameStart:j]
		body := rest[j+2:]

		end := strings.Index(body, closeTag)
		if end < 0 {
			b.WriteString(openTag)
			s = rest
			continue
		}

		v, ok := vars[name]
		keep := truthy(v, ok)
		if negate {
			keep = !keep
		}
		if keep {
			b.WriteString(body[:end])
		}
		s = body[end+len(closeTag):]
	}
	return b.String()
}

// substitute replaces every {{name}} placeholder with the stringified
// variable value, or the empty string when the name is unknown. Tokens
// that are not plain identifier placeholders pass through untouched.
func substitute(s string, vars Vars) string {
	var b strings.Builder
	for {
		i := strings.Index(s, "{{")
		if i < 0 {
			b.WriteString(s)
			break
		}
		b.WriteString(s[:i])
		rest := s[i+2:]

		j := 0
		for j < len(rest) && isIdentChar(rest[j]) {
			j++
		}
		if j == 0 || !strings.HasPrefix(rest[j:], "}}") {
			b.WriteString("{{")
			s = rest
			continue
		}
		name := rest[:j]
		if v, ok := vars[name]; ok {
			b.WriteString(stringify(v))
		}
		s = rest[j+2:]
	}
	return b.String()
}
