package relay

import (
	"strings"
)

// Template is a parameterized prompt body with named placeholders.
// Placeholders are written as {field} and are bound to record fields at
// render time. Doubled braces ({{ and }}) emit literal braces.
//
// Rendering substitutes field values verbatim with no escaping. If the
// rendered text is later treated as instructions, neutralizing template
// injection from user-supplied fields is the caller's responsibility.
type Template struct {
	raw    string
	fields []string
}

// NewTemplate parses the template body and records its placeholder names.
func NewTemplate(raw string) *Template {
	t := &Template{raw: raw}

	seen := make(map[string]bool)
	for i := 0; i < len(raw); i++ {
		if raw[i] != '{' {
			continue
		}
		// Escaped literal brace.
		if i+1 < len(raw) && raw[i+1] == '{' {
			i++
			continue
		}
		end := strings.IndexByte(raw[i:], '}')
		if end < 0 {
			break
		}
		name := raw[i+1 : i+end]
		if isFieldName(name) && !seen[name] {
			seen[name] = true
			t.fields = append(t.fields, name)
		}
		i += end
	}

	return t
}

// Fields returns the placeholder names in order of first appearance.
func (t *Template) Fields() []string {
	out := make([]string, len(t.fields))
	copy(out, t.fields)
	return out
}

// Render substitutes each placeholder with the literal value of the
// corresponding record field. Rendering has no side effects: the same
// template and record always produce identical text. Referencing a field
// absent from the record fails with a MissingFieldError.
func (t *Template) Render(rec Record) (string, error) {
	var b strings.Builder
	b.Grow(len(t.raw))

	raw := t.raw
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch c {
		case '{':
			if i+1 < len(raw) && raw[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(raw[i:], '}')
			if end < 0 {
				b.WriteString(raw[i:])
				return b.String(), nil
			}
			name := raw[i+1 : i+end]
			if !isFieldName(name) {
				b.WriteString(raw[i : i+end+1])
				i += end
				continue
			}
			value, err := rec.String(name)
			if err != nil {
				return "", err
			}
			b.WriteString(value)
			i += end
		case '}':
			if i+1 < len(raw) && raw[i+1] == '}' {
				i++
			}
			b.WriteByte('}')
		default:
			b.WriteByte(c)
		}
	}

	return b.String(), nil
}

// isFieldName reports whether s is a valid placeholder name: a non-empty
// run of letters, digits, and underscores not starting with a digit.
func isFieldName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
