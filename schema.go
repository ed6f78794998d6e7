package relay

import (
	"encoding/json"
	"strings"

	"github.com/zoobzio/sentinel"
)

// JSONSchema derives a JSON Schema document from T's struct metadata.
// The schema is embedded in structured-stage prompts so providers know the
// exact shape to return, and mirrors what InvokeStructured will accept.
func JSONSchema[T any]() string {
	metadata := sentinel.Inspect[T]()

	properties := make(map[string]any)
	var required []string

	for _, field := range metadata.Fields {
		name, omitempty := jsonFieldName(field)
		if name == "-" {
			continue
		}

		prop := map[string]any{"type": jsonType(field.Type)}
		if desc, ok := field.Tags["desc"]; ok {
			prop["description"] = desc
		}
		properties[name] = prop

		if !omitempty {
			required = append(required, name)
		}
	}

	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(out)
}

// jsonFieldName resolves the wire name of a struct field from its json tag,
// falling back to the lower-camel field name, and reports omitempty.
func jsonFieldName(field sentinel.FieldMetadata) (string, bool) {
	if tag, ok := field.Tags["json"]; ok {
		parts := strings.Split(tag, ",")
		name := parts[0]
		if name == "" {
			name = lowerFirst(field.Name)
		}
		for _, p := range parts[1:] {
			if p == "omitempty" {
				return name, true
			}
		}
		return name, false
	}
	return lowerFirst(field.Name), false
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// jsonType maps a Go type name to its JSON Schema type.
func jsonType(goType string) string {
	switch {
	case strings.HasPrefix(goType, "string"):
		return "string"
	case strings.HasPrefix(goType, "int"), strings.HasPrefix(goType, "uint"):
		return "integer"
	case strings.HasPrefix(goType, "float"):
		return "number"
	case strings.HasPrefix(goType, "bool"):
		return "boolean"
	case strings.HasPrefix(goType, "[]"):
		return "array"
	case strings.HasPrefix(goType, "map["):
		return "object"
	default:
		return "object"
	}
}
