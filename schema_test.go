package relay

import (
	"encoding/json"
	"testing"
)

type releaseNote struct {
	Title    string   `json:"title" desc:"One-line summary of the release"`
	Severity int      `json:"severity"`
	Breaking bool     `json:"breaking"`
	Items    []string `json:"items,omitempty"`
	Internal string   `json:"-"`
}

func (releaseNote) Validate() error { return nil }

func TestJSONSchemaShape(t *testing.T) {
	raw := JSONSchema[releaseNote]()

	var schema struct {
		Type       string `json:"type"`
		Properties map[string]struct {
			Type        string `json:"type"`
			Description string `json:"description"`
		} `json:"properties"`
		Required             []string `json:"required"`
		AdditionalProperties bool     `json:"additionalProperties"`
	}
	if err := json.Unmarshal([]byte(raw), &schema); err != nil {
		t.Fatalf("schema is not valid JSON: %v\n%s", err, raw)
	}

	if schema.Type != "object" {
		t.Errorf("expected object schema, got %q", schema.Type)
	}
	if schema.AdditionalProperties {
		t.Error("additionalProperties should be false")
	}

	tests := map[string]string{
		"title":    "string",
		"severity": "integer",
		"breaking": "boolean",
		"items":    "array",
	}
	for name, wantType := range tests {
		prop, ok := schema.Properties[name]
		if !ok {
			t.Errorf("schema missing property %q", name)
			continue
		}
		if prop.Type != wantType {
			t.Errorf("property %q type = %q, want %q", name, prop.Type, wantType)
		}
	}

	if _, ok := schema.Properties["-"]; ok {
		t.Error("json:\"-\" field leaked into the schema")
	}
	if _, ok := schema.Properties["internal"]; ok {
		t.Error("excluded field leaked into the schema")
	}

	if schema.Properties["title"].Description != "One-line summary of the release" {
		t.Errorf("desc tag not carried: %q", schema.Properties["title"].Description)
	}

	required := make(map[string]bool)
	for _, name := range schema.Required {
		required[name] = true
	}
	for _, name := range []string{"title", "severity", "breaking"} {
		if !required[name] {
			t.Errorf("%q should be required", name)
		}
	}
	if required["items"] {
		t.Error("omitempty field should not be required")
	}
}

func TestJSONSchemaUntaggedFieldName(t *testing.T) {
	type plain struct {
		ProjectPlan string
	}
	raw := JSONSchema[plain]()

	var schema struct {
		Properties map[string]any `json:"properties"`
	}
	if err := json.Unmarshal([]byte(raw), &schema); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	if _, ok := schema.Properties["projectPlan"]; !ok {
		t.Errorf("untagged field should use lower-camel name, got %v", schema.Properties)
	}
}
