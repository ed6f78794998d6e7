package relay

import (
	"errors"
	"strings"
	"testing"
)

func TestTemplateRenderSubstitutesVerbatim(t *testing.T) {
	tmpl := NewTemplate("Translate {orig_msg} from {orig_lang} to English.")
	rec := Record{
		"orig_msg":  "Hola, no puedo iniciar sesión",
		"orig_lang": "Spanish",
	}

	out, err := tmpl.Render(rec)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(out, "Hola, no puedo iniciar sesión") {
		t.Error("rendered text missing verbatim field value")
	}
	if out != "Translate Hola, no puedo iniciar sesión from Spanish to English." {
		t.Errorf("unexpected render output: %q", out)
	}
}

func TestTemplateRenderMissingField(t *testing.T) {
	tmpl := NewTemplate("Classify: {instruction}")

	_, err := tmpl.Render(Record{"review": "great product"})
	if err == nil {
		t.Fatal("expected error for missing placeholder field")
	}
	var missing *MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFieldError, got %T", err)
	}
	if missing.Field != "instruction" {
		t.Errorf("expected field 'instruction', got %q", missing.Field)
	}
}

func TestTemplateRenderIdempotent(t *testing.T) {
	tmpl := NewTemplate("Summary of {topic}: {topic} matters.")
	rec := Record{"topic": "Generative AI"}

	first, err := tmpl.Render(rec)
	if err != nil {
		t.Fatalf("first render failed: %v", err)
	}
	second, err := tmpl.Render(rec)
	if err != nil {
		t.Fatalf("second render failed: %v", err)
	}
	if first != second {
		t.Errorf("renders differ: %q vs %q", first, second)
	}
}

func TestTemplateEscapedBraces(t *testing.T) {
	tmpl := NewTemplate(`Return JSON like {{"label": "{label}"}}`)

	out, err := tmpl.Render(Record{"label": "sentiment"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out != `Return JSON like {"label": "sentiment"}` {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestTemplateFields(t *testing.T) {
	tmpl := NewTemplate("{a} then {b} then {a} again")

	fields := tmpl.Fields()
	if len(fields) != 2 || fields[0] != "a" || fields[1] != "b" {
		t.Errorf("expected [a b], got %v", fields)
	}
}

func TestTemplateIgnoresNonFieldBraces(t *testing.T) {
	tmpl := NewTemplate("math uses {x+y} but fields use {value}")

	out, err := tmpl.Render(Record{"value": "42"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(out, "{x+y}") {
		t.Error("non-field braces should pass through untouched")
	}
	if !strings.Contains(out, "42") {
		t.Error("field placeholder was not substituted")
	}
}
