package i18n

import "testing"

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	if msg := T("required", nil); msg != "is a required property" {
		t.Fatalf("unexpected english message: %q", msg)
	}

	SetLanguage("ja")
	if msg := T("required", nil); msg == "is a required property" || msg == "required" {
		t.Fatalf("expected japanese message, got %q", msg)
	}

	// reset to en
	SetLanguage("en")
}

func TestTranslator_Params(t *testing.T) {
	msg := Dictionary("en").Message("minLength", map[string]string{"limit": "3"})
	if msg != "should NOT be shorter than 3 characters" {
		t.Fatalf("got %q", msg)
	}
	msg = Dictionary("en").Message("type", map[string]string{"type": "string"})
	if msg != "should be string" {
		t.Fatalf("got %q", msg)
	}
}

func TestTranslator_UnknownCodeAndLanguage(t *testing.T) {
	if msg := Dictionary("fr").Message("nope", nil); msg != "nope" {
		t.Fatalf("unknown code should be returned as-is, got %q", msg)
	}
	if msg := Dictionary("fr").Message("required", nil); msg != "is a required property" {
		t.Fatalf("unknown language should fall back to en, got %q", msg)
	}
}

func TestSetTranslator_NilResets(t *testing.T) {
	SetTranslator(nil)
	if msg := T("required", nil); msg != "is a required property" {
		t.Fatalf("got %q", msg)
	}
}

func TestFormat_LeavesMissingPlaceholders(t *testing.T) {
	if got := Format("{a} and {b}", map[string]string{"a": "x"}); got != "x and {b}" {
		t.Fatalf("got %q", got)
	}
}
