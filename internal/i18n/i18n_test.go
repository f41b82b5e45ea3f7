package i18n

import "testing"

func TestTextResolvesRequestedLanguage(t *testing.T) {
	got := Text("no_orders", "uk", nil)
	if got != "У вас поки немає замовлень." {
		t.Fatalf("uk lookup = %q", got)
	}
}

func TestTextFallsBackToDefaultLanguage(t *testing.T) {
	got := Text("no_orders", "de", nil)
	want := Text("no_orders", DefaultLanguage, nil)
	if got != want {
		t.Fatalf("fallback = %q, want %q", got, want)
	}
}

func TestTextFallsBackToKey(t *testing.T) {
	if got := Text("definitely_missing_key", "en", nil); got != "definitely_missing_key" {
		t.Fatalf("missing key = %q, want raw key", got)
	}
}

func TestTextSubstitutesParams(t *testing.T) {
	got := Text("welcome_back", "en", map[string]string{"name": "Olena"})
	want := "👋 Welcome back, Olena!\nWhat would you like to do?"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestUnknownPlaceholderLeftIntact(t *testing.T) {
	got := Text("order_status", "en", map[string]string{"other": "x"})
	if got != "Status: {status}" {
		t.Fatalf("got %q, placeholder must survive", got)
	}
}

func TestSupportedLanguages(t *testing.T) {
	for _, lang := range []string{"en", "uk"} {
		if !Supported(lang) {
			t.Fatalf("language %q must be embedded", lang)
		}
	}
	if Supported("fr") {
		t.Fatal("fr must not be reported as embedded")
	}
}
