package langdetect

import "testing"

func TestGateDisabledAdmitsEverything(t *testing.T) {
	t.Parallel()

	gate := NewGate(nil)
	if gate.Enabled() {
		t.Fatalf("empty gate should be disabled")
	}
	if !gate.Allows("Cualquier texto en cualquier idioma") {
		t.Fatalf("disabled gate rejected text")
	}
}

func TestGateAdmitsShortText(t *testing.T) {
	t.Parallel()

	gate := NewGate([]string{"en"})
	if !gate.Allows("Hola") {
		t.Fatalf("short text should pass")
	}
	if DetectISO6391("  ") != "" {
		t.Fatalf("blank text should not be detected")
	}
}

func TestGateFiltersByLanguage(t *testing.T) {
	t.Parallel()

	gate := NewGate([]string{" EN "})
	english := "The city council approved the new bike lane on the coast highway after a long public hearing."
	spanish := "El concejo municipal aprobó el nuevo carril para bicicletas en la carretera de la costa después de una larga audiencia."

	if got := DetectISO6391(english); got != "en" {
		t.Fatalf("DetectISO6391(english) = %q", got)
	}
	if !gate.Allows(english) {
		t.Fatalf("english text rejected")
	}
	if gate.Allows(spanish) {
		t.Fatalf("spanish text admitted")
	}
}
