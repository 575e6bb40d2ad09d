package tui

import (
	"strings"
	"testing"

	"mediassist/internal/chat"
	"mediassist/internal/format"
)

func TestLastAssistantIndex(t *testing.T) {
	entries := []chat.Entry{
		{Role: chat.RoleUser, Content: "hola"},
		{Role: chat.RoleAssistant, Content: "Hola"},
		{Role: chat.RoleUser, Content: "gracias"},
	}
	if got := lastAssistantIndex(entries); got != 1 {
		t.Fatalf("expected index 1, got %d", got)
	}
	if got := lastAssistantIndex(nil); got != -1 {
		t.Fatalf("expected -1 for empty transcript, got %d", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("corto", 10); got != "corto" {
		t.Fatalf("unexpected: %q", got)
	}
	got := truncate("una conversación bastante larga", 10)
	if len([]rune(got)) != 10 || !strings.HasSuffix(got, "…") {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestRenderBlocksSectionContent(t *testing.T) {
	blocks := format.Format("**Tratamiento:** Reposo\n* Agua\n---\nNota")
	out := renderBlocks(blocks, 60)
	for _, want := range []string{"💊 Tratamiento", "Reposo", "• Agua", "Nota"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}
