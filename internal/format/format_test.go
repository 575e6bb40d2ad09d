package format

import (
	"reflect"
	"testing"
)

func TestFormatLabeledSectionWithBullets(t *testing.T) {
	blocks := Format("**Diagnóstico:** Posible gripe\n* Fiebre\n* Tos")
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	b := blocks[0]
	if b.Kind != KindSection {
		t.Fatalf("expected section block, got kind %d", b.Kind)
	}
	if b.Label != "Diagnóstico" {
		t.Fatalf("unexpected label: %q", b.Label)
	}
	if b.Icon != "🔍" || b.Color != "#3b82f6" {
		t.Fatalf("unexpected style: %q %q", b.Icon, b.Color)
	}
	want := []Line{
		{Text: "Posible gripe"},
		{Text: "Fiebre", Bullet: true},
		{Text: "Tos", Bullet: true},
	}
	if !reflect.DeepEqual(b.Lines, want) {
		t.Fatalf("unexpected lines: %#v", b.Lines)
	}
}

func TestFormatDividerAlone(t *testing.T) {
	blocks := Format("---")
	if len(blocks) != 1 || blocks[0].Kind != KindDivider {
		t.Fatalf("expected single divider, got %#v", blocks)
	}
}

func TestFormatLoosePlainText(t *testing.T) {
	blocks := Format("Texto suelto sin sección")
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Kind != KindParagraph || blocks[0].Text != "Texto suelto sin sección" {
		t.Fatalf("unexpected block: %#v", blocks[0])
	}
}

func TestFormatConsecutiveSectionsWithoutSeparator(t *testing.T) {
	blocks := Format("**Tratamiento:** Reposo\n**Recomendaciones:** Hidratación")
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Label != "Tratamiento" || blocks[1].Label != "Recomendaciones" {
		t.Fatalf("unexpected labels: %q %q", blocks[0].Label, blocks[1].Label)
	}
	if blocks[0].Icon != "💊" || blocks[1].Icon != "💡" {
		t.Fatalf("unexpected icons: %q %q", blocks[0].Icon, blocks[1].Icon)
	}
}

func TestFormatEmojiLabeledSection(t *testing.T) {
	blocks := Format("⚠️ **Importante**\nConsulta a un médico si la fiebre persiste")
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	b := blocks[0]
	if b.Label != "Importante" || b.Icon != "⚠️" || b.Color != "#ef4444" {
		t.Fatalf("unexpected section: %#v", b)
	}
	if len(b.Lines) != 1 || b.Lines[0].Text != "Consulta a un médico si la fiebre persiste" {
		t.Fatalf("unexpected lines: %#v", b.Lines)
	}
}

func TestFormatBoldOnlyLabelWithContent(t *testing.T) {
	blocks := Format("**Resumen**\nTodo en orden")
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Label != "Resumen" || blocks[0].Icon != "📌" {
		t.Fatalf("unexpected section: %#v", blocks[0])
	}
}

func TestFormatEmptySectionDropped(t *testing.T) {
	// A label with no content lines never reaches the output.
	blocks := Format("**Resumen**\n---\nhola")
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %#v", blocks)
	}
	if blocks[0].Kind != KindDivider || blocks[1].Kind != KindParagraph {
		t.Fatalf("unexpected kinds: %#v", blocks)
	}
}

func TestFormatDividerFlushesSection(t *testing.T) {
	blocks := Format("**Descripción:** Cuadro leve\n---\nNota final")
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	if blocks[0].Kind != KindSection || blocks[1].Kind != KindDivider || blocks[2].Kind != KindParagraph {
		t.Fatalf("unexpected block order: %#v", blocks)
	}
}

func TestFormatBlankLinesSkipped(t *testing.T) {
	blocks := Format("\n\n**Tratamiento:** Paracetamol\n\n* Cada 8 horas\n\n")
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if len(blocks[0].Lines) != 2 {
		t.Fatalf("unexpected lines: %#v", blocks[0].Lines)
	}
}

func TestStyleForPriorityAndTotality(t *testing.T) {
	cases := []struct {
		label string
		icon  string
		color string
	}{
		{"Posible Diagnóstico", "🔍", "#3b82f6"},
		{"Descripción", "📋", "#6366f1"},
		{"Tratamiento sugerido", "💊", "#10b981"},
		{"Recomendaciones", "💡", "#f59e0b"},
		{"Recordatorio", "⚠️", "#ef4444"},
		{"IMPORTANTE", "⚠️", "#ef4444"},
		{"Opción 1", "💊", "#10b981"},
		{"Cualquier otra cosa", "📌", "#06b6d4"},
		{"", "📌", "#06b6d4"},
	}
	for _, tc := range cases {
		icon, color := styleFor(tc.label)
		if icon != tc.icon || color != tc.color {
			t.Errorf("styleFor(%q) = %q %q, want %q %q", tc.label, icon, color, tc.icon, tc.color)
		}
	}
}
