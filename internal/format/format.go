// Package format turns a loosely structured assistant reply into an
// ordered sequence of render blocks. Replies arrive as markdown-ish
// text: bolded section labels, "* " bullets and "---" separators. The
// transform is line oriented and deterministic so the block sequence
// can be golden-tested.
package format

import (
	"regexp"
	"strings"
)

// BlockKind discriminates the three block shapes a reply produces.
type BlockKind int

const (
	KindSection BlockKind = iota
	KindDivider
	KindParagraph
)

// Line is one content line inside a section.
type Line struct {
	Text   string
	Bullet bool
}

// Block is a single render unit. Label, Icon, Color and Lines are set
// for sections; Text is set for paragraphs; dividers carry nothing.
type Block struct {
	Kind  BlockKind
	Label string
	Icon  string
	Color string
	Lines []Line
	Text  string
}

var (
	labeledSection = regexp.MustCompile(`^\*\*(.*?):\*\*(.*)$`)
	emojiSection   = regexp.MustCompile(`^(🔍|📋|💊|💡|⚠️)\s+\*\*(.*?)\*\*$`)
)

// Format splits text on newlines and assembles blocks in a single
// pass. A new section label flushes the previous section; sections
// that accumulated no content are dropped at flush time.
func Format(text string) []Block {
	var blocks []Block
	var label string
	var lines []Line
	open := false

	flush := func() {
		if open && len(lines) > 0 {
			icon, color := styleFor(label)
			blocks = append(blocks, Block{
				Kind:  KindSection,
				Label: label,
				Icon:  icon,
				Color: color,
				Lines: lines,
			})
		}
		open = false
		label = ""
		lines = nil
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch {
		case labeledSection.MatchString(line):
			flush()
			m := labeledSection.FindStringSubmatch(line)
			label = strings.TrimSpace(m[1])
			open = true
			if rest := strings.TrimSpace(m[2]); rest != "" {
				lines = append(lines, contentLine(rest))
			}
		case emojiSection.MatchString(line):
			flush()
			m := emojiSection.FindStringSubmatch(line)
			label = strings.TrimSpace(m[2])
			open = true
		case strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**"):
			flush()
			label = strings.TrimSpace(strings.ReplaceAll(line, "**", ""))
			open = true
		case strings.HasPrefix(line, "---"):
			flush()
			blocks = append(blocks, Block{Kind: KindDivider})
		default:
			if open {
				lines = append(lines, contentLine(line))
			} else {
				blocks = append(blocks, Block{Kind: KindParagraph, Text: line})
			}
		}
	}
	flush()

	return blocks
}

func contentLine(line string) Line {
	if strings.HasPrefix(line, "* ") {
		return Line{Text: line[2:], Bullet: true}
	}
	return Line{Text: line}
}

// styleFor maps a section label to its icon and color. Matching is a
// case-insensitive substring check in fixed priority order; every
// label resolves to exactly one pair.
func styleFor(label string) (icon, color string) {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "diagnóstico"):
		return "🔍", "#3b82f6"
	case strings.Contains(l, "descripción"):
		return "📋", "#6366f1"
	case strings.Contains(l, "tratamiento"):
		return "💊", "#10b981"
	case strings.Contains(l, "recomendaciones"):
		return "💡", "#f59e0b"
	case strings.Contains(l, "recordatorio"), strings.Contains(l, "importante"):
		return "⚠️", "#ef4444"
	case strings.Contains(l, "opción"):
		return "💊", "#10b981"
	default:
		return "📌", "#06b6d4"
	}
}
