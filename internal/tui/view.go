package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"mediassist/internal/chat"
	"mediassist/internal/format"
)

const sidebarWidth = 30

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#06b6d4"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
	userStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10b981"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#06b6d4"))
	dividerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	sidebarStyle  = lipgloss.NewStyle().
			Width(sidebarWidth).
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(lipgloss.Color("240"))
)

func (m Model) mainWidth() int {
	w := m.width - sidebarWidth - 2
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) mainHeight() int {
	h := m.height - 5
	if h < 5 {
		h = 5
	}
	return h
}

func (m Model) View() string {
	if m.screen == screenAuth {
		return m.viewAuth()
	}
	return m.viewChat()
}

func (m Model) viewAuth() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("MediAssist"))
	b.WriteString("\n")
	if m.mode == modeRegister {
		b.WriteString(mutedStyle.Render("Crear cuenta"))
	} else {
		b.WriteString(mutedStyle.Render("Iniciar sesión"))
	}
	b.WriteString("\n\n")

	if m.mode == modeRegister {
		b.WriteString(m.fields[fieldName].View())
		b.WriteString("\n")
	}
	b.WriteString(m.fields[fieldEmail].View())
	b.WriteString("\n")
	b.WriteString(m.fields[fieldPassword].View())
	b.WriteString("\n\n")

	if m.authBusy {
		b.WriteString(m.spinner.View())
		b.WriteString(" conectando...\n")
	} else if m.authErr != "" {
		b.WriteString(errorStyle.Render(m.authErr))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("enter: enviar · tab: campo · ctrl+t: login/registro · ctrl+c: salir"))

	box := lipgloss.NewStyle().Padding(1, 3).Render(b.String())
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}

func (m Model) viewChat() string {
	snap := m.controller.Snapshot()

	header := titleStyle.Render("MediAssist")
	if m.profile != nil && m.profile.Name != "" {
		header += mutedStyle.Render("  ·  " + m.profile.Name)
	}
	if snap.Sending {
		header += "  " + m.spinner.View()
	}
	if snap.Recording {
		header += "  " + errorStyle.Render("● grabando")
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.viewSidebar(snap),
		m.transcript.View(),
	)

	inputLine := m.input.View()
	if snap.Sending {
		inputLine = mutedStyle.Render("esperando respuesta...")
	}

	footer := m.viewFooter(snap)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, inputLine, footer)
}

func (m Model) viewSidebar(snap chat.Snapshot) string {
	var b strings.Builder
	label := "Conversaciones"
	if snap.ListLoading {
		label += " " + m.spinner.View()
	}
	b.WriteString(titleStyle.Render(label))
	b.WriteString("\n\n")

	if len(snap.Conversations) == 0 && !snap.ListLoading {
		b.WriteString(mutedStyle.Render("Sin conversaciones"))
		b.WriteString("\n")
	}
	for i, conv := range snap.Conversations {
		line := truncate(conv.Title, sidebarWidth-4)
		switch {
		case snap.PendingDelete == conv.ID:
			line = errorStyle.Render("¿eliminar? y/esc " + line)
		case m.sidebarOn && i == m.convIndex:
			line = selectedStyle.Render("> " + line)
		case snap.Active != nil && snap.Active.ID == conv.ID:
			line = userStyle.Render("* " + line)
		default:
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
		if conv.Started != "" {
			b.WriteString(mutedStyle.Render("  " + truncate(conv.Started, sidebarWidth-4)))
			b.WriteString("\n")
		}
	}

	return sidebarStyle.Height(m.mainHeight()).Render(b.String())
}

func (m Model) viewFooter(snap chat.Snapshot) string {
	hints := []string{
		"tab: lista",
		"ctrl+n: nueva",
		"ctrl+g/b: valorar",
	}
	if m.sidebarOn {
		hints = []string{"↑/↓: elegir", "enter: abrir", "n: nueva", "d: eliminar", "r: recargar", "esc: volver"}
	}
	if snap.VoiceSupported {
		hints = append(hints, "ctrl+r: voz")
	}
	hints = append(hints, "ctrl+l: salir sesión", "ctrl+c: salir")

	line := mutedStyle.Render(strings.Join(hints, " · "))
	if m.status != "" {
		line = errorStyle.Render(m.status) + "  " + line
	}
	return line
}

// renderTranscript turns the transcript into viewport content. User
// entries render as single lines; assistant replies go through the
// block formatter so sections keep their icon and color.
func (m Model) renderTranscript(snap chat.Snapshot) string {
	width := m.mainWidth() - 2
	wrap := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	if snap.Active == nil {
		b.WriteString(mutedStyle.Render("Elige una conversación o escribe para empezar una nueva."))
		return b.String()
	}

	for _, entry := range snap.Transcript {
		if entry.Role == chat.RoleUser {
			line := userStyle.Render("Tú: ") + entry.Content
			if entry.Pending {
				line += " " + m.spinner.View()
			}
			if entry.Failed {
				line += " " + errorStyle.Render("✗ no enviado")
			}
			b.WriteString(wrap.Render(line))
			b.WriteString("\n\n")
			continue
		}
		b.WriteString(renderBlocks(format.Format(entry.Content), width))
		b.WriteString("\n")
	}
	return b.String()
}

func renderBlocks(blocks []format.Block, width int) string {
	wrap := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	for _, block := range blocks {
		switch block.Kind {
		case format.KindDivider:
			b.WriteString(dividerStyle.Render(strings.Repeat("─", width)))
			b.WriteString("\n")
		case format.KindParagraph:
			b.WriteString(wrap.Render(block.Text))
			b.WriteString("\n")
		case format.KindSection:
			head := lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color(block.Color)).
				Render(fmt.Sprintf("%s %s", block.Icon, block.Label))
			b.WriteString(head)
			b.WriteString("\n")
			for _, line := range block.Lines {
				text := line.Text
				if line.Bullet {
					text = "• " + text
				}
				b.WriteString(wrap.Render("  " + text))
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
