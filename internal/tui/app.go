// Package tui renders the terminal interface: an auth screen for
// login and registration, then the chat screen with the conversation
// sidebar and transcript. All conversation state lives in the chat
// controller; the model here only holds widgets and focus.
package tui

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mediassist/internal/api"
	"mediassist/internal/chat"
	"mediassist/internal/session"
	"mediassist/internal/speech"
)

type screen int

const (
	screenAuth screen = iota
	screenChat
)

type authMode int

const (
	modeLogin authMode = iota
	modeRegister
)

const (
	fieldName = iota
	fieldEmail
	fieldPassword
	fieldCount
)

const pollInterval = 300 * time.Millisecond

// Model is the bubbletea application model.
type Model struct {
	client     *api.Client
	store      *session.Store
	recognizer speech.Recognizer
	logger     *slog.Logger

	screen screen

	// auth screen
	mode     authMode
	fields   [fieldCount]textinput.Model
	focus    int
	authBusy bool
	authErr  string

	// chat screen
	profile     *session.Profile
	controller  *chat.Controller
	convIndex   int
	sidebarOn   bool
	voiceActive bool
	input       textinput.Model
	transcript  viewport.Model
	spinner     spinner.Model
	status      string

	width  int
	height int
}

// New builds the application model. A non-nil profile skips the auth
// screen, matching a remembered sign-in.
func New(client *api.Client, store *session.Store, recognizer speech.Recognizer, profile *session.Profile, logger *slog.Logger) Model {
	name := textinput.New()
	name.Placeholder = "Nombre"
	name.CharLimit = 120

	email := textinput.New()
	email.Placeholder = "Correo"
	email.CharLimit = 200

	password := textinput.New()
	password.Placeholder = "Contraseña"
	password.EchoMode = textinput.EchoPassword
	password.CharLimit = 200

	input := textinput.New()
	input.Prompt = "❯ "
	input.Placeholder = "Escribe tu consulta..."
	input.CharLimit = 4000

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#06b6d4"))

	vp := viewport.New(0, 0)
	vp.MouseWheelEnabled = true

	m := Model{
		client:     client,
		store:      store,
		recognizer: recognizer,
		logger:     logger,
		screen:     screenAuth,
		focus:      fieldEmail,
		input:      input,
		transcript: vp,
		spinner:    sp,
	}
	m.fields[fieldName] = name
	m.fields[fieldEmail] = email
	m.fields[fieldPassword] = password
	m.fields[fieldEmail].Focus()

	if profile != nil {
		m.enterChat(*profile)
	}
	return m
}

// enterChat wires up the controller for a signed-in user.
func (m *Model) enterChat(profile session.Profile) {
	m.profile = &profile
	m.controller = chat.NewController(m.client, profile.UserID, m.recognizer, m.logger)
	m.screen = screenChat
	m.convIndex = 0
	m.sidebarOn = false
	m.authErr = ""
	m.input.SetValue("")
	m.input.Focus()
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, tickEvery()}
	if m.screen == screenChat {
		cmds = append(cmds, textinput.Blink, m.refreshCmd())
	}
	return tea.Batch(cmds...)
}

func tickEvery() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) refreshCmd() tea.Cmd {
	c := m.controller
	return func() tea.Msg {
		return opDoneMsg{err: c.Refresh(context.Background())}
	}
}

func (m Model) newConversationCmd() tea.Cmd {
	c := m.controller
	return func() tea.Msg {
		_, err := c.NewConversation(context.Background())
		return opDoneMsg{err: err}
	}
}

func (m Model) sendCmd() tea.Cmd {
	c := m.controller
	return func() tea.Msg {
		return sendDoneMsg{err: c.Send(context.Background())}
	}
}

func (m Model) selectCmd(conv api.Conversation) tea.Cmd {
	c := m.controller
	return func() tea.Msg {
		return opDoneMsg{err: c.Select(context.Background(), conv)}
	}
}

func (m Model) deleteCmd(conversationID string) tea.Cmd {
	c := m.controller
	return func() tea.Msg {
		return opDoneMsg{err: c.Delete(context.Background(), conversationID)}
	}
}

func (m Model) feedbackCmd(entryIndex int, positive bool) tea.Cmd {
	c := m.controller
	return func() tea.Msg {
		c.Feedback(context.Background(), entryIndex, positive)
		return opDoneMsg{}
	}
}

func (m Model) authCmd() tea.Cmd {
	client := m.client
	mode := m.mode
	name := strings.TrimSpace(m.fields[fieldName].Value())
	email := strings.TrimSpace(m.fields[fieldEmail].Value())
	password := m.fields[fieldPassword].Value()
	return func() tea.Msg {
		ctx := context.Background()
		var account *api.Account
		var err error
		if mode == modeRegister {
			account, err = client.Register(ctx, name, email, password)
		} else {
			account, err = client.Login(ctx, email, password)
		}
		return authDoneMsg{account: account, email: email, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.transcript.Width = m.mainWidth()
		m.transcript.Height = m.mainHeight()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		if m.screen == screenChat {
			m.syncFromController()
		}
		return m, tickEvery()

	case authDoneMsg:
		m.authBusy = false
		if msg.err != nil {
			m.authErr = errorText(msg.err)
			return m, nil
		}
		profile := session.Profile{
			UserID: msg.account.UserID,
			Name:   msg.account.Name,
			Email:  msg.email,
		}
		if err := m.store.Save(profile); err != nil {
			m.logger.Warn("failed to persist profile", "error", err)
		}
		m.enterChat(profile)
		return m, tea.Batch(textinput.Blink, m.refreshCmd())

	case sendDoneMsg:
		if m.controller == nil {
			return m, nil
		}
		if msg.err != nil {
			m.status = errorText(msg.err)
			// A failed implicit create leaves the draft in the
			// controller; put it back in the widget for retry.
			m.input.SetValue(m.controller.Input())
			m.input.CursorEnd()
		}
		m.syncFromController()
		return m, nil

	case opDoneMsg:
		if msg.err != nil {
			m.status = errorText(msg.err)
		}
		if m.screen == screenChat {
			m.syncFromController()
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.screen == screenAuth {
			return m.updateAuth(msg)
		}
		return m.updateChat(msg)
	}

	return m, nil
}

func (m Model) updateAuth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyTab, tea.KeyDown:
		m.moveAuthFocus(1)
		return m, nil
	case tea.KeyShiftTab, tea.KeyUp:
		m.moveAuthFocus(-1)
		return m, nil
	case tea.KeyEnter:
		if m.authBusy {
			return m, nil
		}
		m.authBusy = true
		m.authErr = ""
		return m, m.authCmd()
	case tea.KeyCtrlT:
		if m.mode == modeLogin {
			m.mode = modeRegister
		} else {
			m.mode = modeLogin
		}
		m.authErr = ""
		if m.mode == modeLogin && m.focus == fieldName {
			m.moveAuthFocus(1)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
	return m, cmd
}

// moveAuthFocus shifts field focus, skipping the name field in login
// mode where it is hidden.
func (m *Model) moveAuthFocus(delta int) {
	m.fields[m.focus].Blur()
	for {
		m.focus = (m.focus + delta + fieldCount) % fieldCount
		if m.focus != fieldName || m.mode == modeRegister {
			break
		}
	}
	m.fields[m.focus].Focus()
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.controller.Snapshot()

	switch msg.Type {
	case tea.KeyCtrlL:
		m.store.Clear()
		m.profile = nil
		m.controller = nil
		m.screen = screenAuth
		m.status = ""
		m.fields[fieldPassword].SetValue("")
		return m, nil
	case tea.KeyCtrlN:
		return m, m.newConversationCmd()
	case tea.KeyCtrlR:
		if snap.VoiceSupported {
			if !snap.Recording {
				// Controller appends the utterance to its own draft,
				// so it needs whatever was typed in the widget first.
				m.controller.SetInput(m.input.Value())
			}
			m.voiceActive = true
			c := m.controller
			return m, func() tea.Msg {
				return opDoneMsg{err: c.ToggleVoice(context.Background())}
			}
		}
		return m, nil
	case tea.KeyCtrlG, tea.KeyCtrlB:
		if idx := lastAssistantIndex(snap.Transcript); idx >= 0 {
			m.status = "Gracias por tu valoración"
			return m, m.feedbackCmd(idx, msg.Type == tea.KeyCtrlG)
		}
		return m, nil
	case tea.KeyTab:
		m.sidebarOn = !m.sidebarOn
		if m.sidebarOn {
			m.input.Blur()
		} else {
			m.input.Focus()
		}
		return m, nil
	case tea.KeyEsc:
		if snap.PendingDelete != "" {
			m.controller.CancelDelete()
			return m, nil
		}
		if m.sidebarOn {
			m.sidebarOn = false
			m.input.Focus()
		}
		return m, nil
	}

	if m.sidebarOn {
		return m.updateSidebar(msg, snap)
	}

	switch msg.Type {
	case tea.KeyEnter:
		if snap.Sending {
			return m, nil
		}
		m.controller.SetInput(m.input.Value())
		m.input.SetValue("")
		m.status = ""
		return m, m.sendCmd()
	case tea.KeyPgUp:
		m.transcript.HalfViewUp()
		return m, nil
	case tea.KeyPgDown:
		m.transcript.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateSidebar(msg tea.KeyMsg, snap chat.Snapshot) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.convIndex > 0 {
			m.convIndex--
		}
		return m, nil
	case tea.KeyDown:
		if m.convIndex < len(snap.Conversations)-1 {
			m.convIndex++
		}
		return m, nil
	case tea.KeyEnter:
		if conv, ok := m.highlighted(snap); ok {
			m.sidebarOn = false
			m.input.Focus()
			return m, m.selectCmd(conv)
		}
		return m, nil
	}

	switch msg.String() {
	case "n":
		return m, m.newConversationCmd()
	case "r":
		return m, m.refreshCmd()
	case "d":
		if conv, ok := m.highlighted(snap); ok {
			m.controller.RequestDelete(conv.ID)
		}
		return m, nil
	case "y":
		if snap.PendingDelete != "" {
			return m, m.deleteCmd(snap.PendingDelete)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) highlighted(snap chat.Snapshot) (api.Conversation, bool) {
	if m.convIndex < 0 || m.convIndex >= len(snap.Conversations) {
		return api.Conversation{}, false
	}
	return snap.Conversations[m.convIndex], true
}

// syncFromController refreshes the widgets that mirror controller
// state, notably the draft after a voice capture completes.
func (m *Model) syncFromController() {
	snap := m.controller.Snapshot()
	if m.voiceActive && !snap.Recording {
		m.voiceActive = false
		m.input.SetValue(snap.Input)
		m.input.CursorEnd()
	}
	if m.convIndex >= len(snap.Conversations) {
		m.convIndex = len(snap.Conversations) - 1
	}
	if m.convIndex < 0 {
		m.convIndex = 0
	}
	atBottom := m.transcript.AtBottom()
	m.transcript.SetContent(m.renderTranscript(snap))
	if atBottom {
		m.transcript.GotoBottom()
	}
}

func lastAssistantIndex(entries []chat.Entry) int {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Role == chat.RoleAssistant {
			return i
		}
	}
	return -1
}

// errorText keeps backend messages readable in the status line.
func errorText(err error) string {
	text := err.Error()
	if len(text) > 120 {
		text = text[:120] + "..."
	}
	return text
}
