// Package ui provides the interactive chat interface using Bubble Tea.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/psarda/drona/internal/types"
)

// chatMessage is one rendered entry in the transcript.
type chatMessage struct {
	role    string // "user", "assistant", "system", "warning", "error", "tool"
	content string
	tool    string
	args    string
}

type eventMsg types.Event

type streamDoneMsg struct{}

type confirmMsg ConfirmRequest

// Model is the Bubble Tea model for the chat UI.
type Model struct {
	textInput textinput.Model
	spinner   spinner.Model
	viewport  viewport.Model
	styles    Styles

	session *Session

	messages []chatMessage
	partial  string // assistant text still streaming in

	busy     bool
	quitting bool
	ready    bool
	width    int
	height   int

	pendingConfirm *ConfirmRequest

	events <-chan types.Event
	cancel context.CancelFunc
}

// NewModel creates the chat UI model for a session.
func NewModel(session *Session) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about your code... (@file to include it, /help for commands)"
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 80

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = DefaultStyles().Spinner

	return Model{
		textInput: ti,
		spinner:   s,
		viewport:  viewport.New(0, 0),
		styles:    DefaultStyles(),
		session:   session,
	}
}

// Init starts input blinking, the spinner and the confirmation listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		listenConfirm(m.session.Confirms()),
	)
}

func listenConfirm(ch <-chan ConfirmRequest) tea.Cmd {
	return func() tea.Msg { return confirmMsg(<-ch) }
}

func listenEvent(ch <-chan types.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return streamDoneMsg{}
		}
		return eventMsg(ev)
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.pendingConfirm != nil {
			return m.handleConfirmKey(msg)
		}
		switch msg.Type {
		case tea.KeyCtrlC:
			if m.busy && m.cancel != nil {
				m.cancel()
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEsc:
			if m.busy && m.cancel != nil {
				m.cancel()
			}
			return m, nil
		case tea.KeyEnter:
			if m.busy {
				return m, nil
			}
			input := strings.TrimSpace(m.textInput.Value())
			if input == "" {
				return m, nil
			}
			m.textInput.SetValue("")
			if strings.HasPrefix(input, "/") {
				cmd := m.handleSlashCommand(input)
				m.updateViewport()
				return m, cmd
			}
			return m.startTurn(input)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 10
		vpHeight := msg.Height - m.headerHeight() - m.footerHeight()
		if vpHeight < 1 {
			vpHeight = 1
		}
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
		m.ready = true
		m.updateViewport()

	case eventMsg:
		m.applyEvent(types.Event(msg))
		m.updateViewport()
		return m, listenEvent(m.events)

	case streamDoneMsg:
		if m.partial != "" {
			m.messages = append(m.messages, chatMessage{role: "assistant", content: m.partial})
			m.partial = ""
		}
		m.busy = false
		m.cancel = nil
		m.updateViewport()
		return m, nil

	case confirmMsg:
		req := ConfirmRequest(msg)
		m.pendingConfirm = &req
		m.updateViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		if m.busy {
			m.updateViewport()
		}
	}

	if !m.busy && m.pendingConfirm == nil {
		var tiCmd tea.Cmd
		m.textInput, tiCmd = m.textInput.Update(msg)
		cmds = append(cmds, tiCmd)
	}

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, vpCmd)

	return m, tea.Batch(cmds...)
}

// startTurn sends one user input through the engine.
func (m Model) startTurn(input string) (tea.Model, tea.Cmd) {
	m.messages = append(m.messages, chatMessage{role: "user", content: input})
	m.busy = true

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.events = m.session.Engine.RunStream(ctx, ExpandMentions(input))

	m.updateViewport()
	return m, tea.Batch(listenEvent(m.events), m.spinner.Tick)
}

// applyEvent folds one engine event into the transcript.
func (m *Model) applyEvent(ev types.Event) {
	switch ev.Type {
	case types.EventToken:
		m.partial += ev.Token
	case types.EventToolCall:
		// Flush streamed text so the tool box appears in order.
		if m.partial != "" {
			m.messages = append(m.messages, chatMessage{role: "assistant", content: m.partial})
			m.partial = ""
		}
		m.messages = append(m.messages, chatMessage{role: "tool", tool: ev.ToolName, args: ev.ToolArgs})
	case types.EventWarning:
		m.messages = append(m.messages, chatMessage{role: "warning", content: ev.Token})
	case types.EventError:
		m.messages = append(m.messages, chatMessage{role: "error", content: fmt.Sprintf("Error: %v", ev.Err)})
	}
}

// handleConfirmKey resolves a pending tool confirmation.
func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	req := *m.pendingConfirm
	switch strings.ToLower(msg.String()) {
	case "y", "enter":
		req.Respond(true)
	case "n", "esc":
		req.Respond(false)
	case "a":
		m.session.AllowAlways(req.Tool)
		req.Respond(true)
	default:
		return m, nil
	}
	m.pendingConfirm = nil
	m.updateViewport()
	// Re-arm for the next request.
	return m, listenConfirm(m.session.Confirms())
}

// handleSlashCommand processes /commands typed at the prompt.
func (m *Model) handleSlashCommand(input string) tea.Cmd {
	switch strings.ToLower(strings.Fields(input)[0]) {
	case "/exit", "/quit":
		m.quitting = true
		return tea.Quit

	case "/clear":
		m.session.Engine.ClearHistory()
		m.messages = m.messages[:0]
		m.messages = append(m.messages, chatMessage{role: "system", content: "Context cleared."})

	case "/history":
		var b strings.Builder
		b.WriteString("Conversation history:\n")
		for _, msg := range m.session.Engine.Messages() {
			preview := msg.Text()
			if len(preview) > 50 {
				preview = preview[:50] + "..."
			}
			fmt.Fprintf(&b, "  [%s] %s\n", msg.Role, preview)
		}
		m.messages = append(m.messages, chatMessage{role: "system", content: b.String()})

	case "/tools":
		var b strings.Builder
		b.WriteString("Available tools:\n")
		for _, def := range m.session.Registry.Definitions() {
			fmt.Fprintf(&b, "  %-22s %s\n", def.Function.Name, def.Function.Description)
		}
		m.messages = append(m.messages, chatMessage{role: "system", content: b.String()})

	case "/help":
		m.messages = append(m.messages, chatMessage{role: "system", content: `Available commands:
  /help      Show this help
  /tools     List available tools
  /history   Show conversation history
  /clear     Reset the conversation
  /exit      Quit

Mention files with @path/to/file to include their content.`})

	default:
		m.messages = append(m.messages, chatMessage{role: "system", content: "Unknown command. Type /help."})
	}
	return nil
}

func (m Model) headerHeight() int {
	return strings.Count(m.styles.BannerTitle.Render(Banner()), "\n") + 3
}

func (m Model) footerHeight() int { return 4 }

// updateViewport rebuilds the transcript and scrolls to the bottom.
func (m *Model) updateViewport() {
	var b strings.Builder
	for _, msg := range m.messages {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	if m.partial != "" {
		b.WriteString(m.styles.AssistantMessage.Render("drona: " + m.partial))
		b.WriteString("\n")
	}
	if m.pendingConfirm != nil {
		b.WriteString(m.renderConfirm())
		b.WriteString("\n")
	} else if m.busy {
		b.WriteString(fmt.Sprintf("%s %s\n", m.spinner.View(), m.styles.StatusText.Render("thinking...")))
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

// renderMessage renders a single transcript entry.
func (m Model) renderMessage(msg chatMessage) string {
	switch msg.role {
	case "user":
		return m.styles.UserMessage.Render("you: " + msg.content)
	case "assistant":
		return m.styles.AssistantMessage.Render("drona: " + msg.content)
	case "system":
		return m.styles.SystemMessage.Render(msg.content)
	case "warning":
		return m.styles.WarningMessage.Render(msg.content)
	case "error":
		return m.styles.ErrorMessage.Render(msg.content)
	case "tool":
		header := m.styles.ToolName.Render("Tool: " + msg.tool)
		args := msg.args
		if len(args) > 120 {
			args = args[:120] + "..."
		}
		if args != "" && args != "{}" {
			header += " " + m.styles.ToolParams.Render(args)
		}
		return m.styles.ToolBox.Render(header)
	}
	return ""
}

// renderConfirm renders the pending permission prompt.
func (m Model) renderConfirm() string {
	req := m.pendingConfirm
	var b strings.Builder
	b.WriteString(m.styles.ConfirmTitle.Render("Permission Request"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Agent wants to execute: %s\n", req.Tool))
	if req.Args != "" && req.Args != "{}" {
		args := req.Args
		if len(args) > 200 {
			args = args[:200] + "..."
		}
		b.WriteString(fmt.Sprintf("Arguments: %s\n", args))
	}
	b.WriteString(m.styles.StatusText.Render("[y] allow  [n] deny  [a] always allow this tool"))
	return m.styles.ConfirmBox.Render(b.String())
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return m.styles.SystemMessage.Render("Goodbye!\n")
	}
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.styles.BannerTitle.Render(Banner()))
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	b.WriteString(m.styles.Prompt.Render("drona> "))
	switch {
	case m.pendingConfirm != nil:
		b.WriteString(m.styles.StatusText.Render("(awaiting permission)"))
	case m.busy:
		b.WriteString(m.styles.StatusText.Render("(processing...)"))
	default:
		b.WriteString(m.textInput.View())
	}
	b.WriteString("\n")
	b.WriteString(m.renderHelpBar())

	return m.styles.App.Render(b.String())
}

// renderHelpBar renders the bottom help bar.
func (m Model) renderHelpBar() string {
	help := []string{
		m.styles.HelpKey.Render("enter") + m.styles.HelpValue.Render(" send"),
		m.styles.HelpKey.Render("ctrl+c") + m.styles.HelpValue.Render(" quit"),
		m.styles.HelpKey.Render("/help") + m.styles.HelpValue.Render(" commands"),
		m.styles.HelpKey.Render("@file") + m.styles.HelpValue.Render(" include file"),
	}
	return m.styles.HelpBar.Render(strings.Join(help, "  |  "))
}
