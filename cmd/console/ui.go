package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/ludus/internal/handlers"
	"github.com/jwebster45206/ludus/internal/session"
	"github.com/jwebster45206/ludus/pkg/eventlog"
)

const PlaceHolderText = "Type your answer here..."

// logLine is one transcript entry, stored unwrapped so the view can
// reflow it on resize.
type logLine struct {
	text    string
	private bool // visible to this player but not the whole table
	self    bool // typed by this player
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	session      *session.Summary
	playerName   string
	conn         *websocket.Conn
	inbox        chan tea.Msg
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error

	transcript []logLine
	turn       *session.TurnRequest
	status     session.Status
	closed     bool

	// Quit confirmation state
	showQuitModal bool
}

type envelopeMsg struct {
	envelope session.Envelope
}

type socketClosedMsg struct {
	err error
}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	moderatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	privateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")) // purple

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	turnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")). // yellow
			Bold(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

var titleCaser = cases.Title(language.English)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, summary *session.Summary, playerName string, conn *websocket.Conn) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	inbox := make(chan tea.Msg, 64)
	go readSocket(conn, inbox)

	return ConsoleUI{
		config:       cfg,
		client:       client,
		session:      summary,
		playerName:   playerName,
		conn:         conn,
		inbox:        inbox,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
		status:       summary.Status,
	}
}

// readSocket pumps server envelopes into the UI until the socket dies.
func readSocket(conn *websocket.Conn, inbox chan tea.Msg) {
	for {
		var env session.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			inbox <- socketClosedMsg{err}
			return
		}
		inbox <- envelopeMsg{env}
	}
}

func (m ConsoleUI) waitForEnvelope() tea.Cmd {
	return func() tea.Msg {
		return <-m.inbox
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.waitForEnvelope())
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := int(float64(m.width)*0.75) - 4
		metaWidth := m.width - chatWidth - 6

		m.chatViewport.Width = chatWidth - 2
		m.chatViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(chatWidth - 4)

		m.ready = true
		m.writeChatContent()
		m.metaViewport.SetContent(m.writeMetadata())

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}
			return m.sendAnswer(input)
		}

	case envelopeMsg:
		m.applyEnvelope(msg.envelope)
		m.writeChatContent()
		m.metaViewport.SetContent(m.writeMetadata())
		return m, m.waitForEnvelope()

	case socketClosedMsg:
		m.closed = true
		if m.status == session.StatusRunning {
			m.err = msg.err
			m.transcript = append(m.transcript, logLine{text: "Connection lost. Restart the console to rejoin."})
		}
		m.writeChatContent()
		m.metaViewport.SetContent(m.writeMetadata())
		return m, nil
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// applyEnvelope folds one server message into the transcript.
func (m *ConsoleUI) applyEnvelope(env session.Envelope) {
	switch env.Type {
	case session.EnvelopeEvent:
		if env.Event == nil {
			return
		}
		m.transcript = append(m.transcript, logLine{
			text:    env.Event.Message,
			private: !env.Event.Public(),
		})
	case session.EnvelopeTurn:
		if env.Turn == nil || env.Turn.Identity != m.playerName {
			return
		}
		m.turn = env.Turn
	case session.EnvelopeStatus:
		m.status = env.Status
		if env.Status != session.StatusRunning {
			m.turn = nil
		}
	}
}

func (m ConsoleUI) sendAnswer(input string) (tea.Model, tea.Cmd) {
	if m.closed || m.status != session.StatusRunning {
		return m, nil
	}
	if err := m.conn.WriteJSON(handlers.ClientMessage{Text: input}); err != nil {
		m.err = err
		m.transcript = append(m.transcript, logLine{text: "Failed to send: " + err.Error()})
		m.writeChatContent()
		return m, nil
	}
	m.transcript = append(m.transcript, logLine{text: "You: " + input, self: true})
	m.turn = nil
	m.textarea.Reset()
	m.writeChatContent()
	m.metaViewport.SetContent(m.writeMetadata())
	return m, nil
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))

	switch cmd {
	case "/help":
		helpText := `
Commands:
• /help - Show this help
• /copy - Copy the transcript to the clipboard
• /stop - End the game for everyone
• Ctrl+C - Quit

How to play:
• When it is your turn, a prompt appears with your options
• Answer with the option text or its number
• Answer 'skip' when skipping is allowed
`
		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + titleStyle.Render("Help:") + helpText + "\n")
		m.chatViewport.GotoBottom()

	case "/copy":
		var raw strings.Builder
		for _, line := range m.transcript {
			raw.WriteString(line.text + "\n")
		}
		msg := "Transcript copied to clipboard.\n\n"
		if err := clipboard.WriteAll(raw.String()); err != nil {
			msg = errorStyle.Render("Copy failed: "+err.Error()) + "\n\n"
		}
		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + msg)
		m.chatViewport.GotoBottom()

	case "/stop":
		if err := stopSession(m.client, m.config.APIBaseURL, m.session.ID); err != nil {
			currentContent := m.chatViewport.View()
			m.chatViewport.SetContent(currentContent + errorStyle.Render("Stop failed: "+err.Error()) + "\n\n")
			m.chatViewport.GotoBottom()
		}
	}

	m.textarea.Reset()
	return m, nil
}

// writeChatContent rebuilds the transcript view for the current width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6
	if chatWidth < 10 {
		chatWidth = 10
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("LUDUS") + "\n\n")
	content.WriteString("Play your turns below. The moderator narrates everything you are allowed to see.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth-6)) + "\n\n")

	for _, line := range m.transcript {
		wrapped := wordwrap.String(line.text, chatWidth)
		switch {
		case line.self:
			content.WriteString(userStyle.Render(wrapped) + "\n\n")
		case line.private:
			content.WriteString(privateStyle.Render(wrapped) + "\n\n")
		default:
			content.WriteString(moderatorStyle.Render(wrapped) + "\n\n")
		}
	}

	if m.turn != nil {
		content.WriteString(turnStyle.Render("► "+m.turn.Prompt) + "\n")
		for i, opt := range m.turn.Options {
			content.WriteString(fmt.Sprintf("  %d - %s\n", i+1, opt))
		}
		if m.turn.AllowSkip {
			content.WriteString(promptStyle.Render("  (or 'skip')") + "\n")
		}
		content.WriteString("\n")
	}

	if m.err != nil && m.closed && m.status == session.StatusRunning {
		content.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n")
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m *ConsoleUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render(titleCaser.String(m.session.GameID)) + "\n\n")

	content.WriteString("Session:\n")
	content.WriteString(m.session.ID.String()[:8] + "...\n\n")

	content.WriteString("You:\n")
	content.WriteString(m.playerName + "\n\n")

	content.WriteString("Status:\n")
	content.WriteString(string(m.status) + "\n\n")

	content.WriteString("Players:\n")
	for _, p := range m.session.Players {
		if p == eventlog.ModeratorStream {
			continue
		}
		content.WriteString("• " + p + "\n")
	}

	content.WriteString("\n")
	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /copy: Copy log\n")

	return content.String()
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			_ = m.conn.Close()
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				_ = m.conn.Close()
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}

	case envelopeMsg:
		m.applyEnvelope(msg.envelope)
		return m, m.waitForEnvelope()
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Leave Game?"))
	content.WriteString("\n\n")
	content.WriteString("The game keeps running; reconnect with the same name to rejoin.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to leave, N to stay"))

	modal := modalStyle.Width(50).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}
