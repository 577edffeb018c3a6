package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/voxchat/internal/models"
	"github.com/diogo/voxchat/internal/render"
	"github.com/diogo/voxchat/internal/session"
)

// Animation tick message
type animationTickMsg time.Time

// Message types for the TUI
type (
	// stateMsg carries a session state snapshot into the update loop
	stateMsg session.State
	// micToggledMsg reports the outcome of a listening toggle
	micToggledMsg struct {
		err error
	}
	// alertMsg surfaces a speech problem reported by the session, such as
	// an unavailable synthesizer when a reply should be voiced
	alertMsg struct {
		err error
	}
	// submitDoneMsg signals that a submitted turn has fully settled
	submitDoneMsg struct{}
)

// Model represents the TUI state
type Model struct {
	sess      *session.Session
	events    <-chan session.State
	alerts    <-chan error
	modelName string

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// State
	snapshot       session.State
	ready          bool
	err            error
	animationFrame int

	// Dimensions
	width  int
	height int
}

// NewChatModel creates a new chat TUI model driven by sess. State snapshots
// arrive on events, which the session's notifier must feed; speech alerts
// arrive on alerts, which may be nil when the session reports none.
func NewChatModel(sess *session.Session, events <-chan session.State, alerts <-chan error, modelName string) Model {
	ta := textarea.New()
	ta.Placeholder = "Type your message, or press Ctrl+T to talk..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	return Model{
		sess:      sess,
		events:    events,
		alerts:    alerts,
		modelName: modelName,
		textarea:  ta,
		spinner:   s,
		snapshot:  sess.State(),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.waitForState(),
		m.waitForAlert(),
	)
}

// waitForState blocks on the next session state snapshot.
func (m Model) waitForState() tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-m.events)
	}
}

// waitForAlert blocks on the next session speech alert.
func (m Model) waitForAlert() tea.Cmd {
	if m.alerts == nil {
		return nil
	}
	return func() tea.Msg {
		return alertMsg{err: <-m.alerts}
	}
}

// animationTick returns a command that sends animation tick messages
func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4
		inputHeight := 6
		statusHeight := 1
		padding := 2

		vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
		if vpHeight < 5 {
			vpHeight = 5
		}

		contentWidth := m.width - 4

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.textarea.SetWidth(contentWidth - 4)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
			m.textarea.SetWidth(contentWidth - 4)
		}
		m.updateViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.sess.Close()
			return m, tea.Quit

		case "esc":
			m.sess.Close()
			return m, tea.Quit

		case "ctrl+t":
			m.err = nil
			return m, m.toggleListening()

		case "ctrl+s":
			m.sess.StopSpeaking()

		case "enter":
			if !m.snapshot.Loading && strings.TrimSpace(m.textarea.Value()) != "" {
				input := strings.TrimSpace(m.textarea.Value())
				if input == "exit" || input == "quit" || input == "/exit" || input == "/quit" {
					m.sess.Close()
					return m, tea.Quit
				}

				m.err = nil
				m.animationFrame = 0
				m.textarea.Reset()

				return m, tea.Batch(
					m.submit(input),
					m.spinner.Tick,
					animationTick(),
				)
			}
		}

	case stateMsg:
		m.snapshot = session.State(msg)
		if m.snapshot.Listening {
			// dictation overwrites the draft with the cumulative transcript
			m.textarea.SetValue(m.snapshot.Input)
			m.textarea.CursorEnd()
		}
		m.updateViewport()
		m.viewport.GotoBottom()
		cmds = append(cmds, m.waitForState())

	case micToggledMsg:
		if msg.err != nil {
			m.err = msg.err
		}

	case alertMsg:
		m.err = msg.err
		cmds = append(cmds, m.waitForAlert())

	case submitDoneMsg:
		// final state already arrived via the notifier

	case spinner.TickMsg:
		if m.snapshot.Loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case animationTickMsg:
		if m.snapshot.Loading {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		}
	}

	// Only pass KeyMsg to the textarea to prevent escape sequence leaks
	if !m.snapshot.Loading {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit sends one turn through the session. Submit blocks until the reply
// or fallback is recorded, so it runs as a command.
func (m Model) submit(input string) tea.Cmd {
	return func() tea.Msg {
		m.sess.Submit(context.Background(), input)
		return submitDoneMsg{}
	}
}

// toggleListening flips voice recognition on or off.
func (m Model) toggleListening() tea.Cmd {
	return func() tea.Msg {
		return micToggledMsg{err: m.sess.ToggleListening(context.Background())}
	}
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	var sections []string
	contentWidth := m.width - 4

	// Header
	headerParts := []string{
		titleStyle.Render("✦ Voxchat"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.modelName),
	}
	if m.snapshot.Listening {
		headerParts = append(headerParts,
			hintStyle.Render("  •  "),
			listeningStyle.Render("● listening"),
		)
	}
	if m.snapshot.Speaking {
		headerParts = append(headerParts,
			hintStyle.Render("  •  "),
			speakingStyle.Render("♪ speaking"),
		)
	}
	headerContent := lipgloss.JoinHorizontal(lipgloss.Center, headerParts...)
	header := headerStyle.Width(contentWidth).Render(headerContent)
	sections = append(sections, header)

	// Messages area
	var messagesContent string
	if len(m.snapshot.Messages) == 0 {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}

	messagesPanel := messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent)
	sections = append(sections, messagesPanel)

	// Input area
	var inputContent string
	if m.snapshot.Loading {
		inputContent = m.renderLoadingAnimation()
	} else {
		label := inputLabelStyle.Render("You")
		if m.snapshot.Listening {
			label = lipgloss.JoinHorizontal(lipgloss.Center,
				label, listeningStyle.Render(" ● "))
		}
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			label,
			m.textarea.View(),
		)
	}

	inputPanel := inputPanelStyle.Width(contentWidth).Render(inputContent)
	sections = append(sections, inputPanel)

	// Status bar
	statusBar := m.renderStatusBar(contentWidth)
	sections = append(sections, statusBar)

	// Error display
	if m.err != nil {
		sections = append(sections, FormatError(m.err))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderWelcome renders the welcome screen when no messages exist
func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	icon := welcomeIconStyle.Width(width).Render("✦")
	title := welcomeTitleStyle.Width(width).Render("Welcome to Voxchat")
	subtitle := welcomeStyle.Width(width).Render("Type a message below, or press Ctrl+T and speak")

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		icon,
		"",
		title,
		"",
		subtitle,
		"",
	)

	contentHeight := lipgloss.Height(content)
	topPadding := (height - contentHeight) / 2
	if topPadding < 0 {
		topPadding = 0
	}

	return strings.Repeat("\n", topPadding) + content
}

// renderLoadingAnimation renders a colorful animated loading indicator
func (m Model) renderLoadingAnimation() string {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "█", "█", "█", "█", "▓", "▒", "░"}

	frame := m.animationFrame

	spinIdx := frame % len(chars)
	spinColor := gradientColors[frame%len(gradientColors)]
	spin := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[spinIdx])

	barWidth := 20
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + frame) % len(gradientColors)
		charIdx := (i + frame/2) % len(barChars)

		style := lipgloss.NewStyle().Foreground(gradientColors[colorIdx])
		bar.WriteString(style.Render(barChars[charIdx]))
	}

	dots := ""
	numDots := (frame / 3) % 4
	for i := 0; i < numDots; i++ {
		dotColor := gradientColors[(frame+i)%len(gradientColors)]
		dots += lipgloss.NewStyle().Foreground(dotColor).Render("●")
	}
	for i := numDots; i < 3; i++ {
		dots += lipgloss.NewStyle().Foreground(colorTextMute).Render("○")
	}

	text := lipgloss.NewStyle().Foreground(colorText).Render(" Thinking ")

	return fmt.Sprintf("%s %s %s %s", spin, bar.String(), text, dots)
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	micDesc := "Talk"
	if m.snapshot.Listening {
		micDesc = "Mute"
	}

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Ctrl+T", micDesc},
		{"Ctrl+S", "Hush"},
		{"Esc", "Quit"},
		{"↑↓", "Scroll"},
	}

	var items []string
	for _, s := range shortcuts {
		item := lipgloss.JoinHorizontal(
			lipgloss.Center,
			statusKeyStyle.Render(s.key),
			statusDescStyle.Render(" "+s.desc),
		)
		items = append(items, item)
	}

	bar := lipgloss.JoinHorizontal(lipgloss.Center, strings.Join(items, "  │  "))
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

// updateViewport refreshes the viewport content with styled messages
func (m *Model) updateViewport() {
	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6

	for i, msg := range m.snapshot.Messages {
		if i > 0 {
			content.WriteString("\n")
		}

		if msg.Role == models.RoleUser {
			label := userLabelStyle.Render("⬤ You")
			bubble := userBubbleStyle.Width(bubbleWidth).Render(msg.Content)
			content.WriteString(label + "\n" + bubble)
		} else {
			label := assistantLabelStyle.Render("✦ Assistant")
			content.WriteString(label + "\n")

			rendered := strings.TrimRight(render.Reply(msg.Content, bubbleWidth-4), "\n")

			bubble := assistantBubbleStyle.Width(bubbleWidth).Render(rendered)
			content.WriteString(bubble)
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// RunChat starts the chat TUI and blocks until it exits.
func RunChat(sess *session.Session, events <-chan session.State, alerts <-chan error, modelName string) error {
	m := NewChatModel(sess, events, alerts, modelName)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
