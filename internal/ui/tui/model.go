// Package tui hosts the chat widget controller in a Bubble Tea program.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/holdings-chat/internal/model/chat"
	"github.com/zhouzirui/holdings-chat/internal/widget"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75")).Padding(0, 1)
	userLabel  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	botLabel   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const (
	defaultWidth  = 80
	defaultHeight = 20
	// title, input and help lines
	chromeHeight = 3
)

// applyMsg carries a controller completion onto the Update loop.
type applyMsg func()

// Options configures the model.
type Options struct {
	RenderMode widget.RenderMode
	Markdown   bool
	Logger     zerolog.Logger
	Context    context.Context
}

// Model is the Bubble Tea model. It is the controller's Container, Input and
// Trigger, so every view mutation happens inside Update.
type Model struct {
	ctrl     *widget.Controller
	viewport viewport.Model
	input    textinput.Model
	markdown *glamour.TermRenderer
	logger   zerolog.Logger

	entries []chat.Entry
	submit  func()
}

// New builds a model around sender. dispatch runs completions on the
// program loop; nil runs them on the request goroutine.
func New(sender widget.Sender, dispatch widget.Dispatcher, opts Options) *Model {
	input := textinput.New()
	input.Placeholder = "Ask about your holdings and trades..."
	input.Prompt = "> "
	input.Focus()

	m := &Model{
		viewport: viewport.New(defaultWidth, defaultHeight),
		input:    input,
		logger:   opts.Logger,
	}

	if opts.Markdown {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(defaultWidth),
		)
		if err != nil {
			m.logger.Warn().Err(err).Msg("markdown renderer unavailable, using plain text")
		} else {
			m.markdown = renderer
		}
	}

	m.ctrl = widget.New(m, m, sender,
		widget.WithDispatcher(dispatch),
		widget.WithRenderMode(opts.RenderMode),
		widget.WithLogger(opts.Logger),
		widget.WithContext(opts.Context),
	)
	m.ctrl.Bind(m)
	return m
}

// Run starts a full-screen program and blocks until the user quits or ctx ends.
func Run(ctx context.Context, sender widget.Sender, opts Options) error {
	if opts.Context == nil {
		opts.Context = ctx
	}

	var program *tea.Program
	m := New(sender, func(fn func()) { program.Send(applyMsg(fn)) }, opts)
	program = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	defer m.Close()

	_, err := program.Run()
	return err
}

// Controller exposes the hosted controller.
func (m *Model) Controller() *widget.Controller {
	return m.ctrl
}

// Close tears down the controller; late replies are dropped.
func (m *Model) Close() {
	m.ctrl.Close()
}

// Append implements widget.Container.
func (m *Model) Append(entry chat.Entry) {
	m.entries = append(m.entries, entry)
	m.refresh()
}

// ScrollToEnd implements widget.Container.
func (m *Model) ScrollToEnd() {
	m.viewport.GotoBottom()
}

// Value implements widget.Input.
func (m *Model) Value() string {
	return m.input.Value()
}

// Clear implements widget.Input.
func (m *Model) Clear() {
	m.input.Reset()
}

// Focus implements widget.Input.
func (m *Model) Focus() {
	m.input.Focus()
}

// OnSubmit implements widget.Trigger. Enter fires fn.
func (m *Model) OnSubmit(fn func()) {
	m.submit = fn
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case applyMsg:
		msg()
		return m, nil
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(1, msg.Height-chromeHeight)
		m.input.Width = max(1, msg.Width-len(m.input.Prompt)-1)
		m.refresh()
		m.viewport.GotoBottom()
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.submit != nil {
				m.submit()
			}
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		// 其余按键只交给输入框，避免触发视口的快捷键。
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	var inputCmd, viewportCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	m.viewport, viewportCmd = m.viewport.Update(msg)
	return m, tea.Batch(inputCmd, viewportCmd)
}

func (m *Model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Holdings Chat"),
		m.viewport.View(),
		m.input.View(),
		helpStyle.Render("enter send • pgup/pgdn scroll • esc quit"),
	)
}

func (m *Model) refresh() {
	lines := make([]string, 0, len(m.entries))
	for _, entry := range m.entries {
		lines = append(lines, m.renderEntry(entry))
	}
	m.viewport.SetContent(strings.Join(lines, "\n\n"))
}

func (m *Model) renderEntry(entry chat.Entry) string {
	text := widget.PlainText(entry)
	wrap := lipgloss.NewStyle().Width(max(1, m.viewport.Width))

	if entry.Origin == chat.User {
		return wrap.Render(userLabel.Render("You") + "  " + text)
	}

	if m.markdown != nil {
		if out, err := m.markdown.Render(text); err == nil {
			return botLabel.Render("Bot") + "\n" + strings.TrimRight(out, "\n")
		}
	}
	return wrap.Render(botLabel.Render("Bot") + "  " + text)
}
