// Package line runs the chat widget controller as a line-oriented prompt loop.
package line

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/holdings-chat/internal/model/chat"
	"github.com/zhouzirui/holdings-chat/internal/widget"
)

const promptText = "you> "

var botLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))

// Prompter reads one line of input. *liner.State implements it.
type Prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// Options configures a session.
type Options struct {
	RenderMode widget.RenderMode
	Logger     zerolog.Logger
}

// Session is the controller's Container, Input and Trigger for a terminal.
// Bot entries are printed to out; user entries are already echoed by the prompt.
type Session struct {
	out     io.Writer
	ctrl    *widget.Controller
	pending string
	submit  func()
}

// NewSession wires a controller that prints to out.
func NewSession(ctx context.Context, out io.Writer, sender widget.Sender, opts Options) *Session {
	s := &Session{out: out}
	s.ctrl = widget.New(s, s, sender,
		widget.WithRenderMode(opts.RenderMode),
		widget.WithLogger(opts.Logger),
		widget.WithContext(ctx),
	)
	s.ctrl.Bind(s)
	return s
}

// Run prompts on the terminal until EOF, Ctrl+C or ctx ends.
func Run(ctx context.Context, out io.Writer, sender widget.Sender, opts Options) error {
	state := liner.NewLiner()
	defer state.Close()
	state.SetCtrlCAborts(true)

	s := NewSession(ctx, out, sender, opts)
	defer s.Close()
	return s.Loop(ctx, state)
}

// Loop reads lines from p and submits each one. It waits for the reply before
// prompting again, because the prompter owns the terminal while reading.
func (s *Session) Loop(ctx context.Context, p Prompter) error {
	for ctx.Err() == nil {
		input, err := p.Prompt(promptText)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		if strings.TrimSpace(input) != "" {
			p.AppendHistory(input)
		}

		s.pending = input
		s.submit()
		s.ctrl.Wait()
	}
	return nil
}

// Controller exposes the hosted controller.
func (s *Session) Controller() *widget.Controller {
	return s.ctrl
}

// Close cancels in-flight requests.
func (s *Session) Close() {
	s.ctrl.Close()
}

func (s *Session) Append(entry chat.Entry) {
	if entry.Origin != chat.Bot {
		return
	}
	fmt.Fprintf(s.out, "%s %s\n", botLabel.Render("bot>"), widget.PlainText(entry))
}

func (s *Session) ScrollToEnd() {}

func (s *Session) Value() string { return s.pending }

func (s *Session) Clear() { s.pending = "" }

func (s *Session) Focus() {}

func (s *Session) OnSubmit(fn func()) { s.submit = fn }
