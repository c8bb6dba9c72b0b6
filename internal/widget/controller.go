// Package widget implements the chat widget controller: optimistic user entries,
// one backend request per send, and exactly one reply or error entry per request.
package widget

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/holdings-chat/internal/model/chat"
)

// ErrorReply is shown in place of a reply whenever a request fails.
const ErrorReply = "Sorry, I encountered an error communicating with the server."

// Container is the scrollable transcript view.
type Container interface {
	Append(entry chat.Entry)
	ScrollToEnd()
}

// Input is the single-line text field the user types into.
type Input interface {
	Value() string
	Clear()
	Focus()
}

// Trigger fires when the user submits, by button or Enter key.
type Trigger interface {
	OnSubmit(fn func())
}

// Sender delivers a message to the backend and returns the reply text.
type Sender interface {
	Send(ctx context.Context, text string) (string, error)
}

// Dispatcher runs fn on the view's event loop.
type Dispatcher func(fn func())

// Controller owns a transcript and drives its Container and Input collaborators.
type Controller struct {
	container Container
	input     Input
	sender    Sender
	dispatch  Dispatcher
	mode      RenderMode
	logger    zerolog.Logger

	transcript *chat.Transcript
	inflight   sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	// mu serializes every mutation of the view collaborators.
	mu     sync.Mutex
	closed bool
}

// Option customises a Controller.
type Option func(*Controller)

// WithDispatcher routes reply handling through fn instead of the request goroutine.
func WithDispatcher(fn Dispatcher) Option {
	return func(c *Controller) {
		if fn != nil {
			c.dispatch = fn
		}
	}
}

// WithRenderMode picks how entries are rendered. Defaults to RenderEscape.
func WithRenderMode(mode RenderMode) Option {
	return func(c *Controller) {
		c.mode = mode
	}
}

// WithLogger sets the developer-facing logger for swallowed failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithContext sets the parent context of every request.
func WithContext(ctx context.Context) Option {
	return func(c *Controller) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// New wires a controller to its view collaborators and backend.
func New(container Container, input Input, sender Sender, opts ...Option) *Controller {
	c := &Controller{
		container:  container,
		input:      input,
		sender:     sender,
		dispatch:   func(fn func()) { fn() },
		mode:       RenderEscape,
		logger:     zerolog.Nop(),
		transcript: chat.NewTranscript(),
		ctx:        context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ctx, c.cancel = context.WithCancel(c.ctx)
	return c
}

// Bind registers SendMessage as the trigger's submit handler.
func (c *Controller) Bind(trigger Trigger) {
	trigger.OnSubmit(func() { c.SendMessage() })
}

// AppendMessage renders text, appends it to the transcript and view, and scrolls to the end.
func (c *Controller) AppendMessage(text string, origin chat.Origin) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appendLocked(text, origin)
}

func (c *Controller) appendLocked(text string, origin chat.Origin) {
	message := chat.NewMessage(text, origin)
	c.transcript.Append(message)
	c.container.Append(Render(message, c.mode))
	c.container.ScrollToEnd()
}

// SendMessage submits the current input. It reports false when the trimmed input
// is empty or the controller is closed; nothing is appended or sent in that case.
// The user entry is appended and the input cleared before the request is issued.
func (c *Controller) SendMessage() bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}

	text := strings.TrimSpace(c.input.Value())
	if text == "" {
		c.mu.Unlock()
		return false
	}

	c.appendLocked(text, chat.User)
	c.input.Clear()
	c.input.Focus()
	c.inflight.Add(1)
	c.mu.Unlock()

	go c.deliver(text)
	return true
}

func (c *Controller) deliver(text string) {
	defer c.inflight.Done()

	reply, err := c.sender.Send(c.ctx, text)
	if err != nil {
		if c.ctx.Err() != nil {
			c.logger.Debug().Err(err).Str("message", text).Msg("chat request cancelled")
		} else {
			c.logger.Error().Err(err).Str("message", text).Msg("chat request failed")
		}
		reply = ErrorReply
	}

	c.dispatch(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			c.logger.Debug().Str("message", text).Msg("dropping reply for closed widget")
			return
		}
		c.appendLocked(reply, chat.Bot)
	})
}

// Transcript returns the messages appended so far, in order.
func (c *Controller) Transcript() []chat.Message {
	return c.transcript.Messages()
}

// Wait blocks until every in-flight request has settled and its reply was dispatched.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// Close tears the widget down. In-flight requests are cancelled and late replies dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
}
