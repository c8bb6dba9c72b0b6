package widget

import (
	"context"
	"errors"
	"sync"

	"github.com/zhouzirui/holdings-chat/internal/model/chat"
)

type fakeContainer struct {
	mu       sync.Mutex
	entries  []chat.Entry
	scrolled int
}

func (f *fakeContainer) Append(entry chat.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
}

func (f *fakeContainer) ScrollToEnd() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scrolled++
}

func (f *fakeContainer) Entries() []chat.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]chat.Entry(nil), f.entries...)
}

type fakeInput struct {
	value   string
	cleared int
	focused int
}

func (f *fakeInput) Value() string { return f.value }
func (f *fakeInput) Clear()        { f.value = ""; f.cleared++ }
func (f *fakeInput) Focus()        { f.focused++ }

type fakeTrigger struct {
	handler func()
}

func (f *fakeTrigger) OnSubmit(fn func()) { f.handler = fn }
func (f *fakeTrigger) Fire()              { f.handler() }

// gatedSender blocks every Send until its reply is released.
type gatedSender struct {
	mu    sync.Mutex
	calls []string
	gates map[string]chan result
}

type result struct {
	reply string
	err   error
}

func newGatedSender() *gatedSender {
	return &gatedSender{gates: make(map[string]chan result)}
}

func (g *gatedSender) gate(text string) chan result {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[text]
	if !ok {
		ch = make(chan result, 1)
		g.gates[text] = ch
	}
	return ch
}

func (g *gatedSender) Send(ctx context.Context, text string) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, text)
	g.mu.Unlock()

	select {
	case res := <-g.gate(text):
		return res.reply, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *gatedSender) Release(text, reply string) { g.gate(text) <- result{reply: reply} }
func (g *gatedSender) Fail(text string)           { g.gate(text) <- result{err: errors.New("boom")} }

func (g *gatedSender) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}
