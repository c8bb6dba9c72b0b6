package widget

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/holdings-chat/internal/client"
	"github.com/zhouzirui/holdings-chat/internal/model/chat"
)

type transcriptLine struct {
	Origin chat.Origin
	Text   string
}

func lines(messages []chat.Message) []transcriptLine {
	out := make([]transcriptLine, 0, len(messages))
	for _, m := range messages {
		out = append(out, transcriptLine{Origin: m.Origin, Text: m.Text})
	}
	return out
}

func newHTTPController(t *testing.T, handler http.HandlerFunc) (*Controller, *fakeContainer, *fakeInput) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend, err := client.New(srv.URL)
	require.NoError(t, err)

	container := &fakeContainer{}
	input := &fakeInput{}
	ctrl := New(container, input, backend)
	t.Cleanup(ctrl.Close)
	return ctrl, container, input
}

func TestHelloScenario(t *testing.T) {
	var body map[string]string
	ctrl, container, input := newHTTPController(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"response":"Hi there"}`))
	})

	input.value = "Hello"
	require.True(t, ctrl.SendMessage())
	ctrl.Wait()

	assert.Equal(t, map[string]string{"message": "Hello"}, body)
	assert.Equal(t, []transcriptLine{
		{Origin: chat.User, Text: "Hello"},
		{Origin: chat.Bot, Text: "Hi there"},
	}, lines(ctrl.Transcript()))

	entries := container.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "message user-message", entries[0].Class)
	assert.Equal(t, "message bot-message", entries[1].Class)
	assert.Equal(t, 2, container.scrolled)
}

func TestWhitespaceInputIsNoop(t *testing.T) {
	var hits atomic.Int32
	ctrl, container, input := newHTTPController(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})

	for _, value := range []string{"", "  ", "\t\n "} {
		input.value = value
		assert.False(t, ctrl.SendMessage())
	}
	ctrl.Wait()

	assert.Zero(t, hits.Load())
	assert.Empty(t, ctrl.Transcript())
	assert.Empty(t, container.Entries())
	assert.Zero(t, input.cleared)
}

func TestNetworkFailureAppendsErrorReply(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	backend, err := client.New(srv.URL)
	require.NoError(t, err)

	input := &fakeInput{value: "Test"}
	ctrl := New(&fakeContainer{}, input, backend)
	defer ctrl.Close()

	require.True(t, ctrl.SendMessage())
	ctrl.Wait()

	assert.Equal(t, []transcriptLine{
		{Origin: chat.User, Text: "Test"},
		{Origin: chat.Bot, Text: ErrorReply},
	}, lines(ctrl.Transcript()))
}

func TestMalformedResponsesAppendErrorReply(t *testing.T) {
	for name, handler := range map[string]http.HandlerFunc{
		"non json": func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("nope")) },
		"missing":  func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{}`)) },
		"status": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"response":"upstream"}`))
		},
	} {
		t.Run(name, func(t *testing.T) {
			ctrl, _, input := newHTTPController(t, handler)
			input.value = "Test"
			require.True(t, ctrl.SendMessage())
			ctrl.Wait()

			got := ctrl.Transcript()
			require.Len(t, got, 2)
			assert.Equal(t, chat.Bot, got[1].Origin)
			assert.Equal(t, ErrorReply, got[1].Text)
		})
	}
}

func TestUserEntryAppearsBeforeReply(t *testing.T) {
	sender := newGatedSender()
	container := &fakeContainer{}
	input := &fakeInput{value: "  Hello  "}
	ctrl := New(container, input, sender)
	defer ctrl.Close()

	require.True(t, ctrl.SendMessage())

	got := ctrl.Transcript()
	require.Len(t, got, 1)
	assert.Equal(t, "Hello", got[0].Text)
	assert.Equal(t, chat.User, got[0].Origin)
	assert.Empty(t, input.value)
	assert.Equal(t, 1, input.focused)

	sender.Release("Hello", "Hi there")
	ctrl.Wait()
	assert.Len(t, ctrl.Transcript(), 2)
	assert.Equal(t, []string{"Hello"}, sender.Calls())
}

func TestInputClearedRegardlessOfOutcome(t *testing.T) {
	sender := newGatedSender()
	input := &fakeInput{value: "Test"}
	ctrl := New(&fakeContainer{}, input, sender)
	defer ctrl.Close()

	require.True(t, ctrl.SendMessage())
	assert.Empty(t, input.value)

	sender.Fail("Test")
	ctrl.Wait()
	assert.Empty(t, input.value)
	assert.Equal(t, ErrorReply, ctrl.Transcript()[1].Text)
}

func TestConcurrentRepliesAppendInArrivalOrder(t *testing.T) {
	sender := newGatedSender()
	input := &fakeInput{}
	ctrl := New(&fakeContainer{}, input, sender)
	defer ctrl.Close()

	input.value = "first"
	require.True(t, ctrl.SendMessage())
	input.value = "second"
	require.True(t, ctrl.SendMessage())

	sender.Release("second", "reply two")
	require.Eventually(t, func() bool { return len(ctrl.Transcript()) == 3 }, time.Second, 5*time.Millisecond)

	sender.Release("first", "reply one")
	ctrl.Wait()

	assert.Equal(t, []transcriptLine{
		{Origin: chat.User, Text: "first"},
		{Origin: chat.User, Text: "second"},
		{Origin: chat.Bot, Text: "reply two"},
		{Origin: chat.Bot, Text: "reply one"},
	}, lines(ctrl.Transcript()))
}

func TestEverySendGetsExactlyOneReply(t *testing.T) {
	var hits atomic.Int32
	ctrl, _, input := newHTTPController(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1)%2 == 0 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"response":"ok"}`))
	})

	const sends = 10
	for i := 0; i < sends; i++ {
		input.value = "msg"
		require.True(t, ctrl.SendMessage())
	}
	ctrl.Wait()

	var users, bots int
	for _, m := range ctrl.Transcript() {
		if m.Origin == chat.User {
			users++
		} else {
			bots++
		}
	}
	assert.Equal(t, sends, users)
	assert.Equal(t, sends, bots)
}

func TestBindRoutesTriggerToSend(t *testing.T) {
	sender := newGatedSender()
	input := &fakeInput{value: "Hello"}
	trigger := &fakeTrigger{}
	ctrl := New(&fakeContainer{}, input, sender)
	defer ctrl.Close()

	ctrl.Bind(trigger)
	trigger.Fire()
	sender.Release("Hello", "Hi")
	ctrl.Wait()

	assert.Len(t, ctrl.Transcript(), 2)
}

func TestDispatcherDefersReply(t *testing.T) {
	var (
		mu      sync.Mutex
		pending []func()
	)
	dispatch := func(fn func()) {
		mu.Lock()
		pending = append(pending, fn)
		mu.Unlock()
	}

	sender := newGatedSender()
	input := &fakeInput{value: "Hello"}
	ctrl := New(&fakeContainer{}, input, sender, WithDispatcher(dispatch))
	defer ctrl.Close()

	require.True(t, ctrl.SendMessage())
	sender.Release("Hello", "Hi")
	ctrl.Wait()
	require.Len(t, ctrl.Transcript(), 1)

	mu.Lock()
	queued := pending
	mu.Unlock()
	require.Len(t, queued, 1)
	queued[0]()

	assert.Len(t, ctrl.Transcript(), 2)
}

func TestCloseDropsLateReplies(t *testing.T) {
	sender := newGatedSender()
	input := &fakeInput{value: "Hello"}
	container := &fakeContainer{}
	ctrl := New(container, input, sender)

	require.True(t, ctrl.SendMessage())
	ctrl.Close()
	ctrl.Wait()

	assert.Len(t, ctrl.Transcript(), 1)
	assert.Len(t, container.Entries(), 1)

	input.value = "again"
	assert.False(t, ctrl.SendMessage())
}

func TestAppendMessageRendersNewlines(t *testing.T) {
	container := &fakeContainer{}
	ctrl := New(container, &fakeInput{}, newGatedSender())
	defer ctrl.Close()

	ctrl.AppendMessage("line one\nline two", chat.Bot)

	entries := container.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "line one<br>line two", entries[0].HTML)
	assert.Equal(t, 1, container.scrolled)
}
