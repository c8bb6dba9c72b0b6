package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/holdings-chat/internal/model/chat"
)

type echoBot struct {
	calls []string
}

func (b *echoBot) ProcessQuery(_ context.Context, query string) string {
	b.calls = append(b.calls, query)
	return "echo: " + query
}

func setupRouter() (*chi.Mux, *echoBot) {
	bot := &echoBot{}
	r := chi.NewRouter()
	New(bot).RegisterRoutes(r)
	return r, bot
}

func post(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestChatReturnsReply(t *testing.T) {
	r, bot := setupRouter()

	resp := post(r, `{"message":"  Total number of trades for Platpot Fund "}`)

	require.Equal(t, http.StatusOK, resp.Code)
	var got chat.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "echo: Total number of trades for Platpot Fund", got.Response)
	assert.Equal(t, []string{"Total number of trades for Platpot Fund"}, bot.calls)
}

func TestChatEmptyMessage(t *testing.T) {
	r, bot := setupRouter()

	for _, body := range []string{`{}`, `{"message":""}`, `{"message":"   "}`} {
		resp := post(r, body)
		assert.Equal(t, http.StatusBadRequest, resp.Code, body)
		assert.JSONEq(t, `{"response":"Please enter a message."}`, resp.Body.String(), body)
	}
	assert.Empty(t, bot.calls)
}

func TestChatInvalidBody(t *testing.T) {
	r, bot := setupRouter()

	resp := post(r, `{"message":`)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.JSONEq(t, `{"error":"invalid request body"}`, resp.Body.String())
	assert.Empty(t, bot.calls)
}

func TestChatRejectsGet(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)
}
