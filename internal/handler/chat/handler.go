package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/zhouzirui/holdings-chat/internal/model/chat"
	"github.com/zhouzirui/holdings-chat/pkg/utils"
)

// EmptyMessageReply is returned with 400 when the message is blank.
const EmptyMessageReply = "Please enter a message."

const maxBodyBytes = 1 << 20

// Processor answers one chat message.
type Processor interface {
	ProcessQuery(ctx context.Context, query string) string
}

// Handler 聊天服务的HTTP处理器
type Handler struct {
	bot Processor
}

// New 创建聊天处理器
func New(bot Processor) *Handler {
	return &Handler{bot: bot}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
}

// handleChat 处理一次问答
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chat.Request
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	message := strings.TrimSpace(payload.Message)
	if message == "" {
		utils.RespondJSON(w, r, http.StatusBadRequest, chat.Response{Response: EmptyMessageReply})
		return
	}

	reply := h.bot.ProcessQuery(r.Context(), message)
	hlog.FromRequest(r).Debug().Int("length", len(reply)).Msg("chat reply ready")
	utils.RespondJSON(w, r, http.StatusOK, chat.Response{Response: reply})
}
