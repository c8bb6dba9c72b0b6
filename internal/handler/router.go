package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/zhouzirui/holdings-chat/internal/handler/chat"
	"github.com/zhouzirui/holdings-chat/internal/handler/static"
	"github.com/zhouzirui/holdings-chat/pkg/utils"
)

// NewRouter wires HTTP routes to the chatbot.
func NewRouter(bot chat.Processor, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(logger))
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(middleware.Recoverer)

	chatHandler := chat.New(bot)

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Handle("/*", static.Handler())

	return r
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}
