package utils

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/hlog"
)

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("failed to encode response")
	}
}

// RespondError 发送错误响应
func RespondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	RespondJSON(w, r, status, map[string]string{"error": message})
}
