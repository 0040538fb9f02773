package handler

import (
	"net/http"

	"github.com/articleforge/articleforge/internal/api/response"
)

// NewHealthHandler reports liveness and the active generation provider.
func NewHealthHandler(providerName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, map[string]any{
			"status":   "ok",
			"provider": providerName,
		})
	}
}
