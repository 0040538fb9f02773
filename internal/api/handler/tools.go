// Package handler holds the HTTP handlers that front the tool gateway.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/articleforge/articleforge/internal/api/response"
	"github.com/articleforge/articleforge/internal/gateway"
)

// ToolDispatcher is the gateway surface the handler depends on.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, req gateway.Request) (any, *gateway.Error)
}

// NewToolsHandler returns the handler for POST /api/v1/tools/call. Every
// orchestration operation goes through this single endpoint.
func NewToolsHandler(d ToolDispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gateway.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest,
				gateway.CodeValidation, "Invalid JSON body", nil)
			return
		}
		if req.Operation == "" {
			response.Error(w, http.StatusBadRequest,
				gateway.CodeValidation, "operation is required", nil)
			return
		}

		data, gerr := d.Dispatch(r.Context(), req)
		if gerr != nil {
			response.Error(w, statusFor(gerr.Code), gerr.Code, gerr.Message, gerr.Details)
			return
		}
		response.JSON(w, data)
	}
}

// statusFor maps gateway error categories onto HTTP status codes.
func statusFor(code string) int {
	switch code {
	case gateway.CodeValidation, gateway.CodeUnknownOperation:
		return http.StatusBadRequest
	case gateway.CodeNotFound:
		return http.StatusNotFound
	case gateway.CodeNotReady:
		return http.StatusConflict
	case gateway.CodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
