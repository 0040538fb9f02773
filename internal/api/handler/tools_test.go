package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/articleforge/articleforge/internal/api/handler"
	"github.com/articleforge/articleforge/internal/gateway"
)

type stubDispatcher struct {
	DispatchFunc func(ctx context.Context, req gateway.Request) (any, *gateway.Error)
}

func (s *stubDispatcher) Dispatch(ctx context.Context, req gateway.Request) (any, *gateway.Error) {
	return s.DispatchFunc(ctx, req)
}

func callTools(t *testing.T, d handler.ToolDispatcher, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tools/call", strings.NewReader(body))
	handler.NewToolsHandler(d)(rec, req)
	return rec
}

func TestToolsHandler_Success(t *testing.T) {
	d := &stubDispatcher{
		DispatchFunc: func(_ context.Context, req gateway.Request) (any, *gateway.Error) {
			assert.Equal(t, gateway.OpCheckStatus, req.Operation)
			return map[string]any{"job_id": "research-abc", "status": "running"}, nil
		},
	}

	rec := callTools(t, d, `{"operation": "check_status", "arguments": {"job_id": "research-abc"}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "research-abc", env.Data["job_id"])
}

func TestToolsHandler_InvalidJSONBody(t *testing.T) {
	d := &stubDispatcher{
		DispatchFunc: func(context.Context, gateway.Request) (any, *gateway.Error) {
			t.Fatal("dispatcher must not run on malformed body")
			return nil, nil
		},
	}

	rec := callTools(t, d, `{"operation": `)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToolsHandler_MissingOperation(t *testing.T) {
	d := &stubDispatcher{
		DispatchFunc: func(context.Context, gateway.Request) (any, *gateway.Error) {
			t.Fatal("dispatcher must not run without an operation")
			return nil, nil
		},
	}

	rec := callTools(t, d, `{"arguments": {}}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToolsHandler_StatusMapping(t *testing.T) {
	cases := []struct {
		code   string
		status int
	}{
		{gateway.CodeValidation, http.StatusBadRequest},
		{gateway.CodeUnknownOperation, http.StatusBadRequest},
		{gateway.CodeNotFound, http.StatusNotFound},
		{gateway.CodeNotReady, http.StatusConflict},
		{gateway.CodeUpstream, http.StatusBadGateway},
		{gateway.CodeInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			d := &stubDispatcher{
				DispatchFunc: func(context.Context, gateway.Request) (any, *gateway.Error) {
					return nil, &gateway.Error{Code: tc.code, Message: "boom"}
				},
			}

			rec := callTools(t, d, `{"operation": "get_result", "arguments": {"job_id": "x"}}`)

			assert.Equal(t, tc.status, rec.Code)

			var env struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.Equal(t, tc.code, env.Error.Code)
			assert.Equal(t, "boom", env.Error.Message)
		})
	}
}

func TestToolsHandler_ErrorDetailsSurfaced(t *testing.T) {
	d := &stubDispatcher{
		DispatchFunc: func(context.Context, gateway.Request) (any, *gateway.Error) {
			return nil, &gateway.Error{
				Code:    gateway.CodeValidation,
				Message: "invalid arguments for start_job",
				Details: "missing properties: 'research_goal'",
			}
		},
	}

	rec := callTools(t, d, `{"operation": "start_job", "arguments": {"spec": {}}}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "research_goal")
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)

	handler.NewHealthHandler("gemini")(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "ok", env.Data["status"])
	assert.Equal(t, "gemini", env.Data["provider"])
}
