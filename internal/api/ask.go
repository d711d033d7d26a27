package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dataagent/dataagent/internal/observability"
)

type askRequest struct {
	Question string `json:"question"`
	// APIKey is a completion provider key supplied by the caller. It is
	// unrelated to the service API key checked by the auth middleware.
	APIKey string `json:"api_key"`
}

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.QueryEngine == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "QUERY_NOT_CONFIGURED", "query engine is not configured", false, nil)
		return
	}

	var request askRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid ask request body", false, map[string]any{"details": err.Error()})
		return
	}
	question := strings.TrimSpace(request.Question)
	if question == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	debug := false
	if raw := r.URL.Query().Get("debug"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(r.Context(), w, http.StatusBadRequest, "INVALID_DEBUG", "debug must be a boolean", false, nil)
			return
		}
		debug = parsed
	}

	asker := deps.Agent
	if key := strings.TrimSpace(request.APIKey); key != "" && deps.NewAgent != nil {
		built, err := deps.NewAgent(key)
		if err != nil {
			writeError(r.Context(), w, http.StatusInternalServerError, "AGENT_INIT_FAILED", err.Error(), false, nil)
			return
		}
		asker = built
	}
	if asker == nil {
		writeError(r.Context(), w, http.StatusBadRequest, "API_KEY_REQUIRED", "a completion api_key is required", false, nil)
		return
	}

	answer, trace, err := asker.AnswerWithTrace(r.Context(), deps.QueryEngine, question)
	if err != nil {
		if deps.Logger != nil {
			observability.LoggerWithTrace(r.Context(), deps.Logger).Error("ask failed",
				slog.Any("error", err),
				slog.Int("attempts", len(trace.Attempts)),
			)
		}
		writeError(r.Context(), w, http.StatusBadGateway, "COMPLETION_FAILED", err.Error(), true, nil)
		return
	}

	response := map[string]any{"response": answer}
	if debug {
		response["trace"] = trace
	}
	writeJSON(w, http.StatusOK, response)
}
