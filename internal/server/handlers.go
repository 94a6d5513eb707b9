package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/geacyber/cyberbot/internal/analysis"
	"github.com/geacyber/cyberbot/internal/assistant"
	"github.com/geacyber/cyberbot/internal/history"
)

var errAssistantNotConfigured = errors.New("assistant is not configured")

const msgAssistantNotConfigured = "Missing OpenAI configuration"

// ChannelHTTP labels turns started over the HTTP API in the history.
const ChannelHTTP = "http"

// --- Request/Response types ---

type chatRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"threadId"`
}

type chatResponse struct {
	Reply    string `json:"reply"`
	ThreadID string `json:"threadId"`
	Status   string `json:"status"`
}

type chatErrorResponse struct {
	Error    string `json:"error"`
	ThreadID string `json:"threadId,omitempty"`
}

type websiteRequest struct {
	TargetURL string `json:"targetUrl"`
	URL       string `json:"url"`
	Strategy  string `json:"strategy"`
}

type repoRequest struct {
	GitHubURL     string `json:"githubUrl"`
	IncludeIssues *bool  `json:"includeIssues"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// --- Handlers ---

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.deps.Chat == nil {
		log.Error().Msg("missing openai configuration")
		writeError(w, http.StatusInternalServerError, msgAssistantNotConfigured)
		return
	}

	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	// A client that gives up must not cut vendor calls short; the poll cap
	// bounds the turn.
	ctx := context.WithoutCancel(r.Context())
	turn, err := s.Converse(ctx, ChannelHTTP, req.Message, req.ThreadID)
	if err != nil {
		resp := chatErrorResponse{Error: assistant.UserMessage(err), ThreadID: req.ThreadID}
		if te, ok := assistant.AsTurnError(err); ok && te.ThreadID != "" {
			resp.ThreadID = te.ThreadID
		}
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Reply:    turn.Reply,
		ThreadID: turn.ThreadID,
		Status:   "success",
	})
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	var req websiteRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
		return
	}
	target := req.TargetURL
	if target == "" {
		target = req.URL
	}

	res, err := s.deps.Analysis.Performance(r.Context(), target, req.Strategy)
	if err != nil {
		re := requestError(err, "Internal server error")
		body := map[string]any{"success": false, "error": re.Message}
		if re.Details != nil {
			body["details"] = re.Details
		}
		writeJSON(w, re.Status, body)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": res})
}

func (s *Server) handleWebsiteAudit(w http.ResponseWriter, r *http.Request) {
	var req websiteRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	target := req.URL
	if target == "" {
		target = req.TargetURL
	}

	rep, err := s.deps.Analysis.Audit(r.Context(), target, req.Strategy)
	if err != nil {
		re := requestError(err, "Failed to analyze website")
		writeJSON(w, re.Status, re.Body())
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleValidateRepo(w http.ResponseWriter, r *http.Request) {
	var req repoRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, analysis.ValidateResult{Error: "invalid request body"})
		return
	}

	res, err := s.deps.Analysis.ValidateRepo(r.Context(), req.GitHubURL)
	if err != nil {
		re := requestError(err, "Internal server error")
		writeJSON(w, re.Status, analysis.ValidateResult{Error: re.Message})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCodeAnalysis(w http.ResponseWriter, r *http.Request) {
	var req repoRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	include := req.IncludeIssues == nil || *req.IncludeIssues

	a, err := s.deps.Analysis.CodeAnalysis(r.Context(), req.GitHubURL, include)
	if err != nil {
		re := requestError(err, "Failed to fetch analysis")
		writeJSON(w, re.Status, re.Body())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": a})
}

func (s *Server) handleListRepos(w http.ResponseWriter, r *http.Request) {
	list := s.deps.Analysis.ListRepos(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"repos":   list,
		"count":   len(list),
	})
}

func (s *Server) handleThreadTurns(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}
	id := chi.URLParam(r, "id")
	turns, err := s.deps.History.Store.ListTurns(id)
	if err != nil {
		log.Error().Err(err).Str("thread", id).Msg("listing turns")
		writeError(w, http.StatusInternalServerError, "failed to list turns")
		return
	}
	if turns == nil {
		turns = []*history.Turn{}
	}
	writeJSON(w, http.StatusOK, turns)
}

func (s *Server) handleThreadEvents(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}
	id := chi.URLParam(r, "id")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Set SSE headers.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	// Subscribe before replaying so nothing recorded in between is lost;
	// lastID drops the overlap.
	bus := s.deps.History.Bus
	ch := bus.Subscribe(id)
	defer bus.Unsubscribe(id, ch)

	lastID := lastEventID(r)
	events, err := s.deps.History.Store.ListEvents(id, lastID)
	if err != nil {
		log.Warn().Err(err).Str("thread", id).Msg("replaying events")
	}
	for _, e := range events {
		writeSSE(w, e)
		lastID = e.ID
	}
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if event.ID != 0 && event.ID <= lastID {
				continue
			}
			writeSSE(w, event)
			flusher.Flush()
		}
	}
}

// --- Helpers ---

// lastEventID reads the resume point from the Last-Event-ID header or the
// "after" query parameter.
func lastEventID(r *http.Request) int64 {
	v := r.Header.Get("Last-Event-ID")
	if v == "" {
		v = r.URL.Query().Get("after")
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// requestError maps err to a RequestError, logging unexpected ones.
func requestError(err error, fallback string) *analysis.RequestError {
	if re, ok := analysis.AsRequestError(err); ok {
		return re
	}
	log.Error().Err(err).Msg(fallback)
	return &analysis.RequestError{Status: http.StatusInternalServerError, Message: fallback, Err: err}
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeSSE(w http.ResponseWriter, event *history.Event) {
	data, _ := json.Marshal(event)
	fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", event.ID, event.Type, string(data))
}
