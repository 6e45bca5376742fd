// Package server exposes the agent and the knowledge base over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"upcagent/internal/llm"
	"upcagent/internal/rag"
	"upcagent/internal/tools"
)

// DefaultStreamDelay paces the simulated word stream. Zero disables
// pacing, which tests rely on.
const DefaultStreamDelay = 50 * time.Millisecond

// Conversationalist answers one user message within a session.
type Conversationalist interface {
	Invoke(ctx context.Context, userText, sessionID string) (string, error)
}

// Retriever answers a question grounded on the corpus.
type Retriever interface {
	Query(ctx context.Context, question string) (rag.Answer, error)
}

// Server routes HTTP requests to the agent and the retrieval pipeline.
type Server struct {
	agent       Conversationalist
	kb          Retriever
	registry    *tools.Registry
	logger      *zap.Logger
	streamDelay time.Duration
	mux         *http.ServeMux
}

func New(agent Conversationalist, kb Retriever, registry *tools.Registry, logger *zap.Logger) *Server {
	s := &Server{
		agent:       agent,
		kb:          kb,
		registry:    registry,
		logger:      logger,
		streamDelay: DefaultStreamDelay,
		mux:         http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /api/agent/chat", s.handleChat)
	s.mux.HandleFunc("POST /api/agent/chat/stream", s.handleChatStream)
	s.mux.HandleFunc("POST /api/rag/query", s.handleRAGQuery)
	s.mux.HandleFunc("GET /api/agent/capabilities", s.handleCapabilities)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.mux.ServeHTTP(w, r)
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

type ragRequest struct {
	Question string `json:"question"`
}

type ragResponse struct {
	Response string       `json:"response"`
	Context  []rag.Scored `json:"context"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChat(w, r)
	if !ok {
		return
	}

	answer, err := s.agent.Invoke(r.Context(), req.Message, req.SessionID)
	if err != nil {
		s.replyAgentError(w, req.SessionID, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Response: answer, SessionID: req.SessionID})
}

// handleChatStream runs the agent to completion, then re-chunks the
// answer word by word so clients can render incrementally.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChat(w, r)
	if !ok {
		return
	}

	answer, err := s.agent.Invoke(r.Context(), req.Message, req.SessionID)
	if err != nil {
		s.replyAgentError(w, req.SessionID, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Session-ID", req.SessionID)
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	for i, word := range strings.Fields(answer) {
		if i > 0 {
			w.Write([]byte(" "))
		}
		w.Write([]byte(word))
		if flusher != nil {
			flusher.Flush()
		}
		if s.streamDelay > 0 {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(s.streamDelay):
			}
		}
	}
}

func (s *Server) handleRAGQuery(w http.ResponseWriter, r *http.Request) {
	var req ragRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question must not be empty")
		return
	}

	answer, err := s.kb.Query(r.Context(), req.Question)
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			writeError(w, http.StatusServiceUnavailable, "language model is not configured")
			return
		}
		s.logger.Error("knowledge base query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "knowledge base query failed")
		return
	}

	chunks := answer.Chunks
	if chunks == nil {
		chunks = []rag.Scored{}
	}
	writeJSON(w, http.StatusOK, ragResponse{Response: answer.Response, Context: chunks})
}

func (s *Server) handleCapabilities(w http.ResponseWriter, _ *http.Request) {
	type capability struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	caps := s.registry.Capabilities()
	out := make([]capability, len(caps))
	for i, c := range caps {
		out[i] = capability{Name: c.Name, Description: c.Description}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": out})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeChat validates a chat request and mints a session id when the
// client did not supply one.
func decodeChat(w http.ResponseWriter, r *http.Request) (chatRequest, bool) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message must not be empty")
		return req, false
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	return req, true
}

// replyAgentError maps an Invoke failure to a status the client can act
// on: missing credentials are the operator's problem, everything else is
// a transient upstream failure.
func (s *Server) replyAgentError(w http.ResponseWriter, sessionID string, err error) {
	if errors.Is(err, llm.ErrNotConfigured) {
		writeError(w, http.StatusServiceUnavailable, "language model is not configured")
		return
	}
	s.logger.Error("agent invocation failed",
		zap.String("session", sessionID),
		zap.Error(err))
	writeError(w, http.StatusBadGateway, "the assistant could not process the request")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
