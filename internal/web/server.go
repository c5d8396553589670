// Package web serves the assistant over HTTP: a websocket chat endpoint
// plus a small JSON API for history, memories and search.
package web

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fennec-ai/fennec/pkg/assistant"
)

// Server exposes the assistant over HTTP.
type Server struct {
	bot *assistant.Assistant
	mux *http.ServeMux

	upgrader websocket.Upgrader
}

// NewServer creates a web server around an assistant.
func NewServer(bot *assistant.Assistant) *Server {
	s := &Server{
		bot: bot,
		mux: http.NewServeMux(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The chat UI may be served from anywhere.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/conversations", s.handleConversations)
	s.mux.HandleFunc("/api/memory", s.handleMemory)
	s.mux.HandleFunc("/api/search", s.handleSearch)
	s.mux.HandleFunc("/api/web-search", s.handleWebSearch)

	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe runs the server until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

// inbound is a client chat message.
type inbound struct {
	Message string `json:"message"`
}

// outbound is a server event: "typing", "message" or "error".
type outbound struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Sender  string `json:"sender,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Each socket gets its own conversation.
	if _, err := s.bot.Sessions.StartNewSession(r.Context()); err != nil {
		log.Printf("failed to start session: %v", err)
		return
	}

	for {
		var in inbound
		if err := conn.ReadJSON(&in); err != nil {
			return
		}
		if in.Message == "" {
			continue
		}

		_ = conn.WriteJSON(outbound{Type: "typing", Message: "در حال تایپ..."})

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		reply, err := s.bot.Respond(ctx, in.Message)
		cancel()
		if err != nil {
			_ = conn.WriteJSON(outbound{Type: "error", Message: "خطا: " + err.Error()})
			continue
		}

		if err := conn.WriteJSON(outbound{Type: "message", Message: reply, Sender: "assistant"}); err != nil {
			return
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
	})
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := s.bot.Sessions.Conversations(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"conversations": conversations,
	})
}

func (s *Server) handleMemory(w http.ResponseWriter, r *http.Request) {
	memories, err := s.bot.Memories(r.Context(), r.URL.Query().Get("category"), 0)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"memories": memories,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "missing query parameter q", http.StatusBadRequest)
		return
	}

	results, err := s.bot.Sessions.SearchHistory(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
	})
}

func (s *Server) handleWebSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "missing query parameter q", http.StatusBadRequest)
		return
	}

	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	results, err := s.bot.SearchWeb(r.Context(), query, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"detail": err.Error(),
	})
}
