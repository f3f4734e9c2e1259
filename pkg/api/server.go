// Package api exposes the offer store and search engine over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/unijobs/unijobs/pkg/log"
	"github.com/unijobs/unijobs/pkg/realtime"
	"github.com/unijobs/unijobs/pkg/search"
	"github.com/unijobs/unijobs/pkg/storage"
)

var logger = log.ForComponent("api")

type Server struct {
	store    *storage.Store
	searcher *search.Service
	hub      *realtime.Hub

	// adminKey authorizes privileged requests via the X-Admin-Key header.
	// Empty disables admin access entirely. Guarded by mu so config reloads
	// can rotate it while serving.
	mu       sync.RWMutex
	adminKey string
}

func NewServer(store *storage.Store, searcher *search.Service, hub *realtime.Hub, adminKey string) *Server {
	return &Server{
		store:    store,
		searcher: searcher,
		hub:      hub,
		adminKey: adminKey,
	}
}

// SetAdminKey replaces the admin key. Used on config reload.
func (s *Server) SetAdminKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adminKey = key
}

// isAdmin reports whether the request carries the configured admin key.
func (s *Server) isAdmin(r *http.Request) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.adminKey != "" && r.Header.Get("X-Admin-Key") == s.adminKey
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	response := ErrorResponse{
		Error:   error,
		Message: message,
	}
	s.writeJSON(w, status, response)
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Admin-Key")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
