package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"distcache/internal/replication"
	"distcache/internal/store"
)

// Backend is the coordinator surface the server dispatches into. The
// public /cache endpoints go through Get/Put/Delete (owner routing and
// replication); the /internal endpoints are replica-side and apply
// locally via the Handle methods.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	HandlePut(ctx context.Context, req replication.PutRequest) error
	HandleGet(ctx context.Context, key string) (string, error)
	HandleDelete(ctx context.Context, key string) error
}

// Server exposes a Backend over HTTP.
type Server struct {
	nodeID  string
	backend Backend
	mux     *http.ServeMux
}

// NewServer builds the HTTP handler set. metricsHandler may be nil, in
// which case /metrics is not registered.
func NewServer(nodeID string, backend Backend, metricsHandler http.Handler) *Server {
	s := &Server{nodeID: nodeID, backend: backend, mux: http.NewServeMux()}

	s.mux.HandleFunc("POST /internal/put", s.internalPut)
	s.mux.HandleFunc("GET /internal/get", s.internalGet)
	s.mux.HandleFunc("DELETE /internal/delete", s.internalDelete)

	s.mux.HandleFunc("PUT /cache/{key}", s.cachePut)
	s.mux.HandleFunc("GET /cache/{key}", s.cacheGet)
	s.mux.HandleFunc("DELETE /cache/{key}", s.cacheDelete)

	if metricsHandler != nil {
		s.mux.Handle("GET /metrics", metricsHandler)
	}
	return s
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler { return s.mux }

type getResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) internalPut(w http.ResponseWriter, r *http.Request) {
	var req replication.PutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Key == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("missing key"))
		return
	}
	if err := s.backend.HandlePut(r.Context(), req); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) internalGet(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("missing key"))
		return
	}
	value, err := s.backend.HandleGet(r.Context(), key)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, getResponse{Key: key, Value: value})
}

func (s *Server) internalDelete(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("missing key"))
		return
	}
	if err := s.backend.HandleDelete(r.Context(), key); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) cachePut(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.backend.Put(r.Context(), key, string(body)); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) cacheGet(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	value, err := s.backend.Get(r.Context(), key)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, getResponse{Key: key, Value: value})
}

func (s *Server) cacheDelete(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if err := s.backend.Delete(r.Context(), key); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[%s] write response: %v", s.nodeID, err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status == http.StatusInternalServerError {
		log.Printf("[%s] request failed: %v", s.nodeID, err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
