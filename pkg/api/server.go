package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hobnob-dev/hobnob/pkg/store"
)

// PersonStore is the storage dependency of the API server. *store.Store
// satisfies it; tests may substitute fakes.
type PersonStore interface {
	ListPersons(ctx context.Context) ([]store.Person, error)
	GetPerson(ctx context.Context, id string) (store.Person, error)
	CreatePerson(ctx context.Context, fields store.PersonFields) (store.Person, error)
	UpdatePerson(ctx context.Context, id string, fields store.PersonFields) (store.Person, error)
	DeletePerson(ctx context.Context, id string) error
	Link(ctx context.Context, id, friendID string) error
	Unlink(ctx context.Context, id, friendID string) error
	GraphData(ctx context.Context) (store.GraphData, error)
}

// Server encapsulates the HTTP API server.
type Server struct {
	store  PersonStore
	server *http.Server
}

// NewServer creates a new API server instance.
func NewServer(st PersonStore, addr string) *Server {
	s := &Server{store: st}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	// The literal /graph route wins over the {id} wildcard by specificity.
	mux.HandleFunc("GET /api/users", s.handleList)
	mux.HandleFunc("POST /api/users", s.handleCreate)
	mux.HandleFunc("GET /api/users/graph", s.handleGraph)
	mux.HandleFunc("GET /api/users/{id}", s.handleGet)
	mux.HandleFunc("PUT /api/users/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /api/users/{id}", s.handleDelete)
	mux.HandleFunc("POST /api/users/{id}/link", s.handleLink)
	mux.HandleFunc("DELETE /api/users/{id}/unlink", s.handleUnlink)

	handler := withLogging(withRecovery(mux))

	if addr == "" {
		addr = ":8080"
	}
	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
	return s
}

// Handler exposes the configured handler chain, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start runs the HTTP server (blocking).
func (s *Server) Start() error {
	fmt.Printf(`{"level":"info","msg":"server_starting","addr":"%s"}`+"\n", s.server.Addr)
	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	fmt.Println(`{"level":"info","msg":"server_stopping"}`)
	return s.server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	persons, err := s.store.ListPersons(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if persons == nil {
		persons = []store.Person{}
	}
	writeJSON(w, http.StatusOK, persons)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	person, err := s.store.GetPerson(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, person)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}
	person, err := s.store.CreatePerson(r.Context(), fields)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, person)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}
	person, err := s.store.UpdatePerson(r.Context(), r.PathValue("id"), fields)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, person)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeletePerson(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	friendID := r.URL.Query().Get("friendId")
	if friendID == "" {
		http.Error(w, "Required parameter 'friendId' is missing", http.StatusBadRequest)
		return
	}
	if err := s.store.Link(r.Context(), r.PathValue("id"), friendID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnlink(w http.ResponseWriter, r *http.Request) {
	friendID := r.URL.Query().Get("friendId")
	if friendID == "" {
		http.Error(w, "Required parameter 'friendId' is missing", http.StatusBadRequest)
		return
	}
	if err := s.store.Unlink(r.Context(), r.PathValue("id"), friendID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.GraphData(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// decodeFields parses and validates a create/update body. A false return
// means the response has already been written.
func decodeFields(w http.ResponseWriter, r *http.Request) (store.PersonFields, bool) {
	var fields store.PersonFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		http.Error(w, "Invalid or missing request body", http.StatusBadRequest)
		return fields, false
	}
	fields.Username = strings.TrimSpace(fields.Username)
	if len(fields.Username) < 3 {
		http.Error(w, "username: must be at least 3 characters", http.StatusBadRequest)
		return fields, false
	}
	if fields.Age < 1 {
		http.Error(w, "age: must be at least 1", http.StatusBadRequest)
		return fields, false
	}
	return fields, true
}

// writeError maps store sentinels onto status codes. Bodies stay plain text.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, store.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "Internal Server Error: "+err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
