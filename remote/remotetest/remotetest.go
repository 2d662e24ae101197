// Package remotetest runs a fake course marketplace API for tests.
package remotetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/irsalhamdi/course-cache/remote"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

const Token = "test-token"

type Server struct {
	*httptest.Server
	Tokens *remote.Tokens

	router   *mux.Router
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	hits     map[string]int
	auth     map[string]string
}

// New starts a server with no routes. Unregistered routes answer 404. The
// server is closed when the test ends.
func New(t *testing.T) *Server {
	s := &Server{
		Tokens:   &remote.Tokens{},
		router:   mux.NewRouter(),
		handlers: make(map[string]http.HandlerFunc),
		hits:     make(map[string]int),
		auth:     make(map[string]string),
	}
	s.Tokens.Set(Token)
	s.Server = httptest.NewServer(s.router)
	t.Cleanup(s.Close)
	return s
}

// Handle registers h for method and path (a gorilla/mux template). Calling
// it again for the same route replaces the handler.
func (s *Server) Handle(method, path string, h http.HandlerFunc) {
	key := method + " " + path

	s.mu.Lock()
	_, seen := s.handlers[key]
	s.handlers[key] = h
	s.mu.Unlock()

	if seen {
		return
	}

	s.router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[key]++
		s.auth[key] = r.Header.Get("Authorization")
		h := s.handlers[key]
		s.mu.Unlock()
		h(w, r)
	}).Methods(method)
}

// JSON registers a route answering with a fixed status and body.
func (s *Server) JSON(method, path string, status int, body any) {
	s.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		Respond(w, status, body)
	})
}

// Hits counts the requests served for a route.
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

// Authorization is the Authorization header of the last request on a route.
func (s *Server) Authorization(method, path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auth[method+" "+path]
}

func (s *Server) Client() *remote.Client {
	log, _ := logtest.NewNullLogger()
	return remote.New(s.URL, s.Tokens, 5*time.Second, log)
}

func Respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// M is shorthand for JSON object literals in tests.
type M = map[string]any
