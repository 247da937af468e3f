// Package apitest is an in-memory implementation of the forum REST API. It
// backs the client tests and the local development stub.
package apitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/itchan-dev/discussion/shared/config"
	"github.com/itchan-dev/discussion/shared/csrf"
	"github.com/itchan-dev/discussion/shared/domain"
	"github.com/itchan-dev/discussion/shared/jwt"
	"github.com/itchan-dev/discussion/shared/metrics"
	mw "github.com/itchan-dev/discussion/shared/middleware"
)

const (
	APIPrefix   = "/api"
	MediaPrefix = "/media/"
)

type Options struct {
	CSRFToken        string
	JwtKey           string
	SessionTTL       time.Duration
	MaxImageBytes    int64
	AllowedMimeTypes []string
	AllowedOrigins   []string
	// Envelope wraps the thread list in {"results": [...]} instead of a bare array.
	Envelope bool
	Now      func() time.Time
}

func (o *Options) applyDefaults() {
	if o.CSRFToken == "" {
		o.CSRFToken = "test-csrf-token"
	}
	if o.JwtKey == "" {
		o.JwtKey = "test-jwt-key"
	}
	if o.SessionTTL == 0 {
		o.SessionTTL = 24 * time.Hour
	}
	if o.MaxImageBytes == 0 {
		o.MaxImageBytes = config.DefaultMaxUploadBytes
	}
	if len(o.AllowedMimeTypes) == 0 {
		o.AllowedMimeTypes = config.DefaultAllowedImageMimeTypes
	}
}

// Call is one request as seen by the server.
type Call struct {
	Method string
	Path   string
}

func (c Call) String() string { return c.Method + " " + c.Path }

type Server struct {
	opts    Options
	store   *Store
	jwt     jwt.JwtService
	handler http.Handler

	mu    sync.Mutex
	calls []Call
}

func New(opts Options) *Server {
	opts.applyDefaults()
	s := &Server{
		opts:  opts,
		store: NewStore(opts.Now),
		jwt:   jwt.New(opts.JwtKey, opts.SessionTTL),
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	h := &Handler{store: s.store, opts: s.opts}
	auth := mw.NewAuth(s.jwt)

	r := chi.NewRouter()
	r.Use(s.record)
	r.Use(metrics.Middleware)
	if len(s.opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", csrf.HeaderName, "X-Request-ID", "Authorization"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get(MediaPrefix+"{name}", h.GetMedia)

	r.Route(APIPrefix, func(r chi.Router) {
		r.Use(auth.OptionalAuth())

		// Reads are public
		r.Get("/threads/", h.ListThreads)
		r.Get("/threads/{id}/", h.GetThread)
		r.Get("/threads/{id}/replies/", h.ListReplies)

		r.Group(func(r chi.Router) {
			r.Use(mw.ValidateCSRFHeader(s.opts.CSRFToken))
			r.Use(auth.NeedAuth())

			r.Post("/threads/", h.CreateThread)
			r.Patch("/threads/{id}/", h.UpdateThread)
			r.Delete("/threads/{id}/", h.DeleteThread)
			r.Post("/threads/{id}/like/", h.LikeThread)
			r.Post("/threads/{id}/replies/", h.CreateReply)

			r.Patch("/replies/{id}/", h.UpdateReply)
			r.Delete("/replies/{id}/", h.DeleteReply)
			r.Post("/replies/{id}/like/", h.LikeReply)
		})
	})
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) Store() *Store { return s.store }

func (s *Server) CSRFToken() string { return s.opts.CSRFToken }

// SessionFor issues a session token naming viewer.
func (s *Server) SessionFor(viewer domain.Viewer) string {
	token, err := s.jwt.NewToken(viewer)
	if err != nil {
		panic(fmt.Sprintf("apitest: cannot sign session: %v", err))
	}
	return token
}

// Calls returns every request received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount counts requests with the given method whose path starts with prefix.
func (s *Server) CallCount(method, prefix string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Method == method && strings.HasPrefix(c.Path, prefix) {
			n++
		}
	}
	return n
}

func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// TestServer is a Server listening on a local port.
type TestServer struct {
	*Server
	HTTP       *httptest.Server
	ThreadsURL string
	RepliesURL string
}

// Start runs a fake forum API for the duration of the test.
func Start(t testing.TB, opts Options) *TestServer {
	t.Helper()
	s := New(opts)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return &TestServer{
		Server:     s,
		HTTP:       ts,
		ThreadsURL: ts.URL + APIPrefix + "/threads/",
		RepliesURL: ts.URL + APIPrefix + "/replies/",
	}
}
