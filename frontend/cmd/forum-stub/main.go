package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/itchan-dev/discussion/frontend/internal/apitest"
	"github.com/itchan-dev/discussion/frontend/internal/router"
	"github.com/itchan-dev/discussion/shared/domain"
	"github.com/itchan-dev/discussion/shared/logger"
)

const (
	defaultPort     = "8081"
	readTimeout     = 5 * time.Second
	writeTimeout    = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

func main() {
	logger.Initialize(envOr("LOG_LEVEL", "info"), os.Getenv("LOG_JSON") == "true")

	stub := apitest.New(apitest.Options{
		CSRFToken:      os.Getenv("CSRF_TOKEN"),
		JwtKey:         os.Getenv("JWT_SECRET"),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		Envelope:       os.Getenv("LIST_ENVELOPE") == "true",
	})
	if os.Getenv("SEED") != "false" {
		seed(stub)
	}

	server := configureServer(router.SetupRouter(stub))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("shutdown failed", "error", err)
		}
	}()

	logger.Log.Info("forum stub started", "addr", server.Addr, "csrf_token", stub.CSRFToken())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// seed fills the store with a few threads and prints sessions for the demo users.
func seed(stub *apitest.Server) {
	store := stub.Store()
	welcome := store.AddThread("admin", "Welcome to the board", "Read the **rules** before posting.", "General", nil)
	store.AddThread("alice", "Why is the sky blue?", "Rayleigh scattering, but explain it simply.", "Science", nil)
	store.AddThread("bob", "Prime gaps", "Is there always a prime between n and 2n?", "Maths", nil)
	if _, err := store.AddReply(welcome.Id, "alice", "Thanks, will do.", nil); err != nil {
		logger.Log.Error("seed reply", "error", err)
	}

	for _, v := range []domain.Viewer{
		{Authenticated: true, Username: "alice"},
		{Authenticated: true, Username: "bob"},
		{Authenticated: true, Username: "admin", Privileged: true},
	} {
		logger.Log.Info("demo session", "user", v.Username, "session_token", stub.SessionFor(v))
	}
}

func configureServer(handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + envOr("PORT", defaultPort),
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
