package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/itchan-dev/discussion/frontend/internal/apitest"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter exposes the development forum API next to its metrics and a
// liveness probe.
func SetupRouter(stub *apitest.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// the stub routes full paths, so it must not inherit this router's match state
	api := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		stub.ServeHTTP(w, req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, nil)))
	})
	r.Handle(apitest.APIPrefix+"/*", api)
	r.Handle(apitest.MediaPrefix+"*", api)
	return r
}
