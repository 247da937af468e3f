package setup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/itchan-dev/discussion/frontend/internal/apiclient"
	"github.com/itchan-dev/discussion/frontend/internal/controller"
	"github.com/itchan-dev/discussion/frontend/internal/dom"
	"github.com/itchan-dev/discussion/frontend/internal/eventloop"
	"github.com/itchan-dev/discussion/frontend/internal/markdown"
	"github.com/itchan-dev/discussion/frontend/internal/page"
	"github.com/itchan-dev/discussion/frontend/internal/prefs"
	"github.com/itchan-dev/discussion/frontend/internal/render"
	"github.com/itchan-dev/discussion/frontend/internal/toast"
	"github.com/itchan-dev/discussion/frontend/internal/upload"
	"github.com/itchan-dev/discussion/shared/config"
	"github.com/itchan-dev/discussion/shared/domain"
	"github.com/itchan-dev/discussion/shared/jwt"
	"github.com/itchan-dev/discussion/shared/logger"
	"github.com/itchan-dev/discussion/shared/validation"
)

// Hooks are the host integrations the controller can use; all optional.
type Hooks struct {
	Browse         func(zone *upload.Zone)
	ScrollIntoView func(el *dom.Element)
	Now            func() time.Time
}

type Dependencies struct {
	Controller *controller.Controller
	Loop       *eventloop.Loop
	API        *apiclient.APIClient
	Likes      *prefs.Store
	Toasts     *toast.Notifier
	Viewer     domain.Viewer
	Public     config.Public

	closePrefs func() error
}

func SetupDependencies(ctx context.Context, cfg *config.Config, hooks Hooks) (*Dependencies, error) {
	logger.Initialize(cfg.Public.Log.Level, cfg.Public.Log.JSON)

	viewer, err := ResolveViewer(cfg)
	if err != nil {
		return nil, err
	}

	backend, closePrefs, err := OpenPrefs(ctx, cfg.Public.Prefs)
	if err != nil {
		return nil, fmt.Errorf("failed to open preference store: %w", err)
	}
	likes := prefs.Load(backend)

	apiClient := apiclient.New(cfg.Public.API.ThreadsURL, cfg.Public.API.RepliesURL, cfg.CSRFToken(), cfg.Public.API.Timeout)
	apiClient.SessionToken = cfg.SessionToken()

	now := hooks.Now
	if now == nil {
		now = time.Now
	}
	loop := eventloop.New()
	layout := page.New()
	toasts := toast.New(layout.Toasts, cfg.Public.ToastTTL, now)

	c := controller.New(controller.Deps{
		API:      apiClient,
		Likes:    likes,
		Loop:     loop,
		Layout:   layout,
		Renderer: render.New(markdown.New(), now),
		Toasts:   toasts,
		Viewer:   viewer,
		Upload: validation.ImageRules{
			AllowedMimeTypes: cfg.Public.Upload.AllowedMimeTypes,
			MaxBytes:         cfg.Public.Upload.MaxBytes,
		},
		Browse:         hooks.Browse,
		ScrollIntoView: hooks.ScrollIntoView,
	})

	logger.Log.Info("forum client ready",
		"threads_url", cfg.Public.API.ThreadsURL,
		"replies_url", cfg.Public.API.RepliesURL,
		"viewer", viewer.Username,
		"authenticated", viewer.Authenticated,
		"prefs", cfg.Public.Prefs.Backend)

	return &Dependencies{
		Controller: c,
		Loop:       loop,
		API:        apiClient,
		Likes:      likes,
		Toasts:     toasts,
		Viewer:     viewer,
		Public:     cfg.Public,
		closePrefs: closePrefs,
	}, nil
}

// Close releases the preference store.
func (d *Dependencies) Close() error {
	if d.closePrefs == nil {
		return nil
	}
	return d.closePrefs()
}

// ResolveViewer prefers the identity carried by the session token over the
// statically configured one.
func ResolveViewer(cfg *config.Config) (domain.Viewer, error) {
	if token := cfg.SessionToken(); token != "" {
		if cfg.JwtKey() == "" {
			return domain.Viewer{}, errors.New("jwt_key is required to read session_token")
		}
		viewer, err := jwt.New(cfg.JwtKey(), 0).DecodeViewer(token)
		if err != nil {
			return domain.Viewer{}, fmt.Errorf("invalid session_token: %w", err)
		}
		return viewer, nil
	}

	v := cfg.Public.Viewer
	return domain.Viewer{
		Authenticated: v.Authenticated,
		Username:      v.Identity,
		Privileged:    v.Authenticated && v.Privileged,
	}, nil
}

// OpenPrefs opens the configured liked-items backend and returns its closer.
func OpenPrefs(ctx context.Context, cfg config.Prefs) (prefs.Backend, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case "", "memory":
		return prefs.NewMemoryBackend(), noop, nil
	case "file":
		return prefs.NewFileBackend(cfg.Path), noop, nil
	case "sqlite":
		db, err := prefs.OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown prefs backend %q", cfg.Backend)
}
