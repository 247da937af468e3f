package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/itchan-dev/discussion/shared/domain"
	jwt_internal "github.com/itchan-dev/discussion/shared/jwt"
	"github.com/itchan-dev/discussion/shared/utils"
)

// SessionCookieName is the cookie holding the viewer's session token.
const SessionCookieName = "accessToken"

// Key to store the viewer in the request context
type key int

const ViewerKey key = 0

// Auth holds dependencies for authentication middleware
type Auth struct {
	jwtService jwt_internal.JwtService
}

// NewAuth creates a new Auth middleware instance
func NewAuth(jwtService jwt_internal.JwtService) *Auth {
	return &Auth{jwtService: jwtService}
}

// NeedAuth returns middleware that requires authentication
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer, err := a.extractViewer(r)
			if err == errNoToken {
				utils.WriteDetail(w, "Authentication required.", http.StatusUnauthorized)
				return
			}
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), ViewerKey, viewer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth returns middleware that populates the viewer if the token is valid, but doesn't require auth
func (a *Auth) OptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer, err := a.extractViewer(r)
			if err == nil {
				ctx := context.WithValue(r.Context(), ViewerKey, viewer)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractViewer reads the session token from the cookie or the Authorization header
func (a *Auth) extractViewer(r *http.Request) (domain.Viewer, error) {
	var tokenString string
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		tokenString = cookie.Value
	} else if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		tokenString = token
	}

	if tokenString == "" {
		return domain.Viewer{}, errNoToken
	}
	return a.jwtService.DecodeViewer(tokenString)
}

var errNoToken = errorString("no token")

type errorString string

func (e errorString) Error() string { return string(e) }

// GetViewerFromContext retrieves the viewer from the context; anonymous if absent.
func GetViewerFromContext(r *http.Request) domain.Viewer {
	viewer, ok := r.Context().Value(ViewerKey).(domain.Viewer)
	if !ok {
		return domain.Viewer{}
	}
	return viewer
}
