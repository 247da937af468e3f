package middleware

import (
	"net/http"

	"github.com/itchan-dev/discussion/shared/csrf"
	"github.com/itchan-dev/discussion/shared/logger"
	"github.com/itchan-dev/discussion/shared/utils"
)

// ValidateCSRFHeader rejects unsafe requests whose token header does not match expected.
func ValidateCSRFHeader(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if csrf.IsSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			if !csrf.ValidateToken(expected, r.Header.Get(csrf.HeaderName)) {
				logger.Log.Warn("CSRF token validation failed", "method", r.Method, "path", r.URL.Path)
				utils.WriteDetail(w, "CSRF Failed: CSRF token missing or incorrect.", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
