package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/opsdesk/attendance-backend-go/internal/domain/user"
	"github.com/opsdesk/attendance-backend-go/internal/handler/http/response"
)

// RequireAccessLevel restricts a route to callers whose access_level
// claim is one of the given levels.
func RequireAccessLevel(levels ...user.AccessLevel) func(http.Handler) http.Handler {
	allowed := make(map[user.AccessLevel]struct{}, len(levels))
	for _, level := range levels {
		allowed[level] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.Forbidden(w, "Insufficient access level")
				return
			}

			levelStr, ok := claims["access_level"].(string)
			if !ok {
				response.Forbidden(w, "Insufficient access level")
				return
			}

			if _, ok := allowed[user.AccessLevel(levelStr)]; !ok {
				response.Forbidden(w, "Insufficient access level")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ManagementOnly allows owners, admins and HR.
func ManagementOnly(next http.Handler) http.Handler {
	return RequireAccessLevel(user.AccessOwner, user.AccessAdmin, user.AccessHR)(next)
}
