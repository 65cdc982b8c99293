package auth

import (
	"net/http"
	"strings"

	"gorm.io/gorm"

	"prepvault/internal/models"
)

// JWTAuth verifies the bearer token and attaches the resolved user to the
// request context. The role on the context is always the stored one, not
// whatever the token was issued with.
func JWTAuth(db *gorm.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			raw := strings.TrimPrefix(h, "Bearer ")
			sub, err := Verify(raw)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			var u models.User
			if err := db.First(&u, "id = ?", sub).Error; err != nil {
				http.Error(w, "user not found", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), &u)))
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := CurrentUser(r.Context())
		if u == nil || !u.IsAdmin() {
			http.Error(w, "admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireSuperadmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := CurrentUser(r.Context())
		if u == nil || u.Role != models.RoleSuperadmin {
			http.Error(w, "superadmin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
