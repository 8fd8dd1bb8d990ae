package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"branchvid/internal/auth"
	"branchvid/internal/domain"
	"branchvid/internal/httputil"
)

// ProfileSyncer stores the display identity carried by a token.
type ProfileSyncer interface {
	SyncProfile(ctx context.Context, userID, name, picture string) error
}

// Authenticate verifies the bearer token when one is sent and puts the user
// id into the request context. Requests without a token pass through as
// anonymous; a token that fails verification is rejected with 401.
//
// profiles may be nil. When set, name and picture are stored the first time
// they are seen for a user, and again whenever they change.
func Authenticate(verifier auth.JWTVerifier, profiles ProfileSyncer, logger *slog.Logger) func(http.Handler) http.Handler {
	var synced sync.Map // user id -> name + "\x00" + picture

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(header)
			if !ok {
				httputil.RespondError(w, http.StatusUnauthorized, "malformed Authorization header")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				if !errors.Is(err, domain.ErrUnauthorized) {
					logger.Error("token verification failed", "error", err, "path", r.URL.Path)
				}
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			userID := claims.GetUserID()
			if profiles != nil && claims.Name != "" {
				identity := claims.Name + "\x00" + claims.Picture
				if seen, ok := synced.Load(userID); !ok || seen != identity {
					if err := profiles.SyncProfile(r.Context(), userID, claims.Name, claims.Picture); err != nil {
						logger.Warn("profile sync failed", "user_id", userID, "error", err)
					} else {
						synced.Store(userID, identity)
					}
				}
			}

			next.ServeHTTP(w, httputil.WithUserID(r, userID))
		})
	}
}

// RequireUser rejects anonymous requests. It must run after Authenticate.
func RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if httputil.GetUserID(r) == "" {
			httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next(w, r)
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
