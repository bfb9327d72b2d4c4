package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/tradeflow-backend/api/responses"
	pkgAuth "github.com/angelmondragon/tradeflow-backend/pkg/auth"
	"github.com/angelmondragon/tradeflow-backend/pkg/config"
	"github.com/angelmondragon/tradeflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradeflow-backend/pkg/errors"
	"github.com/angelmondragon/tradeflow-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the caller.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithIdentity(r.Context(), claims.UserID, claims.UserType)
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID.String())
				ctx = logg.WithUserType(ctx, string(claims.UserType))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUserType rejects callers of the other marketplace side.
func RequireUserType(userType enums.UserType, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := UserTypeFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			if got != userType {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, string(userType)+" account required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
