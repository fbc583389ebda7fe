package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/redmonkez12/storefront-api/internal/account"
	"github.com/redmonkez12/storefront-api/internal/httputil"
	"github.com/redmonkez12/storefront-api/internal/logging"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const AccountContextKey ContextKey = "account"

// Middleware handles authentication for protected routes
type Middleware struct {
	tokenService TokenService
	store        account.Store
}

func NewMiddleware(tokenService TokenService, store account.Store) *Middleware {
	return &Middleware{tokenService: tokenService, store: store}
}

// RequireAuth validates the bearer token and loads the account it names
// into the request context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.RespondErrorWithCode(w, "No token, authorization denied", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			httputil.RespondErrorWithCode(w, "Token is not valid", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
			return
		}

		accountID, err := m.tokenService.VerifyToken(token)
		if err != nil {
			httputil.RespondErrorWithCode(w, "Token is not valid", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		acc, err := m.store.GetByID(r.Context(), accountID)
		if err != nil {
			if errors.Is(err, account.ErrNotFound) {
				httputil.RespondErrorWithCode(w, "Token is not valid", httputil.CodeInvalidToken, http.StatusUnauthorized)
				return
			}
			logger.Error("failed to load authenticated account", "user_id", accountID, "error", err.Error())
			httputil.RespondErrorWithCode(w, "Server error", httputil.CodeInternalError, http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), AccountContextKey, acc)
		ctx = logging.WithLogger(ctx, logger.WithFields(map[string]any{"user_id": acc.ID}))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AccountFromContext extracts the authenticated account from the request context
func AccountFromContext(ctx context.Context) (*account.Account, bool) {
	acc, ok := ctx.Value(AccountContextKey).(*account.Account)
	return acc, ok
}
