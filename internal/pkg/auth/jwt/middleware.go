package jwt

import (
	"context"
	"net/http"
	"strings"

	"videosdk/internal/pkg/logx"
)

type contextKey string

// ContextClaimsKey stores the verified *Claims in the request context.
const ContextClaimsKey contextKey = "session_claims"

// Verifier checks a raw token and returns its claims.
type Verifier interface {
	Verify(tokenString string) (*Claims, error)
}

// IdentityExtractorMiddleware verifies a bearer token when one is present and
// stores its claims in the request context. Missing or invalid tokens do not
// stop the request; handlers decide whether anonymous access is allowed.
func IdentityExtractorMiddleware(v Verifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := v.Verify(tokenString)
			if err != nil {
				logx.Warn("Rejected session token, treating request as anonymous", "error", err.Error())
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// bearerToken extracts "<token>" from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ContextClaimsKey, claims)
}

// ClaimsFromContext returns the verified claims of the request, or nil for anonymous callers.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(ContextClaimsKey).(*Claims)
	return claims
}
