package auth

import (
	"context"
	"net/http"
	"strings"

	dErrors "lexchain/pkg/domain-errors"
	"lexchain/pkg/requestcontext"
)

// BearerPassthrough copies the inbound bearer token into the request context.
// The token is not validated here; the ledger and rule engine own that decision.
// Requests without a bearer continue unauthenticated and fall back to the
// configured service token downstream.
func BearerPassthrough(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := extractBearer(r.Header.Get("Authorization")); token != "" {
			r = r.WithContext(requestcontext.WithBearer(r.Context(), token))
		}
		next.ServeHTTP(w, r)
	})
}

func extractBearer(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// TokenSource yields the bearer forwarded on every outbound backend call.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// ContextTokenSource prefers the caller's bearer and falls back to a static
// service token (LEXCHAIN_TOKEN).
type ContextTokenSource struct {
	Fallback string
}

func (s ContextTokenSource) Token(ctx context.Context) (string, error) {
	if token := requestcontext.Bearer(ctx); token != "" {
		return token, nil
	}
	if s.Fallback != "" {
		return s.Fallback, nil
	}
	return "", dErrors.New(dErrors.CodeUnauthorized, "no bearer token available")
}

// StaticTokenSource always returns the same token. Used by the CLI. An empty
// token fails locally instead of sending an empty bearer.
type StaticTokenSource string

func (s StaticTokenSource) Token(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "no bearer token configured")
	}
	return string(s), nil
}
