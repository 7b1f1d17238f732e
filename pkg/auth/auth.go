// Package auth resolves the user a goal API request acts for.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/focusnest/goal-service/pkg/apierror"
)

// Mode selects how bearer tokens are turned into a Principal.
type Mode string

const (
	// ModeClerk verifies Clerk session JWTs against the instance JWKS.
	ModeClerk Mode = "clerk"
	// ModeNoop takes the bearer token itself as the user id. Local runs and tests only.
	ModeNoop Mode = "noop"
)

// Config holds the AUTH_MODE and CLERK_* settings.
type Config struct {
	Mode     Mode
	JWKSURL  string
	Audience string
	Issuer   string
}

// Principal is the caller of a request. Goals, habits and achievement stats
// are all stored under its UserID.
type Principal struct {
	UserID    string
	SessionID string
	ExpiresAt int64
}

// Verifier turns a bearer token into a Principal.
type Verifier interface {
	Verify(ctx context.Context, token string) (Principal, error)
}

// UserIDHeader is how handlers read the verified user id. Client-supplied
// values are discarded before the request reaches them.
const UserIDHeader = "X-User-ID"

var (
	errMissingAuthHeader = errors.New("authorization header missing")
	errInvalidAuthHeader = errors.New("authorization header is malformed")
	errNoVerifier        = errors.New("authentication is not configured")
	errEmptyPrincipal    = errors.New("token does not identify a user")
)

type principalKey struct{}

// Middleware rejects requests without a valid bearer token and publishes the
// verified user id in UserIDHeader and the request context.
func Middleware(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Header.Del(UserIDHeader)

			principal, err := authenticate(r, verifier)
			if err != nil {
				reject(w, r, err)
				return
			}

			r.Header.Set(UserIDHeader, principal.UserID)
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func authenticate(r *http.Request, verifier Verifier) (Principal, error) {
	if verifier == nil {
		return Principal{}, errNoVerifier
	}
	token, err := bearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return Principal{}, err
	}
	principal, err := verifier.Verify(r.Context(), token)
	if err != nil {
		return Principal{}, err
	}
	if strings.TrimSpace(principal.UserID) == "" {
		return Principal{}, errEmptyPrincipal
	}
	return principal, nil
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingAuthHeader
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", errInvalidAuthHeader
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errInvalidAuthHeader
	}
	return token, nil
}

func reject(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(apierror.ErrorResponse{
		Code:      apierror.CodeUnauthorized,
		Message:   err.Error(),
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by Middleware.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// NewVerifier builds the verifier for cfg.Mode.
func NewVerifier(cfg Config) (Verifier, error) {
	switch cfg.Mode {
	case ModeClerk:
		return newClerkVerifier(cfg)
	case ModeNoop:
		return noopVerifier{}, nil
	default:
		return nil, fmt.Errorf("unsupported auth mode: %s", cfg.Mode)
	}
}
