package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusnest/goal-service/pkg/apierror"
)

func TestMiddleware_NoopModeUsesBearerAsUserID(t *testing.T) {
	verifier, err := NewVerifier(Config{Mode: ModeNoop})
	require.NoError(t, err)

	var seen Principal
	var header string
	h := Middleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = PrincipalFromContext(r.Context())
		header = r.Header.Get("X-User-ID")
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer user-42")
	req.Header.Set("X-User-ID", "spoofed")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "user-42", seen.UserID)
	assert.Equal(t, "user-42", header)
}

func TestMiddleware_RejectsMissingOrMalformedHeader(t *testing.T) {
	verifier, err := NewVerifier(Config{Mode: ModeNoop})
	require.NoError(t, err)

	h := Middleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	for _, value := range []string{"", "Basic abc", "Bearer   "} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if value != "" {
			req.Header.Set("Authorization", value)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", value)

		var body apierror.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, apierror.CodeUnauthorized, body.Code)
	}
}

func TestMiddleware_DropsClientUserIDHeader(t *testing.T) {
	called := false
	h := Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(UserIDHeader, "someone-else")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, req.Header.Get(UserIDHeader))
}

func TestNewVerifier_UnsupportedMode(t *testing.T) {
	_, err := NewVerifier(Config{Mode: "magic"})
	assert.Error(t, err)

	_, err = NewVerifier(Config{Mode: ModeClerk})
	assert.Error(t, err, "clerk mode requires a JWKS URL")
}

func TestClerkVerifier_VerifiesSignedToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	jwks := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(jwksDocument{Keys: []jwk{{
			Kid: "kid-1",
			Kty: "RSA",
			Use: "sig",
			N:   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}}})
	}))
	defer jwks.Close()

	verifier, err := NewVerifier(Config{Mode: ModeClerk, JWKSURL: jwks.URL, Issuer: "https://clerk.test"})
	require.NoError(t, err)

	exp := time.Now().Add(time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub": "user_abc",
		"sid": "sess_1",
		"iss": "https://clerk.test",
		"exp": exp.Unix(),
	})
	token.Header["kid"] = "kid-1"
	signed, err := token.SignedString(key)
	require.NoError(t, err)

	user, err := verifier.Verify(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, "user_abc", user.UserID)
	assert.Equal(t, "sess_1", user.SessionID)
	assert.Equal(t, exp.Unix(), user.ExpiresAt)

	wrongIssuer := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub": "user_abc",
		"iss": "https://evil.test",
		"exp": exp.Unix(),
	})
	wrongIssuer.Header["kid"] = "kid-1"
	signed, err = wrongIssuer.SignedString(key)
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), signed)
	assert.Error(t, err)
}
