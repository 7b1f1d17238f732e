package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	errMissingSubject = errors.New("token missing subject claim")
	errMissingKeyID   = errors.New("token missing kid header")
)

const (
	jwksFetchTimeout = 5 * time.Second
	jwksCacheTTL     = 10 * time.Minute
)

// clerkVerifier validates Clerk-issued JWTs against a cached JWKS document.
type clerkVerifier struct {
	jwksURL  string
	audience string
	issuer   string
	client   *http.Client
	cacheTTL time.Duration

	mu         sync.RWMutex
	keys       map[string]*rsa.PublicKey
	lastLoaded time.Time
}

func newClerkVerifier(cfg Config) (Verifier, error) {
	if cfg.JWKSURL == "" {
		return nil, fmt.Errorf("clerk JWKS URL is required")
	}

	return &clerkVerifier{
		jwksURL:  cfg.JWKSURL,
		audience: cfg.Audience,
		issuer:   cfg.Issuer,
		client:   &http.Client{Timeout: jwksFetchTimeout},
		cacheTTL: jwksCacheTTL,
		keys:     make(map[string]*rsa.PublicKey),
	}, nil
}

func (v *clerkVerifier) Verify(ctx context.Context, token string) (Principal, error) {
	options := []jwt.ParserOption{
		jwt.WithLeeway(5 * time.Second),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
	}
	if v.audience != "" {
		options = append(options, jwt.WithAudience(v.audience))
	}
	if v.issuer != "" {
		options = append(options, jwt.WithIssuer(v.issuer))
	}

	t, err := jwt.Parse(token, v.keyFunc(ctx), options...)
	if err != nil {
		return Principal{}, fmt.Errorf("token verification failed: %w", err)
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, errors.New("unexpected claims type")
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return Principal{}, errMissingSubject
	}

	sessionID, _ := claims["sid"].(string)

	var expiresAt int64
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Unix()
	}

	return Principal{
		UserID:    subject,
		SessionID: sessionID,
		ExpiresAt: expiresAt,
	}, nil
}

func (v *clerkVerifier) keyFunc(ctx context.Context) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errMissingKeyID
		}

		if key, ok := v.lookupKey(kid); ok {
			return key, nil
		}

		if err := v.refreshKeys(ctx); err != nil {
			return nil, err
		}

		if key, ok := v.lookupKey(kid); ok {
			return key, nil
		}

		return nil, fmt.Errorf("jwks key %s not found", kid)
	}
}

func (v *clerkVerifier) lookupKey(kid string) (*rsa.PublicKey, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	key, ok := v.keys[kid]
	return key, ok
}

func (v *clerkVerifier) fresh() bool {
	return time.Since(v.lastLoaded) < v.cacheTTL && len(v.keys) > 0
}

func (v *clerkVerifier) refreshKeys(ctx context.Context) error {
	v.mu.RLock()
	fresh := v.fresh()
	v.mu.RUnlock()
	if fresh {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.fresh() {
		return nil
	}

	keys, err := fetchJWKS(ctx, v.client, v.jwksURL)
	if err != nil {
		return err
	}

	v.keys = keys
	v.lastLoaded = time.Now()
	return nil
}

func fetchJWKS(ctx context.Context, client *http.Client, url string) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create jwks request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch jwks: unexpected status %d", resp.StatusCode)
	}

	var document jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&document); err != nil {
		return nil, fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(document.Keys))
	for _, key := range document.Keys {
		if key.Kty != "RSA" {
			continue
		}
		pub, err := key.rsaPublicKey()
		if err != nil {
			return nil, fmt.Errorf("parse jwks key %s: %w", key.Kid, err)
		}
		keys[key.Kid] = pub
	}

	if len(keys) == 0 {
		return nil, errors.New("jwks contained no supported keys")
	}
	return keys, nil
}

type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (j jwk) rsaPublicKey() (*rsa.PublicKey, error) {
	if j.N == "" || j.E == "" {
		return nil, errors.New("missing modulus or exponent")
	}

	nBytes, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, fmt.Errorf("invalid modulus: %w", err)
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, fmt.Errorf("invalid exponent: %w", err)
	}

	e := new(big.Int).SetBytes(eBytes)
	if !e.IsInt64() || e.Int64() == 0 {
		return nil, errors.New("invalid exponent value")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(e.Int64()),
	}, nil
}
