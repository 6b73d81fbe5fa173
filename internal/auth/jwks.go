// Package auth validates bearer tokens issued by the identity provider,
// using its published JWKS to verify signatures and extract identity and
// role claims.
package auth

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/emposo/cvision/internal/types"
)

// jwksTTL is how long a fetched key set is trusted before refetching.
const jwksTTL = 24 * time.Hour

// ErrMissingConfig indicates tenant or client ID are not configured.
// Deployment error, reported as a server fault rather than a bad credential.
var ErrMissingConfig = errors.New("missing identity provider configuration")

// ErrInvalidToken covers every credential failure: bad signature, expired,
// wrong audience or issuer, unknown signing key.
var ErrInvalidToken = errors.New("invalid authentication credentials")

type jsonWebKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwksDocument struct {
	Keys []jsonWebKey `json:"keys"`
}

// Validator verifies bearer tokens against the tenant's JWKS. The key set is
// cached for jwksTTL; a stale cache is reused when a refresh fetch fails so
// an IdP outage does not immediately lock out all traffic.
type Validator struct {
	tenantID   string
	clientID   string
	jwksURL    string
	httpClient *http.Client
	logger     *zap.Logger

	mu        sync.Mutex
	cached    *jwksDocument
	fetchedAt time.Time
}

// NewValidator creates a Validator for the given tenant and client (audience).
func NewValidator(tenantID, clientID string, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		tenantID:   tenantID,
		clientID:   clientID,
		jwksURL:    fmt.Sprintf("https://login.microsoftonline.com/%s/discovery/v2.0/keys", tenantID),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// Validate verifies a bearer token and returns the identity it asserts.
func (v *Validator) Validate(tokenString string) (*types.UserInfo, error) {
	if v.tenantID == "" || v.clientID == "" {
		return nil, ErrMissingConfig
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
	)

	claims := jwt.MapClaims{}
	if _, err := parser.ParseWithClaims(tokenString, claims, v.keyForToken); err != nil {
		if errors.Is(err, ErrMissingConfig) || errors.Is(err, ErrJWKSUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if err := v.checkIssuerAndAudience(claims); err != nil {
		return nil, err
	}

	return userFromClaims(claims), nil
}

// ErrJWKSUnavailable distinguishes an unreachable key endpoint from a bad
// credential; the HTTP layer maps it to 503 instead of 401.
var ErrJWKSUnavailable = errors.New("could not fetch signing keys")

func (v *Validator) keyForToken(token *jwt.Token) (any, error) {
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, fmt.Errorf("token has no kid in header")
	}

	keys, err := v.keys()
	if err != nil {
		return nil, err
	}

	for _, key := range keys.Keys {
		if key.Kid == kid {
			return rsaPublicKey(key)
		}
	}
	return nil, fmt.Errorf("no matching signing key for kid %s", kid)
}

// keys returns the cached key set, refetching after the TTL expires.
func (v *Validator) keys() (*jwksDocument, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.cached != nil && time.Since(v.fetchedAt) < jwksTTL {
		return v.cached, nil
	}

	doc, err := v.fetch()
	if err != nil {
		if v.cached != nil {
			v.logger.Warn("jwks refresh failed, using expired cache", zap.Error(err))
			return v.cached, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrJWKSUnavailable, err)
	}

	v.cached = doc
	v.fetchedAt = time.Now()
	return doc, nil
}

func (v *Validator) fetch() (*jwksDocument, error) {
	v.logger.Info("fetching jwks", zap.String("url", v.jwksURL))

	resp, err := v.httpClient.Get(v.jwksURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jwks endpoint returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var doc jwksDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse jwks: %w", err)
	}
	return &doc, nil
}

// checkIssuerAndAudience accepts either issuer form the IdP publishes and
// either the bare client ID or its api:// URI as audience.
func (v *Validator) checkIssuerAndAudience(claims jwt.MapClaims) error {
	expectedIssuers := []string{
		fmt.Sprintf("https://login.microsoftonline.com/%s/v2.0", v.tenantID),
		fmt.Sprintf("https://sts.windows.net/%s/", v.tenantID),
	}
	expectedAudiences := []string{v.clientID, "api://" + v.clientID}

	issuer, err := claims.GetIssuer()
	if err != nil || !contains(expectedIssuers, issuer) {
		return fmt.Errorf("%w: invalid token issuer", ErrInvalidToken)
	}

	audiences, err := claims.GetAudience()
	if err != nil {
		return fmt.Errorf("%w: invalid token audience", ErrInvalidToken)
	}
	for _, aud := range audiences {
		if contains(expectedAudiences, aud) {
			return nil
		}
	}
	return fmt.Errorf("%w: invalid token audience", ErrInvalidToken)
}

func userFromClaims(claims jwt.MapClaims) *types.UserInfo {
	user := &types.UserInfo{Roles: []string{}}
	if oid, ok := claims["oid"].(string); ok {
		user.ID = oid
	}
	if name, ok := claims["name"].(string); ok {
		user.Name = name
	}
	if email, ok := claims["preferred_username"].(string); ok {
		user.Email = email
	}
	if rawRoles, ok := claims["roles"].([]any); ok {
		for _, r := range rawRoles {
			if role, ok := r.(string); ok {
				user.Roles = append(user.Roles, role)
			}
		}
	}
	return user
}

// rsaPublicKey builds an RSA public key from the JWK modulus and exponent.
func rsaPublicKey(key jsonWebKey) (*rsa.PublicKey, error) {
	if key.Kty != "RSA" {
		return nil, fmt.Errorf("unsupported key type %s", key.Kty)
	}

	nBytes, err := base64.RawURLEncoding.DecodeString(key.N)
	if err != nil {
		return nil, fmt.Errorf("invalid key modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(key.E)
	if err != nil {
		return nil, fmt.Errorf("invalid key exponent: %w", err)
	}

	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	if e == 0 {
		return nil, fmt.Errorf("invalid key exponent")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
