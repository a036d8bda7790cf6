// Package auth implements bearer-token verification for the Radio
// Controller's read-only diagnostics HTTP surface (§14), adapted from the
// teacher's RS256/JWKS verifier down to the single "is this caller allowed
// to read diagnostics" question — the surface has no write path and no
// role/scope distinctions to enforce.
package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// VerifierConfig selects and configures one signing algorithm.
type VerifierConfig struct {
	Algorithm string // "RS256" or "HS256"

	PublicKeyPEM string
	JWKSURL      string

	SecretKey string // HS256 only

	JWKSRefreshInterval time.Duration
	JWKSCacheTimeout    time.Duration
}

// JWK and JWKSet model a JSON Web Key Set response.
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type JWKSet struct {
	Keys []JWK `json:"keys"`
}

type jwksCacheEntry struct {
	key       *rsa.PublicKey
	timestamp time.Time
}

// Claims is the subset of JWT claims the diagnostics surface cares about.
type Claims struct {
	Subject string `json:"sub"`
}

// Verifier verifies a bearer token against one configured algorithm.
type Verifier struct {
	config     VerifierConfig
	publicKey  *rsa.PublicKey
	jwksCache  map[string]*jwksCacheEntry
	jwksMutex  sync.RWMutex
	lastFetch  time.Time
	httpClient *http.Client
}

// NewVerifier builds a Verifier from cfg, fetching the initial JWKS (if
// configured) or validating the HS256 secret is present.
func NewVerifier(cfg VerifierConfig) (*Verifier, error) {
	v := &Verifier{
		config:     cfg,
		jwksCache:  make(map[string]*jwksCacheEntry),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	switch cfg.Algorithm {
	case "RS256":
		if cfg.PublicKeyPEM != "" {
			if err := v.loadPublicKeyFromPEM(cfg.PublicKeyPEM); err != nil {
				return nil, fmt.Errorf("auth: load public key: %w", err)
			}
		}
		if cfg.JWKSURL != "" {
			if err := v.fetchJWKS(); err != nil {
				return nil, fmt.Errorf("auth: initial JWKS fetch: %w", err)
			}
		}
	case "HS256":
		if cfg.SecretKey == "" {
			return nil, fmt.Errorf("auth: HS256 requires a secret key")
		}
	default:
		return nil, fmt.Errorf("auth: unsupported algorithm %q", cfg.Algorithm)
	}

	return v, nil
}

// VerifyToken parses and validates tokenString, returning its claims.
func (v *Verifier) VerifyToken(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, fmt.Errorf("auth: token is empty")
	}
	switch v.config.Algorithm {
	case "RS256":
		return v.verifyRS256(tokenString)
	case "HS256":
		return v.verifyHS256(tokenString)
	default:
		return nil, fmt.Errorf("auth: unsupported algorithm %q", v.config.Algorithm)
	}
}

func (v *Verifier) verifyRS256(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != "RS256" {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		kid, ok := token.Header["kid"].(string)
		if !ok {
			if v.publicKey == nil {
				return nil, fmt.Errorf("no public key available")
			}
			return v.publicKey, nil
		}
		return v.keyFromJWKS(kid)
	})
	if err != nil {
		return nil, fmt.Errorf("auth: parse token: %w", err)
	}
	return v.claimsFrom(token)
}

func (v *Verifier) verifyHS256(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != "HS256" {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(v.config.SecretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("auth: parse token: %w", err)
	}
	return v.claimsFrom(token)
}

func (v *Verifier) claimsFrom(token *jwt.Token) (*Claims, error) {
	if !token.Valid {
		return nil, fmt.Errorf("auth: invalid token")
	}
	claims, ok := token.Claims.(*jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	sub, ok := (*claims)["sub"].(string)
	if !ok || sub == "" {
		return nil, fmt.Errorf("auth: missing or invalid 'sub' claim")
	}
	return &Claims{Subject: sub}, nil
}

func (v *Verifier) loadPublicKeyFromPEM(pemData string) error {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return fmt.Errorf("failed to decode PEM block")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return fmt.Errorf("failed to parse public key: %w", err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return fmt.Errorf("not an RSA public key")
	}
	v.publicKey = rsaPub
	return nil
}

func (v *Verifier) fetchJWKS() error {
	if v.config.JWKSURL == "" {
		return fmt.Errorf("JWKS URL not configured")
	}
	resp, err := v.httpClient.Get(v.config.JWKSURL)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS fetch failed with status: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read JWKS response: %w", err)
	}
	var jwks JWKSet
	if err := json.Unmarshal(body, &jwks); err != nil {
		return fmt.Errorf("failed to parse JWKS: %w", err)
	}

	v.jwksMutex.Lock()
	defer v.jwksMutex.Unlock()
	now := time.Now()
	for _, key := range jwks.Keys {
		if key.Kty == "RSA" && key.Use == "sig" && key.Alg == "RS256" {
			pubKey, err := jwkToRSAPublicKey(key)
			if err != nil {
				continue
			}
			v.jwksCache[key.Kid] = &jwksCacheEntry{key: pubKey, timestamp: now}
		}
	}
	v.lastFetch = time.Now()
	return nil
}

func (v *Verifier) keyFromJWKS(kid string) (*rsa.PublicKey, error) {
	v.jwksMutex.RLock()
	entry, exists := v.jwksCache[kid]
	v.jwksMutex.RUnlock()

	if exists && time.Since(entry.timestamp) < v.config.JWKSCacheTimeout {
		return entry.key, nil
	}

	if time.Since(v.lastFetch) > v.config.JWKSRefreshInterval {
		v.jwksMutex.Lock()
		if time.Since(v.lastFetch) > v.config.JWKSRefreshInterval {
			if err := v.fetchJWKS(); err != nil {
				v.jwksMutex.Unlock()
				return nil, fmt.Errorf("failed to refresh JWKS: %w", err)
			}
		}
		v.jwksMutex.Unlock()

		v.jwksMutex.RLock()
		entry, exists = v.jwksCache[kid]
		v.jwksMutex.RUnlock()
		if exists {
			return entry.key, nil
		}
	}

	return nil, fmt.Errorf("key not found: %s", kid)
}

func jwkToRSAPublicKey(jwk JWK) (*rsa.PublicKey, error) {
	n, err := base64URLDecode(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}
	e, err := base64URLDecode(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}
	var exp int
	for _, b := range e {
		exp = exp<<8 + int(b)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: exp}, nil
}

func base64URLDecode(data string) ([]byte, error) {
	switch len(data) % 4 {
	case 2:
		data += "=="
	case 3:
		data += "="
	}
	return base64.RawURLEncoding.DecodeString(data)
}
