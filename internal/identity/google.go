// Package identity verifies third-party identity tokens. The verifier is
// constructed once at process start and injected by reference into the auth
// service; it is never re-initialized per request.
package identity

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the verified assertions extracted from an external identity
// token. Email is empty when the provider did not assert one; Phone is set
// only for phone-bound tokens.
type Claims struct {
	Subject string
	Email   string
	Name    string
	Picture string
	Phone   string
}

// Verifier validates an externally issued identity token and returns its
// claims. Implementations must reject tokens whose signature, issuer,
// audience or expiry fail.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*Claims, error)
}

const googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

var googleIssuers = []string{"https://accounts.google.com", "accounts.google.com"}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"` // base64url modulus
	E   string `json:"e"` // base64url exponent
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

// GoogleVerifier checks RS256 id tokens against Google's published key set.
// The JWKS document is cached for an hour and refetched lazily.
type GoogleVerifier struct {
	ClientID string

	http    *http.Client
	jwksURL string

	mu     sync.RWMutex
	keys   *jwks
	keysAt time.Time
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{
		ClientID: clientID,
		http:     &http.Client{Timeout: 10 * time.Second},
		jwksURL:  googleJWKSURL,
	}
}

func (g *GoogleVerifier) getJWKS(ctx context.Context) (*jwks, error) {
	g.mu.RLock()
	j := g.keys
	age := time.Since(g.keysAt)
	g.mu.RUnlock()
	if j != nil && age < time.Hour {
		return j, nil
	}

	req, _ := http.NewRequestWithContext(ctx, "GET", g.jwksURL, nil)
	resp, err := g.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("jwks http %d", resp.StatusCode)
	}
	var jj jwks
	if err := json.NewDecoder(resp.Body).Decode(&jj); err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.keys = &jj
	g.keysAt = time.Now()
	g.mu.Unlock()
	return &jj, nil
}

func (g *GoogleVerifier) rsaKeyForKid(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	jwks, err := g.getJWKS(ctx)
	if err != nil {
		return nil, err
	}
	for _, k := range jwks.Keys {
		if k.Kid == kid && strings.EqualFold(k.Kty, "RSA") {
			nb, err := base64.RawURLEncoding.DecodeString(k.N)
			if err != nil {
				return nil, err
			}
			eb, err := base64.RawURLEncoding.DecodeString(k.E)
			if err != nil {
				return nil, err
			}
			n := new(big.Int).SetBytes(nb)
			e := 0
			for _, b := range eb {
				e = (e << 8) | int(b)
			}
			if e == 0 {
				e = 65537
			}
			return &rsa.PublicKey{N: n, E: e}, nil
		}
	}
	return nil, errors.New("kid not found")
}

// Verify validates signature, issuer, audience and expiry, then extracts the
// identity claims.
func (g *GoogleVerifier) Verify(ctx context.Context, idToken string) (*Claims, error) {
	var header struct {
		Alg string `json:"alg"`
		Kid string `json:"kid"`
	}
	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return nil, errors.New("bad jwt format")
	}
	hb, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(hb, &header); err != nil {
		return nil, err
	}
	if header.Alg != "RS256" {
		return nil, fmt.Errorf("unexpected alg: %s", header.Alg)
	}

	key, err := g.rsaKeyForKid(ctx, header.Kid)
	if err != nil {
		return nil, err
	}
	tok, err := jwt.Parse(idToken,
		func(t *jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{"RS256"}))
	if err != nil || !tok.Valid {
		return nil, errors.New("invalid id_token")
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("claims type")
	}

	iss, _ := claims["iss"].(string)
	issOK := false
	for _, want := range googleIssuers {
		if iss == want {
			issOK = true
			break
		}
	}
	if !issOK {
		return nil, fmt.Errorf("bad iss: %s", iss)
	}

	audOK := false
	switch a := claims["aud"].(type) {
	case string:
		audOK = (a == g.ClientID)
	case []any:
		for _, v := range a {
			if s, _ := v.(string); s == g.ClientID {
				audOK = true
				break
			}
		}
	}
	if !audOK {
		return nil, errors.New("bad aud")
	}

	// jwt.Parse already rejects hard-expired tokens; a small leeway guards
	// against clock skew between this host and the issuer.
	if expf, ok := claims["exp"].(float64); ok {
		if time.Unix(int64(expf), 0).Before(time.Now().Add(-30 * time.Second)) {
			return nil, errors.New("token expired")
		}
	}

	return &Claims{
		Subject: strClaim(claims, "sub"),
		Email:   strClaim(claims, "email"),
		Name:    strClaim(claims, "name"),
		Picture: strClaim(claims, "picture"),
		Phone:   strClaim(claims, "phone_number"),
	}, nil
}

func strClaim(m jwt.MapClaims, k string) string {
	s, _ := m[k].(string)
	return s
}
