package shopify

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrSessionTokenInvalid = errors.New("invalid session token")
	ErrSessionShopMismatch = errors.New("session token issued for another shop")
)

type SessionTokenClaims struct {
	jwt.RegisteredClaims

	// Shopify uses custom claims; we only rely on a few.
	Dest string `json:"dest,omitempty"` // e.g. https://{shop}
	Sid  string `json:"sid,omitempty"`
}

type VerifiedSession struct {
	ShopDomain string
	UserID     string
	ExpiresAt  time.Time
}

// VerifySessionToken verifies an embedded admin session token (JWT, HS256) signed with the app API secret.
// Staff at the till use it to reach basket endpoints.
func VerifySessionToken(tokenString string, apiKey string, apiSecret string, now time.Time) (*VerifiedSession, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: missing token", ErrSessionTokenInvalid)
	}
	if apiSecret == "" {
		return nil, fmt.Errorf("missing api secret")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	claims := &SessionTokenClaims{}
	tok, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(apiSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionTokenInvalid, err)
	}
	if !tok.Valid {
		return nil, ErrSessionTokenInvalid
	}

	if apiKey != "" && !slices.Contains([]string(claims.Audience), apiKey) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrSessionTokenInvalid)
	}

	shopDomain := ShopFromURL(claims.Dest)
	if shopDomain == "" {
		shopDomain = ShopFromURL(claims.Issuer)
	}
	if shopDomain == "" {
		return nil, fmt.Errorf("%w: missing shop", ErrSessionTokenInvalid)
	}

	return &VerifiedSession{
		ShopDomain: shopDomain,
		UserID:     claims.Subject,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}

// VerifySessionTokenForShop is VerifySessionToken plus a check that the token belongs to shop.
func VerifySessionTokenForShop(tokenString, apiKey, apiSecret, shop string, now time.Time) (*VerifiedSession, error) {
	vs, err := VerifySessionToken(tokenString, apiKey, apiSecret, now)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(vs.ShopDomain, shop) {
		return nil, ErrSessionShopMismatch
	}
	return vs, nil
}

// ShopFromURL reduces "https://{shop}/admin" style values to the bare host.
func ShopFromURL(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	return s
}
