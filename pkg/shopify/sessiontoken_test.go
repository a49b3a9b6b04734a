package shopify

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signSessionToken(t *testing.T, claims SessionTokenClaims, secret string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestVerifySessionToken_AudienceAndDest(t *testing.T) {
	apiKey := "test_api_key"
	secret := "test_secret"
	now := time.Unix(1700000000, 0)

	s := signSessionToken(t, SessionTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  []string{apiKey},
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now.Add(-1 * time.Minute)),
		},
		Dest: "https://my-shop.myshopify.com",
	}, secret)

	got, err := VerifySessionToken(s, apiKey, secret, now)
	require.NoError(t, err)
	require.Equal(t, "my-shop.myshopify.com", got.ShopDomain)
	require.Equal(t, "42", got.UserID)
}

func TestVerifySessionToken_Rejects(t *testing.T) {
	apiKey := "test_api_key"
	secret := "test_secret"
	now := time.Unix(1700000000, 0)

	valid := SessionTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  []string{apiKey},
			ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
		},
		Dest: "https://my-shop.myshopify.com",
	}

	t.Run("expired", func(t *testing.T) {
		c := valid
		c.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
		_, err := VerifySessionToken(signSessionToken(t, c, secret), apiKey, secret, now)
		require.ErrorIs(t, err, ErrSessionTokenInvalid)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := VerifySessionToken(signSessionToken(t, valid, "other"), apiKey, secret, now)
		require.ErrorIs(t, err, ErrSessionTokenInvalid)
	})

	t.Run("audience mismatch", func(t *testing.T) {
		_, err := VerifySessionToken(signSessionToken(t, valid, secret), "another_app", secret, now)
		require.ErrorIs(t, err, ErrSessionTokenInvalid)
	})

	t.Run("other shop", func(t *testing.T) {
		_, err := VerifySessionTokenForShop(signSessionToken(t, valid, secret), apiKey, secret, "else.myshopify.com", now)
		require.True(t, errors.Is(err, ErrSessionShopMismatch))
	})
}

func TestShopFromURL(t *testing.T) {
	require.Equal(t, "a.myshopify.com", ShopFromURL("https://a.myshopify.com/admin"))
	require.Equal(t, "a.myshopify.com", ShopFromURL("a.myshopify.com"))
	require.Equal(t, "", ShopFromURL(""))
}
