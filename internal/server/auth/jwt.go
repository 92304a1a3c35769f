// Package auth implements session-token issuance and verification plus
// password hashing. Tokens are self-contained HS256 JWTs; validity is a
// function of signature and expiry only; revocation is layered on top by
// the service via a blacklist lookup keyed on TokenID.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"storefront/internal/common"
)

// Claims carried by a storefront session token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// GenerateToken issues a signed HS256 token for the given user with
// issued-at now and expiry now+validity.
func GenerateToken(userID, email string, secretKey []byte, validity time.Duration) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		UserID: userID,
		Email:  email,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and expiry of tokenString and returns
// its claims. Failures map onto the shared taxonomy: an unreadable or
// badly signed token is common.ErrTokenMalformed, an expired one is
// common.ErrTokenExpired. A bad signature wins over expiry because the
// claims of an unverified token cannot be trusted.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrTokenMalformed
		}
		return secretKey, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrTokenMalformed
	}

	if !token.Valid {
		return nil, common.ErrTokenMalformed
	}

	return claims, nil
}

// TokenID derives the deterministic blacklist identifier of a token: the
// hex SHA-256 of its signature segment. The signature is unique per issued
// token, so hashing it gives a fixed-length key without persisting the
// token itself.
func TokenID(tokenString string) (string, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 || parts[2] == "" {
		return "", common.ErrTokenMalformed
	}

	sum := sha256.Sum256([]byte(parts[2]))
	return hex.EncodeToString(sum[:]), nil
}
