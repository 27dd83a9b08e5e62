// Package authtoken issues and verifies the signed bearer tokens that
// identify ingest users. A token is a base64url claims payload joined by
// a dot to a truncated HMAC-SHA256 signature of that payload.
package authtoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// signatureLength is how many hex characters of the HMAC digest a token
// carries.
const signatureLength = 16

// Claims is the payload embedded in a token.
type Claims struct {
	UserID   string `json:"user_id"`
	IssuedAt int64  `json:"iat"`
}

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// IssueToken creates a signed bearer token for a user, stamped with the
// current time.
func IssueToken(secret []byte, userID string) (string, error) {
	payloadBytes, err := json.Marshal(Claims{UserID: userID, IssuedAt: time.Now().Unix()})
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}
	payload := base64.RawURLEncoding.EncodeToString(payloadBytes)
	return payload + "." + sign(secret, payload), nil
}

// ParseToken verifies a token's signature and returns its claims. Every
// failure mode collapses to ErrInvalidToken.
func ParseToken(secret []byte, token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return Claims{}, ErrInvalidToken
	}
	payload := parts[0]
	signature := parts[1]

	expected := sign(secret, payload)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return Claims{}, ErrInvalidToken
	}

	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	var claims Claims
	if err := json.Unmarshal(decoded, &claims); err != nil {
		return Claims{}, ErrInvalidToken
	}
	if claims.UserID == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

func sign(secret []byte, payload string) string {
	sum := hmac.New(sha256.New, secret)
	_, _ = sum.Write([]byte(payload))
	return hex.EncodeToString(sum.Sum(nil))[:signatureLength]
}
