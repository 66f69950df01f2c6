package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/sabridemirel/arayanibul-sub003/errors"
)

const minSecretLength = 32

// Token is an opaque signed session credential.
type Token string

// SessionClaims defines the structure of the data stored inside the JWT.
type SessionClaims struct {
	AccountID string `json:"account_id"`
	Guest     bool   `json:"guest,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates stateless session tokens with a single
// process-wide secret. There is no revocation list: logout only discards the
// client's copy, and a leaked token stays valid until it expires.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewTokenIssuer constructs the issuer. A missing or short secret is a
// configuration fault the caller must treat as startup-fatal; it is never
// reported per request.
func NewTokenIssuer(secret string, ttl time.Duration, issuer string) (*TokenIssuer, error) {
	if len(secret) < minSecretLength {
		return nil, errors.New("auth: signing secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token TTL must be positive")
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, issuer: issuer}, nil
}

// Issue creates a signed JWT for the given account, valid for the
// configured TTL starting now.
func (t *TokenIssuer) Issue(accountID string, guest bool) (Token, error) {
	now := time.Now()
	claims := &SessionClaims{
		AccountID: accountID,
		Guest:     guest,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			Issuer:    t.issuer,
		},
	}

	// HS256: HMAC with SHA256, signed with the process-wide secret.
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", err
	}
	return Token(signed), nil
}

// Validate parses the token, verifies its signature, then its expiry.
// On success it returns the account id the token was issued for.
func (t *TokenIssuer) Validate(token Token) (string, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(string(token), claims,
		func(*jwt.Token) (interface{}, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", apperrors.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "", apperrors.ErrTokenInvalidSignature
	case err != nil:
		return "", apperrors.ErrTokenMalformed
	}

	if !parsed.Valid || claims.AccountID == "" {
		return "", apperrors.ErrTokenMalformed
	}
	return claims.AccountID, nil
}
