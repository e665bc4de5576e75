package utils // package utils provides helpers for the portal session cookie and backend tokens

import (
	"errors" // errors reports malformed cookies
	"time"   // time computes expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for signing and parsing tokens
	"github.com/google/uuid"       // uuid generates session ids
)

// ErrInvalidSession is returned when a session cookie cannot be trusted.
var ErrInvalidSession = errors.New("invalid session token")

// SessionToken is a signed portal cookie value together with the session id
// it carries and its expiry.
type SessionToken struct {
	Token string    // the serialized JWT placed in the cookie
	SID   string    // random session id scoping the session store
	Exp   time.Time // UTC expiration time
}

type sessionClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// NewSessionToken issues a cookie value for a fresh random session id.
func NewSessionToken(secret string, ttl time.Duration) (SessionToken, error) {
	return SignSession(secret, uuid.NewString(), ttl)
}

// SignSession signs an HS256 JWT for an existing session id. The token
// identifies the store scope only; it never carries backend credentials.
func SignSession(secret, sid string, ttl time.Duration) (SessionToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := sessionClaims{
		SID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, SID: sid, Exp: exp}, nil
}

// ParseSessionToken verifies the cookie value and returns its session id.
func ParseSessionToken(secret, raw string) (string, error) {
	var claims sessionClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSession
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return "", ErrInvalidSession
	}
	if _, err := uuid.Parse(claims.SID); err != nil {
		return "", ErrInvalidSession
	}
	return claims.SID, nil
}

// TokenExpiry peeks at the exp claim of a backend bearer token without
// verifying it; the portal does not hold the backend's key. ok is false for
// opaque tokens and for JWTs without exp.
func TokenExpiry(raw string) (exp time.Time, ok bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	at, err := claims.GetExpirationTime()
	if err != nil || at == nil {
		return time.Time{}, false
	}
	return at.Time, true
}
