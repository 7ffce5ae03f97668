package main

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// bearerAuth is the HMAC-signed bearer token mint/verify pair behind rxctl
// serve, the scaled-down analog of the teacher's cmd/authn component (named
// but not retrieved in full in this pack). rxctl has no remote control
// endpoint for it to gate.
type bearerAuth struct {
	secret []byte
}

func newBearerAuth(secret string) *bearerAuth {
	return &bearerAuth{secret: []byte(secret)}
}

// issue mints a short-lived HMAC token that verify (rxctl serve --verify)
// can later check.
func (a *bearerAuth) issue(subject string, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(a.secret)
}

// verify checks a bearer token's signature and expiry.
func (a *bearerAuth) verify(tokenStr string) (string, error) {
	tok, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := tok.Claims.(*jwt.RegisteredClaims)
	if !ok || !tok.Valid {
		return "", fmt.Errorf("invalid token")
	}
	return claims.Subject, nil
}
