// Package session is the authentication gate for the checkout core.
// All cart and checkout operations require an authenticated session.
package session

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("session: invalid token")

// Session carries the authenticated user's identity plus the bearer
// token forwarded on every backend call.
type Session struct {
	UserID int64
	Email  string
	Token  string
}

// Anonymous is the session of an unauthenticated visitor.
var Anonymous = Session{}

func (s Session) Authenticated() bool {
	return s.UserID != 0 && s.Token != ""
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verify parses a bearer token into a Session. Any parse or signature
// failure yields ErrInvalidToken; callers treat that as anonymous.
func (v *Verifier) Verify(token string) (Session, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Anonymous, ErrInvalidToken
	}

	var userID int64
	if _, err := fmt.Sscanf(c.Subject, "%d", &userID); err != nil || userID <= 0 {
		return Anonymous, ErrInvalidToken
	}

	return Session{UserID: userID, Email: c.Email, Token: token}, nil
}

// Issue signs a session token. Used by tests and local tooling; the
// production identity provider issues real tokens with the same shape.
func (v *Verifier) Issue(userID int64, email string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: fmt.Sprint(userID),
		},
	})
	return token.SignedString(v.secret)
}
