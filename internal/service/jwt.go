package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

const tokenTTL = 24 * time.Hour

// JWTIssuer signs and verifies player tokens.
type JWTIssuer struct {
	secret []byte
	now    func() time.Time
}

func NewJWTIssuer(secret string) *JWTIssuer {
	return &JWTIssuer{secret: []byte(secret), now: time.Now}
}

type claims struct {
	UserID int64 `json:"user_id"`
	TgID   int64 `json:"tg_id"`
	jwt.RegisteredClaims
}

// Generate issues a token for the user.
func (j *JWTIssuer) Generate(userID, tgID int64) (string, error) {
	now := j.now()
	c := claims{
		UserID: userID,
		TgID:   tgID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(j.secret)
}

// Parse validates the token and returns user and Telegram ids.
func (j *JWTIssuer) Parse(tokenString string) (userID, tgID int64, err error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return j.secret, nil
	}, jwt.WithTimeFunc(j.now))
	if err != nil || !token.Valid {
		return 0, 0, ErrInvalidToken
	}
	if c.UserID == 0 {
		return 0, 0, ErrInvalidToken
	}
	return c.UserID, c.TgID, nil
}
