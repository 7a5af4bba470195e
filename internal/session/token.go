package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "timeclock"

// Claims identify a server-side session row.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// FlashClaims carry pending flash messages between a redirect and the next page.
type FlashClaims struct {
	Flashes []Flash `json:"flashes"`
	jwt.RegisteredClaims
}

// TokenSigner signs the cookie values with HMAC-SHA256.
type TokenSigner struct {
	secret []byte
	now    func() time.Time
}

func NewTokenSigner(secret string) *TokenSigner {
	return &TokenSigner{secret: []byte(secret), now: time.Now}
}

func (t *TokenSigner) SignSession(sessionID string, userID int64, expiresAt time.Time) (string, error) {
	claims := &Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(t.now()),
		},
	}
	return t.sign(claims)
}

func (t *TokenSigner) ParseSession(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if err := t.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (t *TokenSigner) SignFlashes(flashes []Flash, expiresAt time.Time) (string, error) {
	claims := &FlashClaims{
		Flashes: flashes,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	return t.sign(claims)
}

func (t *TokenSigner) ParseFlashes(tokenString string) ([]Flash, error) {
	claims := &FlashClaims{}
	if err := t.parse(tokenString, claims); err != nil {
		return nil, err
	}
	return claims.Flashes, nil
}

func (t *TokenSigner) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (t *TokenSigner) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(t.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrSessionExpired
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
