package utils

import (
	"fmt"
	"time"

	"cms0/internal/models"

	"github.com/golang-jwt/jwt/v4"
)

type Claims struct {
	UserID uint64 `json:"user_id"`
	Role   string `json:"role"`
	SID    string `json:"sid"`
	jwt.RegisteredClaims
}

// GenerateJWT issues an HS256 token bound to session sid.
func GenerateJWT(user models.User, sid, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Role:   string(user.Role),
		SID:    sid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseJWT parses and validates a JWT token
func ParseJWT(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid || claims.SID == "" {
		return nil, jwt.ErrSignatureInvalid
	}

	return claims, nil
}
