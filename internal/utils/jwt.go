package utils

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"practice-scheduler-server/internal/models"
)

// Claims represents the JWT claims issued by the practice's identity service.
type Claims struct {
	UserID     string      `json:"user_id"`
	Role       models.Role `json:"role"`
	PracticeID string      `json:"practice_id"`
	jwt.RegisteredClaims
}

// ValidateToken validates a JWT token.
func ValidateToken(tokenString string, secretKey string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	if claims.PracticeID == "" {
		return nil, errors.New("token carries no practice")
	}

	return claims, nil
}
