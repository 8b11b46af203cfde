package auth

import (
	"errors"
	"fmt"
	"huddle-backend/config"
	"huddle-backend/internal/meeting"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	refreshTokenValidity = 7 * 24 * time.Hour
)

var ErrWrongTokenType = errors.New("wrong token type")

type Claims struct {
	UserID    string   `json:"userId"`
	Email     string   `json:"email"`
	Provider  string   `json:"provider"`
	Accesses  []string `json:"accesses"`
	TokenType string   `json:"typ"`
	jwt.RegisteredClaims
}

// Caller returns the identity meeting operations run as
func (c *Claims) Caller() *meeting.Caller {
	if c == nil {
		return nil
	}
	return &meeting.Caller{UserID: c.UserID, Email: c.Email}
}

func newClaims(userID, email, provider string, accesses []string, tokenType string, validFor time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		UserID:    userID,
		Email:     email,
		Provider:  provider,
		Accesses:  accesses,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(validFor)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
}

func sign(claims *Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// GenerateToken issues an access token valid for cfg.TokenDuration hours
func GenerateToken(userID, email, provider string, accesses []string, cfg *config.AuthConfig) (string, error) {
	validFor := time.Duration(cfg.TokenDuration) * time.Hour
	return sign(newClaims(userID, email, provider, accesses, TokenTypeAccess, validFor), cfg.JWTSecret)
}

// GenerateTokenPair issues an access token and a seven-day refresh token
func GenerateTokenPair(userID, email, provider string, accesses []string, cfg *config.AuthConfig) (string, string, error) {
	accessToken, err := GenerateToken(userID, email, provider, accesses, cfg)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := sign(newClaims(userID, email, provider, accesses, TokenTypeRefresh, refreshTokenValidity), cfg.JWTSecret)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// ValidateToken parses a token signed with cfg.JWTSecret and checks it is of tokenType
func ValidateToken(tokenString, tokenType string, cfg *config.AuthConfig) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if claims.TokenType != tokenType {
		return nil, ErrWrongTokenType
	}

	return claims, nil
}
