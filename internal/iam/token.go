package iam

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/YeyeJames/jiale15/pkg/types"
)

// JWTClaims represents JWT token claims
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates HS256 access tokens
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a token manager
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for account
func (tm *TokenManager) Issue(account *types.Account) (*types.AuthToken, error) {
	now := tm.now()

	claims := &JWTClaims{
		UserID:   account.ID,
		Username: account.Username,
		Name:     account.Name,
		Role:     string(account.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tm.issuer,
			Subject:   account.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &types.AuthToken{
		AccessToken: tokenString,
		TokenType:   "Bearer",
		ExpiresIn:   int64(tm.ttl.Seconds()),
		IssuedAt:    now,
		User:        account.View(),
	}, nil
}

// Validate parses a token and returns its claims
func (tm *TokenManager) Validate(tokenString string) (*types.UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tm.issuer),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, types.NewAuthenticationError(types.ErrCodeUnauthorized, "token expired")
		}
		return nil, types.NewAuthenticationError(types.ErrCodeUnauthorized, "invalid token")
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, types.NewAuthenticationError(types.ErrCodeUnauthorized, "invalid token claims")
	}

	role := types.UserRole(claims.Role)
	if !role.Valid() {
		return nil, types.NewAuthenticationError(types.ErrCodeUnauthorized, "token carries an unknown role")
	}

	return &types.UserClaims{
		UserID:   claims.UserID,
		Username: claims.Username,
		Name:     claims.Name,
		Role:     role,
	}, nil
}
