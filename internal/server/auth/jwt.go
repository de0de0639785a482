// Package auth mints and validates data service keys. A key is an HS256
// JWT carrying the role of the calling client.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/prestigeforum/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Roles accepted by the data service.
const (
	RoleService = "service"
	RoleAdmin   = common.RoleAdmin
)

// Claims holds the registered claims plus the role of the key holder.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// ValidRole reports whether role may hold a service key.
func ValidRole(role string) bool {
	return role == RoleService || role == RoleAdmin
}

// GenerateToken signs a service key for role. A zero validityDuration mints
// a key without expiry.
func GenerateToken(role string, secretKey []byte, validityDuration time.Duration) (string, error) {
	if !ValidRole(role) {
		return "", common.ErrorValidation
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  "prestigeforum",
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
		Role: role,
	}
	if validityDuration != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(validityDuration))
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetRoleFromToken validates tokenString and returns its role claim.
func GetRoleFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || !ValidRole(claims.Role) {
		return "", common.ErrInvalidToken
	}

	return claims.Role, nil
}
