// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nestling-app/nestling/internal/config"
)

// Token kinds carried in the claims. A refresh token can never be used as an
// access token and vice versa.
const (
	tokenKindAccess  = "access"
	tokenKindRefresh = "refresh"
)

// Claims are the session claims embedded in issued tokens.
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Kind   string `json:"kind"`
	jwt.RegisteredClaims
}

// TokenPair is the session issued to a logged-in client.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	TokenType    string    `json:"tokenType"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// JWTManager creates and validates first-party session tokens using
// HMAC-SHA256.
type JWTManager struct {
	secret         []byte
	accessTimeout  time.Duration
	refreshTimeout time.Duration
}

// NewJWTManager creates a token manager from security configuration.
// The secret is stored as []byte; HS256 is the only accepted algorithm.
func NewJWTManager(cfg *config.SecurityConfig) (*JWTManager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but was empty")
	}

	return &JWTManager{
		secret:         []byte(cfg.JWTSecret),
		accessTimeout:  cfg.AccessTimeout,
		refreshTimeout: cfg.RefreshTimeout,
	}, nil
}

// GeneratePair issues an access/refresh token pair for the user.
func (m *JWTManager) GeneratePair(userID uuid.UUID, email string) (*TokenPair, error) {
	now := time.Now()
	accessExpiry := now.Add(m.accessTimeout)

	access, err := m.sign(userID, email, tokenKindAccess, now, accessExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := m.sign(userID, email, tokenKindRefresh, now, now.Add(m.refreshTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresAt:    accessExpiry,
	}, nil
}

func (m *JWTManager) sign(userID uuid.UUID, email, kind string, now, expiresAt time.Time) (string, error) {
	claims := &Claims{
		UserID: userID.String(),
		Email:  email,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateAccess validates an access token and returns the user ID and
// claims. Refresh tokens are rejected here.
func (m *JWTManager) ValidateAccess(tokenString string) (uuid.UUID, *Claims, error) {
	return m.validate(tokenString, tokenKindAccess)
}

// ValidateRefresh validates a refresh token. Access tokens are rejected here.
func (m *JWTManager) ValidateRefresh(tokenString string) (uuid.UUID, *Claims, error) {
	return m.validate(tokenString, tokenKindRefresh)
}

func (m *JWTManager) validate(tokenString, wantKind string) (uuid.UUID, *Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return uuid.Nil, nil, fmt.Errorf("invalid token claims")
	}
	if claims.Kind != wantKind {
		return uuid.Nil, nil, fmt.Errorf("token kind %q cannot be used as %s token", claims.Kind, wantKind)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("invalid user id in token: %w", err)
	}

	return userID, claims, nil
}

// Refresh issues a fresh token pair from a valid refresh token.
func (m *JWTManager) Refresh(refreshToken string) (*TokenPair, error) {
	userID, claims, err := m.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	return m.GeneratePair(userID, claims.Email)
}
