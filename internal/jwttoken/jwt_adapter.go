package jwttoken

import (
	"uservault/internal/platform/middleware"
)

// MiddlewareAdapter exposes JWTService through the middleware's validator
// interface so the platform layer stays free of jwt library types.
type MiddlewareAdapter struct {
	service *JWTService
}

func NewMiddlewareAdapter(service *JWTService) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		Principal: claims.Subject,
		Role:      claims.Role,
	}, nil
}
