package models

import "github.com/golang-jwt/jwt/v5"

// UserRole identifies staff privileges carried in backend-issued tokens.
type UserRole string

// Staff roles allowed to operate the engine's admin endpoints.
const (
	RoleAdmin UserRole = "ADMIN"
	RoleStaff UserRole = "STAFF"
)

// JWTClaims represents the JWT payload for staff access tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
