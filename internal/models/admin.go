package models

import "github.com/golang-jwt/jwt/v5"

// AdminModeSuper is the only elevated mode the PIN gate grants.
const AdminModeSuper = "super_admin"

// AdminClaims is the session issued after a successful PIN unlock.
type AdminClaims struct {
	Actor string `json:"actor"`
	Mode  string `json:"mode"`
	jwt.RegisteredClaims
}
