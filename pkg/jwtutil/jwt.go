package jwtutil

import (
	"fmt"
	"strconv"
	"time"

	"jewelry-service/internal/model"
	"jewelry-service/pkg/config"

	"github.com/golang-jwt/jwt/v4"
)

// Role discriminators embedded in every token.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

var (
	secret          = []byte("secret-key")
	expirationHours = 24
)

// Initialize configures the signing key and token lifetime from config.
func Initialize(cfg *config.JWTConfig) {
	secret = []byte(cfg.SigningKey)
	if cfg.ExpirationHours > 0 {
		expirationHours = cfg.ExpirationHours
	}
}

// Identity is the resolved role plus claims extracted from a verified token.
// It is a sealed union: the only implementations are AdminIdentity and
// TenantIdentity, so a type switch over both is exhaustive.
type Identity interface {
	Role() string
	sealed()
}

// AdminIdentity identifies an administrator of the platform.
type AdminIdentity struct {
	ID    uint
	Email string
}

func (AdminIdentity) Role() string { return RoleAdmin }
func (AdminIdentity) sealed()      {}

// TenantIdentity identifies a client business. DBName keys the connection
// registry for all data access performed on its behalf.
type TenantIdentity struct {
	ID           uint
	Email        string
	BusinessName string
	DBName       string
}

func (TenantIdentity) Role() string { return RoleClient }
func (TenantIdentity) sealed()      {}

// Claims is the wire shape of a token payload. BusinessName and DBName are
// present only on client tokens.
type Claims struct {
	Email        string `json:"email"`
	Role         string `json:"role"`
	BusinessName string `json:"business_name,omitempty"`
	DBName       string `json:"db_name,omitempty"`
	jwt.RegisteredClaims
}

// GenerateAdminToken creates a signed token for an administrator.
func GenerateAdminToken(user *model.User) (string, error) {
	claims := Claims{
		Email:            user.Email,
		Role:             RoleAdmin,
		RegisteredClaims: registeredClaims(user.ID),
	}
	return sign(claims)
}

// GenerateClientToken creates a signed token for a client business. The
// token embeds the tenant database identifier so the registry can route
// every subsequent request.
func GenerateClientToken(client *model.Client) (string, error) {
	claims := Claims{
		Email:            client.Email,
		Role:             RoleClient,
		BusinessName:     client.BusinessName,
		DBName:           client.DBName,
		RegisteredClaims: registeredClaims(client.ID),
	}
	return sign(claims)
}

func registeredClaims(id uint) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(id), 10),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expirationHours) * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
}

func sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Verify validates a token and resolves it to an Identity. It fails closed:
// malformed, expired, or forged tokens all return an error and a nil
// Identity, and the error carries nothing about which check failed.
func Verify(tokenString string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, jwt.ErrTokenInvalidClaims
	}

	switch claims.Role {
	case RoleAdmin:
		return AdminIdentity{ID: uint(id), Email: claims.Email}, nil
	case RoleClient:
		if claims.DBName == "" {
			return nil, jwt.ErrTokenInvalidClaims
		}
		return TenantIdentity{
			ID:           uint(id),
			Email:        claims.Email,
			BusinessName: claims.BusinessName,
			DBName:       claims.DBName,
		}, nil
	default:
		return nil, jwt.ErrTokenInvalidClaims
	}
}
