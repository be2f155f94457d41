package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const RoleAdmin = "admin"

var ErrInsufficientRole = errors.New("insufficient permissions")

// Claims represents JWT claims
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Config represents JWT configuration
type Config struct {
	Secret        string
	Expiry        time.Duration
	Issuer        string
	Audience      string
	SigningMethod jwt.SigningMethod
}

// DefaultConfig returns default JWT configuration
func DefaultConfig(secret string) *Config {
	return &Config{
		Secret:        secret,
		Expiry:        12 * time.Hour,
		Issuer:        "citycare-api",
		Audience:      "citycare-admin",
		SigningMethod: jwt.SigningMethodHS256,
	}
}

// GenerateToken issues a signed token for subject carrying role.
func GenerateToken(subject, email, role string, cfg *Config) (string, error) {
	if cfg == nil || cfg.Secret == "" {
		return "", errors.New("JWT secret is required")
	}

	now := time.Now()
	claims := &Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.Expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    cfg.Issuer,
			Audience:  []string{cfg.Audience},
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(cfg.SigningMethod, claims)
	return token.SignedString([]byte(cfg.Secret))
}

// ValidateToken validates signature, expiry, issuer and audience.
func ValidateToken(tokenString string, cfg *Config) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.Secret), nil
	}, jwt.WithIssuer(cfg.Issuer), jwt.WithAudience(cfg.Audience), jwt.WithExpirationRequired())

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// ValidateTokenWithRole validates token and checks if user has required role
func ValidateTokenWithRole(tokenString, requiredRole string, cfg *Config) (*Claims, error) {
	claims, err := ValidateToken(tokenString, cfg)
	if err != nil {
		return nil, err
	}

	if requiredRole != "" && claims.Role != requiredRole {
		return nil, ErrInsufficientRole
	}

	return claims, nil
}
