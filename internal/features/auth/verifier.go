package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/xyz-asif/citycare/internal/pkg/jwt"
)

const RoleAdmin = jwt.RoleAdmin

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrForbidden    = errors.New("admin role required")
)

// Principal is the authenticated admin.
type Principal struct {
	Subject  string
	Email    string
	Provider string
}

// Verifier checks a bearer token and returns the admin it belongs to.
type Verifier interface {
	Name() string
	Verify(ctx context.Context, token string) (*Principal, error)
}

// JWTVerifier accepts HMAC tokens minted with the shared admin secret.
type JWTVerifier struct {
	cfg *jwt.Config
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{cfg: jwt.DefaultConfig(secret)}
}

func (v *JWTVerifier) Name() string { return "jwt" }

func (v *JWTVerifier) Verify(_ context.Context, token string) (*Principal, error) {
	claims, err := jwt.ValidateTokenWithRole(token, RoleAdmin, v.cfg)
	if err != nil {
		if errors.Is(err, jwt.ErrInsufficientRole) {
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return &Principal{Subject: claims.Subject, Email: claims.Email, Provider: v.Name()}, nil
}

// IssueAdminToken mints an admin token for subject.
func IssueAdminToken(secret, subject, email string) (string, error) {
	return jwt.GenerateToken(subject, email, RoleAdmin, jwt.DefaultConfig(secret))
}
