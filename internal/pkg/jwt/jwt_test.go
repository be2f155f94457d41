package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	cfg := DefaultConfig("secret")

	token, err := GenerateToken("ops", "ops@example.com", RoleAdmin, cfg)
	require.NoError(t, err)

	claims, err := ValidateTokenWithRole(token, RoleAdmin, cfg)
	require.NoError(t, err)
	require.Equal(t, "ops", claims.Subject)
	require.Equal(t, "ops@example.com", claims.Email)
}

func TestValidateRejects(t *testing.T) {
	cfg := DefaultConfig("secret")

	viewer, err := GenerateToken("v", "", "viewer", cfg)
	require.NoError(t, err)
	_, err = ValidateTokenWithRole(viewer, RoleAdmin, cfg)
	require.True(t, errors.Is(err, ErrInsufficientRole))

	_, err = ValidateToken(viewer, DefaultConfig("other"))
	require.Error(t, err)

	expiredCfg := DefaultConfig("secret")
	expiredCfg.Expiry = -time.Minute
	expired, err := GenerateToken("ops", "", RoleAdmin, expiredCfg)
	require.NoError(t, err)
	_, err = ValidateToken(expired, cfg)
	require.Error(t, err)

	foreign := DefaultConfig("secret")
	foreign.Audience = "someone-else"
	other, err := GenerateToken("ops", "", RoleAdmin, foreign)
	require.NoError(t, err)
	_, err = ValidateToken(other, cfg)
	require.Error(t, err)

	_, err = GenerateToken("ops", "", RoleAdmin, DefaultConfig(""))
	require.Error(t, err)
}
