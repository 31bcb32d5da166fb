package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/coursify-backend/internal/data/repos"
	"github.com/yungbote/coursify-backend/internal/data/repos/testutil"
	"github.com/yungbote/coursify-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursify-backend/internal/services"
)

// Flag values live on the package-level command and survive between runs.
func resetTokenFlags(t *testing.T) {
	t.Helper()
	for _, name := range []string{"user", "email"} {
		require.NoError(t, tokenCmd.Flags().Set(name, ""))
	}
	require.NoError(t, tokenCmd.Flags().Set("ttl", "1h"))
}

func TestTokenCommandMintsVerifiableToken(t *testing.T) {
	resetTokenFlags(t)
	t.Setenv("COURSIFY_CONFIG", "")
	t.Setenv("JWT_SECRET_KEY", "cli-secret")

	db := testutil.DB(t)
	log := testutil.Logger(t)
	user := testutil.SeedUser(t, context.Background(), db, "dev@example.com")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"token", "--user", user.ID.String(), "--ttl", "10m"})
	require.NoError(t, rootCmd.Execute())

	token := strings.TrimSpace(out.String())
	require.NotEmpty(t, token)

	auth := services.NewAuthService(log, repos.NewUserRepo(db, log), "cli-secret", 0)
	ctx, err := auth.SetContextFromToken(context.Background(), token)
	require.NoError(t, err)
	id, ok := ctxutil.UserID(ctx)
	require.True(t, ok)
	assert.Equal(t, user.ID, id)
}

func TestTokenCommandRegistersByEmail(t *testing.T) {
	resetTokenFlags(t)
	t.Setenv("COURSIFY_CONFIG", "")
	t.Setenv("JWT_SECRET_KEY", "cli-secret")
	t.Setenv("LOG_MODE", "test")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "coursify.db"))

	mint := func() string {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs([]string{"token", "--email", " Dev@Example.com "})
		require.NoError(t, rootCmd.Execute())
		return strings.TrimSpace(out.String())
	}
	first := mint()
	second := mint()
	require.NotEmpty(t, first)

	parse := func(token string) *services.JWTClaims {
		claims := &services.JWTClaims{}
		_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
			return []byte("cli-secret"), nil
		})
		require.NoError(t, err)
		return claims
	}
	a, b := parse(first), parse(second)
	assert.Equal(t, "dev@example.com", a.Email)
	assert.Equal(t, a.Subject, b.Subject, "the second run reuses the registered user")
}

func TestTokenCommandRejectsBadUser(t *testing.T) {
	resetTokenFlags(t)
	t.Setenv("JWT_SECRET_KEY", "cli-secret")
	rootCmd.SetArgs([]string{"token"})
	assert.Error(t, rootCmd.Execute())

	rootCmd.SetArgs([]string{"token", "--user", "nope"})
	assert.Error(t, rootCmd.Execute())

	rootCmd.SetArgs([]string{"token", "--user", uuid.NewString()})
	t.Setenv("JWT_SECRET_KEY", "")
	assert.Error(t, rootCmd.Execute())
}
