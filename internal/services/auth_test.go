package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/coursify-backend/internal/data/repos/testutil"
	"github.com/yungbote/coursify-backend/internal/platform/ctxutil"
)

func TestSetContextFromToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := testutil.SeedUser(t, ctx, f.db, "ada@example.com")
	auth := NewAuthService(f.log, f.users, "secret", time.Hour)

	token, err := auth.MintToken(u.ID, "ada@example.com", 0)
	require.NoError(t, err)
	got, err := auth.SetContextFromToken(ctx, token)
	require.NoError(t, err)
	id, ok := ctxutil.UserID(got)
	require.True(t, ok)
	assert.Equal(t, u.ID, id)

	cases := map[string]string{
		"blank":   "  ",
		"garbage": "not-a-jwt",
	}
	ghost, err := auth.MintToken(uuid.New(), "", 0)
	require.NoError(t, err)
	cases["unknown user"] = ghost
	past := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   u.ID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}})
	cases["expired"], err = past.SignedString([]byte("secret"))
	require.NoError(t, err)
	other, err := NewAuthService(f.log, f.users, "other", 0).MintToken(u.ID, "", 0)
	require.NoError(t, err)
	cases["wrong secret"] = other

	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := auth.SetContextFromToken(ctx, tok)
			requireStatus(t, err, http.StatusUnauthorized)
		})
	}
}

func TestEnsureUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	auth := NewAuthService(f.log, f.users, "secret", 0)

	u, err := auth.EnsureUser(ctx, "New@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", u.Email)

	again, err := auth.EnsureUser(ctx, "new@example.com ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)

	_, err = auth.EnsureUser(ctx, "  ")
	requireStatus(t, err, http.StatusBadRequest)
}
