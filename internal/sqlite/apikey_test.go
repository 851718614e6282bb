package sqlite

import (
	"context"
	"strings"
	"testing"

	"github.com/rpggio/projmon/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyRepository_CreateResolve(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewAPIKeyRepository(db)

	token, err := repo.Create(ctx, "alice", "laptop")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(token, tokenPrefix))

	username, err := repo.ResolveUser(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "alice", username)

	var stored string
	require.NoError(t, db.QueryRowContext(ctx, `SELECT key_hash FROM api_keys`).Scan(&stored))
	require.Equal(t, HashToken(token), stored)
	require.NotEqual(t, token, stored)

	_, err = repo.ResolveUser(ctx, "pm_unknown")
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.Create(ctx, " ", "")
	require.ErrorIs(t, err, repository.ErrInvalidInput)
}
