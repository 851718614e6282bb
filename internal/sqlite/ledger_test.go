package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNoticeLedger_Lifecycle(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	ledger := NewNoticeLedger(db)
	at := time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC)

	require.NoError(t, ledger.CreateInstance(ctx, 10, "alice", "Production", at))
	require.NoError(t, ledger.CreateInstance(ctx, 10, "bob", "Production", at))
	require.NoError(t, ledger.CreateInstance(ctx, 11, "alice", "Development", at.Add(time.Hour)))

	open, err := ledger.ListOpen(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, open, 2)
	require.Equal(t, int64(11), open[0].ProjectID)
	require.NotEmpty(t, open[0].ID)
	require.Equal(t, "Development", open[0].Reason)

	n, err := ledger.Acknowledge(ctx, "alice", 10)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = ledger.Acknowledge(ctx, "alice", 10)
	require.NoError(t, err)
	require.Zero(t, n)

	require.NoError(t, ledger.SupersedeOpen(ctx, 10))
	open, err = ledger.ListOpen(ctx, "bob")
	require.NoError(t, err)
	require.Empty(t, open)

	var acknowledged, superseded int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT acknowledged, superseded FROM user_notices WHERE project_id = 10 AND username = 'alice'`,
	).Scan(&acknowledged, &superseded))
	require.Equal(t, 1, acknowledged)
	require.Equal(t, 0, superseded, "acknowledged notices are not superseded")
}
