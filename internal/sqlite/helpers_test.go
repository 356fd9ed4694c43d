package sqlite

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/crediario/pkg/types"
)

// fixedNow is the clock used by every backend in these tests.
var fixedNow = time.Date(2026, time.October, 14, 15, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// setupBackend attaches a Backend on a fresh data directory. Config mutators
// run before Attach.
func setupBackend(t *testing.T, mutators ...func(*types.Config)) *Backend {
	t.Helper()
	return setupBackendIn(t, t.TempDir(), mutators...)
}

func setupBackendIn(t *testing.T, dataDir string, mutators ...func(*types.Config)) *Backend {
	t.Helper()
	config := types.Config{
		Backend: types.BackendSQLite,
		DataDir: dataDir,
	}
	for _, m := range mutators {
		m(&config)
	}
	b := NewBackend(WithClock(fixedClock))
	require.NoError(t, b.Attach(config))
	t.Cleanup(func() { b.Detach() })
	return b
}

func strict(c *types.Config) { c.StrictBalance = true }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func strPtr(s string) *string { return &s }

func mustAddClient(t *testing.T, b *Backend, name, value string) types.Client {
	t.Helper()
	c, err := b.AddClient(types.Client{Name: name, Value: dec(value)})
	require.NoError(t, err)
	return c
}

// paymentSum returns the sum of the client's current payment rows.
func paymentSum(t *testing.T, b *Backend, clientID int64) decimal.Decimal {
	t.Helper()
	payments, err := b.GetPaymentsByClient(clientID)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// countRows counts rows in table matching the where clause.
func countRows(t *testing.T, b *Backend, table, where string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, b.db.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE "+where, args...).Scan(&n))
	return n
}
