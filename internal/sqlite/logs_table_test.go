package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddLog(t *testing.T) {
	b := setupBackend(t)
	c := mustAddClient(t, b, "Ana", "100")

	require.NoError(t, b.AddLog(c.ID, "first"))
	require.NoError(t, b.AddLog(c.ID, "second"))
	require.NoError(t, b.AddLog(0, "ignored"))

	logs, err := b.GetLogsByClient(c.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "second", logs[0].Description, "newest first")
	assert.Equal(t, "first", logs[1].Description)
	assert.Equal(t, c.ID, logs[0].ClientID)
	assert.Equal(t, "14/10/2026 15:30", logs[0].Date)
	assert.Greater(t, logs[0].ID, logs[1].ID)

	assert.Equal(t, 2, countRows(t, b, tableLogs, "1 = 1"))
}

func TestGetLogsByClient(t *testing.T) {
	b := setupBackend(t)

	logs, err := b.GetLogsByClient(0)
	require.NoError(t, err)
	assert.Empty(t, logs)

	logs, err = b.GetLogsByClient(123)
	require.NoError(t, err)
	assert.NotNil(t, logs)
	assert.Empty(t, logs)
}
