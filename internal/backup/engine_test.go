package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/crediario/internal/sqlite"
	"github.com/mesh-intelligence/crediario/pkg/types"
)

var fixedNow = time.Date(2026, time.October, 14, 15, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// setupLedger attaches a SQLite ledger holding one client with one payment.
func setupLedger(t *testing.T) *sqlite.Backend {
	t.Helper()
	b := sqlite.NewBackend(sqlite.WithClock(fixedClock))
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })

	c, err := b.AddClient(types.Client{Name: "Ana", Value: decimal.RequireFromString("100")})
	require.NoError(t, err)
	_, err = b.AddPayment(c.ID, decimal.RequireFromString("40"))
	require.NoError(t, err)
	return b
}

// fakeSource returns a fixed snapshot or error.
type fakeSource struct {
	snapshot *types.Snapshot
	err      error
	restored *types.Snapshot
}

func (f *fakeSource) Snapshot() (*types.Snapshot, error) { return f.snapshot, f.err }

func (f *fakeSource) Restore(s *types.Snapshot) error {
	f.restored = s
	return nil
}

// failingStore fails every Put.
type failingStore struct{}

func (failingStore) Put(context.Context, string, []byte, string) error {
	return errors.New("bucket unavailable")
}

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("bucket unavailable")
}

func TestBackupLocal(t *testing.T) {
	ledger := setupLedger(t)
	dir := filepath.Join(t.TempDir(), "backups")
	e := NewEngine(ledger, dir)
	ctx := context.Background()

	first, err := e.BackupLocal(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "crediario-backup-20261014-153000.json"), first)

	second, err := e.BackupLocal(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "crediario-backup-20261014-153000-1.json"), second)

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	s, err := DecodeSnapshot(data)
	require.NoError(t, err)
	require.Len(t, s.Clients, 1)
	assert.Equal(t, "Ana", s.Clients[0].Name)
	assert.Len(t, s.Payments, 1)
	assert.Len(t, s.Logs, 1)

	// Decoding and re-encoding yields the same bytes.
	again, err := EncodeSnapshot(s)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestBackupLocalSnapshotFailure(t *testing.T) {
	src := &fakeSource{err: types.ErrDetached}
	dir := filepath.Join(t.TempDir(), "backups")
	e := NewEngine(src, dir)

	_, err := e.BackupLocal(context.Background())
	assert.ErrorIs(t, err, types.ErrDetached)
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestBackupLocalDatabase(t *testing.T) {
	ledger := setupLedger(t)
	dir := t.TempDir()
	e := NewEngine(ledger, dir, WithClock(fixedClock))

	path, err := e.BackupLocalDatabase(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "crediario-backup-20261014-153000.db"), path)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	second, err := e.BackupLocalDatabase(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "crediario-backup-20261014-153000-1.db"), second)

	_, err = NewEngine(&fakeSource{}, dir).BackupLocalDatabase(context.Background())
	assert.ErrorIs(t, err, types.ErrUnsupported)
}

func TestBackupRemote(t *testing.T) {
	ledger := setupLedger(t)
	store := NewDirStore(t.TempDir())
	e := NewEngine(ledger, t.TempDir(), WithStore(store))
	ctx := context.Background()

	key, err := e.BackupRemote(ctx, "usuario_demo")
	require.NoError(t, err)

	stamped, err := store.Get(ctx, key)
	require.NoError(t, err)
	s, err := DecodeSnapshot(stamped)
	require.NoError(t, err)
	assert.Equal(t, SnapshotKey("usuario_demo", fixedNow, s.ID), key)
	assert.True(t, strings.HasPrefix(key, "backups/usuario_demo/20261014-153000-"))
	latest, err := store.Get(ctx, LatestKey("usuario_demo"))
	require.NoError(t, err)
	assert.Equal(t, stamped, latest)

	// A second backup in the same second gets its own object.
	again, err := e.BackupRemote(ctx, "usuario_demo")
	require.NoError(t, err)
	assert.NotEqual(t, key, again)
	_, err = store.Get(ctx, key)
	require.NoError(t, err)
	_, err = store.Get(ctx, again)
	require.NoError(t, err)

	_, err = store.Get(ctx, LatestKey("someone_else"))
	assert.ErrorIs(t, err, types.ErrNotFound, "keys are namespaced by owner")
}

func TestBackupRemoteRejectsBadOwner(t *testing.T) {
	ledger := setupLedger(t)
	e := NewEngine(ledger, t.TempDir(), WithStore(NewDirStore(t.TempDir())))

	for _, owner := range []string{"", "  ", "a/b", "..", "."} {
		_, err := e.BackupRemote(context.Background(), owner)
		assert.ErrorIs(t, err, types.ErrInvalidArgument, "owner %q", owner)
	}

	_, err := NewEngine(ledger, t.TempDir()).BackupRemote(context.Background(), "ana")
	assert.ErrorIs(t, err, types.ErrInvalidArgument, "no store configured")
}

func TestBackupRemoteAsync(t *testing.T) {
	ledger := setupLedger(t)
	store := NewDirStore(t.TempDir())
	e := NewEngine(ledger, t.TempDir(), WithStore(store))

	results := e.BackupRemoteAsync(context.Background(), "ana")

	// The snapshot was captured before returning, so later writes are not
	// part of the upload.
	_, err := ledger.AddClient(types.Client{Name: "Bruno"})
	require.NoError(t, err)

	r := <-results
	require.NoError(t, r.Err)
	assert.True(t, strings.HasPrefix(r.Key, "backups/ana/20261014-153000-"))
	_, open := <-results
	assert.False(t, open)

	data, err := store.Get(context.Background(), r.Key)
	require.NoError(t, err)
	s, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Len(t, s.Clients, 1)
}

func TestBackupRemoteAsyncErrors(t *testing.T) {
	ledger := setupLedger(t)

	r := <-NewEngine(ledger, t.TempDir(), WithStore(failingStore{})).BackupRemoteAsync(context.Background(), "ana")
	assert.Error(t, r.Err)
	assert.Empty(t, r.Key)

	r = <-NewEngine(ledger, t.TempDir(), WithStore(failingStore{})).BackupRemoteAsync(context.Background(), "")
	assert.ErrorIs(t, r.Err, types.ErrInvalidArgument)
}

func TestRestoreLocal(t *testing.T) {
	ledger := setupLedger(t)
	e := NewEngine(ledger, t.TempDir())

	path, err := e.BackupLocal(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, e.RestoreLocal(path), types.ErrUnsupported)

	assert.ErrorIs(t, e.RestoreLocal(filepath.Join(t.TempDir(), "missing.json")), types.ErrNotFound)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	assert.ErrorIs(t, e.RestoreLocal(bad), types.ErrInvalidArgument)

	orphan := filepath.Join(t.TempDir(), "orphan.json")
	require.NoError(t, os.WriteFile(orphan, []byte(`{"version":1,"clients":[],"payments":[{"id":1,"client_id":7,"data":"x","valor":"1"}],"logs":[]}`), 0o644))
	assert.ErrorIs(t, e.RestoreLocal(orphan), types.ErrInvalidArgument)
}

func TestRestoreRemote(t *testing.T) {
	snapshot := &types.Snapshot{Version: types.SnapshotVersion, ID: "s1", CreatedAt: fixedNow,
		Clients: []types.Client{}, Payments: []types.Payment{}, Logs: []types.Log{}}
	src := &fakeSource{snapshot: snapshot}
	store := NewDirStore(t.TempDir())
	e := NewEngine(src, t.TempDir(), WithStore(store))
	ctx := context.Background()

	assert.ErrorIs(t, e.RestoreRemote(ctx, "ana"), types.ErrNotFound)

	_, err := e.BackupRemote(ctx, "ana")
	require.NoError(t, err)
	require.NoError(t, e.RestoreRemote(ctx, "ana"))
	require.NotNil(t, src.restored)
	assert.Equal(t, "s1", src.restored.ID)
}
