package sqlite

import (
	"fmt"
	"os"

	"github.com/mesh-intelligence/crediario/pkg/types"
)

// Snapshot reads every client, payment and log in one transaction, so the
// result is a consistent point-in-time copy. The backend lock is held only
// while reading.
func (b *Backend) Snapshot() (*types.Snapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}

	tx, err := b.db.Begin()
	if err != nil {
		return nil, b.storageErr("snapshot", err)
	}
	defer tx.Rollback()

	s := &types.Snapshot{
		Version:   types.SnapshotVersion,
		ID:        newSnapshotID(),
		CreatedAt: b.now().UTC(),
	}
	if s.Clients, err = queryClients(tx, "SELECT "+clientColumns+" FROM clients ORDER BY id"); err != nil {
		return nil, b.storageErr("snapshot clients", err)
	}
	if s.Payments, err = queryPayments(tx, "SELECT id, client_id, data, valor FROM payments ORDER BY id"); err != nil {
		return nil, b.storageErr("snapshot payments", err)
	}
	if s.Logs, err = queryLogs(tx, "SELECT id, clientId, data, descricao FROM logs ORDER BY id"); err != nil {
		return nil, b.storageErr("snapshot logs", err)
	}
	return s, nil
}

// Restore validates s and reports ErrUnsupported. Restoring will replace the
// whole ledger with the snapshot contents; it is not implemented yet.
func (b *Backend) Restore(s *types.Snapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrDetached
	}
	return fmt.Errorf("restore %s: %w", s, types.ErrUnsupported)
}

// BackupDatabase writes a full copy of the database file to path using
// VACUUM INTO. path must not exist.
func (b *Backend) BackupDatabase(path string) error {
	if path == "" {
		return fmt.Errorf("%w: backup path is required", types.ErrInvalidArgument)
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s already exists", types.ErrInvalidArgument, path)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrDetached
	}
	if _, err := b.db.Exec("VACUUM INTO ?", path); err != nil {
		return b.storageErr("backup database", err)
	}
	return nil
}
