// Package backup exports ledger snapshots to local files and remote object
// stores and reads them back.
//
// Snapshots are captured synchronously from the ledger. Remote uploads never
// hold the ledger lock: the engine works on the captured copy only.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/crediario/pkg/types"
)

// File naming.
const (
	filePrefix   = "crediario-backup-"
	stampLayout  = "20060102-150405"
	extSnapshot  = ".json"
	extDatabase  = ".db"
	remotePrefix = "backups"
	latestObject = "latest.json"
	contentJSON  = "application/json"
)

// Source is the ledger surface the engine reads from and restores into.
type Source interface {
	Snapshot() (*types.Snapshot, error)
	Restore(s *types.Snapshot) error
}

// DatabaseCopier is implemented by ledgers that can copy their database file.
type DatabaseCopier interface {
	BackupDatabase(path string) error
}

// RemoteResult reports the outcome of an asynchronous remote backup.
type RemoteResult struct {
	Key string
	Err error
}

// Engine writes and reads ledger backups.
type Engine struct {
	source Source
	dir    string
	store  ObjectStore
	log    zerolog.Logger
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore sets the object store used by remote backups.
func WithStore(store ObjectStore) Option {
	return func(e *Engine) { e.store = store }
}

// WithLogger sets the engine logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithClock overrides the clock used to name database backups.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine that reads from source and writes local
// backups into dir.
func NewEngine(source Source, dir string, opts ...Option) *Engine {
	e := &Engine{
		source: source,
		dir:    dir,
		log:    zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BackupLocal writes a JSON snapshot into the backup directory and returns
// its path. The file is named after the snapshot time; a -N suffix is added
// when that name is taken.
func (e *Engine) BackupLocal(ctx context.Context) (string, error) {
	s, data, err := e.capture()
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", storageErr("create backup dir", err)
	}

	path, err := uniquePath(e.dir, filePrefix+s.CreatedAt.Format(stampLayout), extSnapshot)
	if err != nil {
		return "", storageErr("name backup", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return "", storageErr("write backup", err)
	}

	e.log.Info().Str("path", path).Str("snapshot", s.ID).Int("clients", len(s.Clients)).Msg("local backup written")
	return path, nil
}

// BackupLocalDatabase copies the ledger database into the backup directory
// and returns the copy's path. It returns ErrUnsupported when the source
// cannot copy its database.
func (e *Engine) BackupLocalDatabase(ctx context.Context) (string, error) {
	copier, ok := e.source.(DatabaseCopier)
	if !ok {
		return "", fmt.Errorf("database backup: %w", types.ErrUnsupported)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", storageErr("create backup dir", err)
	}

	path, err := uniquePath(e.dir, filePrefix+e.now().UTC().Format(stampLayout), extDatabase)
	if err != nil {
		return "", storageErr("name backup", err)
	}
	tmp := filepath.Join(e.dir, "."+filepath.Base(path)+".tmp")
	_ = os.Remove(tmp)
	if err := copier.BackupDatabase(tmp); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", storageErr("write backup", err)
	}

	e.log.Info().Str("path", path).Msg("database backup written")
	return path, nil
}

// BackupRemote uploads a JSON snapshot under backups/<owner>/ and refreshes
// backups/<owner>/latest.json. It returns the timestamped key.
func (e *Engine) BackupRemote(ctx context.Context, owner string) (string, error) {
	if err := e.checkRemote(owner); err != nil {
		return "", err
	}
	s, data, err := e.capture()
	if err != nil {
		return "", err
	}
	return e.upload(ctx, owner, s, data)
}

// BackupRemoteAsync captures the snapshot before returning and uploads it in
// the background. The channel receives exactly one result and is then
// closed. Argument and snapshot errors are delivered the same way.
func (e *Engine) BackupRemoteAsync(ctx context.Context, owner string) <-chan RemoteResult {
	results := make(chan RemoteResult, 1)

	if err := e.checkRemote(owner); err != nil {
		results <- RemoteResult{Err: err}
		close(results)
		return results
	}
	s, data, err := e.capture()
	if err != nil {
		results <- RemoteResult{Err: err}
		close(results)
		return results
	}

	go func() {
		defer close(results)
		key, err := e.upload(ctx, owner, s, data)
		if err != nil {
			e.log.Error().Err(err).Str("owner", owner).Msg("remote backup failed")
		}
		results <- RemoteResult{Key: key, Err: err}
	}()
	return results
}

// RestoreLocal reads and validates the snapshot at path and hands it to the
// ledger.
func (e *Engine) RestoreLocal(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("backup %s: %w", path, types.ErrNotFound)
	}
	if err != nil {
		return storageErr("read backup", err)
	}
	s, err := DecodeSnapshot(data)
	if err != nil {
		return fmt.Errorf("backup %s: %w", path, err)
	}
	return e.source.Restore(s)
}

// RestoreRemote fetches backups/<owner>/latest.json, validates it and hands it
// to the ledger.
func (e *Engine) RestoreRemote(ctx context.Context, owner string) error {
	if err := e.checkRemote(owner); err != nil {
		return err
	}
	key := LatestKey(owner)
	data, err := e.store.Get(ctx, key)
	if err != nil {
		return err
	}
	s, err := DecodeSnapshot(data)
	if err != nil {
		return fmt.Errorf("object %s: %w", key, err)
	}
	return e.source.Restore(s)
}

// EncodeSnapshot renders s as indented JSON.
func EncodeSnapshot(s *types.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", s, err)
	}
	return append(data, '\n'), nil
}

// DecodeSnapshot parses and validates a JSON snapshot.
func DecodeSnapshot(data []byte) (*types.Snapshot, error) {
	var s types.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot: %v", types.ErrInvalidArgument, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// SnapshotKey returns the object key of a timestamped remote backup. The
// snapshot id follows the stamp so backups taken in the same second keep
// distinct objects.
func SnapshotKey(owner string, at time.Time, id string) string {
	name := at.UTC().Format(stampLayout)
	if id != "" {
		name += "-" + id
	}
	return remotePrefix + "/" + owner + "/" + name + extSnapshot
}

// LatestKey returns the object key of the owner's most recent backup.
func LatestKey(owner string) string {
	return remotePrefix + "/" + owner + "/" + latestObject
}

// ValidateOwner checks that owner can be used as one key segment.
func ValidateOwner(owner string) error {
	switch {
	case strings.TrimSpace(owner) == "":
		return fmt.Errorf("%w: backup owner is required", types.ErrInvalidArgument)
	case strings.Contains(owner, "/"), owner == ".", owner == "..":
		return fmt.Errorf("%w: backup owner %q is not a single path segment", types.ErrInvalidArgument, owner)
	}
	return nil
}

func (e *Engine) checkRemote(owner string) error {
	if err := ValidateOwner(owner); err != nil {
		return err
	}
	if e.store == nil {
		return fmt.Errorf("%w: no remote store configured", types.ErrInvalidArgument)
	}
	return nil
}

func (e *Engine) capture() (*types.Snapshot, []byte, error) {
	s, err := e.source.Snapshot()
	if err != nil {
		return nil, nil, err
	}
	data, err := EncodeSnapshot(s)
	if err != nil {
		return nil, nil, storageErr("encode snapshot", err)
	}
	return s, data, nil
}

func (e *Engine) upload(ctx context.Context, owner string, s *types.Snapshot, data []byte) (string, error) {
	key := SnapshotKey(owner, s.CreatedAt, s.ID)
	if err := e.store.Put(ctx, key, data, contentJSON); err != nil {
		return "", err
	}
	if err := e.store.Put(ctx, LatestKey(owner), data, contentJSON); err != nil {
		return key, err
	}
	e.log.Info().Str("key", key).Str("snapshot", s.ID).Msg("remote backup uploaded")
	return key, nil
}

// uniquePath returns dir/base+ext, or dir/base-N+ext for the first free N.
func uniquePath(dir, base, ext string) (string, error) {
	path := filepath.Join(dir, base+ext)
	for n := 1; ; n++ {
		_, err := os.Stat(path)
		if os.IsNotExist(err) {
			return path, nil
		}
		if err != nil {
			return "", err
		}
		path = filepath.Join(dir, fmt.Sprintf("%s-%d%s", base, n, ext))
	}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, types.ErrStorageFailure, err)
}
