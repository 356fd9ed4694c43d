// Package sqlite implements the SQLite storage backend for the ledger.
//
// The backend owns one *sql.DB limited to a single connection. Writers take
// the backend lock exclusively; composite mutations (posting, reversal,
// cascading delete) each run in one transaction so a failure leaves the
// ledger in its pre-operation state.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/crediario/pkg/types"
)

// DatabaseFile is the SQLite file created inside Config.DataDir.
const DatabaseFile = "crediario.db"

// dsnPragmas enables foreign keys (for the declared cascades) and waits on a
// locked database instead of failing immediately.
const dsnPragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// Backend implements types.Ledger on SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	path     string
	db       *sql.DB

	log zerolog.Logger
	now func() time.Time
}

var _ types.Ledger = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for storage failures and warnings.
func WithLogger(log zerolog.Logger) Option {
	return func(b *Backend) { b.log = log }
}

// WithClock overrides the clock used for timestamps and the upcoming-charges
// window.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		log: zerolog.Nop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach opens DataDir/crediario.db, creating DataDir if needed, then
// initializes and reconciles the schema. Reconcile failures are logged and
// do not prevent attaching.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return fmt.Errorf("%w: backend is already attached", types.ErrInvalidArgument)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("%w: %w", types.ErrInvalidArgument, err)
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return b.storageErr("create data dir", err)
	}

	path := filepath.Join(dataDir, DatabaseFile)
	db, err := sql.Open("sqlite", "file:"+path+dsnPragmas)
	if err != nil {
		return b.storageErr("open database", err)
	}
	db.SetMaxOpenConns(1)

	if err := initialize(db); err != nil {
		db.Close()
		return b.storageErr("initialize schema", err)
	}
	if err := reconcile(db, b.log); err != nil {
		b.log.Warn().Err(err).Str("path", path).Msg("schema reconciliation incomplete")
	}

	b.db = db
	b.path = path
	b.config = config
	b.attached = true

	b.log.Debug().Str("path", path).Msg("ledger attached")
	return nil
}

// Detach closes the database. After Detach, all operations return
// ErrDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if err := b.db.Close(); err != nil {
		return b.storageErr("close database", err)
	}
	b.db = nil
	b.path = ""
	b.attached = false
	return nil
}

// Path returns the database file path, or "" when detached.
func (b *Backend) Path() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.path
}

// Initialize creates any missing ledger tables.
func (b *Backend) Initialize() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDetached
	}
	if err := initialize(b.db); err != nil {
		return b.storageErr("initialize schema", err)
	}
	return nil
}

// Reconcile re-runs the idempotent schema repair pass and returns the joined
// failures of the steps that did not succeed.
func (b *Backend) Reconcile() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDetached
	}
	return reconcile(b.db, b.log)
}

// Columns returns the column names of one of the ledger tables.
func (b *Backend) Columns(table string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	cols, err := tableColumns(b.db, table)
	if err != nil {
		return nil, b.storageErr("table info", err)
	}
	return cols, nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// withTx runs fn in a transaction, rolling back when fn fails. Caller errors
// (invalid argument, not found, overpayment) pass through unchanged; any
// other failure is reported as a storage failure for op.
// The caller must hold b.mu for writing.
func (b *Backend) withTx(op string, fn func(tx *sql.Tx) error) error {
	tx, err := b.db.Begin()
	if err != nil {
		return b.storageErr(op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		if types.IsUserError(err) {
			return err
		}
		return b.storageErr(op, err)
	}
	if err := tx.Commit(); err != nil {
		return b.storageErr(op, err)
	}
	return nil
}

// storageErr logs err once and wraps it with ErrStorageFailure.
func (b *Backend) storageErr(op string, err error) error {
	if errors.Is(err, types.ErrStorageFailure) {
		return err
	}
	b.log.Error().Err(err).Str("op", op).Msg("storage failure")
	return fmt.Errorf("%s: %w: %w", op, types.ErrStorageFailure, err)
}

// timestamp returns the current display timestamp.
func (b *Backend) timestamp() string {
	return types.Timestamp(b.now())
}

// today returns the current calendar date in the clock's location.
func (b *Backend) today() types.Date {
	return types.DateOf(b.now())
}

// newSnapshotID generates a UUID v7 for snapshot IDs.
func newSnapshotID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Money crosses the SQL boundary as REAL; callers only ever see decimals.

func toReal(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func fromReal(f sql.NullFloat64) decimal.Decimal {
	if !f.Valid {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f.Float64)
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
