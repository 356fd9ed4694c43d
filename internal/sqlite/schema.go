package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"
)

// Table names.
const (
	tableClients  = "clients"
	tablePayments = "payments"
	tableLogs     = "logs"
)

// Schema DDL for all tables. Column names are part of the on-disk contract
// shared with existing databases and backups.
const (
	createClients = `CREATE TABLE IF NOT EXISTS clients (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    value REAL NOT NULL,
    bairro TEXT,
    numero TEXT,
    referencia TEXT,
    telefone TEXT,
    next_charge TEXT,
    paid REAL DEFAULT 0
);`

	createPayments = `CREATE TABLE IF NOT EXISTS payments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    client_id INTEGER NOT NULL,
    data TEXT NOT NULL,
    valor REAL NOT NULL,
    FOREIGN KEY (client_id) REFERENCES clients(id) ON DELETE CASCADE
);`

	createLogs = `CREATE TABLE IF NOT EXISTS logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    clientId INTEGER NOT NULL,
    data TEXT NOT NULL,
    descricao TEXT NOT NULL,
    FOREIGN KEY (clientId) REFERENCES clients(id) ON DELETE CASCADE
);`
)

// Legacy payments migration: the client reference used to be called clientId.
const (
	legacyPaymentsClientColumn = "clientId"

	createPaymentsNew = `CREATE TABLE payments_new (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    client_id INTEGER NOT NULL,
    data TEXT NOT NULL,
    valor REAL NOT NULL,
    FOREIGN KEY (client_id) REFERENCES clients(id) ON DELETE CASCADE
);`
	copyPaymentsLegacy = `INSERT INTO payments_new (id, client_id, data, valor)
    SELECT id, clientId, data, valor FROM payments;`
	dropPayments      = `DROP TABLE payments;`
	renamePaymentsNew = `ALTER TABLE payments_new RENAME TO payments;`
)

// Index DDL. Created during reconciliation, once column names are final.
var indexDDL = []struct {
	name string
	ddl  string
}{
	{name: "idx_payments_client", ddl: `CREATE INDEX IF NOT EXISTS idx_payments_client ON payments(client_id);`},
	{name: "idx_logs_client", ddl: `CREATE INDEX IF NOT EXISTS idx_logs_client ON logs(clientId);`},
}

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createClients,
	createPayments,
	createLogs,
}

// knownTables guards PRAGMA statements, which cannot take bound parameters.
var knownTables = map[string]bool{
	tableClients:  true,
	tablePayments: true,
	tableLogs:     true,
}

// columnFix adds a column when it is missing.
type columnFix struct {
	table  string
	column string
	def    string
}

var columnFixes = []columnFix{
	{table: tableClients, column: "paid", def: "paid REAL DEFAULT 0"},
	{table: tableClients, column: "next_charge", def: "next_charge TEXT"},
}

// initialize creates the ledger tables if absent.
func initialize(db *sql.DB) error {
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// reconcile brings an existing database up to the current shape. Each step
// runs independently: a failing step is logged and the rest still run. The
// returned error joins every step failure.
func reconcile(db *sql.DB, log zerolog.Logger) error {
	var errs []error
	step := func(name string, fn func() (bool, error)) {
		changed, err := fn()
		if err != nil {
			log.Error().Err(err).Str("step", name).Msg("schema reconcile step failed")
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		if changed {
			log.Info().Str("step", name).Msg("schema reconciled")
		}
	}

	for _, fix := range columnFixes {
		step("add "+fix.table+"."+fix.column, func() (bool, error) {
			return ensureColumn(db, fix)
		})
	}
	step("migrate payments client column", func() (bool, error) {
		return migrateLegacyPayments(db, log)
	})
	for _, idx := range indexDDL {
		step("create index "+idx.name, func() (bool, error) {
			_, err := db.Exec(idx.ddl)
			return false, err
		})
	}

	return errors.Join(errs...)
}

func ensureColumn(db *sql.DB, fix columnFix) (bool, error) {
	cols, err := tableColumns(db, fix.table)
	if err != nil {
		return false, err
	}
	if slices.Contains(cols, fix.column) {
		return false, nil
	}
	if _, err := db.Exec("ALTER TABLE " + fix.table + " ADD COLUMN " + fix.def + ";"); err != nil {
		return false, err
	}
	return true, nil
}

// migrateLegacyPayments rebuilds payments through create-copy-drop-rename when
// it still uses the legacy client column. Rows keep their ids, including rows
// whose client no longer exists. Foreign keys are off on the pinned connection
// for the rebuild and orphans are logged from foreign_key_check before commit.
// The rebuild runs in one transaction so a failure leaves the legacy table in
// place.
func migrateLegacyPayments(db *sql.DB, log zerolog.Logger) (changed bool, err error) {
	cols, err := tableColumns(db, tablePayments)
	if err != nil {
		return false, err
	}
	if !slices.Contains(cols, legacyPaymentsClientColumn) || slices.Contains(cols, "client_id") {
		return false, nil
	}

	ctx := context.Background()
	conn, err := db.Conn(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys=OFF"); err != nil {
		return false, err
	}
	defer func() {
		if _, fkErr := conn.ExecContext(ctx, "PRAGMA foreign_keys=ON"); fkErr != nil {
			err = errors.Join(err, fmt.Errorf("enable foreign keys: %w", fkErr))
		}
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	for _, stmt := range []string{createPaymentsNew, copyPaymentsLegacy, dropPayments, renamePaymentsNew} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return false, err
		}
	}
	orphans, err := paymentOrphans(ctx, tx)
	if err != nil {
		_ = tx.Rollback()
		return false, err
	}
	if len(orphans) > 0 {
		log.Warn().Ints64("payment_ids", orphans).Msg("migrated payments reference missing clients")
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// paymentOrphans returns the ids of payment rows whose client does not exist.
func paymentOrphans(ctx context.Context, tx *sql.Tx) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, "PRAGMA foreign_key_check("+tablePayments+")")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var (
			table  string
			rowid  sql.NullInt64
			parent string
			fkid   int
		)
		if err := rows.Scan(&table, &rowid, &parent, &fkid); err != nil {
			return nil, err
		}
		if rowid.Valid {
			ids = append(ids, rowid.Int64)
		}
	}
	return ids, rows.Err()
}

// tableColumns returns the column names of table in declaration order.
func tableColumns(db *sql.DB, table string) ([]string, error) {
	if !knownTables[table] {
		return nil, fmt.Errorf("unknown table %q", table)
	}
	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}
