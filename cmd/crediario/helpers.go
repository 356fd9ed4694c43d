// Shared helpers for crediario CLI commands.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/crediario/internal/paths"
	"github.com/mesh-intelligence/crediario/pkg/sqlite"
	"github.com/mesh-intelligence/crediario/pkg/types"
)

// resolveDataDir applies --data-dir > config.yaml data_dir >
// CREDIARIO_DATA_DIR > platform default.
func (a *app) resolveDataDir() (string, error) {
	return paths.ResolveDataDir(a.flagDataDir, a.settings.GetString(cfgKeyDataDir))
}

// resolveBackupDir applies --backup-dir > config.yaml backup_dir >
// CREDIARIO_BACKUP_DIR > <data-dir>/backups.
func (a *app) resolveBackupDir(dataDir string) (string, error) {
	return paths.ResolveBackupDir(a.flagBackupDir, a.settings.GetString(cfgKeyBackupDir), dataDir)
}

// attachLedger opens the ledger in the resolved data directory. The caller
// must defer ledger.Detach().
func (a *app) attachLedger() (types.Ledger, string, error) {
	dataDir, err := a.resolveDataDir()
	if err != nil {
		return nil, "", fmt.Errorf("resolve data dir: %w", err)
	}
	cfg, err := ledgerConfig(a.settings, dataDir)
	if err != nil {
		return nil, "", err
	}
	ledger := sqlite.NewBackend(a.log)
	if err := ledger.Attach(cfg); err != nil {
		return nil, "", fmt.Errorf("attach ledger: %w", err)
	}
	return ledger, dataDir, nil
}

// withLedger attaches the ledger, runs fn and detaches.
func (a *app) withLedger(fn func(ledger types.Ledger) error) error {
	ledger, _, err := a.attachLedger()
	if err != nil {
		return err
	}
	defer ledger.Detach()
	return fn(ledger)
}

// parseID parses a positive row id.
func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s id %q", types.ErrInvalidArgument, kind, s)
	}
	return id, nil
}

// parseMoney accepts amounts written as 1234.5, 1234,50 or 1.234,50.
func parseMoney(s string) (decimal.Decimal, error) {
	v := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if strings.Contains(v, ",") {
		v = strings.ReplaceAll(v, ".", "")
		v = strings.Replace(v, ",", ".", 1)
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid amount %q", types.ErrInvalidArgument, s)
	}
	return d, nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// printClients writes a client table.
func printClients(w io.Writer, clients []types.Client) error {
	if len(clients) == 0 {
		_, err := fmt.Fprintln(w, "No clients.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tVALUE\tPAID\tOUTSTANDING\tNEXT CHARGE\tPHONE")
	for _, c := range clients {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Name,
			types.FormatMoney(c.Value), types.FormatMoney(c.Paid), types.FormatMoney(c.Outstanding()),
			deref(c.NextCharge), deref(c.Phone))
	}
	return tw.Flush()
}

// printPayments writes a payment table.
func printPayments(w io.Writer, payments []types.Payment) error {
	if len(payments) == 0 {
		_, err := fmt.Fprintln(w, "No payments.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tAMOUNT")
	for _, p := range payments {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", p.ID, p.Date, types.FormatMoney(p.Amount))
	}
	return tw.Flush()
}

// printLogs writes an audit log table.
func printLogs(w io.Writer, logs []types.Log) error {
	if len(logs) == 0 {
		_, err := fmt.Fprintln(w, "No log entries.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tDESCRIPTION")
	for _, l := range logs {
		fmt.Fprintf(tw, "%s\t%s\n", l.Date, l.Description)
	}
	return tw.Flush()
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
