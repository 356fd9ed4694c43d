// Backup and restore commands for the crediario CLI.
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/crediario/internal/backup"
	"github.com/mesh-intelligence/crediario/pkg/types"
)

// withEngine attaches the ledger, builds a backup engine on it and runs fn.
// A remote store is opened only when remote is true.
func (a *app) withEngine(ctx context.Context, remote bool, fn func(e *backup.Engine) error) error {
	ledger, dataDir, err := a.attachLedger()
	if err != nil {
		return err
	}
	defer ledger.Detach()

	backupDir, err := a.resolveBackupDir(dataDir)
	if err != nil {
		return fmt.Errorf("resolve backup dir: %w", err)
	}
	opts := []backup.Option{backup.WithLogger(a.log)}
	if remote {
		store, closeStore, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()
		opts = append(opts, backup.WithStore(store))
	}
	return fn(backup.NewEngine(ledger, backupDir, opts...))
}

// openStore returns the GCS store when remote.bucket is set, otherwise a
// directory store on remote.dir.
func (a *app) openStore(ctx context.Context) (backup.ObjectStore, func(), error) {
	if bucket := a.settings.GetString(cfgKeyRemoteBucket); bucket != "" {
		store, err := backup.NewGCSStore(ctx, bucket, backup.CredentialsFile(a.settings.GetString(cfgKeyRemoteCredentials))...)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}
	if dir := a.settings.GetString(cfgKeyRemoteDir); dir != "" {
		return backup.NewDirStore(dir), func() {}, nil
	}
	return nil, nil, fmt.Errorf("%w: set remote.bucket or remote.dir in %s", types.ErrInvalidArgument, configFileExt)
}

// owner returns --owner or remote.owner.
func (a *app) owner(flag string) string {
	if flag != "" {
		return flag
	}
	return a.settings.GetString(cfgKeyRemoteOwner)
}

func newBackupCmd(a *app) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export the ledger",
	}

	local := &cobra.Command{
		Use:   "local",
		Short: "Write a JSON snapshot to the backup directory",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd.Context(), false, func(e *backup.Engine) error {
				path, err := e.BackupLocal(cmd.Context())
				if err != nil {
					return fmt.Errorf("backup: %w", err)
				}
				return printResult(a, cmd, "path", path, "Backup written to "+path)
			})
		},
	}

	db := &cobra.Command{
		Use:   "db",
		Short: "Copy the database file to the backup directory",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd.Context(), false, func(e *backup.Engine) error {
				path, err := e.BackupLocalDatabase(cmd.Context())
				if err != nil {
					return fmt.Errorf("backup: %w", err)
				}
				return printResult(a, cmd, "path", path, "Database copied to "+path)
			})
		},
	}

	remote := &cobra.Command{
		Use:   "remote",
		Short: "Upload a JSON snapshot to the remote store",
		Long: `Remote uploads a snapshot to backups/<owner>/<timestamp>-<id>.json and
refreshes backups/<owner>/latest.json in the bucket named by remote.bucket,
or in the directory named by remote.dir.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd.Context(), true, func(e *backup.Engine) error {
				r := <-e.BackupRemoteAsync(cmd.Context(), a.owner(owner))
				if r.Err != nil {
					return fmt.Errorf("backup: %w", r.Err)
				}
				return printResult(a, cmd, "key", r.Key, "Backup uploaded to "+r.Key)
			})
		},
	}
	remote.Flags().StringVar(&owner, "owner", "", "owner namespace (default: remote.owner)")

	cmd.AddCommand(local, db, remote)
	return cmd
}

func newRestoreCmd(a *app) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Validate a backup for restoring into the ledger",
		Long: `Restore reads and validates a JSON snapshot. Replacing the ledger with
its contents is not supported yet, so a valid snapshot is reported as
unsupported and the ledger is left unchanged.`,
	}

	local := &cobra.Command{
		Use:   "local <path>",
		Short: "Restore from a local JSON snapshot",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd.Context(), false, func(e *backup.Engine) error {
				return e.RestoreLocal(args[0])
			})
		},
	}

	remote := &cobra.Command{
		Use:   "remote",
		Short: "Restore from backups/<owner>/latest.json",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd.Context(), true, func(e *backup.Engine) error {
				return e.RestoreRemote(cmd.Context(), a.owner(owner))
			})
		},
	}
	remote.Flags().StringVar(&owner, "owner", "", "owner namespace (default: remote.owner)")

	cmd.AddCommand(local, remote)
	return cmd
}

func printResult(a *app, cmd *cobra.Command, key, value, text string) error {
	if a.flagJSON {
		return printJSON(cmd.OutOrStdout(), map[string]string{key: value})
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}
