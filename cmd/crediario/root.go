// Root command for the crediario CLI.
package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/crediario/internal/logger"
	"github.com/mesh-intelligence/crediario/internal/paths"
	"github.com/mesh-intelligence/crediario/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// app holds flag values and state shared by every subcommand of one run.
type app struct {
	flagConfigDir string
	flagDataDir   string
	flagBackupDir string
	flagJSON      bool
	flagLogLevel  string

	configDir string
	settings  *viper.Viper
	log       zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: zerolog.Nop()}

	root := &cobra.Command{
		Use:           "crediario",
		Short:         "Crediario keeps a personal installment-credit ledger",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.load(cmd)
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", types.ErrInvalidArgument, err)
	})

	flags := root.PersistentFlags()
	flags.StringVar(&a.flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	flags.StringVar(&a.flagDataDir, "data-dir", "", "data directory (default: platform data dir)")
	flags.StringVar(&a.flagBackupDir, "backup-dir", "", "local backup directory (default: <data-dir>/backups)")
	flags.BoolVar(&a.flagJSON, "json", false, "output as JSON")
	flags.StringVar(&a.flagLogLevel, "log-level", "", "log level (overrides log_level in config.yaml)")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newClientCmd(a),
		newPaymentCmd(a),
		newLogCmd(a),
		newTotalsCmd(a),
		newUpcomingCmd(a),
		newByDateCmd(a),
		newBackupCmd(a),
		newRestoreCmd(a),
	)
	return root
}

// load resolves the config directory, reads config.yaml and builds the
// logger.
func (a *app) load(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(a.flagConfigDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	a.configDir = configDir
	a.settings = v

	level := v.GetString(cfgKeyLogLevel)
	if a.flagLogLevel != "" {
		level = a.flagLogLevel
	}
	a.log = logger.New(logger.Options{
		Level:  level,
		Format: v.GetString(cfgKeyLogFormat),
		Out:    cmd.ErrOrStderr(),
	})
	return nil
}

// exitCode maps an error to the process exit status. Caller mistakes exit
// with 1, everything else with 2.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case types.IsUserError(err):
		return exitUserError
	default:
		return exitSysError
	}
}

// exactArgs is cobra.ExactArgs with the error marked as a caller mistake.
func exactArgs(n int) cobra.PositionalArgs {
	return userArgs(cobra.ExactArgs(n))
}

// rangeArgs is cobra.RangeArgs with the error marked as a caller mistake.
func rangeArgs(lo, hi int) cobra.PositionalArgs {
	return userArgs(cobra.RangeArgs(lo, hi))
}

func userArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", types.ErrInvalidArgument, err)
		}
		return nil
	}
}
