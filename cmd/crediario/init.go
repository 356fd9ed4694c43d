// Init command for the crediario CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the config file and the ledger database",
		Long: `Init writes a default config.yaml to the config directory if none
exists, then opens the ledger, creating the data directory and database and
repairing the schema of an existing database.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, dataDir, err := a.attachLedger()
			if err != nil {
				return err
			}
			defer ledger.Detach()

			out := cmd.OutOrStdout()
			if a.flagJSON {
				return printJSON(out, map[string]string{"config_dir": a.configDir, "data_dir": dataDir})
			}
			fmt.Fprintln(out, "Ledger initialized")
			fmt.Fprintln(out, "  config:", a.configDir)
			fmt.Fprintln(out, "  data:  ", dataDir)
			return nil
		},
	}
}
