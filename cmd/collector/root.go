package main

import (
	"github.com/spf13/cobra"
)

var envFiles []string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "historycollector",
		Short: "Stellar history archive collector",
		Long: `Reads ledger and transaction files from a Stellar history archive and
stores the payments and trustline changes of one asset in PostgreSQL.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "Optional env files loaded before the environment")

	rootCmd.AddCommand(
		runCmd(),
		initCmd(),
		migrateCmd(),
		checkpointCmd(),
	)

	return rootCmd
}
