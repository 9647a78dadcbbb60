package main

import (
	"os"

	"github.com/spf13/cobra"

	"opsync/internal/interfaces/cli/migrate"
	"opsync/internal/interfaces/cli/server"
	"opsync/internal/interfaces/cli/user"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "opsync",
		Short: "opsync - collaborative record-locking service",
		Long:  `opsync coordinates exclusive record editing across engagement analysts: lease-based locks, session registry, and admin overrides.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		user.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
