package main

import (
	"github.com/spf13/cobra"

	"study-backend/internal/shared/config"
	"study-backend/internal/shared/telemetry"
)

type commandContext struct {
	cfg    *config.Config
	logEnv string
}

func (c *commandContext) config() config.Config {
	if c.cfg == nil {
		loaded := config.Load()
		c.cfg = &loaded
	}
	return *c.cfg
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "studyctl",
		Short:         "Run study material jobs and maintenance tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return telemetry.Init(ctx.logEnv)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.logEnv, "log-mode", "production", "Logger mode (production or dev)")

	rootCmd.AddCommand(newProcessCommand(ctx))
	rootCmd.AddCommand(newMigrateCommand(ctx))

	return rootCmd
}
