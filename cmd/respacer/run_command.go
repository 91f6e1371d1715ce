package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/daniellittledev/ReSpacer/internal/app"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start syncing with the interactive console host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(cfg, app.Options{
				ProjectDir: project,
				Out:        cmd.OutOrStdout(),
			})
			if err != nil {
				return err
			}
			return application.Run(runCtx)
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project directory to open on start")

	return cmd
}
