package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/daniellittledev/ReSpacer/internal/settings"
	"github.com/daniellittledev/ReSpacer/internal/settings/store"
)

func newUpgradeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade FILE",
		Short: "Rewrite a settings document in the current format version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := store.Normalize(args[0])
			st, err := ctx.store()
			if err != nil {
				return err
			}

			raw, err := os.ReadFile(path)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("no settings document at %s", path)
				}
				return err
			}
			doc, err := st.Load(path)
			if err != nil {
				return err
			}

			encoded, err := settings.Encode(doc)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if bytes.Equal(raw, encoded) {
				fmt.Fprintf(out, "%s is already at version %d\n", path, settings.CurrentVersion)
				return nil
			}

			if err := st.Save(cmd.Context(), path, doc); err != nil {
				return err
			}
			fmt.Fprintf(out, "Upgraded %s to version %d\n", path, settings.CurrentVersion)
			return nil
		},
	}
}
