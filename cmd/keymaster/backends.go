package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/libopenstorage/keymaster"
)

func newBackendsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the vault backends, marking the configured one",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			for _, name := range keymaster.Backends() {
				marker := " "
				if name == a.cfg.Backend {
					marker = "*"
				}
				fmt.Fprintf(a.stdout, "%s %s\n", marker, name)
			}
			return nil
		},
	}
}
