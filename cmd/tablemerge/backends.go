package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tablemerge/internal/storage"
)

func (a *app) backendsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the storage kinds compiled in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, k := range storage.ListKinds() {
				ddl := ""
				if _, ok := storage.DialectFor(k); ok {
					ddl = " (create table)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", k, ddl)
			}
			return nil
		},
	}
}
