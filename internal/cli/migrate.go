package cli

import (
	"fmt"

	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/storage/postgres"
	"github.com/malhajri07/real-estate-CRM-project-sub000/migrations"
	"github.com/spf13/cobra"
)

func newMigrateCmd(e *env) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if list {
				names, err := migrations.Names()
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(out, name)
				}
				return nil
			}

			db, err := postgres.Open(cmd.Context(), e.cfg.Database.URL, e.cfg.Database.MaxConns)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := migrations.Apply(cmd.Context(), db)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(out, "schema is up to date")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(out, "applied %s\n", name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "print the embedded migrations without connecting")
	return cmd
}
