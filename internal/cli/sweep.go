package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/storage/postgres"
	"github.com/spf13/cobra"
)

func newSweepCmd(e *env) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Expire ACTIVE claims past their expiry and reopen their buyer requests",
		Long: `sweep runs the expiry sweeper on its own, for deployments that keep it
out of the API process. With --once it makes a single pass and exits,
which suits cron.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return e.sweep(ctx, cmd, once)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single pass and exit")
	return cmd
}

func (e *env) sweep(ctx context.Context, cmd *cobra.Command, once bool) error {
	db, err := postgres.Open(ctx, e.cfg.Database.URL, e.cfg.Database.MaxConns)
	if err != nil {
		return err
	}
	defer db.Close()

	sweeper := buildServices(e.cfg, db, e.logger).sweeper
	if !once {
		return sweeper.Run(ctx)
	}

	n, err := sweeper.ExpireDue(ctx)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "expired %d claim(s)\n", n)
	return nil
}
