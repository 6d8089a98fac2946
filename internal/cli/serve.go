package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/storage/postgres"
	transporthttp "github.com/malhajri07/real-estate-CRM-project-sub000/internal/transport/http"
	"github.com/malhajri07/real-estate-CRM-project-sub000/migrations"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(e *env) *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, unless disabled, the expiry sweeper",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return e.serve(ctx, !skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply pending migrations on startup")
	return cmd
}

func (e *env) serve(ctx context.Context, migrate bool) error {
	logger := e.logger

	startupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := postgres.Open(startupCtx, e.cfg.Database.URL, e.cfg.Database.MaxConns)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrate {
		applied, err := migrations.Apply(startupCtx, db)
		if err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		if len(applied) > 0 {
			logger.Info("applied migrations", "names", applied)
		}
	}

	svc := buildServices(e.cfg, db, logger)
	server := &http.Server{
		Addr:              ":" + e.cfg.Server.Port,
		Handler:           transporthttp.NewRouter(routerDeps(e.cfg, svc, db, logger)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("api listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if e.cfg.Sweeper.Enabled {
		g.Go(func() error {
			return svc.sweeper.Run(gctx)
		})
	} else {
		logger.Info("expiry sweeper disabled")
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), e.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
