package cli

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/app"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/clock"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/config"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/ratelimit"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/storage/postgres"
	transporthttp "github.com/malhajri07/real-estate-CRM-project-sub000/internal/transport/http"
)

type services struct {
	claims    *app.ClaimService
	pool      *app.PoolService
	sweeper   *app.Sweeper
	directory *postgres.UserDirectory
}

func buildServices(cfg config.Config, db *pgxpool.Pool, logger *slog.Logger) services {
	clk := clock.NewSystem()
	claimRepo := postgres.NewClaimRepository(db)
	audit := postgres.NewAuditRepository(db)
	directory := postgres.NewUserDirectory(db)

	limiter := ratelimit.New(ratelimit.Limits{
		MaxActivePerAgent:       cfg.Claims.MaxActivePerAgent,
		MaxClaimsPerBuyerPerDay: cfg.Claims.MaxClaimsPerBuyerPerDay,
		Cooldown:                cfg.Claims.Cooldown(),
	})

	return services{
		claims: app.NewClaimService(claimRepo, directory, limiter, clk,
			app.WithClaimTTL(cfg.Claims.ClaimTTL()),
			app.WithAuditSink(audit),
			app.WithClaimLogger(logger),
			app.WithClaimTimeouts(cfg.Timeouts.Store, cfg.Timeouts.Audit),
		),
		pool: app.NewPoolService(postgres.NewPoolRepository(db), clk).WithStoreTimeout(cfg.Timeouts.Store),
		sweeper: app.NewSweeper(claimRepo, audit, clk, logger.With("component", "sweeper"), app.SweeperConfig{
			Interval:     cfg.Sweeper.Interval,
			BatchSize:    cfg.Sweeper.BatchSize,
			StoreTimeout: cfg.Timeouts.Store,
			AuditTimeout: cfg.Timeouts.Audit,
		}),
		directory: directory,
	}
}

func routerDeps(cfg config.Config, svc services, db *pgxpool.Pool, logger *slog.Logger) transporthttp.RouterDeps {
	return transporthttp.RouterDeps{
		Pool:        svc.pool,
		Claims:      svc.claims,
		Directory:   svc.directory,
		Ready:       db,
		Logger:      logger.With("component", "http"),
		CORSOrigins: cfg.Server.Origins(),
	}
}
