package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpadapter "riskboard/internal/adapters/http"
	"riskboard/internal/adapters/memory"
	pg "riskboard/internal/adapters/postgres"
	redisadapter "riskboard/internal/adapters/redis"
	"riskboard/internal/arb"
	"riskboard/internal/config"
	"riskboard/internal/logging"
	"riskboard/internal/ports"
	"riskboard/internal/services/risks"
	"riskboard/internal/workers/recalc"
)

const serviceName = "riskboard"

var (
	rootCmd = &cobra.Command{
		Use:           "riskboard",
		Short:         "Domain risk aggregation and priority scoring service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate [up|down|status|version]",
		Short: "Apply database migrations",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMigrate,
	}

	recalcCmd = &cobra.Command{
		Use:   "recalc",
		Short: "Recompute aggregates for every domain risk",
		RunE:  runRecalc,
	}

	recalcWorkers int
)

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(recalcCmd)
	recalcCmd.Flags().IntVar(&recalcWorkers, "workers", 0, "Concurrent recalculations (default RECALC_WORKERS)")
}

// app holds everything a command needs once configuration is resolved.
type app struct {
	cfg    config.Config
	log    *zap.Logger
	db     *pg.DB
	repo   ports.RiskRepository
	health ports.HealthChecker
	risks  *risks.Service
	closer []func()
}

func (a *app) Close() {
	for i := len(a.closer) - 1; i >= 0; i-- {
		a.closer[i]()
	}
	_ = a.log.Sync()
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg, cfgErr := config.Load()
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, serviceName)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	a := &app{cfg: cfg, log: log}
	if cfgErr != nil {
		if !errors.Is(cfgErr, config.ErrNoDatabase) {
			return nil, cfgErr
		}
		log.Warn("configuration", zap.Error(cfgErr))
	}

	switch cfg.Store {
	case config.StorePostgres:
		db, err := pg.Connect(ctx, cfg.DatabaseURL, pg.PoolOptions{})
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		a.db = db
		a.repo = db
		a.health = db
		a.closer = append(a.closer, db.Close)
	default:
		store := memory.New()
		a.repo = store
		a.health = store
	}

	routes, err := arb.Default()
	if cfg.ARBRoutingFile != "" {
		routes, err = arb.Load(cfg.ARBRoutingFile)
	}
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("arb routing: %w", err)
	}

	var events ports.EventPublisher = ports.NopPublisher{}
	if cfg.Redis.Addr != "" {
		client := redisadapter.NewClient(redisadapter.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closer = append(a.closer, func() { _ = client.Close() })
		if err := redisadapter.Ping(ctx, client); err != nil {
			log.Warn("event stream unreachable at startup", zap.Error(err))
		}
		events = redisadapter.NewPublisher(client, cfg.Redis.Stream, 100000)
	}

	a.risks = risks.New(a.repo, routes, events, log, risks.Options{StrictTransitions: cfg.StrictTransitions})
	log.Info("bootstrap complete",
		zap.String("env", cfg.Env),
		zap.String("store", cfg.Store),
		zap.Bool("strict_transitions", cfg.StrictTransitions),
		zap.Bool("events", cfg.Redis.Addr != ""),
	)
	return a, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	r := chi.NewRouter()
	r.Mount("/", httpadapter.New(a.risks, a.health, a.log).Routes())
	srv := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	a.log.Info("listening", zap.String("addr", a.cfg.ListenAddr))

	select {
	case <-ctx.Done():
		a.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	if a.db == nil {
		return errors.New("migrate requires STORE=postgres and DATABASE_URL")
	}
	command := "up"
	if len(args) == 1 {
		command = args[0]
	}
	if err := pg.Migrate(cmd.Context(), a.db, command); err != nil {
		return err
	}
	a.log.Info("migrations applied", zap.String("command", command))
	return nil
}

func runRecalc(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	workers := a.cfg.RecalcWorkers
	if recalcWorkers > 0 {
		workers = recalcWorkers
	}
	res, err := recalc.Run(ctx, a.risks, a.risks, workers, a.log)
	if err != nil {
		return err
	}
	if res.Failed > 0 {
		return fmt.Errorf("%d of %d domain risks failed to recalculate", res.Failed, res.Processed+res.Failed)
	}
	return nil
}
