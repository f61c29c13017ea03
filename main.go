package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"example.com/product-catalog/internal/config"
	"example.com/product-catalog/internal/infra/persistence/sqlstore"
	"example.com/product-catalog/internal/infra/telemetry"
	apphttp "example.com/product-catalog/internal/interface/http"
	productuc "example.com/product-catalog/internal/usecase/product"
)

func main() {
	app := &cli.App{
		Name:  "catalog",
		Usage: "product catalog REST service",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "HTTP listen address (overrides CATALOG_HTTP_ADDR)"},
			&cli.StringFlag{Name: "dialect", Usage: "postgres, mysql or sqlite (overrides CATALOG_DB_DIALECT)"},
			&cli.StringFlag{Name: "database-uri", Usage: "database DSN (overrides CATALOG_DATABASE_URI)"},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "migrate the schema and serve HTTP",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply schema migrations and exit",
				Action: migrate,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("catalog failed")
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if c.IsSet("addr") {
		cfg.HTTPAddr = c.String("addr")
	}
	if c.IsSet("dialect") {
		cfg.DBDialect = c.String("dialect")
	}
	if c.IsSet("database-uri") {
		cfg.DatabaseURI = c.String("database-uri")
	}
	return cfg, nil
}

func openStore(ctx context.Context, cfg *config.Config) (*sqlstore.Store, error) {
	dialect, err := sqlstore.ParseDialect(cfg.DBDialect)
	if err != nil {
		return nil, err
	}
	store, err := sqlstore.Open(ctx, sqlstore.Config{
		Dialect:         dialect,
		DSN:             cfg.DatabaseURI,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	if err := store.InitDB(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

func migrate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := telemetry.NewLogger(cfg.LogLevel)

	store, err := openStore(c.Context, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	version, err := store.SchemaVersion(c.Context)
	if err != nil {
		return err
	}
	products, err := sqlstore.NewProductRepository(store).Count(c.Context)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"dialect":  store.Dialect(),
		"version":  version,
		"products": products,
	}).Info("schema up to date")
	return nil
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := telemetry.NewLogger(cfg.LogLevel)

	tp, err := telemetry.NewTracerProvider(c.Context, cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		return err
	}

	store, err := openStore(c.Context, cfg)
	if err != nil {
		return err
	}
	log.WithField("dialect", store.Dialect()).Info("database ready")

	metrics := telemetry.NewMetrics()
	repo := sqlstore.NewProductRepository(store)
	api := apphttp.NewAPI(apphttp.Dependencies{
		ProductService: productuc.NewService(repo, log, metrics),
		Logger:         log,
		Metrics:        metrics,
		FaultProbe:     cfg.FaultProbe,
	})
	srv := apphttp.NewServer(cfg.HTTPAddr, api.Router())

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("shutting down")
	case serveErr = <-errCh:
		log.WithError(serveErr).Error("server stopped")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("server shutdown")
	}
	if err := store.Close(); err != nil {
		log.WithError(err).Warn("close database")
	}
	if err := tp.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("tracer shutdown")
	}
	return serveErr
}
