package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/alexanderramin/roadmap/internal/cache"
	"github.com/alexanderramin/roadmap/internal/cli"
	"github.com/alexanderramin/roadmap/internal/config"
	"github.com/alexanderramin/roadmap/internal/db"
	"github.com/alexanderramin/roadmap/internal/logger"
	"github.com/alexanderramin/roadmap/internal/notify"
	"github.com/alexanderramin/roadmap/internal/postgres"
	"github.com/alexanderramin/roadmap/internal/repository"
	"github.com/alexanderramin/roadmap/internal/resilience"
	"github.com/alexanderramin/roadmap/internal/service"
	"github.com/alexanderramin/roadmap/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Logging, os.Stderr)
	ctx := context.Background()

	// Open local database
	database, err := db.OpenDB(cfg.Local.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()
	local := repository.NewSQLiteDocumentRepo(database, db.NewSQLiteUnitOfWork(database))

	// Cloud store, when configured. Startup waits at most ConnectTimeout
	// before falling back to the local store.
	var dial repository.CloudDialer
	if cfg.Cloud.Enabled() {
		dial = func(ctx context.Context) (repository.DocumentRepo, func(), error) {
			if err := postgres.RunMigrations(ctx, cfg.Cloud.DSN); err != nil {
				return nil, nil, err
			}
			pool, err := postgres.NewPool(ctx, cfg.Cloud)
			if err != nil {
				return nil, nil, err
			}
			return repository.NewPostgresDocumentRepo(pool), pool.Close, nil
		}
	}
	breaker := resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
	docs := repository.Connect(ctx, local, dial, cfg.Cloud.ConnectTimeout, breaker, log)
	defer docs.Close()

	st := store.New()
	st.Subscribe(store.NewPersistObserver(docs, log))

	trees, err := cache.NewTreeCache(cfg.Cache.MaxItems)
	if err != nil {
		return fmt.Errorf("creating tree cache: %w", err)
	}
	defer trees.Close()

	// Wire services
	obs := service.NewLogUseCaseObserver(log)
	resourcing := service.NewResourcingService(docs, cfg.Resourcing.Years)
	roadmap := service.NewRoadmapService(st, docs, resourcing, trees, log, obs)

	if err := roadmap.Load(ctx); err != nil {
		return fmt.Errorf("loading roadmap: %w", err)
	}

	// Change notifications between instances sharing the cloud store.
	if cfg.NATS.URL != "" {
		n, err := notify.Connect(cfg.NATS.URL, cfg.NATS.Subject, cfg.Cloud.ConnectTimeout, log)
		if err != nil {
			log.Warn("change notifications disabled", "error", err)
		} else {
			defer n.Close()
			st.Subscribe(n)
			unsubscribe, err := n.Subscribe(func(m notify.Message) {
				if err := roadmap.Reload(context.Background()); err != nil {
					log.Warn("reload after remote change failed", "revision", m.Revision, "error", err)
				}
			})
			if err != nil {
				log.Warn("subscribing to changes failed", "error", err)
			} else {
				defer unsubscribe()
			}
		}
	}

	app := &cli.App{
		Roadmap:    roadmap,
		Resourcing: resourcing,
		Reports:    service.NewReportService(roadmap, resourcing),
		Server:     cfg.Server,
		Logger:     log,
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}

	return cli.NewRootCmd(app).Execute()
}
