package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/config"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/hub"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/producer"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/server"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/session"
)

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	mainRunner(mainDepsProvider())
}

type mainDeps struct {
	loadConfig   func() config.Config
	openStore    func(config.Config) (*session.Store, error)
	connectRedis func(config.Config) *redis.Client
	notify       func(chan<- os.Signal, ...os.Signal)
	run          func(context.Context, config.Config, *session.Store, *redis.Client, <-chan os.Signal, ListenFunc) error
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig: config.Load,
		openStore: func(cfg config.Config) (*session.Store, error) {
			return session.NewStore(cfg.LogDir, cfg.ArchiveDir, cfg.BackupDir)
		},
		connectRedis: hub.ConnectRedis,
		notify:       signal.Notify,
		run:          Run,
	}
}

func realMain(deps mainDeps) {
	cfg := deps.loadConfig()

	store, err := deps.openStore(cfg)
	if err != nil {
		// Without its log trees the station cannot record safely.
		log.Fatalf("storage init failed: %v", err)
	}

	rdb := deps.connectRedis(cfg)

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := deps.run(context.Background(), cfg, store, rdb, signals, nil); err != nil {
		log.Printf("server exited with error: %v", err)
	}
}

type ListenFunc func(app *fiber.App, addr string) error

var defaultListen ListenFunc = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

// Run starts the HTTP server, the telemetry pipeline, and (optionally) the
// mock producer, then waits for termination signals.
func Run(ctx context.Context, cfg config.Config, store *session.Store, rdb *redis.Client, signals <-chan os.Signal, listen ListenFunc) error {
	srv := server.NewServer(cfg, store, rdb)

	pipelineCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	driverDone := make(chan struct{})
	go func() {
		srv.Driver.Run(pipelineCtx)
		close(driverDone)
	}()

	if cfg.MockProducer {
		interval := time.Duration(cfg.ProducerIntervalMS) * time.Millisecond
		go producer.Run(pipelineCtx, interval, srv.Driver.Enqueue)
	}

	if listen == nil {
		listen = defaultListen
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- listen(srv.App, cfg.ServerPort)
	}()

	select {
	case <-signals:
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			cancel()
			<-driverDone
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.App.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}

	// Stop the pipeline before touching the log so no append is in flight.
	cancel()
	<-driverDone

	srv.Hub.CloseAll()
	if err := store.Close(); err != nil {
		log.Printf("closing flight log: %v", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	return nil
}
