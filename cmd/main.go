package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "heatpump_monitor/docs"
	"heatpump_monitor/internal/buffer"
	"heatpump_monitor/internal/config"
	"heatpump_monitor/internal/handlers"
	"heatpump_monitor/internal/logger"
	"heatpump_monitor/internal/metrics"
	"heatpump_monitor/internal/repository"
	"heatpump_monitor/internal/repository/db"
	"heatpump_monitor/internal/sensors"
	"heatpump_monitor/internal/server"
	"heatpump_monitor/internal/service"
	"heatpump_monitor/internal/transport"
)

const (
	configDir       = "configs"
	shutdownTimeout = 10 * time.Second
)

//go:generate swag init -g cmd/main.go -d ../ -o ../docs

// @title        Heat pump monitor API
// @version      1.0
// @description  Status, buffer and alert control for the heat-pump telemetry monitor.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in           header
// @name         Authorization
func main() {
	cfg, err := config.Load(configDir)
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(cfg.Log.Level)
	defer func() { _ = log.Sync() }()

	sqlDB, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err, "path", cfg.DB.Path)
	}
	defer closeDB(sqlDB, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sinks, err := transport.Open(ctx, cfg, log.Named("transport"))
	if err != nil {
		log.Fatalw("failed to open transport", "err", err, "kind", cfg.Transport.Kind)
	}

	repos := repository.NewRepository(sqlDB)
	m := metrics.New()
	pipeline := newPipeline(cfg, repos, sinks, m, log)

	services := service.NewService(repos, pipeline, cfg.Device.ID, cfg.Buffer.Capacity, service.AuthConfig{
		SigningKey: cfg.Auth.SigningKey,
		TokenTTL:   cfg.Auth.TokenTTL,
	})
	apiHandler := handlers.NewHandler(services, log.Named("http"), m.Handler())

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		services.Run(ctx, cfg.Pipeline.Interval)
	}()

	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)
	log.Infow("monitor started",
		"device", cfg.Device.ID,
		"simulation", cfg.Sensors.Simulation,
		"transport", cfg.Transport.Kind,
		"interval", cfg.Pipeline.Interval,
		"port", cfg.Port,
	)

	waitForShutdown(cancel, loopDone, srv, sinks, log)
}

func newPipeline(cfg *config.Config, repos *repository.Repository, sinks *transport.Sinks, m *metrics.Pipeline, log *logger.Logger) *service.Pipeline {
	clock := service.NewMonotonicClock()
	ranges := cfg.Sensors.RangeSet()
	runningAmps := cfg.Thresholds.CompressorRunningAmps

	var acq service.Acquirer
	if cfg.Sensors.Simulation {
		acq = service.NewSimulatedAssembler(cfg.Sensors.Seed, ranges, clock, runningAmps, cfg.Sensors.AnomalyRate)
	} else {
		src := sensors.NewIIOSource(cfg.Sensors.IIODir, nil)
		proc := sensors.NewProcessor(src, cfg.Sensors.Calibration)
		acq = service.NewAssembler(proc, ranges, clock, runningAmps).WithFaultLog(src, log.Named("sensors"))
	}

	alerts := service.NewAlertEngine(service.AlertOptionsFromConfig(cfg), sinks.Notifier, clock, log.Named("alerts"))

	var bufRepo repository.BufferRepo
	if cfg.Buffer.Persist {
		bufRepo = repos.BufferRepo
	}

	return service.NewPipeline(service.PipelineDeps{
		DeviceID:   cfg.Device.ID,
		DrainLimit: cfg.Pipeline.DrainLimit,
		QueueSize:  cfg.Pipeline.CommandCap,
		Acquirer:   acq,
		Alerts:     alerts,
		Ring:       buffer.New(cfg.Buffer.Capacity),
		Publisher:  sinks.Publisher,
		StatusRepo: repos.StatusRepo,
		EventRepo:  repos.EventRepo,
		BufferRepo: bufRepo,
		Metrics:    m,
		Log:        log.Named("pipeline"),
	})
}

func closeDB(sqlDB *sql.DB, log *logger.Logger) {
	if err := sqlDB.Close(); err != nil {
		log.Errorw("failed to close sqlite", "err", err)
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown blocks until SIGINT/SIGTERM, then stops the loop, the HTTP server and the sinks.
func waitForShutdown(cancel context.CancelFunc, loopDone <-chan struct{}, srv *server.Server, sinks *transport.Sinks, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down")

	// the loop finishes its current pass before exiting
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	select {
	case <-loopDone:
	case <-ctx.Done():
		log.Warnw("pipeline did not stop in time")
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
	if err := sinks.Close(ctx); err != nil {
		log.Errorw("transport close failed", "err", err)
	}
}
