package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/chaunceygardiner/weewx-loopdata/internal/api/http"
	"github.com/chaunceygardiner/weewx-loopdata/internal/config"
	"github.com/chaunceygardiner/weewx-loopdata/internal/engine"
	"github.com/chaunceygardiner/weewx-loopdata/internal/loop"
	"github.com/chaunceygardiner/weewx-loopdata/internal/report"
	"github.com/chaunceygardiner/weewx-loopdata/internal/source"
	"github.com/chaunceygardiner/weewx-loopdata/internal/units"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Report sink: loop-data file plus optional rsync mirror.
	writer, err := report.NewWriter(cfg.LoopData.FileSpec.Dir(), cfg.LoopData.FileSpec.Filename)
	if err != nil {
		log.Fatalf("failed to create report writer: %v", err)
	}
	var rsyncer *report.Rsyncer
	if cfg.LoopData.RsyncSpec.Enable {
		rs := cfg.LoopData.RsyncSpec
		rsyncer = report.NewRsyncer(report.RsyncConfig{
			RemoteServer:    rs.RemoteServer,
			RemotePort:      rs.RemotePort,
			RemoteUser:      rs.RemoteUser,
			RemoteDir:       rs.RemoteDir,
			Compress:        rs.Compress,
			LogSuccess:      rs.LogSuccess,
			SSHOptions:      rs.SSHOptions,
			Timeout:         rs.Timeout,
			SkipIfOlderThan: rs.SkipAge(),
		}, writer.Path())
	}
	pub := report.NewPublisher(writer, rsyncer)

	reportSys, err := units.ParseSystem(cfg.LoopData.Formatting.TargetUnitSystem)
	if err != nil {
		log.Fatalf("invalid target unit system: %v", err)
	}
	accumSys, err := units.ParseSystem(cfg.LoopData.Formatting.AccumUnitSystem)
	if err != nil {
		log.Fatalf("invalid accum unit system: %v", err)
	}

	eng, err := engine.New(engine.Config{
		Fields:         cfg.LoopData.Include.Fields,
		Renames:        cfg.LoopData.Rename,
		ReportSystem:   reportSys,
		AccumSystem:    accumSys,
		UnitGroups:     cfg.LoopData.Formatting.UnitGroups,
		StringFormats:  cfg.LoopData.Formatting.StringFormats,
		Labels:         cfg.LoopData.Formatting.Labels,
		WeekStart:      cfg.Station.WeekStartDay(),
		RainYearStart:  cfg.Station.RainYearStart,
		TrendSecs:      int64(cfg.LoopData.Formatting.TrendSeconds),
		BaroTrendDescs: cfg.LoopData.BarometerTrendDescriptions,
		QueueSize:      cfg.LoopData.Source.QueueSize,
		OnSnapshot: func(snap map[string]any, pkt *loop.Packet) {
			pub.Publish(ctx, snap, pkt.DateTime)
		},
	})
	if err != nil {
		log.Fatalf("failed to build engine: %v", err)
	}

	// Resume long-period aggregates from the last checkpoint.
	checkpointer, err := report.NewCheckpointer(
		cfg.LoopData.Source.CheckpointFile,
		cfg.LoopData.Source.CheckpointCron,
		eng.MarshalState,
	)
	if err != nil {
		log.Fatalf("failed to create checkpointer: %v", err)
	}
	if data, err := checkpointer.Load(); err != nil {
		log.Printf("checkpoint load failed, starting fresh: %v", err)
	} else if data != nil {
		if err := eng.RestoreState(data, time.Now().Unix()); err != nil {
			log.Printf("checkpoint restore failed, starting fresh: %v", err)
		}
	}
	checkpointer.Start()
	defer checkpointer.Stop()

	go func() {
		if err := eng.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("engine stopped: %v", err)
		}
	}()

	// Packet source: the simulator drives itself; the http kind accepts
	// packets through the API instead.
	var ingest source.Sink
	switch cfg.LoopData.Source.Kind {
	case "simulator":
		sim := source.NewSimulator(source.SimulatorConfig{
			Interval: time.Duration(cfg.LoopData.LoopFrequency.Seconds) * time.Second,
		}, eng.Enqueue)
		if err := sim.Start(); err != nil {
			log.Fatalf("failed to start simulator: %v", err)
		}
		defer sim.Stop()
	case "http":
		ingest = eng.Enqueue
	}

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weewx-loopdata",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weewx-loopdata",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, eng, httpapi.StationInfo{
		Location:    cfg.Station.Location,
		Latitude:    cfg.Station.Latitude,
		Longitude:   cfg.Station.Longitude,
		AltitudeFt:  cfg.Station.AltitudeFt,
		LoopSeconds: cfg.LoopData.LoopFrequency.Seconds,
	}, ingest)

	go func() {
		if err := app.Listen(":" + cfg.HTTP.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
