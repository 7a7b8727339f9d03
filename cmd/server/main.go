package main

import (
	"flag"
	"os"
	"time"

	"golang.org/x/exp/slog"

	"github.com/azybler/wayfinder/pkg/api"
	"github.com/azybler/wayfinder/pkg/building"
	"github.com/azybler/wayfinder/pkg/config"
	"github.com/azybler/wayfinder/pkg/geocoder"
	"github.com/azybler/wayfinder/pkg/logging"
	"github.com/azybler/wayfinder/pkg/routing"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (defaults are used when empty)")
	mapPath := flag.String("map", "", "Path to map document JSON (overrides config)")
	addr := flag.String("addr", "", "Listen address, e.g. :8080 (overrides config)")
	logLevel := flag.String("log-level", "", "debug, info, warn or error (overrides config)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			logging.New(os.Stderr, slog.LevelInfo).Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
	}
	if *mapPath != "" {
		cfg.Map = *mapPath
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		logging.New(os.Stderr, slog.LevelInfo).Error("invalid log level", "level", cfg.Log.Level)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, level)

	start := time.Now()

	// Load map.
	logger.Info("loading map", "path", cfg.Map)
	doc, err := building.ReadDocumentFile(cfg.Map)
	if err != nil {
		logger.Error("failed to load map", "error", err)
		os.Exit(1)
	}

	model, report := building.New(doc, logger)
	if len(report.Problems) > 0 {
		logger.Warn("map has problems", "count", len(report.Problems), "dropped_rooms", report.DroppedRooms)
	}
	logger.Info("building ready",
		"vertices", report.Vertices,
		"edges", report.Edges,
		"rooms", report.Rooms,
		"components", report.Components,
		"largest_component", report.LargestComponent)

	gc := geocoder.New(logger)
	n := model.RegisterDefinitions(gc)
	logger.Info("geocoder ready", "definitions", n, "floors", len(gc.Floors()))

	engine := routing.NewEngine(model, gc, routing.Options{
		SnapRadius: cfg.Routing.SnapRadius,
		GridCell:   cfg.Routing.GridCell,
		Logger:     logger,
	})

	logger.Info("ready", "took", time.Since(start).Round(time.Millisecond))

	stats := api.StatsResponse{
		Floors:      len(model.Floors()),
		Vertices:    report.Vertices,
		Edges:       report.Edges,
		Rooms:       report.Rooms,
		Definitions: gc.Len(),
		Components:  report.Components,
	}

	srvCfg := api.ServerConfig{
		Addr:          cfg.Server.Addr,
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
		MaxConcurrent: cfg.Server.MaxConcurrent,
		CORSOrigin:    cfg.Server.CORSOrigin,
	}
	handlers := api.NewHandlers(engine, gc, stats, logger)
	srv := api.NewServer(srvCfg, handlers, logger)

	if err := api.ListenAndServe(srv, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
