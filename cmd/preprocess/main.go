package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/paulmach/orb"

	"github.com/azybler/wayfinder/pkg/building"
	"github.com/azybler/wayfinder/pkg/logging"
	osmparser "github.com/azybler/wayfinder/pkg/osm"
)

func main() {
	input := flag.String("input", "", "Path to indoor .osm or .osm.pbf file")
	output := flag.String("output", "map.json", "Output map document path")
	origin := flag.String("origin", "", "Lon,lat mapped to (0, 0) (default: south-west corner of the data)")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: preprocess --input <file.osm|file.osm.pbf> [--output map.json] [--origin lon,lat]")
		os.Exit(1)
	}

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q\n", *logLevel)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, level)

	opts := osmparser.ParseOptions{
		Format: osmparser.FormatFromPath(*input),
		Logger: logger,
	}
	if *origin != "" {
		var lon, lat float64
		if _, err := fmt.Sscanf(*origin, "%f,%f", &lon, &lat); err != nil {
			logger.Error("invalid origin (expected lon,lat)", "error", err)
			os.Exit(1)
		}
		opts.Origin = orb.Point{lon, lat}
	}

	start := time.Now()

	// Step 1: Parse OSM data.
	f, err := os.Open(*input)
	if err != nil {
		logger.Error("failed to open input file", "error", err)
		os.Exit(1)
	}
	defer f.Close()

	logger.Info("parsing OSM data", "path", *input, "format", opts.Format)
	doc, err := osmparser.Parse(context.Background(), f, opts)
	if err != nil {
		logger.Error("failed to parse OSM data", "error", err)
		os.Exit(1)
	}
	logger.Info("parsed",
		"floors", len(doc.Floors),
		"vertices", len(doc.Vertices),
		"edges", len(doc.Edges),
		"rooms", len(doc.Rooms))

	// Step 2: Check the document builds and report connectivity.
	_, report := building.New(doc, logger)
	for _, p := range report.Problems {
		logger.Warn("map problem", "error", p)
	}
	if report.Components > 1 {
		logger.Warn("walkway graph is not connected",
			"components", report.Components,
			"largest_component", report.LargestComponent,
			"vertices", report.Vertices)
	}

	// Step 3: Write the document.
	if err := building.WriteDocumentFile(*output, doc); err != nil {
		logger.Error("failed to write map", "error", err)
		os.Exit(1)
	}

	info, err := os.Stat(*output)
	if err != nil {
		logger.Error("failed to stat output", "error", err)
		os.Exit(1)
	}
	logger.Info("done",
		"took", time.Since(start).Round(time.Millisecond),
		"output", *output,
		"kb", float64(info.Size())/1024)
}
