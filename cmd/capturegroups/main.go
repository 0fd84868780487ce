package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"meetup_bot/internal/logging"
	"meetup_bot/internal/registry"
)

func main() {
	output := flag.String("output", "groups.csv", "path of the groups table to write")
	location := flag.String("location", "us--ok--Oklahoma City", "Meetup search location")
	category := flag.String("category", "546", "Meetup category id (546 is Technology)")
	distance := flag.String("distance", "hundredMiles", "search radius")
	lat := flag.Float64("lat", 35.467560, "latitude for the geolocation override")
	lon := flag.Float64("lon", -97.516426, "longitude for the geolocation override")
	exclude := flag.String("exclude", "", "comma-separated urlnames to leave out")
	timeout := flag.Duration("timeout", 2*time.Minute, "page load timeout")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger := logging.New(*logLevel, "text")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := registry.CaptureOptions{
		Location:   *location,
		CategoryID: *category,
		Distance:   *distance,
		Latitude:   *lat,
		Longitude:  *lon,
		Timeout:    *timeout,
	}
	logger.Info("capturing groups", "url", opts.SearchURL())

	hrefs, err := registry.Capture(ctx, opts)
	if err != nil {
		logger.Error("capture failed", "error", err)
		os.Exit(1)
	}

	var excluded []string
	if *exclude != "" {
		excluded = strings.Split(*exclude, ",")
	}
	groups := registry.Groups(hrefs, excluded)

	f, err := os.Create(*output)
	if err != nil {
		logger.Error("failed to create output", "error", err)
		os.Exit(1)
	}
	if err := registry.WriteCSV(f, groups); err != nil {
		f.Close()
		logger.Error("failed to write groups", "error", err)
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		logger.Error("failed to close output", "error", err)
		os.Exit(1)
	}

	logger.Info("groups written", "count", len(groups), "path", *output)
}
