package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sophialabs/visreg/internal/app"
)

func main() {
	cfg := app.DefaultConfig()
	flag.StringVar(&cfg.RootDir, "root", cfg.RootDir, "root directory for visual regression projects")
	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	flag.StringVar(&cfg.EngineCommand, "engine", cfg.EngineCommand, "diff engine command (BackstopJS CLI)")
	flag.DurationVar(&cfg.EngineTimeout, "engine-timeout", cfg.EngineTimeout, "maximum duration of one engine run")
	flag.DurationVar(&cfg.ProbeTimeout, "probe-timeout", cfg.ProbeTimeout, "preflight reachability probe timeout")
	flag.IntVar(&cfg.EventHistorySize, "event-history", cfg.EventHistorySize, "number of recent progress events to keep")
	flag.Parse()

	a, err := app.New(cfg)
	if err != nil {
		_, err := fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		if err != nil {
			return
		}
		os.Exit(1)
	}

	if err := a.Run(context.Background()); err != nil {
		_, err := fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if err != nil {
			return
		}
		os.Exit(1)
	}
}
