package main

import (
	"context"
	"fmt"
	"os"

	"github.com/bryanwahyu/auditor-console/internal/bootstrap"
	"github.com/bryanwahyu/auditor-console/internal/config"
	"github.com/bryanwahyu/auditor-console/internal/logging"
	"github.com/bryanwahyu/auditor-console/internal/tui"
)

func main() {
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	// the screen belongs to the UI; logs go to a file when LOG_FILE is set
	logOut, err := logDestination()
	if err != nil {
		fmt.Fprintf(os.Stderr, "log file: %v\n", err)
		os.Exit(1)
	}
	defer logOut.Close()
	logger := logging.NewWithWriter(logOut, cfg.Log.Level, cfg.Log.Format)

	app, err := bootstrap.Build(context.Background(), cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := tui.Run(tui.Options{Controller: app.Controller, Renderer: app.Renderer}); err != nil {
		fmt.Fprintf(os.Stderr, "tui: %v\n", err)
		os.Exit(1)
	}
}

func logDestination() (*os.File, error) {
	if p := os.Getenv("LOG_FILE"); p != "" {
		return os.OpenFile(p, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	}
	return os.OpenFile(os.DevNull, os.O_WRONLY, 0)
}
