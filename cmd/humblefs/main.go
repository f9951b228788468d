// Package main provides humblefs, an object-storage HTTP service over a
// local filesystem root.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/humblefs/humblefs/internal/config"
	"github.com/humblefs/humblefs/internal/logging"
	"github.com/humblefs/humblefs/internal/object"
	"github.com/humblefs/humblefs/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var (
		addr       string
		root       string
		configPath string
		logLevel   string
		logFormat  string
	)

	flag.StringVar(&addr, "addr", "", "listen address (default :8080)")
	flag.StringVar(&root, "root", "", "storage root directory")
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.StringVar(&logFormat, "log-format", "json", "log format: json, text")
	flag.Parse()

	environ := os.Environ()
	env := make(map[string]string, len(environ))

	for _, e := range environ {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}

	logger := logging.New(os.Stderr, logLevel, logFormat)

	workDir, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: cannot get working directory:", err)
		os.Exit(1)
	}

	overrides := config.Config{Root: root, Addr: addr}

	cfg, err := config.Load(workDir, configPath, overrides, env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	store := object.NewStore(cfg.Root, logger)
	srv := server.New(store, logger)

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.Run(cfg.Addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "error: shutdown:", err)
			os.Exit(1)
		}
	}
}
