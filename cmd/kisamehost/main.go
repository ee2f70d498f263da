// Command kisamehost is the desktop shell's host process: it serves the UI's
// IPC surface, orchestrates capture analysis against the remote backend with
// a local-engine fallback, and manages interactive terminal sessions.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/pokymono/kisame-sub001/internal/config"
	"github.com/pokymono/kisame-sub001/internal/server"
)

func main() {
	var (
		port    int
		envFile string
	)
	pflag.IntVar(&port, "port", 0, "listen port (overrides PORT)")
	pflag.StringVar(&envFile, "env-file", "", "path to a .env file")
	pflag.Parse()

	cfg, err := config.Load(envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if port != 0 {
		cfg.Port = port
	}

	setupLogger(cfg)

	log.Info().
		Int("port", cfg.Port).
		Str("env", cfg.Env).
		Msg("starting kisame host")

	srv := server.New(cfg)

	go func() {
		// Localhost only: the IPC surface is for this machine's UI windows.
		addr := fmt.Sprintf("127.0.0.1:%d", cfg.Port)
		log.Info().Str("addr", addr).Msg("IPC server listening")

		if err := srv.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}

	log.Info().Msg("stopped")
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
