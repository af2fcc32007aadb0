package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shiro005/electionapp-sub000/internal/ble"
	"github.com/Shiro005/electionapp-sub000/internal/config"
	"github.com/Shiro005/electionapp-sub000/internal/printing"
	"github.com/Shiro005/electionapp-sub000/internal/receipt"
	"github.com/Shiro005/electionapp-sub000/internal/server"
	"github.com/Shiro005/electionapp-sub000/internal/translate"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "receipt-server.toml", "path to the deployment config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
	if *debug {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("config load failed")
	}

	clock := clockwork.NewRealClock()
	dialer := ble.NewAdapterDialer(log)
	conns := ble.NewManager(dialer, log)
	translator := translate.New(cfg.Translate.Endpoint, log)
	renderer := receipt.NewRenderer(cfg.Printer.FontPath, clock, log)
	transport := ble.NewTransport(clock, log)
	orchestrator := printing.New(conns, translator, renderer, transport,
		cfg.Branding, cfg.Translate.TargetLang, log)

	api := server.New(conns, orchestrator, cfg.Export.Password, log)
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("receipt server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Pair eagerly so the first print doesn't pay the scan cost, but keep
	// serving if no printer is in range yet.
	if err := conns.Connect(ctx); err != nil {
		log.Warn().Err(err).Msg("printer not connected at startup")
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := conns.Disconnect(); err != nil {
		log.Warn().Err(err).Msg("printer disconnect failed")
	}
}
