package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/UltraSive/p2p-signaling/internal/cleaner"
	"github.com/UltraSive/p2p-signaling/internal/config"
	"github.com/UltraSive/p2p-signaling/internal/handler"
	"github.com/UltraSive/p2p-signaling/internal/logger"
	"github.com/UltraSive/p2p-signaling/internal/transport"
	"github.com/UltraSive/p2p-signaling/internal/upstream"
)

// Version of the build injected at build time.
var buildString = "unknown"

func main() {
	// --- Config ---
	f := config.Flags()
	f.Usage = func() {
		fmt.Println(f.FlagUsages())
		os.Exit(0)
	}
	if err := f.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if ok, _ := f.GetBool("version"); ok {
		fmt.Println(buildString)
		return
	}

	cfg, err := config.Load(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	slog.SetDefault(log)
	for _, file := range cfg.Files {
		log.Info("read config", "file", file)
	}

	// --- Store ---
	db, err := makeStore(cfg)
	if err != nil {
		log.Error("error initializing store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// --- Handler ---
	h := handler.New(db, upstream.New(cfg.Upstream), cfg.Store.TTL, log)
	h.MaxBody = cfg.HTTP.MaxBodyBytes
	router := transport.NewHTTPRouter(h, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Start HTTP Server ---
	httpSrv := transport.NewServer(router)
	errc := make(chan error, 2)
	serve := func(l net.Listener) {
		if err := httpSrv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}

	if cfg.HTTP.Address != "" {
		l, err := net.Listen("tcp", cfg.HTTP.Address)
		if err != nil {
			log.Error("couldn't listen", "address", cfg.HTTP.Address, "error", err)
			os.Exit(1)
		}
		log.Info("HTTP API listening", "address", l.Addr().String(), "backend", cfg.Store.Backend)
		go serve(l)
	}

	// --- Start Unix Socket Listener ---
	if cfg.HTTP.Socket != "" {
		l, err := transport.ListenUnix(cfg.HTTP.Socket)
		if err != nil {
			log.Error("unix socket server error", "error", err)
			os.Exit(1)
		}
		log.Info("HTTP API listening", "socket", cfg.HTTP.Socket)
		go serve(l)
	}

	// --- Start Cleaner (only if an interval is set) ---
	if cfg.Cleanup.Interval > 0 {
		cleaner.Start(ctx, db, cfg.Cleanup.Interval, log)
		log.Info("periodic cleanup enabled", "interval", cfg.Cleanup.Interval)
	}

	// --- Wait for Interrupt ---
	select {
	case <-ctx.Done():
		log.Info("shutting down...")
	case err := <-errc:
		log.Error("http server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown incomplete", "error", err)
	}
	log.Info("shutdown complete")
}
