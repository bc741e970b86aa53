package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmenning/asu-calculator/internal/config"
	"github.com/cmenning/asu-calculator/internal/engine"
	"github.com/cmenning/asu-calculator/internal/inventory"
	"github.com/cmenning/asu-calculator/internal/persistence/snapshot"
	"github.com/cmenning/asu-calculator/internal/transport/ws"
)

func main() {
	logger := log.New(os.Stdout, "[asuserve] ", log.LstdFlags|log.Lmicroseconds)
	if err := run(os.Args[1:], logger); err != nil {
		logger.Printf("error: %v", err)
		os.Exit(1)
	}
}

func run(args []string, logger *log.Logger) error {
	fs := flag.NewFlagSet("asuserve", flag.ContinueOnError)
	poll := fs.Duration("poll", 2*time.Second, "how often websocket feeds check the snapshot for changes")
	loopback := fs.Bool("loopback-only", false, "reject requests from non-loopback addresses")
	s, err := config.ParseSettings(fs, args)
	if err != nil {
		return err
	}

	cfg, err := s.Chain()
	if err != nil {
		return err
	}
	store := snapshot.NewStore(s.InventoryPath, inventory.Fields(cfg), logger)

	srvImpl := ws.NewServer(store, engine.New(cfg), s.Target, logger)
	srvImpl.Poll = *poll
	srvImpl.LoopbackOnly = *loopback

	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           srvImpl.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signalContext()
	defer cancel()
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("serving %s on %s", store.Path(), s.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
