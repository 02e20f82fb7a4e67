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

	"github.com/charmbracelet/log"
)

func main() {
	cfg, err := LoadConfig(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal("config", "err", err)
	}
	cfg.ApplyLogLevel()
	SessionIdleTimeout = cfg.SessionIdle

	var db *DB
	if cfg.DBPath != "" {
		db, err = OpenDB(cfg.DBPath)
		if err != nil {
			log.Fatal("open journal db", "path", cfg.DBPath, "err", err)
		}
		defer db.Close()
	}
	var journal *Journal
	if db != nil {
		journal = NewJournal(db)
	}

	hub := NewHub(cfg, db, journal)
	stopHub := make(chan struct{})
	go hub.Run(stopHub)
	go hub.sessions.RunJanitor(stopHub)

	mux := SetupRoutes(hub)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		log.Info("server starting", "addr", cfg.Addr, "client", cfg.ClientDir, "db", cfg.DBPath)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal("ListenAndServe", "err", err)
		}
	}()

	<-stop
	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Warn("shutdown", "err", err)
	}
	close(stopHub)
	hub.Shutdown()
}
