// Command servexd runs a small demo server on the servex engine.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"servex.dev/go/engine/internal/obs"
	"servex.dev/go/engine/servex"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	workers := flag.Int("workers", 8, "worker pool size")
	verbose := flag.Bool("v", false, "log at debug level")
	flag.Parse()

	logger := obs.StdLogger{L: log.New(os.Stderr, "servexd ", log.LstdFlags), Min: obs.Info}
	if *verbose {
		logger.Min = obs.Debug
	}

	s := &servex.Server{
		Addr:    *addr,
		Workers: *workers,
		Handler: servex.HandlerFunc(route),
		Logger:  logger,
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Shutdown(ctx); err != nil {
			logger.Logf(obs.Error, "shutdown: %v", err)
		}
	}()

	logger.Logf(obs.Info, "listening on %s with %d workers", *addr, *workers)
	if err := s.ListenAndServe(); err != servex.ErrServerClosed {
		log.Fatal(err)
	}
}

func route(w servex.ResponseWriter, r *servex.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	switch {
	case r.Path == "/health":
		w.WriteHeader(200)
		w.Write([]byte("ok\n"))
	case r.Path == "/echo" && r.Method == "POST":
		w.WriteHeader(200)
		w.Write(r.Body)
	case r.Path == "/upper" && r.Method == "POST":
		w.WriteHeader(200)
		w.Write([]byte(strings.ToUpper(string(r.Body))))
	default:
		w.WriteHeader(404)
		w.Write([]byte("not found\n"))
	}
}
