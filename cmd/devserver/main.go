package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"blogfront/pkg/devserver"
)

func main() {
	var (
		httpAddr string
		logLevel string
		posts    string
	)

	flag.StringVar(&httpAddr, "http", ":8099", "HTTP server address in the form 'host:port'.")
	flag.StringVar(&logLevel, "log", "info", "Log level: debug, info, warn, error.")
	flag.StringVar(&posts, "posts", "", "Comma separated post IDs to create on start.")
	flag.Parse()

	if !strings.Contains(httpAddr, ":") {
		log.Warn("[devserver] use ':' before port number, e.g. ':8099'")
	}

	switch logLevel {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	}

	db := devserver.NewStore()
	if posts != "" {
		ids := strings.Split(posts, ",")
		for i := range ids {
			ids[i] = strings.TrimSpace(ids[i])
		}
		db.AddPosts(ids...)
		log.Infof("[devserver] created %d posts", len(ids))
	}

	api := devserver.New(db)
	srv := &http.Server{
		Addr:    httpAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Infof("[devserver] starting on port %v", httpAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[devserver] failed to start: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, shutdownRelease := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownRelease()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("[devserver] HTTP server shutdown error: %v", err)
	} else {
		log.Info("[devserver] HTTP server shut down gracefully")
	}
}
