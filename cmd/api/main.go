package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/propgraph/propgraph/internal/platform/config"
	"github.com/propgraph/propgraph/internal/platform/logger"
	"github.com/propgraph/propgraph/internal/platform/server"
)

func main() {
	if err := logger.Init(logger.Config{LogDir: "log"}); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("failed to build server: %v", err)
	}

	go func() {
		if err := srv.Run(); err != nil {
			log.Fatalf("server exited: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("failed to shut down gracefully: %v", err)
	}
}
