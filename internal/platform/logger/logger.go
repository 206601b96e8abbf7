package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

var (
	once   sync.Once
	logger *slog.Logger
)

type Config struct {
	LogDir string
}

func Init(cfg Config) error {
	var err error
	once.Do(func() {
		if cfg.LogDir == "" {
			cfg.LogDir = "log"
		}

		if err = os.MkdirAll(cfg.LogDir, 0755); err != nil {
			return
		}

		logFile, openErr := os.OpenFile(filepath.Join(cfg.LogDir, "app.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if openErr != nil {
			err = openErr
			return
		}

		handler := slog.NewJSONHandler(io.MultiWriter(logFile, os.Stdout), &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})

		logger = slog.New(handler)
		slog.SetDefault(logger)
	})
	return err
}

func Get() *slog.Logger {
	if logger == nil {
		// Fallback if not initialized, though Init should be called.
		return slog.Default()
	}
	return logger
}
