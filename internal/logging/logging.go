// Package logging настраивает глобальный logrus логгер.
package logging

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/BetterCallFirewall/PhishGuard/internal/config"
)

// Setup configures the standard logrus logger from cfg and writes to stderr.
func Setup(cfg config.LogConfig) error {
	return SetupOutput(cfg, os.Stderr)
}

// SetupOutput is Setup with an explicit destination.
func SetupOutput(cfg config.LogConfig, out io.Writer) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	switch cfg.Format {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}

	log.SetLevel(level)
	log.SetOutput(out)
	return nil
}
