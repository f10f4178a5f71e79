package infrastructure

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/JaimeStill/alphadoc/internal/config"
)

// NewLogger builds the slog logger described by cfg. When cfg.File is set,
// output goes to a size-rotated file and the returned closer must be
// closed on exit; otherwise output goes to fallback and the closer is nil.
func NewLogger(cfg *config.LoggingConfig, fallback io.Writer) (*slog.Logger, io.Closer) {
	var (
		out    = fallback
		closer io.Closer
	)

	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		out = rotator
		closer = rotator
	}

	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler), closer
}
