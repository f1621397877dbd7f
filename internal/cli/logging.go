package cli

import (
	"io"
	"log/slog"
	"strings"

	"github.com/corridas/rankrelay/internal/config"
)

// newLogger builds the process logger from cfg. cfg is expected to have
// passed Validate.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
