package ingest

import (
	"io"
	"log/slog"

	"github.com/reviewlens/reviewlens/internal/shared/logging"
)

func newTestLogger() logging.Logger {
	return logging.NewWithWriter(io.Discard, slog.LevelError, "text")
}
