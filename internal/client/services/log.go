package services

import (
	"io"
	"log/slog"
)

// discardSlog backs services constructed without an explicit logger.
func discardSlog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
