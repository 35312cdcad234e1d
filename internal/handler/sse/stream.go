package sse

import (
	"context"
	"log/slog"
	"time"

	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
)

// Relay copies events to the client until the channel closes or the client
// goes away, sending keep-alive comments while the producer is quiet. The
// producer is not stopped when the client leaves.
func Relay(ctx context.Context, writer *Writer, events <-chan models.ProgressEvent, cfg *Config, logger *slog.Logger) {
	interval := cfg.keepAlive()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				logger.Debug("event channel closed, ending stream")
				return
			}
			if err := writer.WriteEvent(event); err != nil {
				logger.Info("client disconnected during event write", "error", err)
				return
			}
			ticker.Reset(interval)

		case <-ticker.C:
			if err := writer.WriteKeepAlive(); err != nil {
				logger.Warn("keep-alive write failed, stopping", "error", err)
				return
			}

		case <-ctx.Done():
			logger.Info("client disconnected, run continues in background")
			return
		}
	}
}
