package audit

import (
	"context"
	"log/slog"
)

// LogRepo writes events as structured log lines. It is the sink used when no store is configured.
type LogRepo struct {
	log *slog.Logger
}

func NewLogRepo(l *slog.Logger) *LogRepo {
	if l == nil {
		l = slog.Default()
	}
	return &LogRepo{log: l.With("component", "audit")}
}

func (r *LogRepo) Append(ctx context.Context, e Event) error {
	r.log.InfoContext(ctx, "audit",
		"id", e.ID,
		"type", string(e.Type),
		"identity", e.Identity,
		"room", e.Room,
		"path", e.Path,
		"ip_address", e.IPAddress,
		"request_id", e.RequestID,
		"message", e.Message,
		"created_at", e.CreatedAt,
	)
	return nil
}
