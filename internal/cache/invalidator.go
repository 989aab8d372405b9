package cache

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Channel carries appointment change notifications. Subscribers (the web
// dashboard's list caches) refetch the affected practitioner/date.
const Channel = "agendaflow:appointments:changed"

type ChangeEvent struct {
	UserID string `json:"user_id"`
	Date   string `json:"date"`
}

// Invalidator publishes an explicit invalidation event after each successful
// local mutation. Publishing is best-effort: a broker failure is logged and
// never blocks the mutation that triggered it.
type Invalidator struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewInvalidator(rdb *redis.Client, log *slog.Logger) *Invalidator {
	if log == nil {
		log = slog.Default()
	}
	return &Invalidator{
		rdb: rdb,
		log: log.With(slog.String("component", "cache")),
	}
}

func (i *Invalidator) AppointmentsChanged(ctx context.Context, userID, date string) {
	if i == nil || i.rdb == nil {
		return
	}

	payload, err := json.Marshal(ChangeEvent{UserID: userID, Date: date})
	if err != nil {
		i.log.Warn("encoding invalidation event failed", slog.Any("err", err))
		return
	}
	if err := i.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
		i.log.Warn("publishing invalidation event failed",
			slog.String("user_id", userID),
			slog.String("date", date),
			slog.Any("err", err),
		)
	}
}
