package resync

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"agendaflow/backend/internal/service/appointments"
)

// Scheduler periodically sweeps practitioners with unsynced appointments and
// runs a bulk resync for each. It complements the user-triggered resync
// endpoint; per-item failure isolation lives in the service layer.
type Scheduler struct {
	cron     *cron.Cron
	svc      *appointments.Service
	interval time.Duration
	timeout  time.Duration
	log      *slog.Logger
}

func NewScheduler(svc *appointments.Service, interval time.Duration, log *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		cron:     cron.New(),
		svc:      svc,
		interval: interval,
		timeout:  5 * time.Minute,
		log:      log.With(slog.String("component", "resync")),
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@every "+s.interval.String(), s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("resync scheduler started", slog.Duration("interval", s.interval))
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("resync scheduler stopped")
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	userIDs, err := s.svc.UsersWithPendingSync(ctx)
	if err != nil {
		s.log.Warn("listing users with pending sync failed", slog.Any("err", err))
		return
	}
	if len(userIDs) == 0 {
		return
	}

	for _, userID := range userIDs {
		report, err := s.svc.BulkResync(ctx, userID)
		if err != nil {
			s.log.Warn("bulk resync failed",
				slog.String("user_id", userID),
				slog.Any("err", err),
			)
			continue
		}
		if report.Failed > 0 {
			s.log.Warn("bulk resync finished with failures",
				slog.String("user_id", userID),
				slog.Int("synced", report.Synced),
				slog.Int("failed", report.Failed),
			)
		}
	}
}
