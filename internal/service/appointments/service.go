package appointments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"agendaflow/backend/internal/domain"
	"agendaflow/backend/internal/gcal"
	"agendaflow/backend/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

type calendarSync interface {
	Sync(ctx context.Context, appt domain.Appointment, info gcal.EventInfo, op gcal.Op) (string, error)
}

type invalidator interface {
	AppointmentsChanged(ctx context.Context, userID, date string)
}

type Service struct {
	appts   store.AppointmentRepository
	catalog store.CatalogRepository
	tokens  store.CalendarTokenRepository
	sync    calendarSync
	cache   invalidator
	log     *slog.Logger
}

func NewService(appts store.AppointmentRepository, catalog store.CatalogRepository, tokens store.CalendarTokenRepository, sync calendarSync, cache invalidator, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		appts:   appts,
		catalog: catalog,
		tokens:  tokens,
		sync:    sync,
		cache:   cache,
		log:     log.With(slog.String("component", "appointments")),
	}
}

// Result carries the locally persisted appointment plus an advisory warning
// when the remote calendar sync did not complete. The local write always
// stands: the calendar is a projection, not the source of truth.
type Result struct {
	Appointment domain.Appointment
	SyncWarning string
}

type CreateInput struct {
	UserID    string
	ClientID  uuid.UUID
	ServiceID uuid.UUID
	Date      string
	Time      string
	// Price overrides the service's price when set.
	Price *float64
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Result, error) {
	if in.UserID == "" {
		return Result{}, validationError("user_id is required")
	}
	if in.ClientID == uuid.Nil {
		return Result{}, validationError("client_id is required")
	}
	if in.ServiceID == uuid.Nil {
		return Result{}, validationError("service_id is required")
	}
	if err := validateDateTime(in.Date, in.Time); err != nil {
		return Result{}, err
	}

	svc, err := s.catalog.GetService(ctx, in.UserID, in.ServiceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Result{}, validationError("service not found")
		}
		return Result{}, err
	}
	client, err := s.catalog.GetClient(ctx, in.UserID, in.ClientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Result{}, validationError("client not found")
		}
		return Result{}, err
	}

	price := svc.Price
	if in.Price != nil {
		price = *in.Price
	}
	if price < 0 {
		return Result{}, validationError("price must not be negative")
	}

	appt := domain.Appointment{
		UserID:      in.UserID,
		ClientID:    in.ClientID,
		ServiceID:   in.ServiceID,
		ServiceName: svc.Name,
		Date:        in.Date,
		Time:        in.Time,
		Price:       price,
		Status:      domain.AppointmentStatusPending,
	}

	err = s.appts.InUserTransaction(ctx, in.UserID, func(ctx context.Context, tx store.ScheduleTx) error {
		existing, err := tx.ListAppointments(ctx, in.UserID, in.Date)
		if err != nil {
			return err
		}
		durations, err := s.resolveDurations(ctx, in.UserID, existing)
		if err != nil {
			return err
		}
		conflict, err := domain.HasConflict(domain.ScheduleCandidate{
			Date:            in.Date,
			Time:            in.Time,
			DurationMinutes: svc.Duration,
		}, existing, durations)
		if err != nil {
			return validationError(err.Error())
		}
		if conflict {
			return store.ErrConflict
		}

		created, err := tx.InsertAppointment(ctx, appt)
		if err != nil {
			return err
		}
		appt = created
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	s.invalidate(ctx, in.UserID, appt.Date)

	warning := s.syncCreate(ctx, &appt, client.Name, svc.Duration)
	return Result{Appointment: appt, SyncWarning: warning}, nil
}

type UpdateInput struct {
	UserID string
	ID     uuid.UUID

	ClientID  *uuid.UUID
	ServiceID *uuid.UUID
	Date      *string
	Time      *string
	Price     *float64
	Status    *domain.AppointmentStatus
}

func (s *Service) Update(ctx context.Context, in UpdateInput) (Result, error) {
	if in.UserID == "" {
		return Result{}, validationError("user_id is required")
	}
	if in.ID == uuid.Nil {
		return Result{}, validationError("appointment_id is required")
	}
	if in.Status != nil && !in.Status.Valid() {
		return Result{}, validationError("invalid status")
	}

	var appt domain.Appointment
	var prevDate string
	var wasSynced bool

	err := s.appts.InUserTransaction(ctx, in.UserID, func(ctx context.Context, tx store.ScheduleTx) error {
		current, err := tx.GetAppointment(ctx, in.UserID, in.ID)
		if err != nil {
			return err
		}
		prevDate = current.Date
		wasSynced = current.SyncedToGoogle

		merged := current
		if in.ClientID != nil {
			merged.ClientID = *in.ClientID
		}
		if in.ServiceID != nil && *in.ServiceID != current.ServiceID {
			svc, err := s.catalog.GetService(ctx, in.UserID, *in.ServiceID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return validationError("service not found")
				}
				return err
			}
			merged.ServiceID = svc.ID
			merged.ServiceName = svc.Name
		}
		if in.Date != nil {
			merged.Date = *in.Date
		}
		if in.Time != nil {
			merged.Time = *in.Time
		}
		if in.Price != nil {
			if *in.Price < 0 {
				return validationError("price must not be negative")
			}
			merged.Price = *in.Price
		}
		if in.Status != nil {
			merged.Status = *in.Status
		}
		if err := validateDateTime(merged.Date, merged.Time); err != nil {
			return err
		}

		if in.ClientID != nil {
			if _, err := s.catalog.GetClient(ctx, in.UserID, merged.ClientID); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return validationError("client not found")
				}
				return err
			}
		}

		svc, err := s.catalog.GetService(ctx, in.UserID, merged.ServiceID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return validationError("service not found")
			}
			return err
		}

		existing, err := tx.ListAppointments(ctx, in.UserID, merged.Date)
		if err != nil {
			return err
		}
		durations, err := s.resolveDurations(ctx, in.UserID, existing)
		if err != nil {
			return err
		}
		conflict, err := domain.HasConflict(domain.ScheduleCandidate{
			Date:            merged.Date,
			Time:            merged.Time,
			DurationMinutes: svc.Duration,
			ExcludeID:       merged.ID,
		}, existing, durations)
		if err != nil {
			return validationError(err.Error())
		}
		if conflict {
			return store.ErrConflict
		}

		updated, err := tx.UpdateAppointment(ctx, merged)
		if err != nil {
			return err
		}
		appt = updated
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	s.invalidate(ctx, in.UserID, appt.Date)
	if prevDate != appt.Date {
		s.invalidate(ctx, in.UserID, prevDate)
	}

	var warning string
	if wasSynced {
		warning = s.syncUpdate(ctx, &appt)
	}
	return Result{Appointment: appt, SyncWarning: warning}, nil
}

// Delete removes the local appointment unconditionally; the remote event
// delete runs first, best-effort.
func (s *Service) Delete(ctx context.Context, userID string, id uuid.UUID) (string, error) {
	if userID == "" {
		return "", validationError("user_id is required")
	}
	if id == uuid.Nil {
		return "", validationError("appointment_id is required")
	}

	appt, err := s.appts.GetByID(ctx, userID, id)
	if err != nil {
		return "", err
	}

	var warning string
	if appt.SyncedToGoogle {
		if _, err := s.sync.Sync(ctx, appt, gcal.EventInfo{}, gcal.OpDelete); err != nil {
			if !errors.Is(err, gcal.ErrNotSynced) {
				warning = syncWarning("deleted", err)
				s.log.Warn("calendar delete sync failed",
					slog.String("appointment_id", appt.ID.String()),
					slog.String("user_id", userID),
					slog.Any("err", err),
				)
			}
		}
	}

	if err := s.appts.Delete(ctx, userID, id); err != nil {
		return "", err
	}

	s.invalidate(ctx, userID, appt.Date)

	s.log.Info("appointment deleted",
		slog.String("appointment_id", id.String()),
		slog.String("user_id", userID),
	)
	return warning, nil
}

func (s *Service) List(ctx context.Context, userID, date string) ([]domain.Appointment, error) {
	if userID == "" {
		return nil, validationError("user_id is required")
	}
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return nil, validationError("date must be YYYY-MM-DD")
	}
	return s.appts.ListByDate(ctx, userID, date)
}

// ResyncReport accumulates per-item outcomes of a bulk resync. A failing item
// never aborts the batch.
type ResyncReport struct {
	Attempted int
	Synced    int
	Failed    int
	Errors    []string
}

// BulkResync attempts a create sync for every locally unsynced appointment of
// the practitioner, one at a time to keep failure attribution per item and to
// stay clear of provider rate limits.
func (s *Service) BulkResync(ctx context.Context, userID string) (ResyncReport, error) {
	if userID == "" {
		return ResyncReport{}, validationError("user_id is required")
	}

	appts, err := s.appts.ListUnsynced(ctx, userID)
	if err != nil {
		return ResyncReport{}, err
	}

	report := ResyncReport{Attempted: len(appts)}
	for _, appt := range appts {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		svc, err := s.catalog.GetService(ctx, userID, appt.ServiceID)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: resolving service: %v", appt.ID, err))
			continue
		}
		client, err := s.catalog.GetClient(ctx, userID, appt.ClientID)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: resolving client: %v", appt.ID, err))
			continue
		}

		eventID, err := s.sync.Sync(ctx, appt, gcal.EventInfo{
			ClientName:      client.Name,
			ServiceName:     appt.ServiceName,
			DurationMinutes: svc.Duration,
			Price:           appt.Price,
		}, gcal.OpCreate)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", appt.ID, err))
			continue
		}

		if err := s.appts.SetSyncState(ctx, appt.ID, &eventID, true); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: persisting sync state: %v", appt.ID, err))
			continue
		}
		report.Synced++
	}

	s.log.Info("bulk resync finished",
		slog.String("user_id", userID),
		slog.Int("attempted", report.Attempted),
		slog.Int("synced", report.Synced),
		slog.Int("failed", report.Failed),
	)
	return report, nil
}

// UsersWithPendingSync lists practitioners that still have unsynced
// appointments, for the background resync sweep.
func (s *Service) UsersWithPendingSync(ctx context.Context) ([]string, error) {
	return s.appts.ListUsersWithUnsynced(ctx)
}

func (s *Service) ConnectCalendar(ctx context.Context, userID, accessToken, refreshToken string, expiresAt time.Time) error {
	if userID == "" {
		return validationError("user_id is required")
	}
	if accessToken == "" || refreshToken == "" {
		return validationError("access_token and refresh_token are required")
	}
	_, err := s.tokens.Save(ctx, domain.CalendarToken{
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt.UTC(),
	})
	return err
}

func (s *Service) DisconnectCalendar(ctx context.Context, userID string) error {
	if userID == "" {
		return validationError("user_id is required")
	}
	return s.tokens.Delete(ctx, userID)
}

func (s *Service) syncCreate(ctx context.Context, appt *domain.Appointment, clientName string, duration domain.Minutes) string {
	eventID, err := s.sync.Sync(ctx, *appt, gcal.EventInfo{
		ClientName:      clientName,
		ServiceName:     appt.ServiceName,
		DurationMinutes: duration,
		Price:           appt.Price,
	}, gcal.OpCreate)
	if err != nil {
		s.log.Warn("calendar create sync failed",
			slog.String("appointment_id", appt.ID.String()),
			slog.String("user_id", appt.UserID),
			slog.Any("err", err),
		)
		return syncWarning("saved", err)
	}

	if err := s.appts.SetSyncState(ctx, appt.ID, &eventID, true); err != nil {
		s.log.Error("persisting sync state failed",
			slog.String("appointment_id", appt.ID.String()),
			slog.Any("err", err),
		)
		return syncWarning("saved", err)
	}
	appt.GoogleEventID = &eventID
	appt.SyncedToGoogle = true
	return ""
}

func (s *Service) syncUpdate(ctx context.Context, appt *domain.Appointment) string {
	client, err := s.catalog.GetClient(ctx, appt.UserID, appt.ClientID)
	if err != nil {
		s.log.Warn("calendar update sync skipped",
			slog.String("appointment_id", appt.ID.String()),
			slog.String("reason", "client unresolved"),
			slog.Any("err", err),
		)
		return syncWarning("saved", err)
	}
	svc, err := s.catalog.GetService(ctx, appt.UserID, appt.ServiceID)
	if err != nil {
		s.log.Warn("calendar update sync skipped",
			slog.String("appointment_id", appt.ID.String()),
			slog.String("reason", "service unresolved"),
			slog.Any("err", err),
		)
		return syncWarning("saved", err)
	}

	eventID, err := s.sync.Sync(ctx, *appt, gcal.EventInfo{
		ClientName:      client.Name,
		ServiceName:     appt.ServiceName,
		DurationMinutes: svc.Duration,
		Price:           appt.Price,
	}, gcal.OpUpdate)
	if err != nil {
		if errors.Is(err, gcal.ErrNotSynced) {
			return ""
		}
		s.log.Warn("calendar update sync failed",
			slog.String("appointment_id", appt.ID.String()),
			slog.String("user_id", appt.UserID),
			slog.Any("err", err),
		)
		return syncWarning("saved", err)
	}

	if appt.GoogleEventID == nil || *appt.GoogleEventID != eventID {
		// Recreate-on-not-found handed back a fresh event id.
		if err := s.appts.SetSyncState(ctx, appt.ID, &eventID, true); err != nil {
			s.log.Error("persisting sync state failed",
				slog.String("appointment_id", appt.ID.String()),
				slog.Any("err", err),
			)
			return syncWarning("saved", err)
		}
		appt.GoogleEventID = &eventID
		appt.SyncedToGoogle = true
	}
	return ""
}

func (s *Service) resolveDurations(ctx context.Context, userID string, appts []domain.Appointment) (map[uuid.UUID]domain.Minutes, error) {
	seen := make(map[uuid.UUID]struct{}, len(appts))
	ids := make([]uuid.UUID, 0, len(appts))
	for _, a := range appts {
		if _, ok := seen[a.ServiceID]; ok {
			continue
		}
		seen[a.ServiceID] = struct{}{}
		ids = append(ids, a.ServiceID)
	}

	services, err := s.catalog.ServicesByIDs(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	durations := make(map[uuid.UUID]domain.Minutes, len(services))
	for id, svc := range services {
		durations[id] = svc.Duration
	}
	return durations, nil
}

func (s *Service) invalidate(ctx context.Context, userID, date string) {
	if s.cache == nil {
		return
	}
	s.cache.AppointmentsChanged(ctx, userID, date)
}

func validateDateTime(date, clock string) error {
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return validationError("date must be YYYY-MM-DD")
	}
	if _, err := time.Parse(domain.TimeLayout, clock); err != nil {
		return validationError("time must be HH:MM")
	}
	return nil
}

func syncWarning(saved string, err error) string {
	return fmt.Sprintf("%s, but not synced to Google Calendar: %v", saved, err)
}
