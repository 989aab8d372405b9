package gcal

import (
	"context"
	"fmt"
	"time"

	"agendaflow/backend/internal/domain"
)

type Op int

const (
	OpCreate Op = iota
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// EventInfo is the resolved client/service data an event payload is built
// from. The appointment row alone is not enough: it only references them.
type EventInfo struct {
	ClientName      string
	ServiceName     string
	DurationMinutes domain.Minutes
	Price           float64
}

// Engine translates an appointment into its remote calendar twin. It owns no
// local persistence; the caller writes the returned event id and sync flag
// back onto the appointment.
type Engine struct {
	tokens *TokenManager
	cal    *Client
	loc    *time.Location
}

func NewEngine(tokens *TokenManager, cal *Client, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{tokens: tokens, cal: cal, loc: loc}
}

// Sync performs one remote calendar operation for the appointment and returns
// the remote event id for create (and for the recreate path of update). A
// delete whose event is already gone remotely succeeds; that end state is
// what was asked for.
func (e *Engine) Sync(ctx context.Context, appt domain.Appointment, info EventInfo, op Op) (string, error) {
	switch op {
	case OpCreate:
		if info.DurationMinutes <= 0 {
			return "", ErrMissingServiceDuration
		}
	case OpUpdate, OpDelete:
		if !appt.SyncedToGoogle || appt.GoogleEventID == nil || *appt.GoogleEventID == "" {
			return "", ErrNotSynced
		}
	}

	accessToken, err := e.tokens.ValidAccessToken(ctx, appt.UserID)
	if err != nil {
		return "", err
	}

	switch op {
	case OpCreate:
		ev, err := e.buildEvent(appt, info)
		if err != nil {
			return "", &SyncError{Op: op, Err: err}
		}
		id, err := e.cal.InsertEvent(ctx, accessToken, ev)
		if err != nil {
			return "", &SyncError{Op: op, Err: err}
		}
		return id, nil

	case OpUpdate:
		ev, err := e.buildEvent(appt, info)
		if err != nil {
			return "", &SyncError{Op: op, Err: err}
		}
		err = e.cal.UpdateEvent(ctx, accessToken, *appt.GoogleEventID, ev)
		if err == nil {
			return *appt.GoogleEventID, nil
		}
		if err == ErrEventNotFound {
			// The remote event vanished; recreate it instead of failing.
			if info.DurationMinutes <= 0 {
				return "", ErrMissingServiceDuration
			}
			id, err := e.cal.InsertEvent(ctx, accessToken, ev)
			if err != nil {
				return "", &SyncError{Op: op, Err: err}
			}
			return id, nil
		}
		return "", &SyncError{Op: op, Err: err}

	case OpDelete:
		err := e.cal.DeleteEvent(ctx, accessToken, *appt.GoogleEventID)
		if err != nil && err != ErrEventNotFound {
			return "", &SyncError{Op: op, Err: err}
		}
		return "", nil

	default:
		return "", fmt.Errorf("unknown sync operation %v", op)
	}
}

func (e *Engine) buildEvent(appt domain.Appointment, info EventInfo) (Event, error) {
	start, err := domain.CombineDateTime(appt.Date, appt.Time, e.loc)
	if err != nil {
		return Event{}, err
	}
	end := start.Add(time.Duration(info.DurationMinutes) * time.Minute)

	return Event{
		Summary: fmt.Sprintf("%s - %s", info.ClientName, info.ServiceName),
		Description: fmt.Sprintf("Client: %s\nService: %s\nDuration: %d min\nPrice: %.2f",
			info.ClientName, info.ServiceName, int(info.DurationMinutes), info.Price),
		Start: EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: e.loc.String()},
		End:   EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: e.loc.String()},
	}, nil
}
