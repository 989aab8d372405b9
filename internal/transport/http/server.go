package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"agendaflow/backend/internal/domain"
	"agendaflow/backend/internal/service/appointments"
	"agendaflow/backend/internal/store"
)

type appointmentsService interface {
	Create(ctx context.Context, in appointments.CreateInput) (appointments.Result, error)
	Update(ctx context.Context, in appointments.UpdateInput) (appointments.Result, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) (string, error)
	List(ctx context.Context, userID, date string) ([]domain.Appointment, error)
	BulkResync(ctx context.Context, userID string) (appointments.ResyncReport, error)
	ConnectCalendar(ctx context.Context, userID, accessToken, refreshToken string, expiresAt time.Time) error
	DisconnectCalendar(ctx context.Context, userID string) error
}

type Server struct {
	svc appointmentsService
	log *slog.Logger
}

func NewServer(svc appointmentsService, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		svc: svc,
		log: log.With(slog.String("component", "http")),
	}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/appointments", s.handleCreate).Methods(http.MethodPost)
	v1.HandleFunc("/appointments", s.handleList).Methods(http.MethodGet)
	v1.HandleFunc("/appointments/{id}", s.handleUpdate).Methods(http.MethodPut)
	v1.HandleFunc("/appointments/{id}", s.handleDelete).Methods(http.MethodDelete)
	v1.HandleFunc("/calendar/resync", s.handleResync).Methods(http.MethodPost)
	v1.HandleFunc("/calendar/connection", s.handleConnect).Methods(http.MethodPost)
	v1.HandleFunc("/calendar/connection", s.handleDisconnect).Methods(http.MethodDelete)
	return r
}

type appointmentPayload struct {
	ID             string   `json:"id"`
	ClientID       string   `json:"client_id"`
	ServiceID      string   `json:"service_id"`
	Service        string   `json:"service"`
	Date           string   `json:"date"`
	Time           string   `json:"time"`
	Price          float64  `json:"price"`
	Status         string   `json:"status"`
	GoogleEventID  *string  `json:"google_event_id"`
	SyncedToGoogle bool     `json:"is_synced_to_google"`
}

type appointmentResponse struct {
	Appointment appointmentPayload `json:"appointment"`
	Warning     string             `json:"warning,omitempty"`
}

func toPayload(a domain.Appointment) appointmentPayload {
	return appointmentPayload{
		ID:             a.ID.String(),
		ClientID:       a.ClientID.String(),
		ServiceID:      a.ServiceID.String(),
		Service:        a.ServiceName,
		Date:           a.Date,
		Time:           a.Time,
		Price:          a.Price,
		Status:         string(a.Status),
		GoogleEventID:  a.GoogleEventID,
		SyncedToGoogle: a.SyncedToGoogle,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createRequest struct {
	ClientID  string   `json:"client_id"`
	ServiceID string   `json:"service_id"`
	Date      string   `json:"date"`
	Time      string   `json:"time"`
	Price     *float64 `json:"price"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "CreateAppointment"))

	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "client_id must be a UUID")
		return
	}
	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "service_id must be a UUID")
		return
	}

	res, err := s.svc.Create(r.Context(), appointments.CreateInput{
		UserID:    userID,
		ClientID:  clientID,
		ServiceID: serviceID,
		Date:      req.Date,
		Time:      req.Time,
		Price:     req.Price,
	})
	if err != nil {
		s.writeServiceError(w, log, err, userID)
		return
	}

	log.Info("appointment created",
		slog.String("appointment_id", res.Appointment.ID.String()),
		slog.String("user_id", userID),
		slog.String("date", res.Appointment.Date),
		slog.String("time", res.Appointment.Time),
		slog.Bool("synced", res.Appointment.SyncedToGoogle),
	)
	writeJSON(w, http.StatusCreated, appointmentResponse{
		Appointment: toPayload(res.Appointment),
		Warning:     res.SyncWarning,
	})
}

type updateRequest struct {
	ClientID  *string  `json:"client_id"`
	ServiceID *string  `json:"service_id"`
	Date      *string  `json:"date"`
	Time      *string  `json:"time"`
	Price     *float64 `json:"price"`
	Status    *string  `json:"status"`
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "UpdateAppointment"))

	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "appointment id must be a UUID")
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := appointments.UpdateInput{
		UserID: userID,
		ID:     id,
		Date:   req.Date,
		Time:   req.Time,
		Price:  req.Price,
	}
	if req.ClientID != nil {
		clientID, err := uuid.Parse(*req.ClientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "client_id must be a UUID")
			return
		}
		in.ClientID = &clientID
	}
	if req.ServiceID != nil {
		serviceID, err := uuid.Parse(*req.ServiceID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "service_id must be a UUID")
			return
		}
		in.ServiceID = &serviceID
	}
	if req.Status != nil {
		status := domain.AppointmentStatus(*req.Status)
		in.Status = &status
	}

	res, err := s.svc.Update(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, log, err, userID)
		return
	}

	log.Info("appointment updated",
		slog.String("appointment_id", id.String()),
		slog.String("user_id", userID),
	)
	writeJSON(w, http.StatusOK, appointmentResponse{
		Appointment: toPayload(res.Appointment),
		Warning:     res.SyncWarning,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "DeleteAppointment"))

	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "appointment id must be a UUID")
		return
	}

	warning, err := s.svc.Delete(r.Context(), userID, id)
	if err != nil {
		s.writeServiceError(w, log, err, userID)
		return
	}

	log.Info("appointment deleted",
		slog.String("appointment_id", id.String()),
		slog.String("user_id", userID),
	)
	writeJSON(w, http.StatusOK, map[string]string{"warning": warning})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "ListAppointments"))

	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	date := r.URL.Query().Get("date")

	appts, err := s.svc.List(r.Context(), userID, date)
	if err != nil {
		s.writeServiceError(w, log, err, userID)
		return
	}

	out := make([]appointmentPayload, 0, len(appts))
	for _, a := range appts {
		out = append(out, toPayload(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": out})
}

func (s *Server) handleResync(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "ResyncCalendar"))

	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	report, err := s.svc.BulkResync(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, log, err, userID)
		return
	}

	log.Info("bulk resync requested",
		slog.String("user_id", userID),
		slog.Int("synced", report.Synced),
		slog.Int("failed", report.Failed),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"attempted": report.Attempted,
		"synced":    report.Synced,
		"failed":    report.Failed,
		"errors":    report.Errors,
	})
}

type connectRequest struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "ConnectCalendar"))

	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.svc.ConnectCalendar(r.Context(), userID, req.AccessToken, req.RefreshToken, req.ExpiresAt); err != nil {
		s.writeServiceError(w, log, err, userID)
		return
	}

	log.Info("calendar connected", slog.String("user_id", userID))
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	log := s.log.With(slog.String("handler", "DisconnectCalendar"))

	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	if err := s.svc.DisconnectCalendar(r.Context(), userID); err != nil {
		s.writeServiceError(w, log, err, userID)
		return
	}

	log.Info("calendar disconnected", slog.String("user_id", userID))
	writeJSON(w, http.StatusNoContent, nil)
}

// userID comes from the authenticating reverse proxy; session handling is
// not this service's concern.
func (s *Server) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing X-User-ID header")
		return "", false
	}
	return userID, true
}

func (s *Server) writeServiceError(w http.ResponseWriter, log *slog.Logger, err error, userID string) {
	var vErr *appointments.ValidationError
	switch {
	case errors.Is(err, store.ErrConflict):
		log.Info("scheduling conflict", slog.String("user_id", userID))
		writeError(w, http.StatusConflict, "That time slot is already booked. Pick a different one.")
	case errors.Is(err, store.ErrNotFound):
		log.Info("not found", slog.String("user_id", userID))
		writeError(w, http.StatusNotFound, "not found")
	case errors.As(err, &vErr):
		log.Warn("invalid request", slog.Any("err", err), slog.String("user_id", userID))
		writeError(w, http.StatusBadRequest, vErr.Error())
	default:
		log.Error("request failed", slog.Any("err", err), slog.String("user_id", userID))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	if body == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
