package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"agendaflow/backend/internal/domain"
	"agendaflow/backend/internal/service/appointments"
	"agendaflow/backend/internal/store"
)

type fakeService struct {
	createFn     func(ctx context.Context, in appointments.CreateInput) (appointments.Result, error)
	updateFn     func(ctx context.Context, in appointments.UpdateInput) (appointments.Result, error)
	deleteFn     func(ctx context.Context, userID string, id uuid.UUID) (string, error)
	listFn       func(ctx context.Context, userID, date string) ([]domain.Appointment, error)
	bulkResyncFn func(ctx context.Context, userID string) (appointments.ResyncReport, error)
	connectFn    func(ctx context.Context, userID, accessToken, refreshToken string, expiresAt time.Time) error
	disconnectFn func(ctx context.Context, userID string) error
}

func (f *fakeService) Create(ctx context.Context, in appointments.CreateInput) (appointments.Result, error) {
	if f.createFn == nil {
		panic("Create not configured")
	}
	return f.createFn(ctx, in)
}

func (f *fakeService) Update(ctx context.Context, in appointments.UpdateInput) (appointments.Result, error) {
	if f.updateFn == nil {
		panic("Update not configured")
	}
	return f.updateFn(ctx, in)
}

func (f *fakeService) Delete(ctx context.Context, userID string, id uuid.UUID) (string, error) {
	if f.deleteFn == nil {
		panic("Delete not configured")
	}
	return f.deleteFn(ctx, userID, id)
}

func (f *fakeService) List(ctx context.Context, userID, date string) ([]domain.Appointment, error) {
	if f.listFn == nil {
		panic("List not configured")
	}
	return f.listFn(ctx, userID, date)
}

func (f *fakeService) BulkResync(ctx context.Context, userID string) (appointments.ResyncReport, error) {
	if f.bulkResyncFn == nil {
		panic("BulkResync not configured")
	}
	return f.bulkResyncFn(ctx, userID)
}

func (f *fakeService) ConnectCalendar(ctx context.Context, userID, accessToken, refreshToken string, expiresAt time.Time) error {
	if f.connectFn == nil {
		panic("ConnectCalendar not configured")
	}
	return f.connectFn(ctx, userID, accessToken, refreshToken, expiresAt)
}

func (f *fakeService) DisconnectCalendar(ctx context.Context, userID string) error {
	if f.disconnectFn == nil {
		panic("DisconnectCalendar not configured")
	}
	return f.disconnectFn(ctx, userID)
}

func doRequest(t *testing.T, svc *fakeService, method, path, body string, withUser bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if withUser {
		req.Header.Set("X-User-ID", "u1")
	}
	rec := httptest.NewRecorder()
	NewServer(svc, nil).Router().ServeHTTP(rec, req)
	return rec
}

func TestHandleCreate_Success(t *testing.T) {
	clientID := uuid.New()
	serviceID := uuid.New()
	apptID := uuid.New()

	svc := &fakeService{
		createFn: func(ctx context.Context, in appointments.CreateInput) (appointments.Result, error) {
			if in.UserID != "u1" {
				t.Errorf("user id = %q, want u1", in.UserID)
			}
			if in.ClientID != clientID || in.ServiceID != serviceID {
				t.Errorf("ids not forwarded")
			}
			eventID := "evt-1"
			return appointments.Result{Appointment: domain.Appointment{
				ID:             apptID,
				UserID:         in.UserID,
				ClientID:       in.ClientID,
				ServiceID:      in.ServiceID,
				ServiceName:    "Haircut",
				Date:           in.Date,
				Time:           in.Time,
				Price:          100,
				Status:         domain.AppointmentStatusPending,
				GoogleEventID:  &eventID,
				SyncedToGoogle: true,
			}}, nil
		},
	}

	body := `{"client_id":"` + clientID.String() + `","service_id":"` + serviceID.String() + `","date":"2024-06-10","time":"09:00"}`
	rec := doRequest(t, svc, http.MethodPost, "/v1/appointments", body, true)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var resp appointmentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Appointment.ID != apptID.String() {
		t.Fatalf("id = %q, want %q", resp.Appointment.ID, apptID)
	}
	if !resp.Appointment.SyncedToGoogle {
		t.Fatalf("expected synced appointment in response")
	}
	if resp.Warning != "" {
		t.Fatalf("warning = %q, want empty", resp.Warning)
	}
}

func TestHandleCreate_SyncWarningSurfaced(t *testing.T) {
	svc := &fakeService{
		createFn: func(ctx context.Context, in appointments.CreateInput) (appointments.Result, error) {
			return appointments.Result{
				Appointment: domain.Appointment{ID: uuid.New(), Status: domain.AppointmentStatusPending},
				SyncWarning: "saved, but not synced to Google Calendar: google calendar not connected",
			}, nil
		},
	}

	body := `{"client_id":"` + uuid.NewString() + `","service_id":"` + uuid.NewString() + `","date":"2024-06-10","time":"09:00"}`
	rec := doRequest(t, svc, http.MethodPost, "/v1/appointments", body, true)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 despite sync failure", rec.Code)
	}
	var resp appointmentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(resp.Warning, "not synced") {
		t.Fatalf("warning = %q", resp.Warning)
	}
}

func TestHandleCreate_ConflictMapsTo409(t *testing.T) {
	svc := &fakeService{
		createFn: func(ctx context.Context, in appointments.CreateInput) (appointments.Result, error) {
			return appointments.Result{}, store.ErrConflict
		},
	}

	body := `{"client_id":"` + uuid.NewString() + `","service_id":"` + uuid.NewString() + `","date":"2024-06-10","time":"09:30"}`
	rec := doRequest(t, svc, http.MethodPost, "/v1/appointments", body, true)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestHandleCreate_MissingUserHeader(t *testing.T) {
	rec := doRequest(t, &fakeService{}, http.MethodPost, "/v1/appointments", `{}`, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestHandleCreate_InvalidUUID(t *testing.T) {
	body := `{"client_id":"nope","service_id":"` + uuid.NewString() + `","date":"2024-06-10","time":"09:00"}`
	rec := doRequest(t, &fakeService{}, http.MethodPost, "/v1/appointments", body, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleUpdate_NotFound(t *testing.T) {
	svc := &fakeService{
		updateFn: func(ctx context.Context, in appointments.UpdateInput) (appointments.Result, error) {
			return appointments.Result{}, store.ErrNotFound
		},
	}

	rec := doRequest(t, svc, http.MethodPut, "/v1/appointments/"+uuid.NewString(), `{"time":"11:00"}`, true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleDelete_WarningSurfaced(t *testing.T) {
	svc := &fakeService{
		deleteFn: func(ctx context.Context, userID string, id uuid.UUID) (string, error) {
			return "deleted, but not synced to Google Calendar: unavailable", nil
		},
	}

	rec := doRequest(t, svc, http.MethodDelete, "/v1/appointments/"+uuid.NewString(), "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(resp["warning"], "not synced") {
		t.Fatalf("warning = %q", resp["warning"])
	}
}

func TestHandleResync_ReportsCounts(t *testing.T) {
	svc := &fakeService{
		bulkResyncFn: func(ctx context.Context, userID string) (appointments.ResyncReport, error) {
			return appointments.ResyncReport{Attempted: 3, Synced: 2, Failed: 1, Errors: []string{"x: boom"}}, nil
		},
	}

	rec := doRequest(t, svc, http.MethodPost, "/v1/calendar/resync", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Attempted int      `json:"attempted"`
		Synced    int      `json:"synced"`
		Failed    int      `json:"failed"`
		Errors    []string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Attempted != 3 || resp.Synced != 2 || resp.Failed != 1 || len(resp.Errors) != 1 {
		t.Fatalf("response = %+v", resp)
	}
}

func TestHandleValidationErrorMapsTo400(t *testing.T) {
	svc := &fakeService{
		listFn: func(ctx context.Context, userID, date string) ([]domain.Appointment, error) {
			return nil, &appointments.ValidationError{}
		},
	}

	rec := doRequest(t, svc, http.MethodGet, "/v1/appointments?date=bad", "", true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
