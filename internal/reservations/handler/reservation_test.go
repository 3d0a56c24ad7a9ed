package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"roomres/internal/reservations/planner"
	apperrors "roomres/pkg/errors"
	httputil "roomres/pkg/http"
	"roomres/pkg/logger"
	"roomres/pkg/middleware"
	"roomres/pkg/model"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
)

type mockReservationService struct {
	reserveFunc         func(ctx context.Context, req *model.ReserveRequest) (*model.Reservation, error)
	deleteFunc          func(ctx context.Context, resource string, id int64) error
	getByIDFunc         func(ctx context.Context, resource string, id int64) (*model.Reservation, error)
	listFunc            func(ctx context.Context, resource string, startDay, endDay time.Time) (model.DaySchedule, error)
	listForIntervalFunc func(ctx context.Context, resource string, startDay time.Time, kind planner.IntervalKind) (model.DaySchedule, error)
	resources           []string
}

func (m *mockReservationService) Reserve(ctx context.Context, req *model.ReserveRequest) (*model.Reservation, error) {
	return m.reserveFunc(ctx, req)
}

func (m *mockReservationService) Delete(ctx context.Context, resource string, id int64) error {
	return m.deleteFunc(ctx, resource, id)
}

func (m *mockReservationService) GetByID(ctx context.Context, resource string, id int64) (*model.Reservation, error) {
	return m.getByIDFunc(ctx, resource, id)
}

func (m *mockReservationService) List(ctx context.Context, resource string, startDay, endDay time.Time) (model.DaySchedule, error) {
	return m.listFunc(ctx, resource, startDay, endDay)
}

func (m *mockReservationService) ListForInterval(ctx context.Context, resource string, startDay time.Time, kind planner.IntervalKind) (model.DaySchedule, error) {
	return m.listForIntervalFunc(ctx, resource, startDay, kind)
}

func (m *mockReservationService) Resources(context.Context) []string {
	return m.resources
}

func newRouter(svc *mockReservationService) *httprouter.Router {
	router := httprouter.New()
	NewReservationHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body httputil.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Code
}

func TestReserve(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	var received *model.ReserveRequest
	svc := &mockReservationService{
		reserveFunc: func(ctx context.Context, req *model.ReserveRequest) (*model.Reservation, error) {
			received = req
			if req.StartTime.Hour() == 12 {
				return nil, apperrors.Overlap("taken")
			}
			return &model.Reservation{ID: 1, Resource: req.Resource, Day: "2024-03-01", StartTime: req.StartTime, EndTime: req.EndTime}, nil
		},
	}
	router := newRouter(svc)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "created",
			body:       `{"start_time":"2024-03-01T09:00:00Z","end_time":"2024-03-01T10:00:00Z","title":"standup"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "overlap",
			body:       `{"start_time":"2024-03-01T12:00:00Z","end_time":"2024-03-01T13:00:00Z"}`,
			wantStatus: http.StatusConflict,
			wantCode:   apperrors.CodeOverlap,
		},
		{
			name:       "malformed json",
			body:       `{"start_time":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.CodeInvalidInput,
		},
		{
			name:       "bad timestamp",
			body:       `{"start_time":"tomorrow","end_time":"2024-03-01T10:00:00Z"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodPost, "/api/v1/resources/room-A/reservations", tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantCode != "" {
				if got := errorCode(t, rec); got != tt.wantCode {
					t.Errorf("expected code %s, got %s", tt.wantCode, got)
				}
				return
			}

			var resp struct {
				Data model.Reservation `json:"data"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Data.ID != 1 || !resp.Data.StartTime.Equal(start) {
				t.Errorf("unexpected reservation %+v", resp.Data)
			}
			if received.Resource != "room-A" || received.Title != "standup" {
				t.Errorf("service received %+v", received)
			}
		})
	}
}

func TestReserve_BodyTooLarge(t *testing.T) {
	svc := &mockReservationService{
		reserveFunc: func(ctx context.Context, req *model.ReserveRequest) (*model.Reservation, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	handler := middleware.MaxRequestSize(16)(newRouter(svc))

	body := `{"start_time":"2024-03-01T09:00:00Z","end_time":"2024-03-01T10:00:00Z"}`
	rec := serve(handler, http.MethodPost, "/api/v1/resources/room-A/reservations", body)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}

func TestGetByIDAndDelete(t *testing.T) {
	svc := &mockReservationService{
		getByIDFunc: func(ctx context.Context, resource string, id int64) (*model.Reservation, error) {
			if id != 1 {
				return nil, apperrors.NotFound("Reservation")
			}
			return &model.Reservation{ID: id, Resource: resource}, nil
		},
		deleteFunc: func(ctx context.Context, resource string, id int64) error {
			if id == 2 {
				return apperrors.Forbidden("no")
			}
			return nil
		},
	}
	router := newRouter(svc)

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
	}{
		{"get found", http.MethodGet, "/api/v1/resources/room-A/reservations/id/1", http.StatusOK},
		{"get missing", http.MethodGet, "/api/v1/resources/room-A/reservations/id/5", http.StatusNotFound},
		{"get bad id", http.MethodGet, "/api/v1/resources/room-A/reservations/id/abc", http.StatusBadRequest},
		{"get zero id", http.MethodGet, "/api/v1/resources/room-A/reservations/id/0", http.StatusBadRequest},
		{"delete ok", http.MethodDelete, "/api/v1/resources/room-A/reservations/id/1", http.StatusNoContent},
		{"delete forbidden", http.MethodDelete, "/api/v1/resources/room-A/reservations/id/2", http.StatusForbidden},
		{"delete bad id", http.MethodDelete, "/api/v1/resources/room-A/reservations/id/-3", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, tt.method, tt.target, "")
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestList_QueryParameters(t *testing.T) {
	var gotStart, gotEnd time.Time
	svc := &mockReservationService{
		listFunc: func(ctx context.Context, resource string, startDay, endDay time.Time) (model.DaySchedule, error) {
			gotStart, gotEnd = startDay, endDay
			return model.DaySchedule{}, nil
		},
	}
	router := newRouter(svc)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantEnd    string
	}{
		{"range", "?start_date=2024-01-01&end_date=2024-01-07", http.StatusOK, "2024-01-07"},
		{"single day", "?start_date=2024-01-01", http.StatusOK, "2024-01-01"},
		{"missing start", "", http.StatusBadRequest, ""},
		{"bad start", "?start_date=01/01/2024", http.StatusBadRequest, ""},
		{"bad end", "?start_date=2024-01-01&end_date=soon", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodGet, "/api/v1/resources/room-A/reservations"+tt.query, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantEnd == "" {
				return
			}
			if model.DayOf(gotStart) != "2024-01-01" || model.DayOf(gotEnd) != tt.wantEnd {
				t.Errorf("service received %s..%s", gotStart, gotEnd)
			}
			if !strings.Contains(rec.Body.String(), `"data":{}`) {
				t.Errorf("expected empty schedule object, got %s", rec.Body.String())
			}
		})
	}
}

func TestListForInterval(t *testing.T) {
	var gotKind planner.IntervalKind
	svc := &mockReservationService{
		listForIntervalFunc: func(ctx context.Context, resource string, startDay time.Time, kind planner.IntervalKind) (model.DaySchedule, error) {
			gotKind = kind
			return model.DaySchedule{
				"2024-03-01": {{ID: 1, Resource: resource, Day: "2024-03-01"}},
			}, nil
		},
	}
	router := newRouter(svc)

	rec := serve(router, http.MethodGet, "/api/v1/resources/room-A/reservations/interval/DAY?start_date=2024-03-01", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotKind != planner.Day {
		t.Errorf("expected day interval, got %q", gotKind)
	}

	var resp struct {
		Data map[string][]model.Reservation `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if day := resp.Data["2024-03-01"]; len(day) != 1 || day[0].ID != 1 {
		t.Errorf("unexpected schedule %+v", resp.Data)
	}

	rec = serve(router, http.MethodGet, "/api/v1/resources/room-A/reservations/interval/year?start_date=2024-03-01", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown interval, got %d", rec.Code)
	}
}

func TestResources(t *testing.T) {
	router := newRouter(&mockReservationService{resources: []string{"room-A", "room-B"}})

	rec := serve(router, http.MethodGet, "/api/v1/resources", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data []string `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Data) != 2 || resp.Data[0] != "room-A" {
		t.Errorf("unexpected resources %v", resp.Data)
	}
}
