package validator

import (
	"errors"
	reservationserrors "roomres/internal/reservations/errors"
	"roomres/pkg/logger"
	"roomres/pkg/model"
	"strings"
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 3, 1, hour, minute, 0, 0, time.UTC)
}

func booked(start, end time.Time) *model.Reservation {
	return &model.Reservation{StartTime: start, EndTime: end}
}

func TestValidate(t *testing.T) {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	v := NewReservationValidator(log)

	tests := []struct {
		name      string
		req       *model.ReserveRequest
		wantError bool
		wantField string
	}{
		{
			name:      "valid request",
			req:       &model.ReserveRequest{Resource: "room-A", StartTime: at(9, 0), EndTime: at(10, 0), Title: "Standup"},
			wantError: false,
		},
		{
			name:      "missing resource",
			req:       &model.ReserveRequest{StartTime: at(9, 0), EndTime: at(10, 0)},
			wantError: true,
			wantField: "Resource",
		},
		{
			name:      "resource with slash",
			req:       &model.ReserveRequest{Resource: "room/A", StartTime: at(9, 0), EndTime: at(10, 0)},
			wantError: true,
			wantField: "Resource",
		},
		{
			name:      "missing end time",
			req:       &model.ReserveRequest{Resource: "room-A", StartTime: at(9, 0)},
			wantError: true,
			wantField: "EndTime",
		},
		{
			name:      "title too long",
			req:       &model.ReserveRequest{Resource: "room-A", StartTime: at(9, 0), EndTime: at(10, 0), Title: strings.Repeat("x", 201)},
			wantError: true,
			wantField: "Title",
		},
		{
			name:      "reversed range passes shape validation",
			req:       &model.ReserveRequest{Resource: "room-A", StartTime: at(10, 0), EndTime: at(9, 0)},
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			if (err != nil) != tt.wantError {
				t.Fatalf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
			if !tt.wantError {
				return
			}
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %T", err)
			}
			if _, ok := verrs.Details()[tt.wantField]; !ok {
				t.Errorf("expected error on field %s, got %v", tt.wantField, verrs)
			}
		})
	}
}

func TestCheckRange(t *testing.T) {
	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr bool
	}{
		{"one hour", at(9, 0), at(10, 0), false},
		{"equal bounds", at(9, 0), at(9, 0), true},
		{"reversed", at(10, 0), at(9, 0), true},
		{"ends at next midnight", at(23, 0), at(0, 0).AddDate(0, 0, 1), false},
		{"crosses midnight", at(23, 0), at(1, 0).AddDate(0, 0, 1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRange(tt.start, tt.end)
			if tt.wantErr {
				if !errors.Is(err, reservationserrors.ErrInvalidRange) {
					t.Errorf("expected ErrInvalidRange, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name           string
		s1, e1, s2, e2 time.Time
		want           bool
	}{
		{"identical", at(9, 0), at(10, 0), at(9, 0), at(10, 0), true},
		{"partial start", at(9, 0), at(10, 0), at(9, 30), at(10, 30), true},
		{"contained", at(9, 0), at(12, 0), at(10, 0), at(11, 0), true},
		{"back to back", at(9, 0), at(10, 0), at(10, 0), at(11, 0), false},
		{"back to back reversed", at(10, 0), at(11, 0), at(9, 0), at(10, 0), false},
		{"disjoint", at(9, 0), at(10, 0), at(13, 0), at(14, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.s1, tt.e1, tt.s2, tt.e2); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAdmit(t *testing.T) {
	existing := []*model.Reservation{
		booked(at(9, 0), at(10, 0)),
		booked(at(13, 0), at(14, 0)),
	}

	tests := []struct {
		name      string
		candidate model.Interval
		want      bool
	}{
		{"inside gap", model.Interval{Start: at(11, 0), End: at(12, 0)}, true},
		{"touches both", model.Interval{Start: at(10, 0), End: at(13, 0)}, true},
		{"overlaps first", model.Interval{Start: at(9, 30), End: at(10, 30)}, false},
		{"spans both", model.Interval{Start: at(8, 0), End: at(15, 0)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Admit(existing, tt.candidate); got != tt.want {
				t.Errorf("Admit() = %v, want %v", got, tt.want)
			}
		})
	}

	if !Admit(nil, model.Interval{Start: at(9, 0), End: at(10, 0)}) {
		t.Error("empty day should admit any interval")
	}
}
