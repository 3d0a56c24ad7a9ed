package service

import (
	"context"
	"errors"
	"net/http"
	"roomres/internal/reservations/admission"
	reservationserrors "roomres/internal/reservations/errors"
	"roomres/internal/reservations/events"
	"roomres/internal/reservations/planner"
	"roomres/internal/reservations/registry"
	"roomres/internal/reservations/validator"
	"roomres/pkg/auth"
	"roomres/pkg/config"
	apperrors "roomres/pkg/errors"
	"roomres/pkg/logger"
	"roomres/pkg/middleware"
	"roomres/pkg/model"
	"roomres/pkg/sanitizer"
	"strconv"
	"time"
)

type ReservationService interface {
	Reserve(ctx context.Context, req *model.ReserveRequest) (*model.Reservation, error)
	Delete(ctx context.Context, resource string, id int64) error
	GetByID(ctx context.Context, resource string, id int64) (*model.Reservation, error)
	List(ctx context.Context, resource string, startDay, endDay time.Time) (model.DaySchedule, error)
	ListForInterval(ctx context.Context, resource string, startDay time.Time, kind planner.IntervalKind) (model.DaySchedule, error)
	Resources(ctx context.Context) []string
}

// Admitter is the serialized write path. *admission.Worker implements it.
type Admitter interface {
	Submit(ctx context.Context, req admission.Request) (*model.Reservation, error)
}

type reservationService struct {
	registry   *registry.Registry
	admitter   Admitter
	validator  *validator.ReservationValidator
	authorizer auth.Authorizer
	publisher  events.Publisher
	cfg        *config.Config
	log        *logger.Logger
}

func NewReservationService(
	reg *registry.Registry,
	admitter Admitter,
	validator *validator.ReservationValidator,
	authorizer auth.Authorizer,
	publisher events.Publisher,
	cfg *config.Config,
) ReservationService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &reservationService{
		registry:   reg,
		admitter:   admitter,
		validator:  validator,
		authorizer: authorizer,
		publisher:  publisher,
		cfg:        cfg,
		log:        cfg.Log.Component("reservation_service"),
	}
}

func (s *reservationService) Reserve(ctx context.Context, req *model.ReserveRequest) (*model.Reservation, error) {
	identity, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if !s.authorizer.Authorize(ctx, identity, auth.CapabilityReserve) {
		return nil, apperrors.Wrap(reservationserrors.ErrUnauthorized, apperrors.CodeForbidden,
			"Not allowed to create reservations", http.StatusForbidden)
	}

	s.sanitize(req)
	if err := s.validate(req); err != nil {
		return nil, err
	}
	s.applyDefaults(req)

	submitCtx, cancel := context.WithTimeout(ctx, s.cfg.AdmissionTimeout)
	defer cancel()

	reservation, err := s.admitter.Submit(submitCtx, admission.Request{
		Resource:    req.Resource,
		Start:       req.StartTime,
		End:         req.EndTime,
		ReservedBy:  sanitizer.NormalizeName(identity.DisplayName),
		RequesterID: identity.ID,
		Title:       req.Title,
	})
	if err != nil {
		return nil, s.admissionError(req.Resource, err)
	}

	s.publish(ctx, events.TypeReservationCreated, reservation, identity.ID)
	return reservation, nil
}

func (s *reservationService) Delete(ctx context.Context, resource string, id int64) error {
	identity, err := s.caller(ctx)
	if err != nil {
		return err
	}
	// Callers without reserve rights learn nothing about which ids exist.
	if !s.authorizer.Authorize(ctx, identity, auth.CapabilityReserve) {
		return apperrors.Wrap(reservationserrors.ErrUnauthorized, apperrors.CodeForbidden,
			"Not allowed to delete reservations", http.StatusForbidden)
	}

	resource = sanitizer.NormalizeName(resource)
	ns, ok := s.registry.Lookup(resource)
	if !ok {
		return notFound(resource, id)
	}

	reservation, err := ns.FindByID(ctx, id)
	if err != nil {
		return s.storageError("Failed to retrieve reservation", resource, id, err)
	}

	if reservation.RequesterID != identity.ID && !s.authorizer.Authorize(ctx, identity, auth.CapabilityDeleteAny) {
		s.log.Warn("Reservation delete denied",
			"resource", resource,
			"id", id,
			"requester_id", identity.ID,
		)
		return apperrors.Wrap(reservationserrors.ErrUnauthorized, apperrors.CodeForbidden,
			"Not allowed to delete this reservation", http.StatusForbidden)
	}

	if err := ns.Delete(ctx, id); err != nil {
		return s.storageError("Failed to delete reservation", resource, id, err)
	}

	s.log.Info("Reservation deleted", "resource", resource, "id", id, "actor_id", identity.ID)
	s.publish(ctx, events.TypeReservationDeleted, reservation, identity.ID)
	return nil
}

func (s *reservationService) GetByID(ctx context.Context, resource string, id int64) (*model.Reservation, error) {
	resource = sanitizer.NormalizeName(resource)
	ns, ok := s.registry.Lookup(resource)
	if !ok {
		return nil, notFound(resource, id)
	}

	reservation, err := ns.FindByID(ctx, id)
	if err != nil {
		return nil, s.storageError("Failed to retrieve reservation", resource, id, err)
	}
	return reservation, nil
}

// List returns the reservations of resource between startDay and endDay
// inclusive, grouped by day. Unknown resources yield an empty schedule.
func (s *reservationService) List(ctx context.Context, resource string, startDay, endDay time.Time) (model.DaySchedule, error) {
	from, to := model.DayOf(startDay), model.DayOf(endDay)
	if to < from {
		return nil, apperrors.InvalidInput("end_date must not be before start_date")
	}

	resource = sanitizer.NormalizeName(resource)
	ns, ok := s.registry.Lookup(resource)
	if !ok {
		return model.DaySchedule{}, nil
	}

	reservations, err := ns.FindBetween(ctx, from, to)
	if err != nil {
		s.log.Error("Failed to list reservations", "resource", resource, "from", from, "to", to, "error", err)
		return nil, apperrors.Storage("Failed to retrieve reservations", err)
	}
	return planner.GroupByDay(reservations), nil
}

func (s *reservationService) ListForInterval(ctx context.Context, resource string, startDay time.Time, kind planner.IntervalKind) (model.DaySchedule, error) {
	endDay, err := planner.EndDate(startDay, kind)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	return s.List(ctx, resource, startDay, endDay)
}

func (s *reservationService) Resources(_ context.Context) []string {
	return s.registry.Names()
}

func (s *reservationService) caller(ctx context.Context) (auth.Identity, error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity.ID == "" {
		return auth.Identity{}, apperrors.Unauthorized("Missing caller identity")
	}
	return identity, nil
}

func (s *reservationService) sanitize(req *model.ReserveRequest) {
	req.Resource = sanitizer.NormalizeName(req.Resource)
	req.Title = sanitizer.NormalizeTitle(req.Title)
}

func (s *reservationService) validate(req *model.ReserveRequest) error {
	if err := s.validator.Validate(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return apperrors.Validation("Invalid reservation request", validationErrs.Details())
		}
		return apperrors.InvalidInput(err.Error())
	}
	return nil
}

func (s *reservationService) applyDefaults(req *model.ReserveRequest) {
	if req.Title == "" {
		req.Title = model.DefaultTitle
	}
}

func (s *reservationService) admissionError(resource string, err error) error {
	switch {
	case errors.Is(err, reservationserrors.ErrInvalidRange):
		return apperrors.InvalidRange("End time must be after start time on the same day")
	case errors.Is(err, reservationserrors.ErrOverlap):
		return apperrors.Overlap("Reservation overlaps an existing reservation")
	case errors.Is(err, reservationserrors.ErrQueueFull):
		return apperrors.QueueFull("Too many pending reservations, retry later")
	case errors.Is(err, reservationserrors.ErrCancelled):
		if errors.Is(err, context.DeadlineExceeded) {
			return apperrors.Timeout("Reservation was not admitted in time")
		}
		return apperrors.Timeout("Reservation request cancelled")
	case errors.Is(err, reservationserrors.ErrWorkerStopped):
		return apperrors.Unavailable("Reservation admission")
	case errors.Is(err, reservationserrors.ErrStorage):
		return apperrors.Storage("Failed to store reservation", err)
	default:
		s.log.Error("Unexpected admission error", "resource", resource, "error", err)
		return apperrors.Internal("Failed to create reservation", err)
	}
}

func (s *reservationService) storageError(msg, resource string, id int64, err error) error {
	if errors.Is(err, reservationserrors.ErrNotFound) {
		return notFound(resource, id)
	}
	s.log.Error(msg, "resource", resource, "id", id, "error", err)
	return apperrors.Storage(msg, err)
}

func (s *reservationService) publish(ctx context.Context, eventType string, r *model.Reservation, actorID string) {
	event := events.NewReservationEvent(eventType, r, actorID)
	// The reservation is already committed; a lost event is logged, not returned.
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout())
	defer cancel()
	if err := s.publisher.Publish(publishCtx, event, middleware.RequestIDFromContext(ctx)); err != nil {
		s.log.Warn("Failed to publish reservation event",
			"type", eventType,
			"resource", r.Resource,
			"id", r.ID,
			"error", err,
		)
	}
}

func (s *reservationService) publishTimeout() time.Duration {
	if s.cfg.EventPublishTimeout > 0 {
		return s.cfg.EventPublishTimeout
	}
	return config.DefaultEventPublishTimeout
}

func notFound(resource string, id int64) error {
	return apperrors.NotFoundWithID("Reservation", resource+"/"+strconv.FormatInt(id, 10))
}
