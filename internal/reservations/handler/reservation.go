package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"roomres/internal/reservations/planner"
	"roomres/internal/reservations/service"
	apperrors "roomres/pkg/errors"
	httputil "roomres/pkg/http"
	"roomres/pkg/logger"
	"roomres/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ReservationHandler struct {
	service service.ReservationService
	log     *logger.Logger
}

func NewReservationHandler(service service.ReservationService, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log,
	}
}

func (h *ReservationHandler) Reserve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.ReserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(w, "Reserve", apperrors.New(apperrors.CodeBadRequest, "Request body too large", http.StatusRequestEntityTooLarge))
			return
		}
		h.writeError(w, "Reserve", apperrors.InvalidInput("Invalid request body"))
		return
	}
	req.Resource = ps.ByName("name")

	reservation, err := h.service.Reserve(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Reserve", err)
		return
	}

	if err := httputil.WriteCreated(w, reservation); err != nil {
		h.log.Error("failed to write created response", "handler", "Reserve", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ParseID(ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	reservation, err := h.service.GetByID(r.Context(), ps.ByName("name"), id)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ParseID(ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := h.service.Delete(r.Context(), ps.ByName("name"), id); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

// List answers GET .../reservations?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD.
// end_date defaults to start_date.
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	startDay, err := httputil.QueryDay(r, "start_date")
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	endDay := startDay
	if r.URL.Query().Get("end_date") != "" {
		endDay, err = httputil.QueryDay(r, "end_date")
		if err != nil {
			h.writeError(w, "List", err)
			return
		}
	}

	schedule, err := h.service.List(r.Context(), ps.ByName("name"), startDay, endDay)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WriteSuccess(w, schedule); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) ListForInterval(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	kind, err := planner.ParseIntervalKind(ps.ByName("kind"))
	if err != nil {
		h.writeError(w, "ListForInterval", apperrors.InvalidInput(err.Error()))
		return
	}

	startDay, err := httputil.QueryDay(r, "start_date")
	if err != nil {
		h.writeError(w, "ListForInterval", err)
		return
	}

	schedule, err := h.service.ListForInterval(r.Context(), ps.ByName("name"), startDay, kind)
	if err != nil {
		h.writeError(w, "ListForInterval", err)
		return
	}

	if err := httputil.WriteSuccess(w, schedule); err != nil {
		h.log.Error("failed to write success response", "handler", "ListForInterval", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) Resources(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteSuccess(w, h.service.Resources(r.Context())); err != nil {
		h.log.Error("failed to write success response", "handler", "Resources", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/resources", h.Resources)
	router.POST("/api/v1/resources/:name/reservations", h.Reserve)
	router.GET("/api/v1/resources/:name/reservations", h.List)
	router.GET("/api/v1/resources/:name/reservations/id/:id", h.GetByID)
	router.DELETE("/api/v1/resources/:name/reservations/id/:id", h.Delete)
	router.GET("/api/v1/resources/:name/reservations/interval/:kind", h.ListForInterval)
}
