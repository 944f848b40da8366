package handler

import (
	"context"
	"net/http"

	"carpool/internal/auth"
	"carpool/internal/bookings/service"
	apperrors "carpool/pkg/errors"
	httputil "carpool/pkg/http"
	"carpool/pkg/logger"
	"carpool/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

type createBookingRequest struct {
	Booking *model.BookingInput `json:"booking"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := auth.CurrentUser(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	tripID, err := httputil.ParamID(ps, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req createBookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Booking == nil {
		httputil.WriteError(w, apperrors.Validation("Booking validation failed", map[string]any{
			"booking": "booking is required",
		}))
		return
	}

	booking, err := h.service.Create(r.Context(), caller.ID, tripID, req.Booking)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, booking)
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := auth.CurrentUser(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	id, err := httputil.ParamID(ps, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	booking, err := h.service.Get(r.Context(), id, caller.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, booking)
}

func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := auth.CurrentUser(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	bookings, err := h.service.ListForUser(r.Context(), caller.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, bookings)
}

func (h *BookingHandler) ListForTrip(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := auth.CurrentUser(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	tripID, err := httputil.ParamID(ps, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	bookings, err := h.service.ListForTrip(r.Context(), tripID, caller.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, bookings)
}

func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.decide(w, r, ps, h.service.Confirm)
}

func (h *BookingHandler) Reject(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.decide(w, r, ps, h.service.Reject)
}

type decision func(ctx context.Context, tripID, bookingID, callerID int64) (*model.Booking, error)

func (h *BookingHandler) decide(w http.ResponseWriter, r *http.Request, ps httprouter.Params, apply decision) {
	caller, err := auth.CurrentUser(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	tripID, err := httputil.ParamID(ps, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	bookingID, err := httputil.ParamID(ps, "booking_id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	booking, err := apply(r.Context(), tripID, bookingID, caller.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, booking)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := auth.CurrentUser(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	id, err := httputil.ParamID(ps, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	booking, err := h.service.Cancel(r.Context(), id, caller.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, booking)
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/bookings", h.ListMine)
	router.GET("/bookings/id/:id", h.GetByID)
	router.DELETE("/bookings/:id", h.Cancel)

	router.POST("/trips/:id/bookings", h.Create)
	router.GET("/trips/id/:id/bookings", h.ListForTrip)
	router.PUT("/trips/:id/bookings/:booking_id/confirm", h.Confirm)
	router.PUT("/trips/:id/bookings/:booking_id/reject", h.Reject)
}
