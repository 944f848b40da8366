package handler

import (
	"net/http"

	"carpool/internal/auth"
	"carpool/internal/trips/service"
	apperrors "carpool/pkg/errors"
	httputil "carpool/pkg/http"
	"carpool/pkg/logger"
	"carpool/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type TripHandler struct {
	service service.TripService
	log     *logger.Logger
}

func NewTripHandler(service service.TripService, log *logger.Logger) *TripHandler {
	return &TripHandler{
		service: service,
		log:     log,
	}
}

type createTripRequest struct {
	Trip *model.TripInput `json:"trip"`
}

func (h *TripHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := auth.CurrentUser(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req createTripRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Trip == nil {
		httputil.WriteError(w, apperrors.Validation("Trip validation failed", map[string]any{
			"trip": "trip is required",
		}))
		return
	}

	trip, err := h.service.Create(r.Context(), caller.ID, req.Trip)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, trip)
}

func (h *TripHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := httputil.ParamID(ps, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	trip, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, trip)
}

func (h *TripHandler) Search(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	trips, err := h.service.Search(r.Context(), ps.ByName("departure"), r.URL.Query().Get("to"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, trips)
}

func (h *TripHandler) MyTrips(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := auth.CurrentUser(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	trips, err := h.service.ListByDriver(r.Context(), caller.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, trips)
}

func (h *TripHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/trips", h.Create)
	router.GET("/trips/my_trips", h.MyTrips)
	router.GET("/trips/search/:departure", h.Search)
	router.GET("/trips/id/:id", h.GetByID)
}
