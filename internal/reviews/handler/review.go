package handler

import (
	"net/http"

	"carpool/internal/auth"
	"carpool/internal/reviews/service"
	httputil "carpool/pkg/http"
	"carpool/pkg/logger"
	"carpool/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ReviewHandler struct {
	service service.ReviewService
	log     *logger.Logger
}

func NewReviewHandler(service service.ReviewService, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		log:     log,
	}
}

func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := auth.CurrentUser(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	bookingID, err := httputil.ParamID(ps, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var input model.ReviewInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.WriteError(w, err)
		return
	}

	review, err := h.service.Create(r.Context(), caller.ID, bookingID, &input)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, review)
}

// ListForUser is public: ratings are part of a user's profile.
func (h *ReviewHandler) ListForUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, err := httputil.ParamID(ps, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	summary, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, summary)
}

func (h *ReviewHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/bookings/:id/reviews", h.Create)
	router.GET("/users/:id/reviews", h.ListForUser)
}
