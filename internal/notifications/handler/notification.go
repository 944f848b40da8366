package handler

import (
	"net/http"
	"strconv"

	"carpool/internal/auth"
	"carpool/internal/notifications/service"
	apperrors "carpool/pkg/errors"
	httputil "carpool/pkg/http"
	"carpool/pkg/logger"
	"carpool/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type NotificationHandler struct {
	service service.NotificationService
	log     *logger.Logger
}

func NewNotificationHandler(service service.NotificationService, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		log:     log,
	}
}

type markAllReadResponse struct {
	Updated int64 `json:"updated"`
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := auth.CurrentUser(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var query model.NotificationQuery
	if raw := r.URL.Query().Get("unread"); raw != "" {
		query.UnreadOnly, err = strconv.ParseBool(raw)
		if err != nil {
			httputil.WriteError(w, apperrors.InvalidInput("unread must be true or false"))
			return
		}
	}
	query.Limit, query.Offset, err = httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	notifications, err := h.service.List(r.Context(), caller.ID, query)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, notifications)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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

	n, err := h.service.MarkRead(r.Context(), caller.ID, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, n)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := auth.CurrentUser(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	updated, err := h.service.MarkAllRead(r.Context(), caller.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, markAllReadResponse{Updated: updated})
}

func (h *NotificationHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/notifications", h.List)
	router.PUT("/notifications/:id/read", h.MarkRead)
	router.POST("/notifications/read_all", h.MarkAllRead)
}
