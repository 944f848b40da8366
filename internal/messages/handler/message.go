package handler

import (
	"net/http"

	"carpool/internal/auth"
	"carpool/internal/messages/service"
	httputil "carpool/pkg/http"
	"carpool/pkg/logger"
	"carpool/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type MessageHandler struct {
	service service.MessageService
	log     *logger.Logger
}

func NewMessageHandler(service service.MessageService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		service: service,
		log:     log,
	}
}

func (h *MessageHandler) Post(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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

	var input model.MessageInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.WriteError(w, err)
		return
	}

	message, err := h.service.Post(r.Context(), bookingID, caller.ID, &input)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, message)
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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

	messages, err := h.service.List(r.Context(), bookingID, caller.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, messages)
}

func (h *MessageHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/bookings/:id/messages", h.Post)
	router.GET("/bookings/id/:id/messages", h.List)
}
