package handler

import (
	"net/http"
	"time"

	"carpool/internal/auth"
	"carpool/internal/auth/service"
	httputil "carpool/pkg/http"
	"carpool/pkg/logger"
	"carpool/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type CookieConfig struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	service service.AuthService
	cookie  CookieConfig
	log     *logger.Logger
}

func NewAuthHandler(service service.AuthService, cookie CookieConfig, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		cookie:  cookie,
		log:     log,
	}
}

type SessionResponse struct {
	User      *model.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input model.RegisterInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Register(r.Context(), &input)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.setCookie(w, result.Credential, result.ExpiresAt)
	httputil.WriteCreated(w, SessionResponse{
		User:      result.User,
		Token:     result.Credential,
		ExpiresAt: result.ExpiresAt,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input model.LoginInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Login(r.Context(), &input)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.setCookie(w, result.Credential, result.ExpiresAt)
	httputil.WriteSuccess(w, SessionResponse{
		User:      result.User,
		Token:     result.Credential,
		ExpiresAt: result.ExpiresAt,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if credential := auth.Credential(r, h.cookie.Name); credential != "" {
		if err := h.service.Logout(r.Context(), credential); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	h.clearCookie(w)
	httputil.WriteNoContent(w)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, err := auth.CurrentUser(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, caller)
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, value string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/auth/register", h.Register)
	router.POST("/auth/login", h.Login)
	router.POST("/auth/logout", h.Logout)
	router.GET("/auth/me", h.Me)
}
