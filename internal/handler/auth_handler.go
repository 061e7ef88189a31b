package handler

import (
	"net/mail"
	"strings"

	"lumiere/internal/gateway"
	"lumiere/internal/model"
	"lumiere/internal/service"
	"lumiere/pkg/apierror"
)

const minPasswordLength = 6

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Mount registers the auth routes on r.
func (h *AuthHandler) Mount(r *gateway.Router) {
	r.Post("/register", h.Register, false)
	r.Post("/login", h.Login, false)
	r.Post("/logout", h.Logout, true)
	r.Get("/me", h.Me, true)
}

func (h *AuthHandler) Register(rc *gateway.RequestContext) (*gateway.Result, error) {
	var payload model.RegisterRequest
	if err := rc.Decode(&payload); err != nil {
		return nil, err
	}

	if err := requireCredentials(payload.Email, payload.Password); err != nil {
		return nil, err
	}
	if !validEmail(payload.Email) {
		return nil, apierror.Validation(map[string]string{"email": "Invalid email format"})
	}
	if len(payload.Password) < minPasswordLength {
		return nil, apierror.Validation(map[string]string{"password": "Password must be at least 6 characters"})
	}

	result, err := h.service.Register(rc.Context(), payload.Email, payload.Password)
	if err != nil {
		return nil, err
	}

	return gateway.OK("Registration successful", result), nil
}

func (h *AuthHandler) Login(rc *gateway.RequestContext) (*gateway.Result, error) {
	var payload model.LoginRequest
	if err := rc.Decode(&payload); err != nil {
		return nil, err
	}

	if err := requireCredentials(payload.Email, payload.Password); err != nil {
		return nil, err
	}

	result, err := h.service.Login(rc.Context(), payload.Email, payload.Password)
	if err != nil {
		return nil, err
	}

	return gateway.OK("Login successful", result), nil
}

func (h *AuthHandler) Logout(rc *gateway.RequestContext) (*gateway.Result, error) {
	if token := service.ExtractToken(rc.Request.Header); token != "" {
		if err := h.service.Logout(rc.Context(), rc.UserID(), token); err != nil {
			return nil, err
		}
	}

	return gateway.OK("Logged out successfully", nil), nil
}

func (h *AuthHandler) Me(rc *gateway.RequestContext) (*gateway.Result, error) {
	if rc.Claims == nil {
		return nil, model.ErrUnauthenticated
	}
	return gateway.OK("", h.service.CurrentUser(rc.Claims)), nil
}

// validEmail accepts a bare address only, not the "Name <addr>" form.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}

// requireCredentials reports both fields whenever either one is missing.
func requireCredentials(email, password string) error {
	if email == "" || password == "" {
		return apierror.Validation(map[string]string{
			"email":    "Email is required",
			"password": "Password is required",
		})
	}
	return nil
}
