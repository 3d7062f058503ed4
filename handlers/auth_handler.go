package handlers

import (
	"net/http"

	"github.com/padelhub/tournament-system/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type registerAdminRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	AdminKey string `json:"admin_key" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterHandler обрабатывает POST /auth/register
func (h *AuthHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readValidatedJSON(w, r, &req); err != nil {
		badRequestResponse(w, err)
		return
	}

	user, token, err := h.authService.Register(r.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"user": user, "token": token}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// RegisterAdminHandler обрабатывает POST /auth/register-admin
func (h *AuthHandler) RegisterAdminHandler(w http.ResponseWriter, r *http.Request) {
	var req registerAdminRequest
	if err := readValidatedJSON(w, r, &req); err != nil {
		badRequestResponse(w, err)
		return
	}

	user, token, err := h.authService.RegisterAdmin(r.Context(), services.RegisterAdminInput{
		Email:    req.Email,
		Password: req.Password,
		AdminKey: req.AdminKey,
	})
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"user": user, "token": token}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// LoginHandler обрабатывает POST /auth/login
func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readValidatedJSON(w, r, &req); err != nil {
		badRequestResponse(w, err)
		return
	}

	user, token, err := h.authService.Login(r.Context(), services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user, "token": token}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}
