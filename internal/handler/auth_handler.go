package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"task-tracker/internal/model"
	"task-tracker/internal/service"
	"task-tracker/pkg/apierror"
)

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("Invalid JSON body"))
		return
	}

	if fieldErrs := validateRegister(payload); fieldErrs != nil {
		writeValidationError(w, fieldErrs)
		return
	}

	if err := h.service.Register(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.NewAuthenticationResponse(
		http.StatusCreated, "User registered. Please Login for authentication.", "", ""))
}

func (h *AuthHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.AuthenticationRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("Invalid JSON body"))
		return
	}

	if fieldErrs := validateAuthentication(payload); fieldErrs != nil {
		writeValidationError(w, fieldErrs)
		return
	}

	accessToken, refreshToken, err := h.service.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.NewAuthenticationResponse(
		http.StatusOK, "User Authenticated Successfully", accessToken, refreshToken))
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("Invalid JSON body"))
		return
	}

	payload.RefreshToken = strings.TrimSpace(payload.RefreshToken)
	if payload.RefreshToken == "" {
		writeValidationError(w, map[string]string{"refreshToken": "Refresh token is required"})
		return
	}

	accessToken, refreshToken, err := h.service.Refresh(r.Context(), payload.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.NewAuthenticationResponse(
		http.StatusOK, "Token refreshed successfully", accessToken, refreshToken))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("Invalid JSON body"))
		return
	}

	payload.RefreshToken = strings.TrimSpace(payload.RefreshToken)
	if payload.RefreshToken == "" {
		writeValidationError(w, map[string]string{"refreshToken": "Refresh token is required"})
		return
	}

	if err := h.service.Logout(r.Context(), payload.RefreshToken); err != nil {
		writeError(w, err)
		return
	}

	writeEnvelope(w, http.StatusOK, "Logout successful.", nil)
}
