package auth

import (
	"errors"
	"net/http"

	"bookstore/internal/httpx"
	"bookstore/internal/platform/validation"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// Register handles POST /register
// @Summary Register a new user
// @Description Create a user account and receive a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterInput true "Registration request"
// @Success 201 {object} httpx.SuccessResponse{data=Result}
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 422 {object} httpx.ErrorResponse
// @Router /register [post]
func (h *HTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}

	result, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccessCreated(w, r, result)
}

// Login handles POST /login
// @Summary User login
// @Description Authenticate with email and password and receive a new bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginInput true "Login request"
// @Success 200 {object} httpx.SuccessResponse{data=Result}
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 422 {object} httpx.ErrorResponse
// @Failure 429 {object} httpx.ErrorResponse
// @Router /login [post]
func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}

	result, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, result, nil)
}

// Logout handles POST /logout
// @Summary User logout
// @Description Revoke the token used for this request. Other tokens stay valid.
// @Tags auth
// @Security BearerAuth
// @Success 204 "No Content"
// @Failure 401 {object} httpx.ErrorResponse
// @Router /logout [post]
func (h *HTTPHandler) Logout(w http.ResponseWriter, r *http.Request) {
	tokenID := httpx.TokenIDFrom(r)
	if tokenID == "" {
		httpx.JSONUnauthorized(w, r)
		return
	}

	if err := h.service.Logout(r.Context(), tokenID); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccessNoContent(w)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if verr, ok := validation.As(err); ok {
		httpx.JSONValidationError(w, r, verr)
		return
	}
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid credentials", nil)
	case errors.Is(err, ErrUnauthorized):
		httpx.JSONUnauthorized(w, r)
	default:
		httpx.JSONInternalError(w, r, err)
	}
}
