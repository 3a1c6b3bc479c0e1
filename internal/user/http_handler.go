package user

import (
	"errors"
	"net/http"

	"bookstore/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// GetCurrentUser handles GET /user
// @Summary Get current user
// @Description Get the authenticated user's information
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} httpx.SuccessResponse{data=Profile}
// @Failure 401 {object} httpx.ErrorResponse
// @Router /user [get]
func (h *HTTPHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpx.UserIDFrom(r)
	if !ok {
		httpx.JSONUnauthorized(w, r)
		return
	}

	profile, err := h.service.Profile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONUnauthorized(w, r)
			return
		}
		httpx.JSONInternalError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, profile, nil)
}
