package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/redmonkez12/storefront-api/internal/account"
	"github.com/redmonkez12/storefront-api/internal/auth"
	"github.com/redmonkez12/storefront-api/internal/httputil"
	"github.com/redmonkez12/storefront-api/internal/logging"
)

// Handler serves the owner profile and admin account management endpoints.
type Handler struct {
	service *auth.Service
}

func NewHandler(service *auth.Service) *Handler {
	return &Handler{service: service}
}

// ProfileResponse is an account without credential material
type ProfileResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsAdmin   bool      `json:"isAdmin"`
	IsBlocked bool      `json:"isBlocked"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newProfileResponse(a *account.Account) ProfileResponse {
	return ProfileResponse{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Role:      string(a.Role),
		IsAdmin:   a.Role.IsAdmin(),
		IsBlocked: a.Blocked,
		Address:   a.Address,
		Phone:     a.Phone,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// UpdateProfileRequest is a sparse edit; omitted fields are left unchanged
type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty"`
	Address  *string `json:"address,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Password *string `json:"password,omitempty"`
}

// GetProfile returns the caller's own account
// @Summary      Get profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} ProfileResponse
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid token"
// @Router       /users/profile [get]
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.AccountFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "No token, authorization denied", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	acc, err := h.service.GetProfile(r.Context(), caller.ID)
	if err != nil {
		h.respondLookupError(w, r, err, "failed to get profile")
		return
	}

	httputil.RespondJSON(w, newProfileResponse(acc), http.StatusOK)
}

// UpdateProfile edits the caller's own account
// @Summary      Update profile
// @Description  Change any of name, address, phone or password. A new password is rehashed.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdateProfileRequest true "Fields to change"
// @Success      200 {object} ProfileResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid token"
// @Router       /users/profile [put]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	caller, ok := auth.AccountFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "No token, authorization denied", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid profile update request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	acc, err := h.service.UpdateProfile(r.Context(), caller.ID, auth.ProfileChanges{
		Name:     req.Name,
		Address:  req.Address,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrNameRequired):
			httputil.RespondErrorWithCode(w, "Name is required", httputil.CodeValidationFailed, http.StatusBadRequest)
		case errors.Is(err, auth.ErrPasswordRequired):
			httputil.RespondErrorWithCode(w, "Password is required", httputil.CodePasswordRequired, http.StatusBadRequest)
		default:
			h.respondLookupError(w, r, err, "failed to update profile")
		}
		return
	}

	logger.Info("profile updated", "password_changed", req.Password != nil)
	httputil.RespondJSON(w, newProfileResponse(acc), http.StatusOK)
}

// ListUsers returns every account
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} ProfileResponse
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid token"
// @Failure      403 {object} httputil.ErrorResponse "Admin access required"
// @Router       /users [get]
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.AccountFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "No token, authorization denied", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	accounts, err := h.service.ListAccounts(r.Context(), caller.Role)
	if err != nil {
		h.respondLookupError(w, r, err, "failed to list users")
		return
	}

	out := make([]ProfileResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, newProfileResponse(a))
	}
	httputil.RespondJSON(w, out, http.StatusOK)
}

// BlockUser blocks an account from logging in
// @Summary      Block user
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User ID"
// @Success      200 {object} ProfileResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid user id"
// @Failure      403 {object} httputil.ErrorResponse "Admin access required"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /users/{id}/block [patch]
func (h *Handler) BlockUser(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, true)
}

// UnblockUser lets a blocked account log in again
// @Summary      Unblock user
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User ID"
// @Success      200 {object} ProfileResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid user id"
// @Failure      403 {object} httputil.ErrorResponse "Admin access required"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /users/{id}/unblock [patch]
func (h *Handler) UnblockUser(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, false)
}

func (h *Handler) setBlocked(w http.ResponseWriter, r *http.Request, blocked bool) {
	logger := logging.GetLoggerFromContext(r.Context())

	caller, ok := auth.AccountFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "No token, authorization denied", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	target, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "Invalid user id", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	acc, err := h.service.SetBlocked(r.Context(), caller.Role, target, blocked)
	if err != nil {
		h.respondLookupError(w, r, err, "failed to change blocked state")
		return
	}

	logger.Info("user blocked state changed", "target_id", target, "blocked", blocked)
	httputil.RespondJSON(w, newProfileResponse(acc), http.StatusOK)
}

func (h *Handler) respondLookupError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	logger := logging.GetLoggerFromContext(r.Context())

	switch {
	case errors.Is(err, auth.ErrForbidden):
		logger.Warn("admin operation denied")
		httputil.RespondErrorWithCode(w, "Admin access required", httputil.CodeAdminRequired, http.StatusForbidden)
	case errors.Is(err, account.ErrNotFound):
		httputil.RespondErrorWithCode(w, "User not found", httputil.CodeUserNotFound, http.StatusNotFound)
	default:
		logger.Error(msg, "error", err.Error())
		httputil.RespondErrorWithCode(w, "Server error", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}
