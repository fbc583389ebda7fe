package auth

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/redmonkez12/storefront-api/internal/account"
	"github.com/redmonkez12/storefront-api/internal/httputil"
	"github.com/redmonkez12/storefront-api/internal/logging"
	"github.com/redmonkez12/storefront-api/internal/ratelimit"
)

const maxEmailLength = 254

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service     *Service
	rateLimiter *ratelimit.Limiter
}

func NewHandler(service *Service, rateLimiter *ratelimit.Limiter) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *RegisterRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if r.Password == "" {
		return ErrPasswordRequired
	}
	return nil
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest represents the password reset request
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

func (r *ForgotPasswordRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return ErrEmailRequired
	}
	return nil
}

// ResetPasswordRequest carries the new password; the token is in the path
type ResetPasswordRequest struct {
	Password string `json:"password"`
}

func (r *ResetPasswordRequest) Validate() error {
	if r.Password == "" {
		return ErrPasswordRequired
	}
	return nil
}

// UserSummary is the credential-free view of an account returned to its owner
type UserSummary struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	IsAdmin bool      `json:"isAdmin"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

func NewUserSummary(a *account.Account) UserSummary {
	return UserSummary{
		ID:      a.ID,
		Name:    a.Name,
		Email:   a.Email,
		IsAdmin: a.Role.IsAdmin(),
	}
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a standard account. Does not log the user in.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration details"
// @Success      201 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error or user already exists"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	if h.ipLimited(r, ip, "register") {
		httputil.RespondErrorWithCode(w, "Too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	h.recordIPRequest(r, ip, "register")

	if err := req.Validate(); err != nil {
		logger.Warn("registration failed: validation error", "error", err.Error())
		respondValidationError(w, err)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	created, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, account.ErrDuplicateEmail) {
			logger.Warn("registration failed: email already exists")
			httputil.RespondErrorWithCode(w, "User already exists", httputil.CodeUserExists, http.StatusBadRequest)
			return
		}
		logger.Error("registration failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user registered successfully", "user_id", created.ID)
	httputil.RespondMessage(w, "User registered successfully", http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate with email and password and receive a session token valid for 7 days
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} LoginResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid credentials"
// @Failure      403 {object} httputil.ErrorResponse "User is blocked"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	if h.ipLimited(r, ip, "login") {
		httputil.RespondErrorWithCode(w, "Too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	h.recordIPRequest(r, ip, "login")

	result, err := h.service.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			httputil.RespondErrorWithCode(w, "Invalid credentials", httputil.CodeInvalidCredentials, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrAccountBlocked) {
			logger.Warn("login failed: account blocked")
			httputil.RespondErrorWithCode(w, "User is blocked. Please contact support.", httputil.CodeUserBlocked, http.StatusForbidden)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in successfully", "user_id", result.Account.ID)

	httputil.RespondJSON(w, LoginResponse{
		Token: result.Token,
		User:  NewUserSummary(result.Account),
	}, http.StatusOK)
}

// Me returns the authenticated account
// @Summary      Current user
// @Description  Return the account named by the bearer token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} UserSummary
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid token"
// @Router       /auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	acc, ok := AccountFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "No token, authorization denied", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}
	httputil.RespondJSON(w, NewUserSummary(acc), http.StatusOK)
}

// ForgotPassword handles password reset requests
// @Summary      Request password reset
// @Description  Email a single-use reset link valid for 1 hour. Any earlier link stops working.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ForgotPasswordRequest true "Account email"
// @Success      200 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests or cooldown active"
// @Failure      500 {object} httputil.ErrorResponse "Email delivery failed"
// @Router       /auth/forgot-password [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	if h.ipLimited(r, ip, "forgot-password") {
		httputil.RespondErrorWithCode(w, "Too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid forgot password request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(w, err)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	onCooldown, err := h.rateLimiter.CheckEmailCooldown(r.Context(), req.Email)
	if err != nil {
		logger.Error("failed to check email cooldown", "error", err.Error())
	} else if onCooldown {
		logger.Warn("password reset requested during cooldown")
		httputil.RespondErrorWithCode(w, "Please wait before requesting another reset email", httputil.CodeCooldownActive, http.StatusTooManyRequests)
		return
	}

	h.recordIPRequest(r, ip, "forgot-password")

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			logger.Warn("password reset requested for unknown email")
			httputil.RespondErrorWithCode(w, "User not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		if errors.Is(err, ErrMailDelivery) {
			logger.Error("password reset email failed", "error", err.Error())
			httputil.RespondErrorWithCode(w, "Failed to send reset email. Try again later.", httputil.CodeEmailDeliveryFailed, http.StatusInternalServerError)
			return
		}
		logger.Error("password reset request failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	if err := h.rateLimiter.SetEmailCooldown(r.Context(), req.Email); err != nil {
		logger.Error("failed to set email cooldown", "error", err.Error())
	}

	logger.Info("password reset email sent")
	httputil.RespondMessage(w, "Password reset link sent to your email.", http.StatusOK)
}

// ResetPassword handles password reset confirmation
// @Summary      Reset password
// @Description  Redeem a reset token from the emailed link and set a new password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token path string true "Reset token"
// @Param        request body ResetPasswordRequest true "New password"
// @Success      200 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid or expired token"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/reset-password/{token} [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	if h.ipLimited(r, ip, "reset-password") {
		httputil.RespondErrorWithCode(w, "Too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reset password request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(w, err)
		return
	}

	h.recordIPRequest(r, ip, "reset-password")

	err := h.service.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidOrExpiredToken) {
			logger.Warn("password reset failed: invalid or expired token")
			httputil.RespondErrorWithCode(w, "Invalid or expired token", httputil.CodeInvalidResetToken, http.StatusBadRequest)
			return
		}
		logger.Error("password reset failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondMessage(w, "Password reset successful. Please login.", http.StatusOK)
}

// ipLimited reports whether ip is over its window for purpose. Limiter
// failures let the request through.
func (h *Handler) ipLimited(r *http.Request, ip, purpose string) bool {
	logger := logging.GetLoggerFromContext(r.Context())

	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, purpose)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
		return false
	}
	if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
	}
	return exceeded
}

func (h *Handler) recordIPRequest(r *http.Request, ip, purpose string) {
	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, purpose); err != nil {
		logging.GetLoggerFromContext(r.Context()).Error("failed to record IP request", "error", err.Error())
	}
}

func validateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if len(email) > maxEmailLength {
		return ErrInvalidEmailFormat
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmailFormat
	}
	return nil
}

// respondValidationError writes a 400 for a request schema violation
func respondValidationError(w http.ResponseWriter, err error) {
	code := httputil.CodeValidationFailed
	switch {
	case errors.Is(err, ErrEmailRequired):
		code = httputil.CodeEmailRequired
	case errors.Is(err, ErrInvalidEmailFormat):
		code = httputil.CodeInvalidEmailFormat
	case errors.Is(err, ErrPasswordRequired):
		code = httputil.CodePasswordRequired
	}
	httputil.RespondErrorWithCode(w, capitalize(err.Error()), code, http.StatusBadRequest)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// getClientIP returns the client address. middleware.RealIP has already
// folded X-Forwarded-For and X-Real-IP into RemoteAddr.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
