package auth

import (
	"net/http"

	"github.com/user/foodgram-go/validation"
)

// Handlers wraps the AuthService to provide HTTP handlers.
// It acts as the "Controller" layer, analogous to a Nest.js AuthController.
type Handlers struct {
	service  *AuthService
	validate *validation.Validator
}

// NewHandlers creates a new Handlers instance
func NewHandlers(service *AuthService, validate *validation.Validator) *Handlers {
	return &Handlers{service: service, validate: validate}
}

// HandleRegister godoc
// @Summary User Registration
// @Description Registers a new user. Email is the login identifier; the username "me" is reserved.
// @Tags Auth
// @Accept json
// @Produce json
// @Param registerBody body auth.RegisterRequest true "User registration details"
// @Success 201 {object} auth.RegisterResponse "User created successfully"
// @Failure 400 {object} apperror.ErrorResponse "Bad Request - Invalid input or missing fields"
// @Failure 409 {object} apperror.ErrorResponse "Conflict - username or email already taken"
// @Router /api/auth/register [post]
func (h *Handlers) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := DecodeJSON(r, &req); err != nil {
			WriteError(w, r, err)
			return
		}
		if err := h.validate.Validate(req); err != nil {
			WriteError(w, r, err)
			return
		}

		user, err := h.service.Register(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		WriteJSON(w, http.StatusCreated, RegisterResponse{
			Email:     user.Email,
			ID:        user.ID,
			Username:  user.Username,
			FirstName: user.FirstName,
			LastName:  user.LastName,
		})
	}
}

// HandleLogin godoc
// @Summary User Login
// @Description Logs in with email and password and returns access and refresh tokens.
// @Tags Auth
// @Accept json
// @Produce json
// @Param loginBody body auth.LoginRequest true "User login credentials"
// @Success 200 {object} auth.TokenResponse "Login successful, tokens provided"
// @Failure 400 {object} apperror.ErrorResponse "Bad Request - Invalid input or missing fields"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Invalid credentials"
// @Router /api/auth/login [post]
func (h *Handlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := DecodeJSON(r, &req); err != nil {
			WriteError(w, r, err)
			return
		}
		if err := h.validate.Validate(req); err != nil {
			WriteError(w, r, err)
			return
		}

		resp, err := h.service.Login(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// HandleRefreshToken godoc
// @Summary Refresh Access Token
// @Description Issues a new access token for a valid refresh token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param refreshBody body auth.RefreshTokenRequest true "Refresh token details"
// @Success 200 {object} auth.TokenResponse "Tokens refreshed successfully"
// @Failure 400 {object} apperror.ErrorResponse "Bad Request - missing refresh token"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Invalid or expired refresh token"
// @Router /api/auth/refresh [post]
func (h *Handlers) HandleRefreshToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshTokenRequest
		if err := DecodeJSON(r, &req); err != nil {
			WriteError(w, r, err)
			return
		}
		if err := h.validate.Validate(req); err != nil {
			WriteError(w, r, err)
			return
		}

		resp, err := h.service.RefreshToken(r.Context(), req.RefreshToken)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// HandleSetPassword godoc
// @Summary Change password
// @Description Replaces the caller's password after checking the current one.
// @Tags Users
// @Accept json
// @Param body body auth.SetPasswordRequest true "Current and new password"
// @Success 204 "Password changed"
// @Failure 400 {object} apperror.ErrorResponse "Wrong current password or invalid new password"
// @Failure 401 {object} apperror.ErrorResponse "Not authenticated"
// @Security BearerAuth
// @Router /api/users/set_password [post]
func (h *Handlers) HandleSetPassword() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserIDFromContext(r.Context())
		if !ok {
			WriteError(w, r, ErrNotAuthenticated)
			return
		}

		var req SetPasswordRequest
		if err := DecodeJSON(r, &req); err != nil {
			WriteError(w, r, err)
			return
		}
		if err := h.validate.Validate(req); err != nil {
			WriteError(w, r, err)
			return
		}

		if err := h.service.SetPassword(r.Context(), userID, req); err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusNoContent, nil)
	}
}
