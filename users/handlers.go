package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/foodgram-go/auth"
	"github.com/user/foodgram-go/pagination"
)

// UserHandlers holds dependencies for user-related HTTP handlers.
type UserHandlers struct {
	service         *UserService
	defaultPageSize int
}

// NewUserHandlers creates new UserHandlers.
func NewUserHandlers(service *UserService, defaultPageSize int) *UserHandlers {
	return &UserHandlers{service: service, defaultPageSize: defaultPageSize}
}

// RegisterRoutes mounts the profile and subscription endpoints, typically at /api/users.
// Static segments ("me", "subscriptions") win over the {id} pattern in chi.
func (h *UserHandlers) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListUsers())
	r.With(auth.RequireAuthenticated).Get("/me", h.HandleGetMe())
	r.With(auth.RequireAuthenticated).Get("/subscriptions", h.HandleSubscriptions())
	r.Get("/{id}", h.HandleGetUser())
	r.With(auth.RequireAuthenticated).Post("/{id}/subscribe", h.HandleSubscribe())
	r.With(auth.RequireAuthenticated).Delete("/{id}/subscribe", h.HandleUnsubscribe())
}

// HandleListUsers godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} pagination.Page[users.Profile]
// @Router /api/users [get]
func (h *UserHandlers) HandleListUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := pagination.FromRequest(r, h.defaultPageSize)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		viewer := auth.PrincipalFromContext(r.Context()).ID()

		list, total, err := h.service.ListUsers(r.Context(), viewer, params)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, pagination.New(r, params, total, list))
	}
}

// HandleGetUser godoc
// @Summary Get user profile
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} users.Profile
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/users/{id} [get]
func (h *UserHandlers) HandleGetUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := auth.PathID(r, "id")
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		profile, err := h.service.GetUser(r.Context(), id, auth.PrincipalFromContext(r.Context()).ID())
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, profile)
	}
}

// HandleGetMe godoc
// @Summary Current user
// @Tags Users
// @Produce json
// @Success 200 {object} users.Profile
// @Failure 401 {object} apperror.ErrorResponse
// @Security BearerAuth
// @Router /api/users/me [get]
func (h *UserHandlers) HandleGetMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, auth.ErrNotAuthenticated)
			return
		}
		profile, err := h.service.Me(r.Context(), userID)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, profile)
	}
}

// HandleSubscriptions godoc
// @Summary My subscriptions
// @Description Authors the caller follows, with their recipe count and newest recipes.
// @Tags Users
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param recipes_limit query int false "Maximum recipes per author"
// @Success 200 {object} pagination.Page[users.Subscription]
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Security BearerAuth
// @Router /api/users/subscriptions [get]
func (h *UserHandlers) HandleSubscriptions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, auth.ErrNotAuthenticated)
			return
		}
		params, err := pagination.FromRequest(r, h.defaultPageSize)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		recipesLimit, err := ParseRecipesLimit(r.URL.Query().Get("recipes_limit"))
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		subs, total, err := h.service.Subscriptions(r.Context(), userID, params, recipesLimit)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, pagination.New(r, params, total, subs))
	}
}

// HandleSubscribe godoc
// @Summary Subscribe to a user
// @Tags Users
// @Produce json
// @Param id path int true "Author ID"
// @Param recipes_limit query int false "Maximum recipes in the response"
// @Success 201 {object} users.Subscription
// @Failure 400 {object} apperror.ErrorResponse "Already subscribed or self-subscription"
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Security BearerAuth
// @Router /api/users/{id}/subscribe [post]
func (h *UserHandlers) HandleSubscribe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, auth.ErrNotAuthenticated)
			return
		}
		authorID, err := auth.PathID(r, "id")
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		recipesLimit, err := ParseRecipesLimit(r.URL.Query().Get("recipes_limit"))
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		sub, err := h.service.Follow(r.Context(), userID, authorID, recipesLimit)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusCreated, sub)
	}
}

// HandleUnsubscribe godoc
// @Summary Unsubscribe from a user
// @Tags Users
// @Param id path int true "Author ID"
// @Success 204 "Unsubscribed"
// @Failure 400 {object} apperror.ErrorResponse "Not subscribed"
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Security BearerAuth
// @Router /api/users/{id}/subscribe [delete]
func (h *UserHandlers) HandleUnsubscribe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, auth.ErrNotAuthenticated)
			return
		}
		authorID, err := auth.PathID(r, "id")
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		if err := h.service.Unfollow(r.Context(), userID, authorID); err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusNoContent, nil)
	}
}
