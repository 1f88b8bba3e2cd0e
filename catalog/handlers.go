package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/foodgram-go/auth"
	"github.com/user/foodgram-go/validation"
)

// Handlers exposes the catalog over HTTP.
// Write access is restricted by auth.RequireStaffOrReadOnly, applied in RegisterRoutes.
type Handlers struct {
	service  *Service
	validate *validation.Validator
}

// NewHandlers creates catalog Handlers.
func NewHandlers(service *Service, validate *validation.Validator) *Handlers {
	return &Handlers{service: service, validate: validate}
}

// RegisterIngredientRoutes mounts the ingredient endpoints on a router, typically at
// /api/ingredients.
func (h *Handlers) RegisterIngredientRoutes(r chi.Router) {
	r.Use(auth.RequireStaffOrReadOnly)
	r.Get("/", h.HandleListIngredients())
	r.Post("/", h.HandleCreateIngredient())
	r.Get("/{id}", h.HandleGetIngredient())
}

// RegisterTagRoutes mounts the tag endpoints on a router, typically at /api/tags.
func (h *Handlers) RegisterTagRoutes(r chi.Router) {
	r.Use(auth.RequireStaffOrReadOnly)
	r.Get("/", h.HandleListTags())
	r.Post("/", h.HandleCreateTag())
	r.Get("/{id}", h.HandleGetTag())
}

// HandleListIngredients godoc
// @Summary List ingredients
// @Description Returns all ingredients ordered by name. The list is not paginated.
// @Tags Ingredients
// @Produce json
// @Param name query string false "Case-insensitive name prefix"
// @Success 200 {array} catalog.Ingredient
// @Router /api/ingredients [get]
func (h *Handlers) HandleListIngredients() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := h.service.ListIngredients(r.Context(), r.URL.Query().Get("name"))
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, list)
	}
}

// HandleGetIngredient godoc
// @Summary Get ingredient
// @Tags Ingredients
// @Produce json
// @Param id path int true "Ingredient ID"
// @Success 200 {object} catalog.Ingredient
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/ingredients/{id} [get]
func (h *Handlers) HandleGetIngredient() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := auth.PathID(r, "id")
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		ing, err := h.service.GetIngredient(r.Context(), id)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, ing)
	}
}

// HandleCreateIngredient godoc
// @Summary Create ingredient
// @Description Staff only.
// @Tags Ingredients
// @Accept json
// @Produce json
// @Param body body catalog.CreateIngredientRequest true "Ingredient"
// @Success 201 {object} catalog.Ingredient
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 403 {object} apperror.ErrorResponse
// @Security BearerAuth
// @Router /api/ingredients [post]
func (h *Handlers) HandleCreateIngredient() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateIngredientRequest
		if err := auth.DecodeJSON(r, &req); err != nil {
			auth.WriteError(w, r, err)
			return
		}
		if err := h.validate.Validate(req); err != nil {
			auth.WriteError(w, r, err)
			return
		}
		ing, err := h.service.CreateIngredient(r.Context(), req)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusCreated, ing)
	}
}

// HandleListTags godoc
// @Summary List tags
// @Tags Tags
// @Produce json
// @Success 200 {array} catalog.Tag
// @Router /api/tags [get]
func (h *Handlers) HandleListTags() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := h.service.ListTags(r.Context())
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, list)
	}
}

// HandleGetTag godoc
// @Summary Get tag
// @Tags Tags
// @Produce json
// @Param id path int true "Tag ID"
// @Success 200 {object} catalog.Tag
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/tags/{id} [get]
func (h *Handlers) HandleGetTag() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := auth.PathID(r, "id")
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		tag, err := h.service.GetTag(r.Context(), id)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, tag)
	}
}

// HandleCreateTag godoc
// @Summary Create tag
// @Description Staff only. The slug is generated from the name when omitted.
// @Tags Tags
// @Accept json
// @Produce json
// @Param body body catalog.CreateTagRequest true "Tag"
// @Success 201 {object} catalog.Tag
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 403 {object} apperror.ErrorResponse
// @Security BearerAuth
// @Router /api/tags [post]
func (h *Handlers) HandleCreateTag() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateTagRequest
		if err := auth.DecodeJSON(r, &req); err != nil {
			auth.WriteError(w, r, err)
			return
		}
		if err := h.validate.Validate(req); err != nil {
			auth.WriteError(w, r, err)
			return
		}
		tag, err := h.service.CreateTag(r.Context(), req)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusCreated, tag)
	}
}
