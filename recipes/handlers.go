package recipes

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/user/foodgram-go/apperror"
	"github.com/user/foodgram-go/auth"
	"github.com/user/foodgram-go/pagination"
)

// errInvalidAuthor is returned for an author filter that is not a user id.
var errInvalidAuthor = apperror.Coded(apperror.ValidationError, "invalid_author_filter", "author",
	"author must be a user id")

// Handlers exposes recipes over HTTP.
type Handlers struct {
	service         *Service
	defaultPageSize int
	listFilename    string
	listContentType string
}

// NewHandlers creates recipe Handlers. filename and contentType describe the shopping list
// download.
func NewHandlers(service *Service, defaultPageSize int, filename, contentType string) *Handlers {
	return &Handlers{
		service:         service,
		defaultPageSize: defaultPageSize,
		listFilename:    filename,
		listContentType: contentType,
	}
}

// RegisterRoutes mounts the recipe endpoints, typically at /api/recipes.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.With(auth.RequireAuthenticated).Get("/download_shopping_cart", h.HandleDownloadShoppingCart())

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuthenticatedOrReadOnly)
		r.Get("/", h.HandleListRecipes())
		r.Post("/", h.HandleCreateRecipe())
		r.Get("/{id}", h.HandleGetRecipe())
		r.Patch("/{id}", h.HandleUpdateRecipe())
		r.Delete("/{id}", h.HandleDeleteRecipe())
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuthenticated)
		r.Post("/{id}/favorite", h.handleAdd(Favorites))
		r.Delete("/{id}/favorite", h.handleRemove(Favorites))
		r.Post("/{id}/shopping_cart", h.handleAdd(ShoppingCart))
		r.Delete("/{id}/shopping_cart", h.handleRemove(ShoppingCart))
	})
}

// HandleListRecipes godoc
// @Summary List recipes
// @Description Newest first. is_favorited and is_in_shopping_cart only filter for authenticated users.
// @Tags Recipes
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param author query int false "Author ID"
// @Param tags query []string false "Tag slugs, any of" collectionFormat(multi)
// @Param is_favorited query int false "1 to show only favorites"
// @Param is_in_shopping_cart query int false "1 to show only recipes in the cart"
// @Success 200 {object} pagination.Page[recipes.RecipeResponse]
// @Router /api/recipes [get]
func (h *Handlers) HandleListRecipes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := pagination.FromRequest(r, h.defaultPageSize)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		filter, err := parseListFilter(r)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		filter.ViewerID = auth.PrincipalFromContext(r.Context()).ID()
		filter.Limit = params.Limit
		filter.Offset = params.Offset()

		list, total, err := h.service.List(r.Context(), filter)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, pagination.New(r, params, total, list))
	}
}

// parseListFilter reads author, tags, is_favorited and is_in_shopping_cart.
func parseListFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	var f ListFilter

	if raw := strings.TrimSpace(q.Get("author")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return ListFilter{}, errInvalidAuthor
		}
		f.AuthorID = &id
	}
	for _, s := range q["tags"] {
		if s = strings.TrimSpace(s); s != "" {
			f.TagSlugs = append(f.TagSlugs, s)
		}
	}
	f.Favorited = isTruthy(q.Get("is_favorited"))
	f.InShoppingCart = isTruthy(q.Get("is_in_shopping_cart"))
	return f, nil
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true":
		return true
	}
	return false
}

// HandleGetRecipe godoc
// @Summary Get recipe
// @Tags Recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {object} recipes.RecipeResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/recipes/{id} [get]
func (h *Handlers) HandleGetRecipe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := auth.PathID(r, "id")
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		recipe, err := h.service.Get(r.Context(), id, auth.PrincipalFromContext(r.Context()).ID())
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, recipe)
	}
}

// HandleCreateRecipe godoc
// @Summary Create recipe
// @Tags Recipes
// @Accept json
// @Produce json
// @Param body body recipes.RecipeWriteRequest true "Recipe"
// @Success 201 {object} recipes.RecipeResponse
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse "Unknown ingredient"
// @Security BearerAuth
// @Router /api/recipes [post]
func (h *Handlers) HandleCreateRecipe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RecipeWriteRequest
		if err := auth.DecodeJSON(r, &req); err != nil {
			auth.WriteError(w, r, err)
			return
		}
		recipe, err := h.service.Create(r.Context(), auth.PrincipalFromContext(r.Context()), req)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusCreated, recipe)
	}
}

// HandleUpdateRecipe godoc
// @Summary Update recipe
// @Description Author only. Ingredients and tags are replaced by the lists sent; image may be omitted.
// @Tags Recipes
// @Accept json
// @Produce json
// @Param id path int true "Recipe ID"
// @Param body body recipes.RecipeWriteRequest true "Recipe"
// @Success 200 {object} recipes.RecipeResponse
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 403 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Security BearerAuth
// @Router /api/recipes/{id} [patch]
func (h *Handlers) HandleUpdateRecipe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := auth.PathID(r, "id")
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		var req RecipeWriteRequest
		if err := auth.DecodeJSON(r, &req); err != nil {
			auth.WriteError(w, r, err)
			return
		}
		recipe, err := h.service.Update(r.Context(), auth.PrincipalFromContext(r.Context()), id, req)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, recipe)
	}
}

// HandleDeleteRecipe godoc
// @Summary Delete recipe
// @Description Author only.
// @Tags Recipes
// @Param id path int true "Recipe ID"
// @Success 204 "Deleted"
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 403 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Security BearerAuth
// @Router /api/recipes/{id} [delete]
func (h *Handlers) HandleDeleteRecipe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := auth.PathID(r, "id")
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		if err := h.service.Delete(r.Context(), auth.PrincipalFromContext(r.Context()), id); err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusNoContent, nil)
	}
}

// handleAdd godoc
// @Summary Add to favorites / shopping cart
// @Tags Recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 201 {object} recipes.RecipeShort
// @Failure 400 {object} apperror.ErrorResponse "Already added"
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Security BearerAuth
// @Router /api/recipes/{id}/favorite [post]
// @Router /api/recipes/{id}/shopping_cart [post]
func (h *Handlers) handleAdd(edge Edge) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, auth.ErrNotAuthenticated)
			return
		}
		id, err := auth.PathID(r, "id")
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		short, err := h.service.Add(r.Context(), edge, userID, id)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusCreated, short)
	}
}

// handleRemove godoc
// @Summary Remove from favorites / shopping cart
// @Tags Recipes
// @Param id path int true "Recipe ID"
// @Success 204 "Removed"
// @Failure 400 {object} apperror.ErrorResponse "Not in the list"
// @Failure 401 {object} apperror.ErrorResponse
// @Security BearerAuth
// @Router /api/recipes/{id}/favorite [delete]
// @Router /api/recipes/{id}/shopping_cart [delete]
func (h *Handlers) handleRemove(edge Edge) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, auth.ErrNotAuthenticated)
			return
		}
		id, err := auth.PathID(r, "id")
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		if err := h.service.Remove(r.Context(), edge, userID, id); err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusNoContent, nil)
	}
}

// HandleDownloadShoppingCart godoc
// @Summary Download shopping list
// @Description Plain-text list of every ingredient in the cart, summed per name and unit.
// @Tags Recipes
// @Produce plain
// @Success 200 {string} string "Shopping list"
// @Failure 400 {object} apperror.ErrorResponse "Cart is empty"
// @Failure 401 {object} apperror.ErrorResponse
// @Security BearerAuth
// @Router /api/recipes/download_shopping_cart [get]
func (h *Handlers) HandleDownloadShoppingCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, auth.ErrNotAuthenticated)
			return
		}
		content, err := h.service.ShoppingList(r.Context(), userID)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", h.listContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", h.listFilename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(content))
	}
}
