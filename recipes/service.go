package recipes

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/user/foodgram-go/apperror"
	"github.com/user/foodgram-go/auth"
	"github.com/user/foodgram-go/catalog"
	"github.com/user/foodgram-go/media"
	"github.com/user/foodgram-go/metrics"
	"github.com/user/foodgram-go/users"
	"github.com/user/foodgram-go/validation"
)

var (
	ErrRecipeNotFound = apperror.Coded(apperror.NotFoundError, "recipe_not_found", "", "recipe not found")
	// ErrAlreadyAdded is returned when the recipe is already in the favorites or cart.
	ErrAlreadyAdded = apperror.Coded(apperror.ConflictError, "already_added", "", "recipe is already added")
	// ErrNotAdded is returned when removing a recipe that is not in the list.
	ErrNotAdded = apperror.Coded(apperror.ConflictError, "not_added", "", "recipe is not in the list")
	// ErrEmptyCart is returned when downloading the shopping list of an empty cart.
	ErrEmptyCart = apperror.Coded(apperror.BadRequestError, "empty_cart", "", "shopping cart is empty")
)

// Store is the persistence the recipes service needs. PgStore implements it.
type Store interface {
	// Create inserts the recipe with its tag and ingredient rows in one transaction and
	// fills in ID and CreatedAt.
	Create(ctx context.Context, r *Recipe, tagIDs []int64, ingredients []IngredientAmount) error
	// Update rewrites the scalar columns and replaces both association sets in one transaction.
	Update(ctx context.Context, r *Recipe, tagIDs []int64, ingredients []IngredientAmount) error
	Delete(ctx context.Context, id int64) error
	// Get returns the recipe or ErrRecipeNotFound.
	Get(ctx context.Context, id int64) (*Recipe, error)
	// List returns one page of recipes, newest first, and the number of matching recipes.
	List(ctx context.Context, f ListFilter) ([]Recipe, int64, error)

	TagsFor(ctx context.Context, recipeIDs []int64) (map[int64][]catalog.Tag, error)
	IngredientsFor(ctx context.Context, recipeIDs []int64) (map[int64][]RecipeIngredient, error)
	// Authors loads author profiles with is_subscribed relative to viewerID.
	Authors(ctx context.Context, authorIDs []int64, viewerID *int64) (map[int64]users.Profile, error)
	// ViewerFlags reports which of recipeIDs viewerID favorited and has in the cart.
	ViewerFlags(ctx context.Context, viewerID int64, recipeIDs []int64) (favorited, inCart map[int64]bool, err error)

	EdgeExists(ctx context.Context, edge Edge, userID, recipeID int64) (bool, error)
	// AddEdge inserts the edge; a unique violation is reported as ErrAlreadyAdded.
	AddEdge(ctx context.Context, edge Edge, userID, recipeID int64) error
	// RemoveEdge deletes the edge and reports whether it existed.
	RemoveEdge(ctx context.Context, edge Edge, userID, recipeID int64) (bool, error)

	CartSize(ctx context.Context, userID int64) (int64, error)
	// CartLines returns one line per ingredient row of every recipe in the user's cart.
	CartLines(ctx context.Context, userID int64) ([]CartLine, error)
}

// UserLookup resolves the account a shopping list is addressed to. auth.PgStore implements it.
type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*auth.User, error)
}

// Service implements recipe CRUD, the favorite and cart lists and the shopping list.
// The caller is passed explicitly as *auth.Principal (nil for anonymous).
type Service struct {
	store     Store
	images    media.Storage
	users     UserLookup
	validator writeValidator
	appName   string
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService creates a recipes Service. appName heads every shopping list.
func NewService(store Store, lookup CatalogLookup, images media.Storage, accounts UserLookup,
	validate *validation.Validator, appName string, logger zerolog.Logger) *Service {
	return &Service{
		store:     store,
		images:    images,
		users:     accounts,
		validator: writeValidator{fields: validate, catalog: lookup},
		appName:   appName,
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates req, stores the image and persists the recipe authored by p.
func (s *Service) Create(ctx context.Context, p *auth.Principal, req RecipeWriteRequest) (*RecipeResponse, error) {
	if p == nil {
		return nil, auth.ErrNotAuthenticated
	}
	if err := s.validator.validate(ctx, &req, true); err != nil {
		return nil, err
	}

	imageURL, err := s.images.Save(ctx, req.Image)
	if err != nil {
		return nil, err
	}

	recipe := &Recipe{
		AuthorID:    p.ID(),
		Name:        req.Name,
		Text:        req.Text,
		Image:       imageURL,
		CookingTime: req.CookingTime,
	}
	if err := s.store.Create(ctx, recipe, req.Tags, req.Ingredients); err != nil {
		s.discardImage(ctx, imageURL)
		return nil, err
	}
	metrics.RecordRecipeWrite("create")

	return s.one(ctx, recipe, p.ID())
}

// Update replaces the recipe's fields, tags and ingredients. Only the author may update.
// The checks run in order: the recipe must exist, the caller must be its author, then
// the payload is validated.
func (s *Service) Update(ctx context.Context, p *auth.Principal, id int64, req RecipeWriteRequest) (*RecipeResponse, error) {
	recipe, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorOrReadOnly(http.MethodPatch, p, recipe.AuthorID); err != nil {
		return nil, err
	}
	if err := s.validator.validate(ctx, &req, false); err != nil {
		return nil, err
	}

	oldImage := recipe.Image
	if req.Image != "" {
		newImage, err := s.images.Save(ctx, req.Image)
		if err != nil {
			return nil, err
		}
		recipe.Image = newImage
	}
	recipe.Name = req.Name
	recipe.Text = req.Text
	recipe.CookingTime = req.CookingTime

	if err := s.store.Update(ctx, recipe, req.Tags, req.Ingredients); err != nil {
		if recipe.Image != oldImage {
			s.discardImage(ctx, recipe.Image)
		}
		return nil, err
	}
	if recipe.Image != oldImage {
		s.discardImage(ctx, oldImage)
	}
	metrics.RecordRecipeWrite("update")

	return s.one(ctx, recipe, p.ID())
}

// Delete removes a recipe and its image. Only the author may delete.
func (s *Service) Delete(ctx context.Context, p *auth.Principal, id int64) error {
	recipe, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.AuthorOrReadOnly(http.MethodDelete, p, recipe.AuthorID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.discardImage(ctx, recipe.Image)
	metrics.RecordRecipeWrite("delete")
	return nil
}

// Get returns a recipe as seen by viewerID (nil for anonymous).
func (s *Service) Get(ctx context.Context, id int64, viewerID *int64) (*RecipeResponse, error) {
	recipe, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.one(ctx, recipe, viewerID)
}

// List returns one page of recipes and the total number of matches. The favorited and
// in-cart filters are ignored for anonymous viewers.
func (s *Service) List(ctx context.Context, f ListFilter) ([]RecipeResponse, int64, error) {
	if f.ViewerID == nil {
		f.Favorited = false
		f.InShoppingCart = false
	}
	list, total, err := s.store.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out, err := s.project(ctx, list, f.ViewerID)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Add puts a recipe into the user's favorites or shopping cart. The edge check comes
// before the recipe lookup, so a repeated add reports ErrAlreadyAdded.
func (s *Service) Add(ctx context.Context, edge Edge, userID, recipeID int64) (*RecipeShort, error) {
	exists, err := s.store.EdgeExists(ctx, edge, userID, recipeID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyAdded
	}

	recipe, err := s.store.Get(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if err := s.store.AddEdge(ctx, edge, userID, recipeID); err != nil {
		return nil, err
	}
	metrics.RecordEdgeChange(string(edge), "add")

	short := recipe.short()
	return &short, nil
}

// Remove takes a recipe out of the user's favorites or shopping cart.
func (s *Service) Remove(ctx context.Context, edge Edge, userID, recipeID int64) error {
	deleted, err := s.store.RemoveEdge(ctx, edge, userID, recipeID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotAdded
	}
	metrics.RecordEdgeChange(string(edge), "remove")
	return nil
}

// ShoppingList renders the aggregated ingredients of every recipe in the user's cart.
// An empty cart is an error and no aggregation runs.
func (s *Service) ShoppingList(ctx context.Context, userID int64) (string, error) {
	size, err := s.store.CartSize(ctx, userID)
	if err != nil {
		return "", err
	}
	if size == 0 {
		return "", ErrEmptyCart
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	lines, err := s.store.CartLines(ctx, userID)
	if err != nil {
		return "", err
	}

	metrics.RecordShoppingListDownload()
	return RenderShoppingList(s.appName, s.now(), user.FullName(), AggregateShoppingList(lines)), nil
}

func (s *Service) one(ctx context.Context, recipe *Recipe, viewerID *int64) (*RecipeResponse, error) {
	out, err := s.project(ctx, []Recipe{*recipe}, viewerID)
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// project builds the read shape for a batch of recipes with a fixed number of queries,
// however many recipes there are. Anonymous viewers never reach ViewerFlags: their flags
// are false by definition.
func (s *Service) project(ctx context.Context, list []Recipe, viewerID *int64) ([]RecipeResponse, error) {
	out := make([]RecipeResponse, len(list))
	if len(list) == 0 {
		return out, nil
	}

	ids := make([]int64, len(list))
	var authorIDs []int64
	for i, r := range list {
		ids[i] = r.ID
		if r.AuthorID != nil {
			authorIDs = append(authorIDs, *r.AuthorID)
		}
	}

	tags, err := s.store.TagsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	ingredients, err := s.store.IngredientsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	authors := map[int64]users.Profile{}
	if len(authorIDs) > 0 {
		if authors, err = s.store.Authors(ctx, authorIDs, viewerID); err != nil {
			return nil, err
		}
	}
	favorited, inCart := map[int64]bool{}, map[int64]bool{}
	if viewerID != nil {
		if favorited, inCart, err = s.store.ViewerFlags(ctx, *viewerID, ids); err != nil {
			return nil, err
		}
	}

	for i, r := range list {
		resp := RecipeResponse{
			ID:               r.ID,
			Tags:             tags[r.ID],
			Ingredients:      ingredients[r.ID],
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
		if resp.Tags == nil {
			resp.Tags = []catalog.Tag{}
		}
		if resp.Ingredients == nil {
			resp.Ingredients = []RecipeIngredient{}
		}
		if r.AuthorID != nil {
			if author, ok := authors[*r.AuthorID]; ok {
				resp.Author = &author
			}
		}
		out[i] = resp
	}
	return out, nil
}

func (s *Service) discardImage(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.images.Delete(ctx, url); err != nil {
		s.logger.Warn().Err(err).Str("image", url).Msg("failed to remove recipe image")
	}
}
