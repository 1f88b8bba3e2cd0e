package catalog

import (
	"context"
	"strings"

	"github.com/gosimple/slug"

	"github.com/user/foodgram-go/apperror"
)

var (
	// ErrIngredientExists is returned when (name, measurement_unit) already exists.
	ErrIngredientExists = apperror.Coded(apperror.ValidationError, "ingredient_exists", "name",
		"an ingredient with this name and measurement unit already exists")
	// ErrTagExists is returned when a tag name, color or slug is taken.
	ErrTagExists = apperror.Coded(apperror.ValidationError, "tag_exists", "name",
		"a tag with this name, color or slug already exists")
	// ErrEmptySlug is returned when no slug was given and none can be derived from the name.
	ErrEmptySlug = apperror.Coded(apperror.ValidationError, "empty_slug", "slug",
		"slug cannot be derived from the name, provide one explicitly")
)

// Store is the persistence the catalog service needs. PgStore implements it.
type Store interface {
	ListIngredients(ctx context.Context, namePrefix string) ([]Ingredient, error)
	GetIngredient(ctx context.Context, id int64) (*Ingredient, error)
	CreateIngredient(ctx context.Context, ing *Ingredient) error
	ExistingIngredientIDs(ctx context.Context, ids []int64) (map[int64]bool, error)
	BulkInsertIngredients(ctx context.Context, items []Ingredient) (int64, error)

	ListTags(ctx context.Context) ([]Tag, error)
	GetTag(ctx context.Context, id int64) (*Tag, error)
	CreateTag(ctx context.Context, tag *Tag) error
	ExistingTagIDs(ctx context.Context, ids []int64) (map[int64]bool, error)
}

// Service provides read access to the catalog for everyone and write access for staff.
// Access control is applied by the HTTP layer (auth.RequireStaffOrReadOnly).
type Service struct {
	store Store
	cache Cache
}

// NewService creates a catalog Service. cache may be nil to disable caching.
func NewService(store Store, cache Cache) *Service {
	return &Service{store: store, cache: cache}
}

// ListIngredients returns ingredients ordered by name. A non-empty namePrefix filters
// case-insensitively on the start of the name; only the unfiltered list is cached.
func (s *Service) ListIngredients(ctx context.Context, namePrefix string) ([]Ingredient, error) {
	namePrefix = strings.TrimSpace(namePrefix)
	if namePrefix == "" && s.cache != nil {
		if list, ok := loadCached[Ingredient](ctx, s.cache, ingredientsCacheKey); ok {
			return list, nil
		}
	}

	list, err := s.store.ListIngredients(ctx, namePrefix)
	if err != nil {
		return nil, err
	}

	if namePrefix == "" && s.cache != nil {
		storeCached(ctx, s.cache, ingredientsCacheKey, list)
	}
	return list, nil
}

// GetIngredient returns one ingredient or a NotFound error.
func (s *Service) GetIngredient(ctx context.Context, id int64) (*Ingredient, error) {
	return s.store.GetIngredient(ctx, id)
}

// CreateIngredient adds a reference ingredient.
func (s *Service) CreateIngredient(ctx context.Context, req CreateIngredientRequest) (*Ingredient, error) {
	ing := &Ingredient{
		Name:            strings.TrimSpace(req.Name),
		MeasurementUnit: strings.TrimSpace(req.MeasurementUnit),
	}
	if err := s.store.CreateIngredient(ctx, ing); err != nil {
		return nil, err
	}
	s.invalidate(ctx, ingredientsCacheKey)
	return ing, nil
}

// LoadIngredients bulk-inserts reference ingredients, skipping ones that already exist.
// It returns how many rows were actually inserted.
func (s *Service) LoadIngredients(ctx context.Context, items []Ingredient) (int64, error) {
	cleaned := make([]Ingredient, 0, len(items))
	for _, it := range items {
		name := strings.TrimSpace(it.Name)
		unit := strings.TrimSpace(it.MeasurementUnit)
		if name == "" || unit == "" {
			continue
		}
		cleaned = append(cleaned, Ingredient{Name: name, MeasurementUnit: unit})
	}
	if len(cleaned) == 0 {
		return 0, nil
	}

	inserted, err := s.store.BulkInsertIngredients(ctx, cleaned)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, ingredientsCacheKey)
	return inserted, nil
}

// ExistingIngredientIDs reports which of ids exist. Used by recipe validation.
func (s *Service) ExistingIngredientIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	if len(ids) == 0 {
		return map[int64]bool{}, nil
	}
	return s.store.ExistingIngredientIDs(ctx, ids)
}

// ListTags returns every tag ordered by name.
func (s *Service) ListTags(ctx context.Context) ([]Tag, error) {
	if s.cache != nil {
		if list, ok := loadCached[Tag](ctx, s.cache, tagsCacheKey); ok {
			return list, nil
		}
	}
	list, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		storeCached(ctx, s.cache, tagsCacheKey, list)
	}
	return list, nil
}

// GetTag returns one tag or a NotFound error.
func (s *Service) GetTag(ctx context.Context, id int64) (*Tag, error) {
	return s.store.GetTag(ctx, id)
}

// CreateTag adds a tag. When no slug is given one is generated from the name
// ("Завтрак" -> "zavtrak").
func (s *Service) CreateTag(ctx context.Context, req CreateTagRequest) (*Tag, error) {
	tag := &Tag{
		Name:  strings.TrimSpace(req.Name),
		Color: strings.ToUpper(req.Color),
		Slug:  strings.TrimSpace(req.Slug),
	}
	if tag.Slug == "" {
		tag.Slug = slug.Make(tag.Name)
		if tag.Slug == "" {
			return nil, ErrEmptySlug
		}
	}
	if err := s.store.CreateTag(ctx, tag); err != nil {
		return nil, err
	}
	s.invalidate(ctx, tagsCacheKey)
	return tag, nil
}

// ExistingTagIDs reports which of ids exist. Used by recipe validation.
func (s *Service) ExistingTagIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	if len(ids) == 0 {
		return map[int64]bool{}, nil
	}
	return s.store.ExistingTagIDs(ctx, ids)
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if s.cache != nil {
		s.cache.Delete(ctx, keys...)
	}
}
