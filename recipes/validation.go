package recipes

import (
	"context"

	"github.com/user/foodgram-go/apperror"
	"github.com/user/foodgram-go/validation"
)

const (
	// MinAmount and MinCookingTime are the smallest accepted values.
	MinAmount      = 1
	MinCookingTime = 1
	// maxSmallInt is the upper bound of the SMALLINT columns amount and cooking_time.
	maxSmallInt = 32767
)

var (
	ErrEmptyIngredients = apperror.Coded(apperror.ValidationError, "empty_ingredients", "ingredients",
		"a recipe needs at least one ingredient")
	// ErrIngredientNotFound is a lookup failure and maps to 404 even though it is raised
	// while validating the payload.
	ErrIngredientNotFound = apperror.Coded(apperror.NotFoundError, "ingredient_not_found", "ingredients",
		"ingredient not found")
	ErrDuplicateIngredient = apperror.Coded(apperror.ValidationError, "duplicate_ingredient", "ingredients",
		"ingredients must not repeat")
	ErrAmountTooSmall = apperror.Coded(apperror.ValidationError, "amount_too_small", "amount",
		"ingredient amount must be at least 1")
	ErrAmountTooLarge = apperror.Coded(apperror.ValidationError, "amount_too_large", "amount",
		"ingredient amount must not exceed 32767")
	ErrEmptyTags = apperror.Coded(apperror.ValidationError, "empty_tags", "tags",
		"a recipe needs at least one tag")
	ErrDuplicateTag = apperror.Coded(apperror.ValidationError, "duplicate_tag", "tags",
		"tags must be unique")
	ErrTagNotFound = apperror.Coded(apperror.ValidationError, "tag_not_found", "tags",
		"invalid tag id: object does not exist")
	ErrCookingTimeTooSmall = apperror.Coded(apperror.ValidationError, "cooking_time_too_small", "cooking_time",
		"cooking time must be at least one minute")
	ErrCookingTimeTooLarge = apperror.Coded(apperror.ValidationError, "cooking_time_too_large", "cooking_time",
		"cooking time must not exceed 32767 minutes")
	ErrImageRequired = apperror.Coded(apperror.ValidationError, "image_required", "image",
		"this field is required")
)

// CatalogLookup answers existence questions about catalog ids. *catalog.Service
// implements it.
type CatalogLookup interface {
	ExistingIngredientIDs(ctx context.Context, ids []int64) (map[int64]bool, error)
	ExistingTagIDs(ctx context.Context, ids []int64) (map[int64]bool, error)
}

// writeValidator checks a RecipeWriteRequest in two phases. Field rules (struct tags plus
// the create-only image requirement) are all reported together; if they pass, the object
// rules run in a fixed order and the first violation is returned.
type writeValidator struct {
	fields  *validation.Validator
	catalog CatalogLookup
}

func (v *writeValidator) validate(ctx context.Context, req *RecipeWriteRequest, creating bool) error {
	if err := v.validateFields(req, creating); err != nil {
		return err
	}
	if err := v.validateIngredients(ctx, req.Ingredients); err != nil {
		return err
	}
	if err := v.validateTags(ctx, req.Tags); err != nil {
		return err
	}
	return validateCookingTime(req.CookingTime)
}

func (v *writeValidator) validateFields(req *RecipeWriteRequest, creating bool) error {
	err := v.fields.Validate(req)
	if !creating || req.Image != "" {
		return err
	}
	if err == nil {
		return ErrImageRequired
	}
	appErr, ok := apperror.FromError(err)
	if !ok || appErr.Fields == nil {
		return err
	}
	return appErr.WithField("image", ErrImageRequired.Message)
}

// validateIngredients walks the entries in payload order so the reported error is the
// one for the first offending entry.
func (v *writeValidator) validateIngredients(ctx context.Context, items []IngredientAmount) error {
	if len(items) == 0 {
		return ErrEmptyIngredients
	}

	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	existing, err := v.catalog.ExistingIngredientIDs(ctx, ids)
	if err != nil {
		return err
	}

	seen := make(map[int64]struct{}, len(items))
	for _, it := range items {
		if !existing[it.ID] {
			return ErrIngredientNotFound
		}
		if _, dup := seen[it.ID]; dup {
			return ErrDuplicateIngredient
		}
		if it.Amount < MinAmount {
			return ErrAmountTooSmall
		}
		if it.Amount > maxSmallInt {
			return ErrAmountTooLarge
		}
		seen[it.ID] = struct{}{}
	}
	return nil
}

func (v *writeValidator) validateTags(ctx context.Context, tags []int64) error {
	if len(tags) == 0 {
		return ErrEmptyTags
	}
	seen := make(map[int64]struct{}, len(tags))
	for _, id := range tags {
		if _, dup := seen[id]; dup {
			return ErrDuplicateTag
		}
		seen[id] = struct{}{}
	}

	existing, err := v.catalog.ExistingTagIDs(ctx, tags)
	if err != nil {
		return err
	}
	for _, id := range tags {
		if !existing[id] {
			return ErrTagNotFound
		}
	}
	return nil
}

func validateCookingTime(minutes int) error {
	if minutes < MinCookingTime {
		return ErrCookingTimeTooSmall
	}
	if minutes > maxSmallInt {
		return ErrCookingTimeTooLarge
	}
	return nil
}
