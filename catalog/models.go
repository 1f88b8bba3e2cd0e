// Package catalog owns the reference data recipes are built from: ingredients with their
// measurement units and the tags recipes are filed under. Everyone can read the catalog,
// only staff can extend it.
package catalog

// Ingredient is a reference ingredient. The pair (name, measurement_unit) is unique, so
// "sugar, g" and "sugar, tbsp" are different ingredients.
type Ingredient struct {
	ID              int64  `json:"id" example:"1"`
	Name            string `json:"name" example:"Капуста"`
	MeasurementUnit string `json:"measurement_unit" example:"кг"`
}

// Tag labels recipes (breakfast, lunch, ...). Name, color and slug are each unique.
type Tag struct {
	ID    int64  `json:"id" example:"1"`
	Name  string `json:"name" example:"Завтрак"`
	Color string `json:"color" example:"#E26C2D"`
	Slug  string `json:"slug" example:"breakfast"`
}

// CreateIngredientRequest is the body of POST /api/ingredients.
type CreateIngredientRequest struct {
	Name            string `json:"name" validate:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" validate:"required,max=200"`
}

// CreateTagRequest is the body of POST /api/tags. Slug is derived from Name when omitted.
type CreateTagRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Color string `json:"color" validate:"required,tagcolor"`
	Slug  string `json:"slug" validate:"omitempty,max=200,slug"`
}
