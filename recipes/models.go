// Package recipes is the heart of foodgram: recipes with their ingredient amounts and tags,
// the per-user favorite and shopping cart lists, and the shopping list built from the cart.
package recipes

import (
	"time"

	"github.com/user/foodgram-go/catalog"
	"github.com/user/foodgram-go/users"
)

// Recipe is a row of the recipes table. AuthorID is nil once the author's account is gone.
type Recipe struct {
	ID          int64
	AuthorID    *int64
	Name        string
	Text        string
	Image       string
	CookingTime int
	CreatedAt   time.Time
}

// IngredientAmount is one {id, amount} entry of a write payload.
type IngredientAmount struct {
	ID     int64 `json:"id" example:"1123"`
	Amount int   `json:"amount" example:"10"`
}

// RecipeIngredient is an ingredient as it appears in a recipe: the catalog entry joined
// with the amount recorded for this recipe.
type RecipeIngredient struct {
	ID              int64  `json:"id" example:"1123"`
	Name            string `json:"name" example:"Картофель отварной"`
	MeasurementUnit string `json:"measurement_unit" example:"г"`
	Amount          int    `json:"amount" example:"1"`
}

// RecipeWriteRequest is the body of POST /api/recipes and PATCH /api/recipes/{id}.
// Ingredients and Tags always carry the complete new sets; Image is a base64 string or
// data URI and may be omitted on update to keep the current picture.
type RecipeWriteRequest struct {
	Ingredients []IngredientAmount `json:"ingredients"`
	Tags        []int64            `json:"tags" example:"1,2"`
	Image       string             `json:"image" example:"data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABAgMAAABieywaAAAACVBMVEUAAAD///9fX1/S0ecCAAAACXBIWXMAAA7EAAAOxAGVKw4bAAAACklEQVQImWNoAAAAggCByxOyYQAAAABJRU5ErkJggg=="`
	Name        string             `json:"name" validate:"required,max=200" example:"Нечто съедобное (это не точно)"`
	Text        string             `json:"text" validate:"required" example:"Приготовить как нибудь"`
	CookingTime int                `json:"cooking_time" example:"1"`
}

// RecipeResponse is the read shape of a recipe as seen by one viewer.
type RecipeResponse struct {
	ID               int64              `json:"id" example:"0"`
	Tags             []catalog.Tag      `json:"tags"`
	Author           *users.Profile     `json:"author"`
	Ingredients      []RecipeIngredient `json:"ingredients"`
	IsFavorited      bool               `json:"is_favorited" example:"true"`
	IsInShoppingCart bool               `json:"is_in_shopping_cart" example:"true"`
	Name             string             `json:"name" example:"string"`
	Image            string             `json:"image" example:"http://foodgram.example.org/media/recipes/images/image.jpeg"`
	Text             string             `json:"text" example:"string"`
	CookingTime      int                `json:"cooking_time" example:"1"`
}

// RecipeShort is the compact recipe card returned by the favorite and cart endpoints.
type RecipeShort struct {
	ID          int64  `json:"id" example:"0"`
	Name        string `json:"name" example:"string"`
	Image       string `json:"image" example:"http://foodgram.example.org/media/recipes/images/image.jpeg"`
	CookingTime int    `json:"cooking_time" example:"1"`
}

// ListFilter narrows GET /api/recipes. TagSlugs match any of the given tags.
// Favorited and InShoppingCart only apply when ViewerID is set.
type ListFilter struct {
	ViewerID       *int64
	AuthorID       *int64
	TagSlugs       []string
	Favorited      bool
	InShoppingCart bool
	Limit          int
	Offset         int
}

// CartLine is one ingredient line of a shopping list. The store returns one line per
// recipe ingredient; AggregateShoppingList merges them by (Name, MeasurementUnit).
type CartLine struct {
	Name            string
	MeasurementUnit string
	Amount          int64
}

// Edge names one of the two per-user recipe lists.
type Edge string

const (
	Favorites    Edge = "favorites"
	ShoppingCart Edge = "shopping_cart"
)

func (r *Recipe) short() RecipeShort {
	return RecipeShort{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}
