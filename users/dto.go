package users

// Profile is the public view of a user. IsSubscribed tells whether the requesting user
// follows this one; it is always false for anonymous requests.
type Profile struct {
	Email        string `json:"email" example:"vpupkin@yandex.ru"`
	ID           int64  `json:"id" example:"1"`
	Username     string `json:"username" example:"vasya.pupkin"`
	FirstName    string `json:"first_name" example:"Вася"`
	LastName     string `json:"last_name" example:"Пупкин"`
	IsSubscribed bool   `json:"is_subscribed" example:"false"`
}

// RecipePreview is the short recipe card shown inside a subscription.
type RecipePreview struct {
	ID          int64  `json:"id" example:"0"`
	Name        string `json:"name" example:"string"`
	Image       string `json:"image" example:"http://foodgram.example.org/media/recipes/images/image.jpeg"`
	CookingTime int    `json:"cooking_time" example:"1"`
}

// Subscription is a followed author together with their recipe count and newest recipes.
type Subscription struct {
	Profile
	RecipesCount int64           `json:"recipes_count" example:"0"`
	Recipes      []RecipePreview `json:"recipes"`
}
