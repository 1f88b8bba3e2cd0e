package auth

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email,max=254" example:"vpupkin@yandex.ru"`
	Username  string `json:"username" validate:"required,max=150,notme" example:"vasya.pupkin"`
	FirstName string `json:"first_name" validate:"required,max=150" example:"Вася"`
	LastName  string `json:"last_name" validate:"required,max=150" example:"Пупкин"`
	Password  string `json:"password" validate:"required,min=8,max=128" example:"Qwerty123"`
}

// LoginRequest is the body of POST /api/auth/login. Email is the login identifier.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"vpupkin@yandex.ru"`
	Password string `json:"password" validate:"required" example:"Qwerty123"`
}

// TokenResponse carries a freshly issued token pair.
type TokenResponse struct {
	AccessToken  string `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken string `json:"refresh_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	TokenType    string `json:"token_type" example:"Bearer"`
	ExpiresIn    int64  `json:"expires_in" example:"86400"` // Access token lifetime in seconds.
}

// RefreshTokenRequest is the body of POST /api/auth/refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// SetPasswordRequest is the body of POST /api/users/set_password.
type SetPasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// RegisterResponse mirrors the created account without any secret material.
type RegisterResponse struct {
	Email     string `json:"email"`
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
