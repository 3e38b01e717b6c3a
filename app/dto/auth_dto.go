package dto

// RegisterRequest represents the request payload for account registration
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255" example:"seller@example.com"`
	Password string `json:"password" validate:"required,min=8,max=100" example:"SecurePass123!"`
	Name     string `json:"name" validate:"required,min=2,max=255" example:"John Doe"`
	Role     string `json:"role" validate:"required,oneof=BUYER SELLER" example:"SELLER"`
}

// LoginRequest represents the request payload for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255" example:"seller@example.com"`
	Password string `json:"password" validate:"required,min=8,max=100" example:"SecurePass123!"`
}

// RefreshTokenRequest exchanges a refresh token for a new token pair
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// LogoutRequest optionally carries the refresh token to revoke alongside the access token
type LogoutRequest struct {
	AccessToken  string `json:"-"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// AuthResponse is returned by register, login and refresh
type AuthResponse struct {
	AccessToken  string     `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken string     `json:"refresh_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	TokenType    string     `json:"token_type" example:"Bearer"`
	ExpiresIn    int        `json:"expires_in" example:"86400"`
	Account      AccountDTO `json:"account"`
}
