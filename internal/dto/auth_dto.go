package dto

// ─── Auth ────────────────────────────────────────────────────────────────────

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	User         UserResponse `json:"user"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ─── Users ───────────────────────────────────────────────────────────────────

type CreateUserRequest struct {
	Username   string  `json:"username"    validate:"required,min=3,max=50"`
	Name       string  `json:"name"        validate:"required,min=2,max=100"`
	Email      *string `json:"email"       validate:"omitempty,email"`
	Password   string  `json:"password"    validate:"required,min=8"`
	Role       string  `json:"role"        validate:"required,oneof=staff manager admin"`
	VerticalID *string `json:"vertical_id" validate:"omitempty,uuid"`
}

type UpdateUserRequest struct {
	Name       *string `json:"name"        validate:"omitempty,min=2,max=100"`
	Email      *string `json:"email"       validate:"omitempty,email"`
	Password   *string `json:"password"    validate:"omitempty,min=8"`
	Role       *string `json:"role"        validate:"omitempty,oneof=staff manager admin"`
	VerticalID *string `json:"vertical_id" validate:"omitempty,uuid"`
}

type UserResponse struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	Name       string  `json:"name"`
	Email      *string `json:"email"`
	Role       string  `json:"role"`
	VerticalID *string `json:"vertical_id"`
	Active     bool    `json:"active"`
}
