package service

import (
	"context"
	"time"

	"stocktrack/internal/apierror"
	"stocktrack/internal/config"
	"stocktrack/internal/dto"
	"stocktrack/internal/middleware"
	"stocktrack/internal/model"
	"stocktrack/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, req dto.RefreshRequest) (*dto.LoginResponse, error)

	CreateUser(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error)
	GetUser(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error)
	ListUsers(ctx context.Context, includeInactive bool) ([]dto.UserResponse, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req dto.UpdateUserRequest) (*dto.UserResponse, error)
	DeactivateUser(ctx context.Context, id uuid.UUID) error
	ReactivateUser(ctx context.Context, id uuid.UUID) error
}

type authService struct {
	users repository.UserRepository
	cfg   *config.Config
}

func NewAuthService(users repository.UserRepository, cfg *config.Config) AuthService {
	return &authService{users: users, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, apierror.Unauthorized("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apierror.Unauthorized("invalid credentials")
	}
	return s.issueTokens(user)
}

func (s *authService) Refresh(ctx context.Context, req dto.RefreshRequest) (*dto.LoginResponse, error) {
	claims := &middleware.JWTClaims{}
	token, err := jwt.ParseWithClaims(req.RefreshToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apierror.Unauthorized("unexpected signing method")
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid || claims.TokenType != "refresh" {
		return nil, apierror.Unauthorized("invalid refresh token")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, apierror.Unauthorized("invalid refresh token")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil || !user.Active {
		return nil, apierror.Unauthorized("user no longer active")
	}
	return s.issueTokens(user)
}

func (s *authService) issueTokens(user *model.User) (*dto.LoginResponse, error) {
	accessExp := time.Duration(s.cfg.JWTExpirationHours) * time.Hour
	refreshExp := time.Duration(s.cfg.JWTRefreshHours) * time.Hour

	access, err := s.signToken(user, "access", accessExp)
	if err != nil {
		return nil, err
	}
	refresh, err := s.signToken(user, "refresh", refreshExp)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(accessExp.Seconds()),
		User:         userToResponse(user),
	}, nil
}

func (s *authService) signToken(user *model.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := middleware.JWTClaims{
		UserID:     user.ID.String(),
		Username:   user.Username,
		Role:       user.Role,
		VerticalID: uuidPtrString(user.VerticalID),
		TokenType:  tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   user.ID.String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// ── Users ────────────────────────────────────────────────────────────────────

func (s *authService) CreateUser(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     req.Username,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		VerticalID:   parseUUIDPtr(req.VerticalID),
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apierror.Conflict("username already taken")
	}

	resp := userToResponse(user)
	return &resp, nil
}

func (s *authService) GetUser(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("user", id.String())
	}
	resp := userToResponse(user)
	return &resp, nil
}

func (s *authService) ListUsers(ctx context.Context, includeInactive bool) ([]dto.UserResponse, error) {
	users, err := s.users.List(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, userToResponse(&users[i]))
	}
	return out, nil
}

func (s *authService) UpdateUser(ctx context.Context, id uuid.UUID, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("user", id.String())
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = req.Email
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.VerticalID != nil {
		user.VerticalID = parseUUIDPtr(req.VerticalID)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	resp := userToResponse(user)
	return &resp, nil
}

func (s *authService) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	return s.users.Deactivate(ctx, id)
}

func (s *authService) ReactivateUser(ctx context.Context, id uuid.UUID) error {
	return s.users.Reactivate(ctx, id)
}

func userToResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:         u.ID.String(),
		Username:   u.Username,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		VerticalID: uuidPtrString(u.VerticalID),
		Active:     u.Active,
	}
}
