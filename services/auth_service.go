package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/padelhub/tournament-system/models"
	"github.com/padelhub/tournament-system/repositories"
)

const (
	tokenTTL          = 24 * time.Hour
	minPasswordLength = 8
)

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, string, error)
	RegisterAdmin(ctx context.Context, input RegisterAdminInput) (*models.User, string, error)
	Login(ctx context.Context, input LoginInput) (*models.User, string, error)
}

type RegisterInput struct {
	Email    string
	Password string
}

type RegisterAdminInput struct {
	Email    string
	Password string
	AdminKey string
}

type LoginInput struct {
	Email    string
	Password string
}

type authService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
	adminKey  string
}

func NewAuthService(userRepo repositories.UserRepository, jwtSecret, adminKey string) AuthService {
	return &authService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		adminKey:  adminKey,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, string, error) {
	return s.register(ctx, input.Email, input.Password, models.RoleUser)
}

// RegisterAdmin создаёт пользователя с ролью admin; требует секретный ключ,
// заданный в конфигурации. Пустой ключ в конфигурации запрещает операцию.
func (s *authService) RegisterAdmin(ctx context.Context, input RegisterAdminInput) (*models.User, string, error) {
	if s.adminKey == "" || input.AdminKey != s.adminKey {
		return nil, "", ErrInvalidAdminKey
	}
	return s.register(ctx, input.Email, input.Password, models.RoleAdmin)
}

func (s *authService) register(ctx context.Context, email, password string, role models.UserRole) (*models.User, string, error) {
	if len(password) < minPasswordLength {
		return nil, "", fmt.Errorf("%w: minimum %d characters", ErrPasswordTooShort, minPasswordLength)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Role:         role,
		PasswordHash: string(hashedPassword),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, "", ErrUserEmailConflict
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	user.PasswordHash = ""
	return user, token, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find user by email: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to compare password hash: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	user.PasswordHash = ""
	return user, token, nil
}

func (s *authService) issueToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    string(user.Role),
		"exp":     time.Now().Add(tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
