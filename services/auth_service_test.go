package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padelhub/tournament-system/models"
	"github.com/padelhub/tournament-system/repositories"
)

type stubUserRepo struct {
	nextID int
	users  map[string]*models.User // по email
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*models.User)}
}

func (r *stubUserRepo) Create(_ context.Context, user *models.User) error {
	if _, ok := r.users[user.Email]; ok {
		return repositories.ErrUserEmailConflict
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	stored := *user
	r.users[user.Email] = &stored
	return nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

const testJWTSecret = "test-secret"

func TestRegisterAndLogin(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAuthService(repo, testJWTSecret, "")

	user, token, err := svc.Register(context.Background(), RegisterInput{
		Email: "player@example.com", Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Empty(t, user.PasswordHash)
	assert.NotEmpty(t, token)

	loggedIn, token, err := svc.Login(context.Background(), LoginInput{
		Email: "player@example.com", Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	// Токен подписан HS256 и несёт user_id, role и срок жизни.
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, float64(user.ID), claims["user_id"])
	assert.Equal(t, string(models.RoleUser), claims["role"])
	assert.NotNil(t, claims["exp"])
}

func TestRegisterShortPassword(t *testing.T) {
	svc := NewAuthService(newStubUserRepo(), testJWTSecret, "")

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Email: "player@example.com", Password: "short",
	})
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewAuthService(newStubUserRepo(), testJWTSecret, "")

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Email: "player@example.com", Password: "correct-horse",
	})
	require.NoError(t, err)

	_, _, err = svc.Register(context.Background(), RegisterInput{
		Email: "player@example.com", Password: "battery-staple",
	})
	assert.ErrorIs(t, err, ErrUserEmailConflict)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := NewAuthService(newStubUserRepo(), testJWTSecret, "")

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Email: "player@example.com", Password: "correct-horse",
	})
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), LoginInput{
		Email: "player@example.com", Password: "wrong-horse!",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(newStubUserRepo(), testJWTSecret, "")

	_, _, err := svc.Login(context.Background(), LoginInput{
		Email: "nobody@example.com", Password: "whatever-pw",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterAdmin(t *testing.T) {
	svc := NewAuthService(newStubUserRepo(), testJWTSecret, "super-secret")

	user, _, err := svc.RegisterAdmin(context.Background(), RegisterAdminInput{
		Email: "admin@example.com", Password: "correct-horse", AdminKey: "super-secret",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)

	_, _, err = svc.RegisterAdmin(context.Background(), RegisterAdminInput{
		Email: "mallory@example.com", Password: "correct-horse", AdminKey: "guess",
	})
	assert.ErrorIs(t, err, ErrInvalidAdminKey)
}

func TestRegisterAdminDisabledWithoutKey(t *testing.T) {
	// Пустой ключ в конфигурации полностью запрещает регистрацию админов.
	svc := NewAuthService(newStubUserRepo(), testJWTSecret, "")

	_, _, err := svc.RegisterAdmin(context.Background(), RegisterAdminInput{
		Email: "admin@example.com", Password: "correct-horse", AdminKey: "",
	})
	assert.ErrorIs(t, err, ErrInvalidAdminKey)
}
