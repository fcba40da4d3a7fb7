package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"storyforge-server/internal/model"
	"storyforge-server/internal/storage"
)

// Допустимые символы в имени пользователя
var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// AuthService регистрирует пользователей и выдает токены доступа.
// Конвейер генерации историй от аутентификации не зависит.
type AuthService struct {
	store    storage.Storage
	secret   []byte
	tokenTTL time.Duration
}

// NewAuthService создает сервис аутентификации.
func NewAuthService(store storage.Storage, secret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		store:    store,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// Register создает нового пользователя с bcrypt-хешем пароля.
func (s *AuthService) Register(ctx context.Context, username, password string) (model.User, error) {
	if !usernameRegex.MatchString(username) {
		return model.User{}, fmt.Errorf("validation error: username may only contain letters, digits, '_' and '-'")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, model.InsertUser{
		Username: username,
		Password: string(hash),
	})
	if err != nil {
		return model.User{}, err
	}

	log.Info().Int("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return user, nil
}

// Login проверяет учетные данные и выдает подписанный access-токен.
func (s *AuthService) Login(ctx context.Context, username, password string) (model.TokenResponse, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		// Не раскрываем, что именно неверно: имя или пароль
		return model.TokenResponse{}, model.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return model.TokenResponse{}, model.ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return model.TokenResponse{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return model.TokenResponse{Token: token, User: user}, nil
}
