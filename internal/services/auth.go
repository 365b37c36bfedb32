package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"pixshare-backend/internal/models"
	"pixshare-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtExpHours       = 24 * 7
	minPasswordLength = 6
)

// AuthService handles accounts and session tokens. Its ResolveIdentity
// method is the identity side of the authorization engine.
type AuthService struct {
	userRepo  *repository.UserRepository
	jwtSecret string
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo *repository.UserRepository, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
	}
}

// Register creates an account and returns it with a fresh session token
func (s *AuthService) Register(ctx context.Context, fullName, email, password string) (*models.User, string, error) {
	if len(password) < minPasswordLength {
		return nil, "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		FullName:     fullName,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies the password and returns the user with a session token
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, "", fmt.Errorf("invalid email or password")
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", fmt.Errorf("invalid email or password")
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// GenerateJWT generates a signed session token for a user
func (s *AuthService) GenerateJWT(userID models.UserID) (string, error) {
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(int64(userID), 10),
		"exp": time.Now().Add(jwtExpHours * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateJWT validates a session token and returns the user ID
func (s *AuthService) ValidateJWT(tokenString string) (models.UserID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return 0, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("invalid token claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, fmt.Errorf("subject not found in token")
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid subject in token")
	}
	return models.UserID(id), nil
}

// ResolveIdentity verifies raw session credentials for the authorization
// engine. Absent and invalid tokens both report ok=false; the distinction
// is never surfaced.
func (s *AuthService) ResolveIdentity(ctx context.Context, sessionToken string) (models.UserID, bool) {
	if sessionToken == "" {
		return 0, false
	}
	uid, err := s.ValidateJWT(sessionToken)
	if err != nil {
		return 0, false
	}
	return uid, true
}

// GetProfile retrieves a user's profile
func (s *AuthService) GetProfile(ctx context.Context, userID models.UserID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateProfile updates display name and email
func (s *AuthService) UpdateProfile(ctx context.Context, userID models.UserID, fullName, email string) (*models.User, error) {
	if err := s.userRepo.UpdateProfile(ctx, userID, fullName, email); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, userID)
}

// ChangePassword verifies the current password and stores a new hash
func (s *AuthService) ChangePassword(ctx context.Context, userID models.UserID, current, next string) error {
	if len(next) < minPasswordLength {
		return fmt.Errorf("new password must be at least %d characters", minPasswordLength)
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return fmt.Errorf("current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.userRepo.UpdatePassword(ctx, userID, string(hash))
}

// RegisterPushToken stores (or clears) the user's APNs device token
func (s *AuthService) RegisterPushToken(ctx context.Context, userID models.UserID, deviceToken *string) error {
	return s.userRepo.UpdatePushToken(ctx, userID, deviceToken)
}
