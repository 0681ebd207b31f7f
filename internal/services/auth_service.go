package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fotoatelier/backend/internal/config"
	"github.com/fotoatelier/backend/internal/models"
	"github.com/fotoatelier/backend/pkg/crypto"
	jwtpkg "github.com/fotoatelier/backend/pkg/jwt"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type AuthService struct {
	db    *gorm.DB
	redis *redis.Client
	cfg   *config.Config
}

func NewAuthService(db *gorm.DB, redis *redis.Client, cfg *config.Config) *AuthService {
	return &AuthService{
		db:    db,
		redis: redis,
		cfg:   cfg,
	}
}

// Login authenticates a photographer and returns tokens
func (s *AuthService) Login(username, password string) (string, string, *models.User, error) {
	var user models.User

	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", nil, errors.New("invalid credentials")
		}
		return "", "", nil, err
	}

	if !user.IsActive {
		return "", "", nil, errors.New("account is deactivated")
	}

	if !crypto.CheckPassword(password, user.Password) {
		return "", "", nil, errors.New("invalid credentials")
	}

	accessToken, err := jwtpkg.GenerateToken(user.ID.String(), jwtpkg.AccessToken, s.cfg.JWTSecret, s.cfg.JWTAccessTokenDuration)
	if err != nil {
		return "", "", nil, err
	}

	refreshToken, err := jwtpkg.GenerateToken(user.ID.String(), jwtpkg.RefreshToken, s.cfg.JWTSecret, s.cfg.JWTRefreshTokenDuration)
	if err != nil {
		return "", "", nil, err
	}

	refreshTokenModel := &models.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshTokenDuration),
	}
	if err := s.db.Create(refreshTokenModel).Error; err != nil {
		return "", "", nil, err
	}

	return accessToken, refreshToken, &user, nil
}

// RefreshToken generates a new access token from a refresh token
func (s *AuthService) RefreshToken(refreshToken string) (string, error) {
	claims, err := jwtpkg.ValidateToken(refreshToken, s.cfg.JWTSecret)
	if err != nil {
		return "", errors.New("invalid refresh token")
	}

	if claims.TokenType != jwtpkg.RefreshToken {
		return "", errors.New("invalid token type")
	}

	var tokenModel models.RefreshToken
	if err := s.db.Where("token = ?", refreshToken).First(&tokenModel).Error; err != nil {
		return "", errors.New("refresh token not found")
	}

	if time.Now().After(tokenModel.ExpiresAt) {
		return "", errors.New("refresh token expired")
	}

	return jwtpkg.GenerateToken(claims.UserID, jwtpkg.AccessToken, s.cfg.JWTSecret, s.cfg.JWTAccessTokenDuration)
}

// Logout invalidates all of the user's refresh tokens
func (s *AuthService) Logout(userID uuid.UUID) error {
	return s.db.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error
}

// ValidateAccessToken validates an access token and returns its claims
func (s *AuthService) ValidateAccessToken(token string) (*jwtpkg.Claims, error) {
	claims, err := jwtpkg.ValidateToken(token, s.cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	if claims.TokenType != jwtpkg.AccessToken {
		return nil, errors.New("invalid token type")
	}

	// If redis is down we allow the request to proceed
	ctx := context.Background()
	blacklistKey := fmt.Sprintf("blacklist:token:%s", token)
	exists, err := s.redis.Exists(ctx, blacklistKey).Result()
	if err != nil {
		log.Printf("WARN: Could not connect to Redis to check token blacklist: %v", err)
	} else if exists > 0 {
		return nil, errors.New("token is blacklisted")
	}

	return claims, nil
}

// CreateAnonymousIdentity issues a signed gallery token for a fresh anonymous
// visitor identity. Recipients never register; this is the whole handshake.
func (s *AuthService) CreateAnonymousIdentity() (string, string, error) {
	anonymousUID := uuid.New().String()
	tok, err := jwtpkg.GenerateToken(anonymousUID, jwtpkg.GalleryToken, s.cfg.JWTSecret, s.cfg.JWTGalleryTokenDuration)
	if err != nil {
		return "", "", err
	}
	return anonymousUID, tok, nil
}

// ValidateGalleryToken validates a gallery visitor token and returns the
// anonymous uid it carries
func (s *AuthService) ValidateGalleryToken(token string) (string, error) {
	claims, err := jwtpkg.ValidateToken(token, s.cfg.JWTSecret)
	if err != nil {
		return "", err
	}
	if claims.TokenType != jwtpkg.GalleryToken {
		return "", errors.New("invalid token type")
	}
	return claims.UserID, nil
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CleanupExpiredTokens removes expired refresh tokens
func (s *AuthService) CleanupExpiredTokens() error {
	return s.db.Where("expires_at < ?", time.Now()).Delete(&models.RefreshToken{}).Error
}

// CreateDefaultAdmin ensures the configured photographer admin account exists
func (s *AuthService) CreateDefaultAdmin() error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", s.cfg.AdminUsername).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := crypto.HashPassword(s.cfg.AdminPassword, s.cfg.BcryptCost)
	if err != nil {
		return err
	}

	admin := &models.User{
		Username: s.cfg.AdminUsername,
		Email:    s.cfg.AdminEmail,
		Password: hashed,
		Name:     "Studio Admin",
		IsAdmin:  true,
		IsActive: true,
	}
	if err := s.db.Create(admin).Error; err != nil {
		return err
	}
	log.Printf("Created default admin user %s", s.cfg.AdminUsername)
	return nil
}
