package auth

import (
	"huddle-backend/config"
	"huddle-backend/internal/meeting"
	"huddle-backend/internal/models"
	"huddle-backend/internal/validation"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/github"
	"github.com/markbates/goth/providers/google"
	"github.com/markbates/goth/providers/twitter"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const ProviderLocal = "local"

// UserStore is the user persistence the auth service needs. Lookups return
// (nil, nil) when the user does not exist.
type UserStore interface {
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	CreateUser(user *models.User) error
	CreateOrUpdateUser(user *models.User) error
	UpdateRefreshToken(userID, refreshToken string) error
	RevokeRefreshToken(userID, token string, expiresAt time.Time) error
	IsRefreshTokenRevoked(token string) bool
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=6,max=100"`
	Name     string `json:"name" validate:"min=2,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResponse is returned by register and login
type LoginResponse struct {
	User   *models.User `json:"user"`
	Tokens TokenPair    `json:"tokens"`
}

type AuthService struct {
	users    UserStore
	cfg      *config.AuthConfig
	validate *validator.Validate
}

func NewAuthService(users UserStore, cfg *config.AuthConfig) *AuthService {
	return &AuthService{
		users:    users,
		cfg:      cfg,
		validate: validation.New(),
	}
}

// Register creates a local account and signs it in
func (s *AuthService) Register(req RegisterRequest) (*LoginResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validate.Struct(req); err != nil {
		return nil, meeting.NewValidationError(validation.Message(err))
	}

	existingUser, err := s.users.GetUserByEmail(req.Email)
	if err != nil {
		return nil, meeting.NewInternalError("failed to look up user", err)
	}
	if existingUser != nil {
		return nil, meeting.NewConflictError("User already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, meeting.NewInternalError("failed to hash password", err)
	}

	user := &models.User{
		ID:        uuid.New().String(),
		Email:     req.Email,
		Password:  string(hashedPassword),
		Name:      req.Name,
		Provider:  ProviderLocal,
		Accesses:  models.StringArray{string(models.AccessUser)},
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.users.CreateUser(user); err != nil {
		return nil, meeting.NewInternalError("failed to create user", err)
	}

	log.Info().Str("user_id", user.ID).Msg("User registered")
	return s.signIn(user)
}

// Login checks a local account's password
func (s *AuthService) Login(req LoginRequest) (*LoginResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, meeting.NewValidationError(validation.Message(err))
	}

	user, err := s.users.GetUserByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, meeting.NewInternalError("failed to look up user", err)
	}
	if user == nil || user.Password == "" {
		return nil, meeting.NewUnauthorizedError("Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, meeting.NewUnauthorizedError("Invalid credentials")
	}

	if !user.IsActive {
		return nil, meeting.NewForbiddenError("Account is deactivated")
	}

	return s.signIn(user)
}

// SocialLogin upserts a user returned by an OAuth provider and issues its access token
func (s *AuthService) SocialLogin(gothUser goth.User) (*models.User, string, error) {
	user := &models.User{
		ID:        gothUser.UserID,
		Email:     strings.ToLower(gothUser.Email),
		Name:      gothUser.Name,
		Provider:  gothUser.Provider,
		AvatarURL: gothUser.AvatarURL,
		Accesses:  models.StringArray{string(models.AccessUser)},
		IsActive:  true,
	}
	if user.Name == "" {
		user.Name = gothUser.NickName
	}

	if err := s.users.CreateOrUpdateUser(user); err != nil {
		return nil, "", meeting.NewInternalError("Failed to process user data", err)
	}

	token, err := GenerateToken(user.ID, user.Email, user.Provider, user.Accesses, s.cfg)
	if err != nil {
		return nil, "", meeting.NewInternalError("Failed to generate authentication token", err)
	}

	return user, token, nil
}

// Refresh exchanges a refresh token for a new pair. The old refresh token is revoked.
func (s *AuthService) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := s.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, meeting.NewUnauthorizedError("Invalid or expired refresh token", err)
	}

	user, err := s.users.GetUserByID(claims.UserID)
	if err != nil {
		return nil, meeting.NewInternalError("failed to look up user", err)
	}
	if user == nil || !user.IsActive {
		return nil, meeting.NewUnauthorizedError("Invalid or expired refresh token")
	}

	if err := s.users.RevokeRefreshToken(claims.UserID, refreshToken, claims.ExpiresAt.Time); err != nil {
		return nil, meeting.NewInternalError("failed to revoke refresh token", err)
	}

	return s.issue(user)
}

// ValidateRefreshToken rejects revoked, expired and non-refresh tokens
func (s *AuthService) ValidateRefreshToken(refreshToken string) (*Claims, error) {
	if s.users.IsRefreshTokenRevoked(refreshToken) {
		return nil, meeting.NewUnauthorizedError("refresh token has been revoked")
	}

	return ValidateToken(refreshToken, TokenTypeRefresh, s.cfg)
}

// Logout revokes a refresh token belonging to userID
func (s *AuthService) Logout(userID, refreshToken string) error {
	claims, err := ValidateToken(refreshToken, TokenTypeRefresh, s.cfg)
	if err != nil || claims.UserID != userID {
		return meeting.NewValidationError("Invalid refresh token")
	}

	if err := s.users.RevokeRefreshToken(userID, refreshToken, claims.ExpiresAt.Time); err != nil {
		return meeting.NewInternalError("Failed to logout", err)
	}
	return nil
}

func (s *AuthService) GetUserByID(userID string) (*models.User, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, meeting.NewInternalError("Failed to get user", err)
	}
	if user == nil {
		return nil, meeting.NewNotFoundError("User not found")
	}
	return user, nil
}

func (s *AuthService) signIn(user *models.User) (*LoginResponse, error) {
	tokens, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{User: user, Tokens: *tokens}, nil
}

func (s *AuthService) issue(user *models.User) (*TokenPair, error) {
	accessToken, refreshToken, err := GenerateTokenPair(user.ID, user.Email, user.Provider, user.Accesses, s.cfg)
	if err != nil {
		return nil, meeting.NewInternalError("Failed to generate tokens", err)
	}

	if err := s.users.UpdateRefreshToken(user.ID, refreshToken); err != nil {
		return nil, meeting.NewInternalError("Failed to save refresh token", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Init registers the OAuth providers that have credentials configured
func Init(cfg *config.Config) {
	providers := []goth.Provider{}

	if cfg.Auth.Google.ClientID != "" && cfg.Auth.Google.ClientSecret != "" {
		log.Debug().Str("redirect_url", cfg.Auth.Google.RedirectURL).Msg("Initializing Google provider")

		provider := google.New(
			cfg.Auth.Google.ClientID,
			cfg.Auth.Google.ClientSecret,
			cfg.Auth.Google.RedirectURL,
			"email",
			"profile",
			"openid",
		)
		provider.SetHostedDomain("")
		providers = append(providers, provider)
	}

	if cfg.Auth.Github.ClientID != "" && cfg.Auth.Github.ClientSecret != "" {
		log.Debug().Str("redirect_url", cfg.Auth.Github.RedirectURL).Msg("Initializing GitHub provider")
		providers = append(providers, github.New(
			cfg.Auth.Github.ClientID,
			cfg.Auth.Github.ClientSecret,
			cfg.Auth.Github.RedirectURL,
			"user:email",
		))
	}

	if cfg.Auth.Twitter.ClientID != "" && cfg.Auth.Twitter.ClientSecret != "" {
		log.Debug().Str("redirect_url", cfg.Auth.Twitter.RedirectURL).Msg("Initializing Twitter provider")
		providers = append(providers, twitter.New(
			cfg.Auth.Twitter.ClientID,
			cfg.Auth.Twitter.ClientSecret,
			cfg.Auth.Twitter.RedirectURL,
		))
	}

	log.Debug().Int("provider_count", len(providers)).Msg("Using providers")
	goth.UseProviders(providers...)
}
