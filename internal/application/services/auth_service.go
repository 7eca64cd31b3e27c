package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/marketgate/backend/internal/domain/models"
	"github.com/marketgate/backend/internal/infrastructure/persistence"
	"github.com/marketgate/backend/pkg/auth"
	"github.com/marketgate/backend/pkg/constants"
	"github.com/marketgate/backend/pkg/errors"
	"github.com/marketgate/backend/pkg/utils"
)

// AuthService handles authentication, session management, and password
// operations. Tokens are JWTs backed by a session row; revoking the row
// kills the token before its expiry.
type AuthService struct {
	users    *persistence.UserRepository
	sessions *persistence.SessionRepository
}

// NewAuthService creates a new AuthService
func NewAuthService(users *persistence.UserRepository, sessions *persistence.SessionRepository) *AuthService {
	return &AuthService{users: users, sessions: sessions}
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	Token     string           `json:"token"`
	User      auth.UserSession `json:"user"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// Login authenticates a user and creates a session
func (s *AuthService) Login(ctx context.Context, email, password, ip, userAgent string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if user == nil {
		log.Printf("⚠️ Login failed for %s: user not found", email)
		return nil, errors.NewUnauthorizedError("Invalid email or password")
	}

	if !auth.VerifyPassword(password, user.Password) {
		log.Printf("⚠️ Login failed for %s: invalid password", email)
		return nil, errors.NewUnauthorizedError("Invalid email or password")
	}

	userSession := auth.UserSession{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}

	token, err := auth.GenerateToken(userSession)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	claims, err := auth.DecodeToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to decode issued token: %w", err)
	}
	expiresAt := claims.ExpiresAt.Time
	now := time.Now()

	session := &models.SystemSession{
		ID:           claims.RegisteredClaims.ID,
		UserID:       user.ID,
		Token:        token,
		ExpiresAt:    expiresAt,
		IPAddress:    ip,
		UserAgent:    userAgent,
		IsRevoked:    false,
		LastActivity: now,
	}
	if err := s.sessions.InsertSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	log.Printf("✅ User %s logged in (session %s)", email, session.ID)
	return &LoginResult{Token: token, User: userSession, ExpiresAt: expiresAt}, nil
}

// ValidateSession verifies a token's signature and checks the backing
// session row for revocation. Returns the claims on success.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := auth.ValidateToken(token)
	if err != nil {
		return nil, errors.NewUnauthorizedError("Invalid or expired token")
	}

	session, err := s.sessions.GetSession(ctx, claims.RegisteredClaims.ID)
	if err != nil {
		return nil, fmt.Errorf("session lookup failed: %w", err)
	}
	if session == nil {
		return nil, errors.NewUnauthorizedError("Session not found")
	}
	if session.IsRevoked {
		return nil, errors.NewUnauthorizedError("Session has been revoked")
	}
	if time.Now().After(session.ExpiresAt) {
		return nil, errors.NewUnauthorizedError("Session expired")
	}
	return claims, nil
}

// TouchSession bumps last_activity. Failures are logged, not returned;
// activity tracking must never block a request.
func (s *AuthService) TouchSession(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.sessions.UpdateLastActivity(ctx, sessionID); err != nil {
		log.Printf("⚠️ Failed to touch session %s: %v", sessionID, err)
	}
}

// Logout revokes the session behind a token. An already-invalid token is
// not an error; logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := auth.DecodeToken(token)
	if err != nil {
		return nil
	}
	return s.sessions.RevokeSession(ctx, claims.RegisteredClaims.ID)
}

// ChangePassword verifies the current password and stores a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if user == nil {
		return errors.NewNotFoundError("user", userID)
	}
	if !auth.VerifyPassword(currentPassword, user.Password) {
		return errors.NewUnauthorizedError("Current password is incorrect")
	}
	if err := auth.ValidatePasswordStrength(newPassword); err != nil {
		return errors.NewValidationError("password", err.Error())
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

// Register creates a new user account. Used by the admin console and by
// bootstrap seeding.
func (s *AuthService) Register(ctx context.Context, email, name, password, role string) (*models.User, error) {
	if !auth.IsValidEmail(email) {
		return nil, errors.NewValidationError("email", "invalid email address")
	}
	if !constants.IsValidRole(role) {
		return nil, errors.NewValidationError("role", fmt.Sprintf("role must be one of %s", strings.Join(constants.ValidRoles(), ", ")))
	}
	if err := auth.ValidatePasswordStrength(password); err != nil {
		return nil, errors.NewValidationError("password", err.Error())
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if existing != nil {
		return nil, errors.NewConflictError("user", "email", email)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:       utils.GenerateID(),
		Email:    email,
		Name:     name,
		Password: hash,
		Role:     role,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	log.Printf("✅ Created user %s (%s)", email, role)
	return user, nil
}
