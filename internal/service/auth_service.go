package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-roster-api/internal/models"
	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context) ([]models.UserCredential, bool, error)
	SaveAll(ctx context.Context, users []models.UserCredential) error
}

type sessionRepository interface {
	Get(ctx context.Context, userID string) (*models.Session, error)
	Set(ctx context.Context, session models.Session) error
	Clear(ctx context.Context, userID string) error
}

type loginRecorder interface {
	RecordLogin(success bool)
}

// AdminAccount is the credential seeded into an empty registry.
type AdminAccount struct {
	ID       string
	Email    string
	Password string
	Name     string
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
	Admin             AdminAccount
	BcryptCost        int
}

// AuthService checks credentials and issues sessions.
type AuthService struct {
	users     userRepository
	sessions  sessionRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	metrics   loginRecorder
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users userRepository, sessions sessionRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	if config.Admin.ID == "" {
		config.Admin.ID = "admin-1"
	}
	return &AuthService{
		users:     users,
		sessions:  sessions,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetMetrics attaches a login counter.
func (s *AuthService) SetMetrics(m loginRecorder) {
	s.metrics = m
}

// SeedAdmin creates the registry with the admin credential when absent.
func (s *AuthService) SeedAdmin(ctx context.Context) error {
	users, found, err := s.users.List(ctx)
	if err != nil {
		return err
	}
	if found {
		return nil
	}
	hash, err := s.hash(s.config.Admin.Password)
	if err != nil {
		return err
	}
	users = append(users, models.UserCredential{
		ID:           s.config.Admin.ID,
		Role:         models.RoleAdmin,
		Email:        s.config.Admin.Email,
		PasswordHash: hash,
		Name:         s.config.Admin.Name,
	})
	if err := s.users.SaveAll(ctx, users); err != nil {
		return err
	}
	s.logger.Info("seeded admin credential", zap.String("email", s.config.Admin.Email))
	return nil
}

// Login authenticates a user. Failures write nothing.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	users, _, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	var match *models.UserCredential
	for i := range users {
		if users[i].Email != req.Email {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(users[i].PasswordHash), []byte(req.Password)) == nil {
			match = &users[i]
			break
		}
	}
	if match == nil {
		s.recordLogin(false)
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid credentials")
	}

	session := models.Session{
		UserID:   match.ID,
		Role:     match.Role,
		Email:    match.Email,
		Name:     match.Name,
		IssuedAt: s.now(),
	}
	token, err := s.generateAccessToken(session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	if err := s.sessions.Set(ctx, session); err != nil {
		return nil, err
	}

	s.recordLogin(true)
	s.logger.Info("user logged in", zap.String("user_id", session.UserID), zap.String("role", string(session.Role)))
	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		Session:     session,
	}, nil
}

// RestoreSession returns the caller's cached session with a fresh access
// token. It fails once the caller logged out or its credential was revoked.
func (s *AuthService) RestoreSession(ctx context.Context, userID string) (*models.LoginResponse, error) {
	session, err := s.sessions.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "no active session")
		}
		return nil, err
	}
	users, _, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if !hasCredential(users, session.UserID) {
		if err := s.sessions.Clear(ctx, session.UserID); err != nil {
			s.logger.Warn("failed to drop stale session", zap.String("user_id", session.UserID), zap.Error(err))
		}
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "no active session")
	}
	token, err := s.generateAccessToken(*session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		Session:     *session,
	}, nil
}

// Logout clears the caller's cached session; other users stay logged in.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.sessions.Clear(ctx, userID)
}

// CreateStudentCredential registers the login for a new record. The initial
// password is the email local part followed by the id padded to 3 digits.
func (s *AuthService) CreateStudentCredential(ctx context.Context, record models.StudentRecord) error {
	email := record.Value(models.KeyEmail)
	if email == "" {
		return appErrors.Validation("student email is required for a login", map[string]string{models.KeyEmail: "required"})
	}
	users, _, err := s.users.List(ctx)
	if err != nil {
		return err
	}
	hash, err := s.hash(StudentInitialPassword(email, record.ID))
	if err != nil {
		return err
	}
	users = append(users, models.UserCredential{
		ID:           models.StudentCredentialID(record.ID),
		Role:         models.RoleStudent,
		Email:        email,
		PasswordHash: hash,
		Name:         record.Value(models.KeyName),
	})
	return s.users.SaveAll(ctx, users)
}

// RevokeStudentCredential removes the login issued for a record.
func (s *AuthService) RevokeStudentCredential(ctx context.Context, recordID int64) error {
	users, _, err := s.users.List(ctx)
	if err != nil {
		return err
	}
	id := models.StudentCredentialID(recordID)
	kept := make([]models.UserCredential, 0, len(users))
	for _, u := range users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	if len(kept) == len(users) {
		return nil
	}
	return s.users.SaveAll(ctx, kept)
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

// StudentInitialPassword derives the first password of a student login.
func StudentInitialPassword(email string, id int64) string {
	local := email
	if at := strings.Index(email, "@"); at >= 0 {
		local = email[:at]
	}
	return fmt.Sprintf("%s%03d", local, id)
}

func hasCredential(users []models.UserCredential, userID string) bool {
	for _, u := range users {
		if u.ID == userID {
			return true
		}
	}
	return false
}

func (s *AuthService) recordLogin(success bool) {
	if s.metrics != nil {
		s.metrics.RecordLogin(success)
	}
}

func (s *AuthService) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	return string(hash), nil
}

func (s *AuthService) generateAccessToken(session models.Session) (string, error) {
	issuedAt := session.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = s.now()
	}
	now := s.now()
	claims := &models.JWTClaims{
		UserID: session.UserID,
		Role:   session.Role,
		Email:  session.Email,
		Name:   session.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   session.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessTokenSecret))
}
