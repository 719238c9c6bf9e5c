package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oms-suite/oms-gateway/internal/models"
	"github.com/oms-suite/oms-gateway/internal/sheets"
	appErrors "github.com/oms-suite/oms-gateway/pkg/errors"
)

type authSheetClient interface {
	Get(ctx context.Context, action string, params map[string]string) (*sheets.Result, error)
}

type sessionStore interface {
	Save(ctx context.Context, sessionID string, creds models.UpstreamCredentials, ttl time.Duration) error
	Load(ctx context.Context, sessionID string) (models.UpstreamCredentials, error)
	Delete(ctx context.Context, sessionID string) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
	SessionTTL        time.Duration
}

// AuthService verifies credentials against the sheet backend and issues
// gateway access tokens. The backend itself is stateless per request, so the
// service keeps the verified credentials in a sealed session for later admin
// mutations.
type AuthService struct {
	sheets    authSheetClient
	sessions  sessionStore
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(client authSheetClient, sessions sessionStore, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{sheets: client, sessions: sessions, validator: validate, logger: logger, config: config}
}

type upstreamLoginResult struct {
	Success bool   `json:"success"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	Message string `json:"message"`
}

// Login forwards credentials to the sheet backend, and on success opens a
// session and returns an access token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	result, err := s.sheets.Get(ctx, "login", map[string]string{
		"username": req.Username,
		"password": req.Password,
	})
	if err != nil {
		return nil, err
	}

	var login upstreamLoginResult
	if err := result.Decode(&login); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "unreadable login response")
	}
	if !login.Success {
		return nil, appErrors.ErrInvalidCredentials
	}

	role := models.UserRole(login.Role)
	if role != models.RoleAdmin {
		role = models.RoleUser
	}
	user := models.UserInfo{
		Username: req.Username,
		Name:     login.Name,
		Role:     role,
	}

	sessionID := uuid.NewString()
	if err := s.sessions.Save(ctx, sessionID, models.UpstreamCredentials{
		Username: req.Username,
		Password: req.Password,
	}, s.config.SessionTTL); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open session")
	}

	accessToken, issuedAt, err := s.generateAccessToken(user, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	s.logger.Info("user signed in",
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)))

	return &models.LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		User:        user,
		IssuedAt:    issuedAt,
	}, nil
}

// Logout closes the session named by the claims, revoking the stored
// credentials.
func (s *AuthService) Logout(ctx context.Context, claims *models.JWTClaims) error {
	if claims == nil || claims.SessionID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "no active session")
	}
	if err := s.sessions.Delete(ctx, claims.SessionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close session")
	}
	s.logger.Info("user signed out", zap.String("username", claims.Username))
	return nil
}

// CredentialsFor loads the sealed upstream credentials for the session. Admin
// mutations attach these when posting to the sheet backend.
func (s *AuthService) CredentialsFor(ctx context.Context, claims *models.JWTClaims) (models.UpstreamCredentials, error) {
	if claims == nil || claims.SessionID == "" {
		return models.UpstreamCredentials{}, appErrors.Clone(appErrors.ErrUnauthorized, "no active session")
	}
	return s.sessions.Load(ctx, claims.SessionID)
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

func (s *AuthService) generateAccessToken(user models.UserInfo, sessionID string) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		Username:  user.Username,
		Name:      user.Name,
		Role:      user.Role,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, issuedAt, nil
}
