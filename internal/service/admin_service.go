package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/gym-ops-api/internal/dto"
	"github.com/noah-isme/gym-ops-api/internal/models"
	appErrors "github.com/noah-isme/gym-ops-api/pkg/errors"
	"github.com/noah-isme/gym-ops-api/pkg/middleware/requestid"
)

const adminIssuer = "gym-ops-api"

// AdminConfig configures the PIN gate. PINHash takes precedence over PIN.
type AdminConfig struct {
	PIN           string
	PINHash       string
	SessionSecret string
	SessionTTL    time.Duration
}

// AdminService exchanges the admin PIN for a short-lived session token.
type AdminService struct {
	pinHash   []byte
	secret    []byte
	ttl       time.Duration
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAdminService constructs the PIN gate. A plain PIN is hashed once at startup; with neither
// a PIN nor a hash configured every unlock is refused.
func NewAdminService(cfg AdminConfig, v *validator.Validate, logger *zap.Logger) (*AdminService, error) {
	if v == nil {
		v = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 8 * time.Hour
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("admin session secret is required")
	}
	hash := []byte(cfg.PINHash)
	if len(hash) == 0 && cfg.PIN != "" {
		generated, err := bcrypt.GenerateFromPassword([]byte(cfg.PIN), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin pin: %w", err)
		}
		hash = generated
	}
	if len(hash) == 0 {
		logger.Warn("admin pin not configured, mutating endpoints are locked")
	}
	return &AdminService{pinHash: hash, secret: []byte(cfg.SessionSecret), ttl: cfg.SessionTTL, validator: v, logger: logger, now: time.Now}, nil
}

// Unlock verifies the PIN and issues an HS256 session token.
func (s *AdminService) Unlock(ctx context.Context, req dto.UnlockRequest) (*dto.UnlockResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid unlock payload")
	}
	if len(s.pinHash) == 0 {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "admin unlock is not configured")
	}
	if err := bcrypt.CompareHashAndPassword(s.pinHash, []byte(req.PIN)); err != nil {
		s.logger.Warn("admin unlock rejected", zap.String("request_id", requestid.FromContext(ctx)))
		return nil, appErrors.Clone(appErrors.ErrInvalidPIN, "")
	}

	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.ttl)
	sessionID := uuid.NewString()
	claims := &models.AdminClaims{
		Actor: "admin:" + sessionID[:8],
		Mode:  models.AdminModeSuper,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Issuer:    adminIssuer,
			Subject:   models.AdminModeSuper,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue session")
	}
	s.logger.Info("admin session issued", zap.String("session_id", sessionID), zap.Time("expires_at", expiresAt))
	return &dto.UnlockResponse{Token: signed, Mode: claims.Mode, ExpiresAt: expiresAt}, nil
}

// ParseSession validates a session token and returns its claims.
func (s *AdminService) ParseSession(token string) (*models.AdminClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &models.AdminClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(adminIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid admin session")
	}
	claims, ok := parsed.Claims.(*models.AdminClaims)
	if !ok || !parsed.Valid || claims.Mode != models.AdminModeSuper {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid admin session")
	}
	return claims, nil
}
