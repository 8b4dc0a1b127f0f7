package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/gym-ops-api/internal/dto"
	"github.com/noah-isme/gym-ops-api/internal/models"
	appErrors "github.com/noah-isme/gym-ops-api/pkg/errors"
)

func TestAdminServiceUnlockIssuesSession(t *testing.T) {
	svc, err := NewAdminService(AdminConfig{PIN: "2468", SessionSecret: "secret", SessionTTL: time.Hour}, nil, nil)
	require.NoError(t, err)

	resp, err := svc.Unlock(context.Background(), dto.UnlockRequest{PIN: "2468"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, models.AdminModeSuper, resp.Mode)

	claims, err := svc.ParseSession(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, models.AdminModeSuper, claims.Mode)
	assert.NotEmpty(t, claims.Actor)
}

func TestAdminServiceAcceptsPrecomputedHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("13579"), bcrypt.MinCost)
	require.NoError(t, err)
	svc, err := NewAdminService(AdminConfig{PINHash: string(hash), PIN: "ignored", SessionSecret: "secret"}, nil, nil)
	require.NoError(t, err)

	_, err = svc.Unlock(context.Background(), dto.UnlockRequest{PIN: "13579"})
	require.NoError(t, err)
	_, err = svc.Unlock(context.Background(), dto.UnlockRequest{PIN: "ignored"})
	assert.Equal(t, appErrors.ErrInvalidPIN.Code, errorCode(err))
}

func TestAdminServiceRejectsWrongPIN(t *testing.T) {
	svc, err := NewAdminService(AdminConfig{PIN: "2468", SessionSecret: "secret"}, nil, nil)
	require.NoError(t, err)

	_, err = svc.Unlock(context.Background(), dto.UnlockRequest{PIN: "1111"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidPIN.Code, errorCode(err))
	assert.Equal(t, 401, appErrors.FromError(err).Status)
}

func TestAdminServiceLockedWithoutPIN(t *testing.T) {
	svc, err := NewAdminService(AdminConfig{SessionSecret: "secret"}, nil, nil)
	require.NoError(t, err)

	_, err = svc.Unlock(context.Background(), dto.UnlockRequest{PIN: "2468"})
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(err))
}

func TestAdminServiceRequiresSecret(t *testing.T) {
	_, err := NewAdminService(AdminConfig{PIN: "2468"}, nil, nil)
	assert.Error(t, err)
}

func TestAdminServiceSessionExpires(t *testing.T) {
	svc, err := NewAdminService(AdminConfig{PIN: "2468", SessionSecret: "secret", SessionTTL: time.Minute}, nil, nil)
	require.NoError(t, err)
	svc.now = fixedClock

	resp, err := svc.Unlock(context.Background(), dto.UnlockRequest{PIN: "2468"})
	require.NoError(t, err)

	svc.now = func() time.Time { return fixtureNow.Add(2 * time.Minute) }
	_, err = svc.ParseSession(resp.Token)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, errorCode(err))
}

func TestAdminServiceRejectsForeignToken(t *testing.T) {
	issuer, err := NewAdminService(AdminConfig{PIN: "2468", SessionSecret: "one"}, nil, nil)
	require.NoError(t, err)
	verifier, err := NewAdminService(AdminConfig{PIN: "2468", SessionSecret: "two"}, nil, nil)
	require.NoError(t, err)

	resp, err := issuer.Unlock(context.Background(), dto.UnlockRequest{PIN: "2468"})
	require.NoError(t, err)
	_, err = verifier.ParseSession(resp.Token)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, errorCode(err))
}
