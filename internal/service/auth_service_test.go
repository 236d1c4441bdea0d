package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/study-planner-api/internal/models"
	appErrors "github.com/noah-isme/study-planner-api/pkg/errors"
)

func TestAuthServiceRoundTrip(t *testing.T) {
	svc := NewAuthService(AuthConfig{AccessTokenSecret: "secret", Issuer: "identity"}, nil)

	token, err := svc.IssueToken("learner-1", models.RoleLearner, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "learner-1", claims.UserID)
	assert.Equal(t, models.RoleLearner, claims.Role)
}

func TestAuthServiceRejectsForeignSignature(t *testing.T) {
	issuer := NewAuthService(AuthConfig{AccessTokenSecret: "other"}, nil)
	token, err := issuer.IssueToken("learner-1", models.RoleLearner, time.Hour)
	require.NoError(t, err)

	_, err = NewAuthService(AuthConfig{AccessTokenSecret: "secret"}, nil).ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRejectsExpiredToken(t *testing.T) {
	svc := NewAuthService(AuthConfig{AccessTokenSecret: "secret"}, nil)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := svc.IssueToken("learner-1", models.RoleLearner, time.Hour)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestAuthServiceRejectsOtherAlgorithms(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, models.JWTClaims{UserID: "x"}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewAuthService(AuthConfig{AccessTokenSecret: "secret"}, nil).ValidateToken(token)
	assert.Error(t, err)
}
