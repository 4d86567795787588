package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-availability-api/internal/models"
	appErrors "github.com/noah-isme/lms-availability-api/pkg/errors"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims models.JWTClaims, method jwt.SigningMethod, key interface{}) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims() models.JWTClaims {
	return models.JWTClaims{
		UserID: "user-1",
		Role:   models.RoleTrainer,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "lms-auth",
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func newTestAuthService() *AuthService {
	return NewAuthService(nil, AuthConfig{AccessTokenSecret: testSecret, Issuer: "lms-auth", Audience: "authenticated"})
}

func TestValidateTokenAcceptsValidToken(t *testing.T) {
	claims, err := newTestAuthService().ValidateToken(signToken(t, validClaims(), jwt.SigningMethodHS256, []byte(testSecret)))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleTrainer, claims.Role)
}

func TestValidateTokenFallsBackToSubjectAndStudentRole(t *testing.T) {
	c := validClaims()
	c.UserID = ""
	c.Subject = "sub-9"
	c.Role = "authenticated"
	claims, err := newTestAuthService().ValidateToken(signToken(t, c, jwt.SigningMethodHS256, []byte(testSecret)))
	require.NoError(t, err)
	assert.Equal(t, "sub-9", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestValidateTokenRejections(t *testing.T) {
	svc := newTestAuthService()

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	wrongAudience := validClaims()
	wrongAudience.Audience = jwt.ClaimStrings{"other"}

	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil

	cases := map[string]string{
		"expired":        signToken(t, expired, jwt.SigningMethodHS256, []byte(testSecret)),
		"wrong audience": signToken(t, wrongAudience, jwt.SigningMethodHS256, []byte(testSecret)),
		"no expiry":      signToken(t, noExpiry, jwt.SigningMethodHS256, []byte(testSecret)),
		"wrong secret":   signToken(t, validClaims(), jwt.SigningMethodHS256, []byte("other")),
		"wrong method":   signToken(t, validClaims(), jwt.SigningMethodHS384, []byte(testSecret)),
		"garbage":        "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
		})
	}
}
