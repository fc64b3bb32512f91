package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iac-studio/rolecfg/internal/models"
	appErr "github.com/iac-studio/rolecfg/pkg/errors"
)

func TestIssueAndParseToken(t *testing.T) {
	users := &mockUserRepo{}
	user := models.User{ID: uuid.New(), Email: "ada@example.com", Name: "Ada"}
	users.On("GetByEmail", mock.Anything, "ada@example.com", mock.Anything).
		Run(func(args mock.Arguments) { *args.Get(2).(*models.User) = user }).
		Return(nil)

	svc := NewAuthService(users, []byte("secret"))
	token, got, err := svc.IssueToken(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	id, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	_, err = NewAuthService(users, []byte("other")).ParseToken(token)
	assert.True(t, appErr.IsCode(err, appErr.CodeUnauthorized))
}

func TestParseTokenRejectsExpired(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, []byte("secret"))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = svc.ParseToken(signed)
	assert.True(t, appErr.IsCode(err, appErr.CodeUnauthorized))
}

func TestActorUnknownUser(t *testing.T) {
	users := &mockUserRepo{}
	id := uuid.New()
	users.On("GetByID", mock.Anything, id, mock.Anything).Return(appErr.New(appErr.CodeNotFound, "user not found"))

	_, err := NewAuthService(users, []byte("secret")).Actor(context.Background(), id)
	assert.True(t, appErr.IsCode(err, appErr.CodeUnauthorized))
}
