package service

import (
	"context"
	"testing"
	"time"

	"github.com/Ali3911/Joompa-Gym-App/internal/domain"
	"github.com/Ali3911/Joompa-Gym-App/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeUsers struct {
	users map[primitive.ObjectID]*domain.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[primitive.ObjectID]*domain.User)}
}

func (f *fakeUsers) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, u := range f.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	id := primitive.NewObjectID()
	cp := *user
	cp.ID = id
	f.users[id] = &cp
	return id, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func TestRegisterAndLogin(t *testing.T) {
	users := newFakeUsers()
	svc := NewAuthService(users, "test-secret", time.Hour)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ada", "Lovelace", "ada@example.com", "correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, primitive.NilObjectID, user.ID)
	assert.Empty(t, user.PasswordHash, "hash must not leave the service")

	token, loggedIn, err := svc.Login(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.Empty(t, loggedIn.PasswordHash)

	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, "joompa-gym-app", claims.Issuer)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := newFakeUsers()
	svc := NewAuthService(users, "test-secret", time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ada", "Lovelace", "ada@example.com", "correct horse")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Impostor", "", "ada@example.com", "battery staple")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestLoginWrongPassword(t *testing.T) {
	users := newFakeUsers()
	svc := NewAuthService(users, "test-secret", time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ada", "Lovelace", "ada@example.com", "correct horse")
	require.NoError(t, err)

	token, user, err := svc.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.Empty(t, token)
	assert.Nil(t, user)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(newFakeUsers(), "test-secret", time.Hour)

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}
