package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/events"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signupForm() SignupForm {
	return SignupForm{
		Name:         "Ada Lovelace",
		Email:        "Ada@Example.com",
		Password:     "difference-engine",
		MobileNumber: "555-0100",
		Street:       "12 Analytical Way",
		City:         "London",
		State:        "Greater London",
		Country:      "UK",
		PostalCode:   "N1 9GU",
	}
}

func TestSignupStoresDigest(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ShopConfig{})

	identity, err := h.identity.Signup(ctx, signupForm())
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", identity.Email)
	assert.Equal(t, models.RoleUser, identity.Role)

	user, err := h.store.UserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "difference-engine", user.PasswordHash)
	assert.NotEmpty(t, user.PasswordHash)
	assert.False(t, user.IsVerified)
	assert.Equal(t, "Greater London", user.Address.State)

	evs := h.events.all()
	require.Len(t, evs, 1)
	assert.IsType(t, &events.UserSignedUp{}, evs[0])

	// signup does not log the session in
	_, err = h.identity.Me(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestSignupRejectsTakenEmail(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ShopConfig{})
	_, err := h.identity.Signup(ctx, signupForm())
	require.NoError(t, err)

	_, err = h.identity.Signup(ctx, signupForm())
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignupValidation(t *testing.T) {
	h := newHarness(t, config.ShopConfig{})
	form := signupForm()
	form.State = ""
	form.Email = "nope"

	_, err := h.identity.Signup(context.Background(), form)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 2)
	assert.Contains(t, verr.Fields, "state")
	assert.Contains(t, verr.Fields, "email")
}

func TestSignupRejectsOverlongPassword(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ShopConfig{})
	form := signupForm()
	form.Password = strings.Repeat("p", MaxPasswordBytes+8)

	_, err := h.identity.Signup(ctx, form)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "must be at most 72 bytes", verr.Fields["password"])

	_, err = h.store.UserByEmail(ctx, "ada@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// exactly at the limit is accepted
	form.Password = strings.Repeat("p", MaxPasswordBytes)
	_, err = h.identity.Signup(ctx, form)
	require.NoError(t, err)

	_, err = h.identity.Login(ctx, "s1", "ada@example.com", strings.Repeat("p", MaxPasswordBytes+1))
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "password")
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ShopConfig{})
	_, err := h.identity.Signup(ctx, signupForm())
	require.NoError(t, err)

	_, err = h.identity.Login(ctx, "s1", "nobody@example.com", "x")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = h.identity.Login(ctx, "s1", "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidPassword)
	_, err = h.sessions.GetIdentity(ctx, "s1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	identity, err := h.identity.Login(ctx, "s1", " ADA@example.com ", "difference-engine")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", identity.Name)

	me, err := h.identity.Me(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, identity.ID, me.ID)

	require.NoError(t, h.identity.Logout(ctx, "s1"))
	_, err = h.identity.Me(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestWrongPasswordKeepsExistingIdentity(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ShopConfig{})
	_, err := h.identity.Signup(ctx, signupForm())
	require.NoError(t, err)
	_, err = h.identity.Login(ctx, "s1", "ada@example.com", "difference-engine")
	require.NoError(t, err)

	_, err = h.identity.Login(ctx, "s1", "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	me, err := h.identity.Me(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", me.Email)
}
