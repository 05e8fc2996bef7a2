package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/storefront/pkg/events"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SignupForm is the account form. Every field is required.
type SignupForm struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	MobileNumber string `json:"mobile_number"`
	Street       string `json:"street"`
	City         string `json:"city"`
	State        string `json:"state"`
	Country      string `json:"country"`
	PostalCode   string `json:"postal_code"`
}

// Validate checks required fields, the email shape and the password length.
func (f *SignupForm) Validate() error {
	var v validator
	v.required("name", f.Name)
	v.email("email", f.Email)
	v.password("password", f.Password)
	v.required("mobile_number", f.MobileNumber)
	v.required("street", f.Street)
	v.required("city", f.City)
	v.required("state", f.State)
	v.required("country", f.Country)
	v.required("postal_code", f.PostalCode)
	return v.err()
}

// IdentityService handles signup, login and the session's cached identity.
type IdentityService struct {
	users     repository.ContentStore
	sessions  repository.SessionStore
	publisher events.Publisher
	logger    *zap.Logger
	cost      int
}

// NewIdentityService creates an identity service hashing with bcrypt's default cost.
func NewIdentityService(users repository.ContentStore, sessions repository.SessionStore, publisher events.Publisher, logger *zap.Logger) *IdentityService {
	return &IdentityService{
		users:     users,
		sessions:  sessions,
		publisher: publisher,
		logger:    logger,
		cost:      bcrypt.DefaultCost,
	}
}

// Signup creates an unverified user with the "user" role.
func (s *IdentityService) Signup(ctx context.Context, form SignupForm) (*models.Identity, error) {
	form.Email = strings.ToLower(strings.TrimSpace(form.Email))
	if err := form.Validate(); err != nil {
		return nil, err
	}

	_, err := s.users.UserByEmail(ctx, form.Email)
	switch {
	case err == nil:
		return nil, ErrEmailTaken
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(form.Name),
		Email:        form.Email,
		PasswordHash: string(hash),
		MobileNumber: strings.TrimSpace(form.MobileNumber),
		Address: models.Address{
			Street:     strings.TrimSpace(form.Street),
			City:       strings.TrimSpace(form.City),
			State:      strings.TrimSpace(form.State),
			Country:    strings.TrimSpace(form.Country),
			PostalCode: strings.TrimSpace(form.PostalCode),
		},
		IsVerified: false,
		Role:       models.RoleUser,
		CreatedAt:  time.Now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent signup for the same address.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User signed up", zap.String("user_id", user.ID))
	s.publisher.Publish(&events.UserSignedUp{UserID: user.ID, Name: user.Name, Email: user.Email})
	return user.Identity(), nil
}

// Login checks the credentials and caches the identity in the session.
func (s *IdentityService) Login(ctx context.Context, sessionID, email, password string) (*models.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var v validator
	v.email("email", email)
	v.password("password", password)
	if err := v.err(); err != nil {
		return nil, err
	}

	user, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidPassword
	}

	identity := user.Identity()
	if err := s.sessions.SaveIdentity(ctx, sessionID, identity); err != nil {
		return nil, fmt.Errorf("save identity: %w: %w", ErrUnavailable, err)
	}
	s.logger.Info("User logged in", zap.String("user_id", user.ID))
	return identity, nil
}

// Me returns the identity cached by Login, or ErrNotLoggedIn.
func (s *IdentityService) Me(ctx context.Context, sessionID string) (*models.Identity, error) {
	identity, err := s.sessions.GetIdentity(ctx, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, fmt.Errorf("load identity: %w: %w", ErrUnavailable, err)
	}
	return identity, nil
}

// Logout forgets the cached identity. The cart is kept.
func (s *IdentityService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.DeleteIdentity(ctx, sessionID); err != nil {
		return fmt.Errorf("delete identity: %w: %w", ErrUnavailable, err)
	}
	return nil
}
