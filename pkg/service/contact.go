package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/storefront/pkg/events"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MessageForm is the contact form.
type MessageForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Validate requires every field and a well-formed email.
func (f *MessageForm) Validate() error {
	var v validator
	v.required("name", f.Name)
	v.email("email", f.Email)
	v.required("message", f.Message)
	return v.err()
}

// ContactService stores contact-form messages.
type ContactService struct {
	messages  repository.ContentStore
	publisher events.Publisher
	logger    *zap.Logger
}

// NewContactService creates a new contact service.
func NewContactService(messages repository.ContentStore, publisher events.Publisher, logger *zap.Logger) *ContactService {
	return &ContactService{messages: messages, publisher: publisher, logger: logger}
}

// Submit validates and stores a message.
func (s *ContactService) Submit(ctx context.Context, form MessageForm) (*models.Message, error) {
	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.TrimSpace(form.Email)
	form.Message = strings.TrimSpace(form.Message)
	if err := form.Validate(); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:        uuid.NewString(),
		Name:      form.Name,
		Email:     form.Email,
		Body:      form.Message,
		CreatedAt: time.Now(),
		Pinned:    false,
	}
	if err := s.messages.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	s.logger.Info("Contact message received", zap.String("message_id", msg.ID))
	s.publisher.Publish(&events.MessageReceived{MessageID: msg.ID, Name: msg.Name, Email: msg.Email})
	return msg, nil
}
