package service

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrNotInCart          = errors.New("product is not in the cart")
	ErrProductNotFound    = errors.New("product not found")
	ErrOutOfStock         = errors.New("product is out of stock")
	ErrOrderNotFound      = errors.New("order not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrNoCheckout         = errors.New("no completed checkout in this session")
	ErrCheckoutInProgress = errors.New("checkout with this idempotency key is in progress")
	ErrAmountMismatch     = errors.New("payment intent amount does not match cart total")
	ErrInvalidTransition  = errors.New("order status transition not allowed")
	// ErrUnavailable wraps failures of a backing store the request cannot do without.
	ErrUnavailable = errors.New("storage unavailable")
)

// ValidationError carries one message per rejected form field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// MaxPasswordBytes is the longest password bcrypt will hash.
const MaxPasswordBytes = 72

type validator struct {
	fields map[string]string
}

func (v *validator) required(name, value string) bool {
	if strings.TrimSpace(value) == "" {
		v.fail(name, "is required")
		return false
	}
	return true
}

func (v *validator) email(name, value string) {
	if v.required(name, value) && !emailPattern.MatchString(value) {
		v.fail(name, "is not a valid email address")
	}
}

func (v *validator) password(name, value string) {
	if v.required(name, value) && len(value) > MaxPasswordBytes {
		v.fail(name, fmt.Sprintf("must be at most %d bytes", MaxPasswordBytes))
	}
}

func (v *validator) fail(name, msg string) {
	if v.fields == nil {
		v.fields = make(map[string]string)
	}
	if _, ok := v.fields[name]; !ok {
		v.fields[name] = msg
	}
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}
