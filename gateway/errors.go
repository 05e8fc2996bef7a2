package gateway

import (
	"errors"
	"net/http"

	"github.com/example/storefront/pkg/payment"
	"github.com/example/storefront/pkg/repository"
	"github.com/example/storefront/pkg/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
	Next   string            `json:"next,omitempty"`
}

// writeError maps domain errors onto status codes. Unknown errors are logged
// and reported without detail.
func (g *Gateway) writeError(c *gin.Context, err error) {
	var (
		verr     *service.ValidationError
		stockErr *repository.InsufficientStockError
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: verr.Fields})
	case errors.Is(err, service.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, errorResponse{Error: service.EmptyCartNotice})

	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "No account found for this email. Please sign up.", Next: "/signup"})
	case errors.Is(err, service.ErrInvalidPassword):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "Invalid password"})
	case errors.Is(err, service.ErrNotLoggedIn):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error(), Next: "/login"})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, errorResponse{Error: "This email is already registered. Please log in.", Next: "/login"})

	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrNotInCart),
		errors.Is(err, service.ErrNoCheckout):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})

	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, errorResponse{Error: "insufficient stock", Fields: map[string]string{stockErr.ProductID: "not enough stock"}})
	case errors.Is(err, service.ErrOutOfStock),
		errors.Is(err, service.ErrCheckoutInProgress),
		errors.Is(err, service.ErrAmountMismatch),
		errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrDuplicate):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})

	case errors.Is(err, payment.ErrDeclined):
		c.JSON(http.StatusPaymentRequired, errorResponse{Error: "payment was not completed"})

	case errors.Is(err, payment.ErrCardPaymentsDisabled):
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrUnavailable):
		g.logger.Error("Backing store unavailable", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "service temporarily unavailable"})

	default:
		g.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func badRequest(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request", Fields: fields})
}
