package gateway

import (
	"net/http"
	"strconv"

	"github.com/example/storefront/pkg/service"
	"github.com/gin-gonic/gin"
)

type addItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"omitempty,min=1"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type paymentIntentResponse struct {
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// listProducts godoc
// @Summary List products
// @Tags products
// @Produce json
// @Param featured query bool false "only featured products"
// @Param category query string false "category, e.g. Chair or Sofa"
// @Param sort query string false "price-low-to-high (default) or price-high-to-low"
// @Param limit query int false "page size: 6, 12 (default) or 18"
// @Success 200 {object} map[string]interface{}
// @Router /products [get]
func (g *Gateway) listProducts(c *gin.Context) {
	q := service.ProductQuery{
		Category: c.Query("category"),
		Sort:     c.Query("sort"),
	}
	fields := map[string]string{}
	if raw := c.Query("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			fields["featured"] = "must be true or false"
		}
		q.Featured = &featured
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			fields["limit"] = "must be a positive integer"
		}
		q.Limit = limit
	}
	if len(fields) > 0 {
		badRequest(c, fields)
		return
	}

	products, err := g.services.Catalog.List(c.Request.Context(), q)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products":   products,
		"page_size":  service.PageSize(q.Limit),
		"page_sizes": service.PageSizes,
	})
}

// featuredProducts godoc
// @Summary Featured products for the landing page
// @Tags products
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /products/featured [get]
func (g *Gateway) featuredProducts(c *gin.Context) {
	products, err := g.services.Catalog.Featured(c.Request.Context())
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// getProduct godoc
// @Summary Product detail with related products
// @Tags products
// @Produce json
// @Param id path string true "product id"
// @Success 200 {object} service.ProductDetail
// @Failure 404 {object} errorResponse
// @Router /products/{id} [get]
func (g *Gateway) getProduct(c *gin.Context) {
	detail, err := g.services.Catalog.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// getCart godoc
// @Summary Current session's cart with totals
// @Tags cart
// @Produce json
// @Success 200 {object} service.CartView
// @Router /cart [get]
func (g *Gateway) getCart(c *gin.Context) {
	view, err := g.services.Cart.View(c.Request.Context(), sessionID(c))
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// addCartItem godoc
// @Summary Add a product to the cart
// @Tags cart
// @Accept json
// @Produce json
// @Param body body addItemRequest true "product and quantity"
// @Success 200 {object} service.CartView
// @Router /cart/items [post]
func (g *Gateway) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, map[string]string{"body": err.Error()})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	view, err := g.services.Cart.Add(c.Request.Context(), sessionID(c), req.ProductID, req.Quantity)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// updateCartItem godoc
// @Summary Set a cart line's quantity (clamped to stock)
// @Tags cart
// @Accept json
// @Produce json
// @Param id path string true "product id"
// @Param body body updateItemRequest true "quantity"
// @Success 200 {object} service.CartView
// @Router /cart/items/{id} [put]
func (g *Gateway) updateCartItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, map[string]string{"quantity": "is required"})
		return
	}

	view, err := g.services.Cart.UpdateQuantity(c.Request.Context(), sessionID(c), c.Param("id"), *req.Quantity)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// removeCartItem godoc
// @Summary Remove a product from the cart
// @Tags cart
// @Produce json
// @Param id path string true "product id"
// @Success 200 {object} service.CartView
// @Router /cart/items/{id} [delete]
func (g *Gateway) removeCartItem(c *gin.Context) {
	view, err := g.services.Cart.Remove(c.Request.Context(), sessionID(c), c.Param("id"))
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// clearCart godoc
// @Summary Empty the cart
// @Tags cart
// @Success 204
// @Router /cart [delete]
func (g *Gateway) clearCart(c *gin.Context) {
	if err := g.services.Cart.Clear(c.Request.Context(), sessionID(c)); err != nil {
		g.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// checkoutPrefill godoc
// @Summary Billing form values from the logged-in identity
// @Tags checkout
// @Produce json
// @Success 200 {object} service.Prefill
// @Router /checkout/prefill [get]
func (g *Gateway) checkoutPrefill(c *gin.Context) {
	prefill, err := g.services.Checkout.Prefill(c.Request.Context(), sessionID(c))
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefill)
}

// createPaymentIntent godoc
// @Summary Open a card payment intent for the cart total
// @Tags checkout
// @Produce json
// @Success 201 {object} paymentIntentResponse
// @Failure 503 {object} errorResponse
// @Router /checkout/payment-intent [post]
func (g *Gateway) createPaymentIntent(c *gin.Context) {
	intent, err := g.services.Checkout.CreatePaymentIntent(c.Request.Context(), sessionID(c))
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, paymentIntentResponse{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       intent.Amount,
		Currency:     intent.Currency,
	})
}

// placeOrder godoc
// @Summary Place an order from the session's cart
// @Tags checkout
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "retry key"
// @Param body body service.CheckoutForm true "billing form"
// @Success 201 {object} models.Order
// @Success 200 {object} models.Order "replayed"
// @Failure 400 {object} errorResponse
// @Failure 402 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /checkout [post]
func (g *Gateway) placeOrder(c *gin.Context) {
	var form service.CheckoutForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, map[string]string{"body": "must be a JSON checkout form"})
		return
	}

	res, err := g.services.Checkout.PlaceOrder(c.Request.Context(), sessionID(c), c.GetHeader("Idempotency-Key"), form)
	if err != nil {
		g.writeError(c, err)
		return
	}
	code := http.StatusCreated
	if res.Replayed {
		code = http.StatusOK
	}
	c.JSON(code, res.Order)
}

// lastCheckout godoc
// @Summary The session's most recent order
// @Tags checkout
// @Produce json
// @Success 200 {object} models.CheckoutSnapshot
// @Failure 404 {object} errorResponse
// @Router /checkout/last [get]
func (g *Gateway) lastCheckout(c *gin.Context) {
	snapshot, err := g.services.Checkout.LastCheckout(c.Request.Context(), sessionID(c))
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// signup godoc
// @Summary Create an account
// @Tags auth
// @Accept json
// @Produce json
// @Param body body service.SignupForm true "account"
// @Success 201 {object} models.Identity
// @Failure 409 {object} errorResponse
// @Router /auth/signup [post]
func (g *Gateway) signup(c *gin.Context) {
	var form service.SignupForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, map[string]string{"body": "must be a JSON signup form"})
		return
	}

	identity, err := g.services.Identity.Signup(c.Request.Context(), form)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": identity, "next": "/login"})
}

// login godoc
// @Summary Log in and cache the identity in the session
// @Tags auth
// @Accept json
// @Produce json
// @Param body body loginRequest true "credentials"
// @Success 200 {object} models.Identity
// @Failure 401 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /auth/login [post]
func (g *Gateway) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, map[string]string{"body": "must be a JSON object"})
		return
	}

	identity, err := g.services.Identity.Login(c.Request.Context(), sessionID(c), req.Email, req.Password)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, identity)
}

// logout godoc
// @Summary Forget the session identity
// @Tags auth
// @Success 204
// @Router /auth/logout [post]
func (g *Gateway) logout(c *gin.Context) {
	if err := g.services.Identity.Logout(c.Request.Context(), sessionID(c)); err != nil {
		g.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// me godoc
// @Summary The session identity
// @Tags auth
// @Produce json
// @Success 200 {object} models.Identity
// @Failure 401 {object} errorResponse
// @Router /auth/me [get]
func (g *Gateway) me(c *gin.Context) {
	identity, err := g.services.Identity.Me(c.Request.Context(), sessionID(c))
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, identity)
}

// createMessage godoc
// @Summary Submit the contact form
// @Tags messages
// @Accept json
// @Produce json
// @Param body body service.MessageForm true "message"
// @Success 201 {object} models.Message
// @Failure 400 {object} errorResponse
// @Router /messages [post]
func (g *Gateway) createMessage(c *gin.Context) {
	var form service.MessageForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, map[string]string{"body": "must be a JSON object"})
		return
	}

	msg, err := g.services.Contact.Submit(c.Request.Context(), form)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
