package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/events"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/payment"
	"github.com/example/storefront/pkg/repository"
	"github.com/example/storefront/pkg/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type flakySessions struct {
	*repository.MemorySessionStore
	fail bool
}

func (f *flakySessions) GetCart(ctx context.Context, sessionID string) ([]models.CartEntry, error) {
	if f.fail {
		return nil, errors.New("redis: i/o timeout")
	}
	return f.MemorySessionStore.GetCart(ctx, sessionID)
}

type testServer struct {
	t        *testing.T
	handler  http.Handler
	store    *repository.MemoryStore
	sessions *flakySessions
	cookie   *http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	cfg := &config.Config{
		Session: config.SessionConfig{CookieName: "sf_session", TTL: time.Hour},
		Shop:    config.ShopConfig{Currency: "usd"},
	}
	store := repository.NewMemoryStore()
	for _, p := range []models.Product{
		{ID: "p1", Name: "Chair", Price: 10, StockLevel: 5, Category: "Chair", IsFeatured: true},
		{ID: "p2", Name: "Sofa", Price: 300, StockLevel: 1, Category: "Sofa"},
	} {
		product := p
		require.NoError(t, store.CreateProduct(ctx, &product))
	}
	sessions := &flakySessions{MemorySessionStore: repository.NewMemorySessionStore()}
	logger := zap.NewNop()

	cart := service.NewCartService(store, sessions, service.NewPricing(&cfg.Shop), logger)
	gw := NewGateway(cfg, logger, Services{
		Catalog:  service.NewCatalogService(store, logger),
		Cart:     cart,
		Checkout: service.NewCheckoutService(cart, store, sessions, payment.Disabled{}, events.Nop{}, logger),
		Identity: service.NewIdentityService(store, sessions, events.Nop{}, logger),
		Contact:  service.NewContactService(store, events.Nop{}, logger),
		Health:   map[string]Pinger{"content": store, "sessions": sessions},
	})
	gw.SetupRoutes()

	return &testServer{t: t, handler: gw.Handler(), store: store, sessions: sessions}
}

func (s *testServer) do(method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == "sf_session" {
			s.cookie = c
		}
	}
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func checkoutBody(method string) map[string]string {
	return map[string]string{
		"full_name":      "Ada Lovelace",
		"email":          "ada@example.com",
		"phone":          "555-0100",
		"address":        "12 Analytical Way",
		"city":           "London",
		"postal_code":    "N1 9GU",
		"country":        "UK",
		"payment_method": method,
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestProducts(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/products?sort=price-high-to-low&limit=6", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	products := body["products"].([]interface{})
	require.Len(t, products, 2)
	assert.Equal(t, "p2", products[0].(map[string]interface{})["id"])
	assert.EqualValues(t, 6, body["page_size"])

	w = s.do(http.MethodGet, "/api/v1/products?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/products/featured", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["products"], 1)

	w = s.do(http.MethodGet, "/api/v1/products/p1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	product := decode(t, w)["product"].(map[string]interface{})
	assert.Equal(t, "Chair", product["name"])

	w = s.do(http.MethodGet, "/api/v1/products/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCartFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, s.cookie)
	assert.True(t, s.cookie.HttpOnly)
	assert.Equal(t, service.EmptyCartNotice, decode(t, w)["notice"])

	w = s.do(http.MethodPost, "/api/v1/cart/items", map[string]interface{}{"product_id": "p1", "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 20, decode(t, w)["subtotal"])

	w = s.do(http.MethodPut, "/api/v1/cart/items/p1", map[string]interface{}{"quantity": 50})
	require.Equal(t, http.StatusOK, w.Code)
	items := decode(t, w)["items"].([]interface{})
	assert.EqualValues(t, 5, items[0].(map[string]interface{})["quantity"])

	w = s.do(http.MethodPut, "/api/v1/cart/items/p1", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/cart/items", map[string]interface{}{"product_id": "ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/cart/items/p1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.EmptyCartNotice, decode(t, w)["notice"])

	w = s.do(http.MethodDelete, "/api/v1/cart", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCartStoreOutage(t *testing.T) {
	s := newTestServer(t)
	s.sessions.fail = true

	w := s.do(http.MethodGet, "/api/v1/cart", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCheckoutFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/checkout", checkoutBody(models.PaymentMethodCash))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/cart/items", map[string]interface{}{"product_id": "p1", "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)

	invalid := checkoutBody(models.PaymentMethodCash)
	invalid["email"] = "nope"
	w = s.do(http.MethodPost, "/api/v1/checkout", invalid)
	require.Equal(t, http.StatusBadRequest, w.Code)
	fields := decode(t, w)["fields"].(map[string]interface{})
	assert.Contains(t, fields, "email")

	w = s.do(http.MethodPost, "/api/v1/checkout", checkoutBody(models.PaymentMethodCash), "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, w.Code)
	order := decode(t, w)
	assert.Equal(t, models.PaymentStatusCashOnDelivery, order["payment_status"])
	assert.EqualValues(t, 20, order["amount"])

	w = s.do(http.MethodPost, "/api/v1/checkout", checkoutBody(models.PaymentMethodCash), "Idempotency-Key", "abc")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, order["id"], decode(t, w)["id"])

	w = s.do(http.MethodGet, "/api/v1/checkout/last", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, order["id"], decode(t, w)["order_id"])

	p, err := s.store.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, p.StockLevel)
}

func TestCardPaymentsDisabled(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodPost, "/api/v1/cart/items", map[string]interface{}{"product_id": "p1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/v1/checkout/payment-intent", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	signup := map[string]string{
		"name":          "Ada",
		"email":         "ada@example.com",
		"password":      "engine",
		"mobile_number": "555-0100",
		"street":        "12 Way",
		"city":          "London",
		"state":         "LDN",
		"country":       "UK",
		"postal_code":   "N1",
	}

	w := s.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "ada@example.com", "password": "engine"})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "/signup", decode(t, w)["next"])

	w = s.do(http.MethodPost, "/api/v1/auth/signup", signup)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	w = s.do(http.MethodPost, "/api/v1/auth/signup", signup)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "/login", decode(t, w)["next"])

	w = s.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "ada@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "ada@example.com", "password": "engine"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ada", decode(t, w)["name"])

	w = s.do(http.MethodGet, "/api/v1/checkout/prefill", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "12 Way", decode(t, w)["address"])

	w = s.do(http.MethodPost, "/api/v1/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMessages(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/messages", map[string]string{"name": "Ada"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	fields := decode(t, w)["fields"].(map[string]interface{})
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "message")

	w = s.do(http.MethodPost, "/api/v1/messages", map[string]string{"name": "Ada", "email": "ada@example.com", "message": "hi"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, false, decode(t, w)["pinned"])
	assert.Len(t, s.store.Messages(), 1)
}
