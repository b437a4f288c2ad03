package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/campus-tuckshop/tuckshop-service/internal/cart"
	"github.com/campus-tuckshop/tuckshop-service/internal/clients"
	"github.com/campus-tuckshop/tuckshop-service/internal/config"
	"github.com/campus-tuckshop/tuckshop-service/internal/events"
	"github.com/campus-tuckshop/tuckshop-service/internal/handlers"
	"github.com/campus-tuckshop/tuckshop-service/internal/models"
	"github.com/campus-tuckshop/tuckshop-service/internal/repository"
	"github.com/campus-tuckshop/tuckshop-service/internal/server"
	"github.com/campus-tuckshop/tuckshop-service/internal/service"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// stubIdentity plays the external identity oracle. The only rejected
// credential pair is wrong@campus.edu / anything.
type stubIdentity struct{}

func (stubIdentity) SignUp(_ context.Context, email, _, displayName string) (*clients.Identity, error) {
	return &clients.Identity{Email: email, DisplayName: displayName, Token: "stub-token"}, nil
}

func (stubIdentity) SignIn(_ context.Context, email, _ string) (*clients.Identity, error) {
	if email == "wrong@campus.edu" {
		return nil, clients.ErrInvalidCredentials
	}
	return &clients.Identity{Email: email, DisplayName: "Stub User", Token: "stub-token"}, nil
}

type env struct {
	router http.Handler
	store  *repository.MemoryStore
	events *events.MockPublisher
}

func newEnv(t *testing.T) *env {
	t.Helper()

	cfg := &config.Config{
		Identity: config.ServiceConfig{JWTSecret: testSecret},
		Checkout: config.CheckoutConfig{
			MaxRetries:            5,
			StartingBalance:       decimal.RequireFromString("100.00"),
			CreateMissingAccounts: true,
		},
		Features: config.FeatureFlags{EnableStockEvents: true},
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := repository.NewMemoryStore()
	tx := repository.NewMemoryTxManager(store, cfg.Checkout.MaxRetries)
	pub := events.NewMockPublisher()

	catalog := service.NewCatalogService(store.Items(), tx, nil, pub, cfg, logger)
	checkout := service.NewCheckoutService(store.Items(), store.Accounts(), store.Orders(), tx, nil, pub, cfg, logger)
	accounts := service.NewAccountService(store.Accounts(), tx, cfg, logger)
	carts := cart.NewManager(cart.NewMemoryStore(), logger)

	h := handlers.NewHandlers(catalog, checkout, accounts, carts, stubIdentity{}, cfg, logger)
	return &env{
		router: server.New(h, cfg).Router(),
		store:  store,
		events: pub,
	}
}

func (e *env) token(t *testing.T, email string, admin bool) string {
	t.Helper()
	claims := jwt.MapClaims{
		"email": email,
		"name":  "Test User",
		"admin": admin,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func (e *env) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, decoded
}

func (e *env) seedItem(t *testing.T, id, price string, stock int) {
	t.Helper()
	now := time.Now().UTC()
	err := e.store.Items().Put(context.Background(), &models.Item{
		ID:        id,
		Name:      "Item " + id,
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		Category:  models.CategorySnacks,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed item: %v", err)
	}
}

func TestHealthEndpoints(t *testing.T) {
	e := newEnv(t)

	for _, path := range []string{"/health", "/ready", "/version"} {
		rec, _ := e.do(t, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestAuthRequired(t *testing.T) {
	e := newEnv(t)

	rec, _ := e.do(t, http.MethodGet, "/api/v1/items", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: expected 401, got %d", rec.Code)
	}

	rec, _ = e.do(t, http.MethodGet, "/api/v1/items", "not-a-jwt", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: expected 401, got %d", rec.Code)
	}

	rec, _ = e.do(t, http.MethodGet, "/api/v1/items", e.token(t, "buyer@campus.edu", false), nil)
	if rec.Code != http.StatusOK {
		t.Errorf("valid token: expected 200, got %d", rec.Code)
	}
}

func TestAdminRequired(t *testing.T) {
	e := newEnv(t)
	item := map[string]any{"name": "Wafer", "price": "1.50", "stock": 10, "category": "snacks"}

	rec, _ := e.do(t, http.MethodPost, "/api/v1/admin/items", e.token(t, "buyer@campus.edu", false), item)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-admin: expected 403, got %d", rec.Code)
	}

	rec, body := e.do(t, http.MethodPost, "/api/v1/admin/items", e.token(t, "admin@campus.edu", true), item)
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin: expected 201, got %d (%v)", rec.Code, body)
	}
	if id, _ := body["id"].(string); id == "" {
		t.Errorf("expected generated item id, got %v", body["id"])
	}
}

func TestRestock(t *testing.T) {
	e := newEnv(t)
	e.seedItem(t, "waf1", "1.50", 2)
	admin := e.token(t, "admin@campus.edu", true)

	rec, body := e.do(t, http.MethodPost, "/api/v1/admin/items/waf1/restock", admin, map[string]any{"quantity": 10})
	if rec.Code != http.StatusOK {
		t.Fatalf("restock: expected 200, got %d (%v)", rec.Code, body)
	}
	if stock, _ := body["stock"].(float64); stock != 12 {
		t.Errorf("expected stock 12, got %v", body["stock"])
	}

	rec, _ = e.do(t, http.MethodPost, "/api/v1/admin/items/waf1/restock", admin, map[string]any{"quantity": -3})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative restock: expected 400, got %d", rec.Code)
	}
}

func TestSignUpAndSignIn(t *testing.T) {
	e := newEnv(t)

	rec, body := e.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]any{
		"email": "new@campus.edu", "password": "hunter22", "name": "New User",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d (%v)", rec.Code, body)
	}
	account, _ := body["account"].(map[string]any)
	if balance, _ := account["balance"].(string); balance != "100" {
		t.Errorf("expected starting balance 100, got %v", account["balance"])
	}

	// Signing in again must not reset the balance.
	rec, body = e.do(t, http.MethodPost, "/api/v1/auth/signin", "", map[string]any{
		"email": "new@campus.edu", "password": "hunter22",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("signin: expected 200, got %d (%v)", rec.Code, body)
	}

	rec, _ = e.do(t, http.MethodPost, "/api/v1/auth/signin", "", map[string]any{
		"email": "wrong@campus.edu", "password": "nope",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad credentials: expected 401, got %d", rec.Code)
	}
}

func TestCartAndCheckoutFlow(t *testing.T) {
	e := newEnv(t)
	e.seedItem(t, "waf1", "10.00", 5)
	buyer := e.token(t, "buyer@campus.edu", false)

	rec, _ := e.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]any{
		"email": "buyer@campus.edu", "password": "hunter22", "name": "Buyer",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d", rec.Code)
	}

	rec, body := e.do(t, http.MethodPost, "/api/v1/cart/items", buyer, map[string]any{"item_id": "waf1", "quantity": 3})
	if rec.Code != http.StatusOK {
		t.Fatalf("add to cart: expected 200, got %d (%v)", rec.Code, body)
	}
	if total, _ := body["total"].(string); total != "30" {
		t.Errorf("expected cart total 30, got %v", body["total"])
	}

	rec, body = e.do(t, http.MethodPost, "/api/v1/checkout", buyer, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("checkout: expected 201, got %d (%v)", rec.Code, body)
	}
	orderID, _ := body["id"].(string)
	if orderID == "" {
		t.Fatalf("expected order id in response, got %v", body)
	}

	// Cart is drained after a successful settlement.
	rec, body = e.do(t, http.MethodGet, "/api/v1/cart", buyer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get cart: expected 200, got %d", rec.Code)
	}
	if lines, _ := body["lines"].([]any); len(lines) != 0 {
		t.Errorf("expected empty cart after checkout, got %v", body["lines"])
	}

	rec, body = e.do(t, http.MethodGet, "/api/v1/account", buyer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get account: expected 200, got %d", rec.Code)
	}
	if balance, _ := body["balance"].(string); balance != "70" {
		t.Errorf("expected balance 70 after checkout, got %v", body["balance"])
	}

	rec, body = e.do(t, http.MethodGet, "/api/v1/orders/"+orderID, buyer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get order: expected 200, got %d", rec.Code)
	}
	if status, _ := body["status"].(string); status != "pending" {
		t.Errorf("expected pending order, got %v", body["status"])
	}

	if len(e.events.Orders) != 1 {
		t.Errorf("expected one published order event, got %d", len(e.events.Orders))
	}
}

func TestCheckoutInsufficientStock(t *testing.T) {
	e := newEnv(t)
	e.seedItem(t, "waf1", "1.00", 2)
	buyer := e.token(t, "buyer@campus.edu", false)

	rec, _ := e.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]any{
		"email": "buyer@campus.edu", "password": "hunter22", "name": "Buyer",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d", rec.Code)
	}

	// The cart clamps to the stock snapshot, so bypass it: shrink stock after
	// the line is added.
	rec, _ = e.do(t, http.MethodPost, "/api/v1/cart/items", buyer, map[string]any{"item_id": "waf1", "quantity": 2})
	if rec.Code != http.StatusOK {
		t.Fatalf("add to cart: expected 200, got %d", rec.Code)
	}
	item, err := e.store.Items().GetByID(context.Background(), "waf1")
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	item.Stock = 1
	if err := e.store.Items().Put(context.Background(), item); err != nil {
		t.Fatalf("shrink stock: %v", err)
	}

	rec, body := e.do(t, http.MethodPost, "/api/v1/checkout", buyer, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d (%v)", rec.Code, body)
	}
	if code, _ := body["code"].(string); code != "insufficient_stock" {
		t.Errorf("expected code insufficient_stock, got %v", body["code"])
	}
	if available, _ := body["available"].(float64); available != 1 {
		t.Errorf("expected available 1, got %v", body["available"])
	}

	// The cart survives the refusal.
	rec, body = e.do(t, http.MethodGet, "/api/v1/cart", buyer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get cart: expected 200, got %d", rec.Code)
	}
	if lines, _ := body["lines"].([]any); len(lines) != 1 {
		t.Errorf("expected cart to survive refused checkout, got %v", body["lines"])
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	e := newEnv(t)
	buyer := e.token(t, "buyer@campus.edu", false)

	rec, _ := e.do(t, http.MethodPost, "/api/v1/checkout", buyer, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty cart, got %d", rec.Code)
	}
}

func TestOrdersArePrivateToOwner(t *testing.T) {
	e := newEnv(t)
	e.seedItem(t, "waf1", "1.00", 5)
	alice := e.token(t, "alice@campus.edu", false)
	bob := e.token(t, "bob@campus.edu", false)
	admin := e.token(t, "admin@campus.edu", true)

	for _, email := range []string{"alice@campus.edu", "bob@campus.edu"} {
		rec, _ := e.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]any{
			"email": email, "password": "hunter22", "name": "User",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("signup %s: expected 201, got %d", email, rec.Code)
		}
	}

	rec, _ := e.do(t, http.MethodPost, "/api/v1/cart/items", alice, map[string]any{"item_id": "waf1", "quantity": 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("add to cart: expected 200, got %d", rec.Code)
	}
	rec, body := e.do(t, http.MethodPost, "/api/v1/checkout", alice, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("checkout: expected 201, got %d", rec.Code)
	}
	orderID, _ := body["id"].(string)

	rec, _ = e.do(t, http.MethodGet, "/api/v1/orders/"+orderID, bob, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign order: expected 404, got %d", rec.Code)
	}

	rec, _ = e.do(t, http.MethodGet, "/api/v1/orders/"+orderID, admin, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("admin read: expected 200, got %d", rec.Code)
	}

	_, body = e.do(t, http.MethodGet, "/api/v1/orders", bob, nil)
	if orders, _ := body["orders"].([]any); len(orders) != 0 {
		t.Errorf("expected bob to have no orders, got %v", body["orders"])
	}
}

func TestUnknownCategoryRejected(t *testing.T) {
	e := newEnv(t)
	buyer := e.token(t, "buyer@campus.edu", false)

	rec, _ := e.do(t, http.MethodGet, "/api/v1/items?category=rockets", buyer, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown category, got %d", rec.Code)
	}
}

func TestGetMissingItem(t *testing.T) {
	e := newEnv(t)
	buyer := e.token(t, "buyer@campus.edu", false)

	rec, body := e.do(t, http.MethodGet, "/api/v1/items/ghost", buyer, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if code, _ := body["code"].(string); code != "item_not_found" {
		t.Errorf("expected code item_not_found, got %v", body["code"])
	}
}
