package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coinshop/internal/catalog"
	"coinshop/internal/config"
	"coinshop/internal/model"
	"coinshop/internal/repository/memory"
	"coinshop/internal/service"
	"coinshop/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router     *gin.Engine
	jwtService *jwt.Service
	ledger     *service.LedgerService
	orders     *memory.OrderStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Business: config.BusinessConfig{StartingBalance: 2, GenerationCost: 1},
		Kafka:    config.KafkaConfig{Topic: config.KafkaTopicConfig{PaymentResult: "test.payment.result"}},
	}

	accounts := memory.NewAccountStore()
	transactions := memory.NewTransactionStore()
	orders := memory.NewOrderStore()
	outbox := memory.NewOutboxStore()

	cat := catalog.NewDefaultCatalog()
	ledgerService := service.NewLedgerService(accounts, transactions, cfg)
	orderService := service.NewOrderService(orders, cat)
	paymentService := service.NewPaymentService(orders, outbox, ledgerService, memory.NewLocker(), cfg)

	jwtService := jwt.NewService("test-secret", time.Hour)

	h := NewHandler(ledgerService, orderService, paymentService, cat)

	r := gin.New()
	api := r.Group("/api/v1")
	{
		account := api.Group("/account", AuthMiddleware(jwtService))
		{
			account.GET("/balance", h.GetBalance)
			account.GET("/credit-history", h.GetCreditHistory)
		}
		generation := api.Group("/generation", AuthMiddleware(jwtService))
		{
			generation.POST("/charge", h.ChargeGeneration)
		}
		payment := api.Group("/payment")
		{
			payment.GET("/products", h.ListProducts)
			payment.POST("/create-order", AuthMiddleware(jwtService), h.CreateOrder)
			payment.POST("/confirm", h.ConfirmPayment)
		}
		order := api.Group("/order", AuthMiddleware(jwtService))
		{
			order.GET("/detail", h.GetOrder)
			order.GET("/list", h.ListOrders)
		}
	}

	return &testEnv{
		router:     r,
		jwtService: jwtService,
		ledger:     ledgerService,
		orders:     orders,
	}
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := e.jwtService.GenerateToken(userID)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCreateOrder_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/payment/create-order", "", gin.H{"product_id": "coin_50"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateOrder_IgnoresForgedAmount(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "user-1")

	// a tampering client claims the package costs 1 won and grants 99999
	// coins; the catalog decides both
	w := env.do(t, http.MethodPost, "/api/v1/payment/create-order", token, gin.H{
		"product_id": "coin_50",
		"amount":     1,
		"price":      1,
		"coins":      99999,
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(8900), data["amount"])
	assert.Equal(t, float64(55), data["coins"])
	assert.NotEmpty(t, data["order_id"])
}

func TestCreateOrder_UserIDMismatch(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "user-1")

	w := env.do(t, http.MethodPost, "/api/v1/payment/create-order", token, gin.H{
		"product_id": "coin_50",
		"user_id":    "someone-else",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "user-1")

	w := env.do(t, http.MethodPost, "/api/v1/payment/create-order", token, gin.H{
		"product_id": "coin_777",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, env.orders.Len())
}

func TestCreateOrder_MissingProduct(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "user-1")

	w := env.do(t, http.MethodPost, "/api/v1/payment/create-order", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreditHistory_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/account/credit-history", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/account/credit-history", "not-a-real-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreditHistory_ReturnsLedgerRows(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "user-1")

	_, err := env.ledger.Add(context.Background(), "user-1", 55, model.TransactionTypePurchase, "order-1", "코인 구매")
	require.NoError(t, err)

	w := env.do(t, http.MethodGet, "/api/v1/account/credit-history?limit=10&offset=0", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total"])
}

func TestGetBalance_LazyInit(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "user-1")

	w := env.do(t, http.MethodGet, "/api/v1/account/balance", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["balance"]) // starting balance from config
}

func TestChargeGeneration_InsufficientBalanceIsBusinessOutcome(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "user-1")

	// starting balance is 2, cost is 1: two charges pass, the third is a
	// business outcome with HTTP 200 and code 1003
	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodPost, "/api/v1/generation/charge", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, float64(0), body["code"])
	}

	w := env.do(t, http.MethodPost, "/api/v1/generation/charge", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(1003), body["code"])
}

func TestConfirmPayment_EndToEnd(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "user-1")

	w := env.do(t, http.MethodPost, "/api/v1/payment/create-order", token, gin.H{"product_id": "coin_50"})
	require.Equal(t, http.StatusOK, w.Code)
	orderID := decode(t, w)["data"].(map[string]interface{})["order_id"].(string)

	w = env.do(t, http.MethodPost, "/api/v1/payment/confirm", "", gin.H{"order_id": orderID, "result": "paid"})
	require.Equal(t, http.StatusOK, w.Code)

	// balance: 2 starting + 55 purchased
	w = env.do(t, http.MethodGet, "/api/v1/account/balance", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(57), data["balance"])
}

func TestConfirmPayment_UnknownOrder(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/payment/confirm", "", gin.H{"order_id": "nope", "result": "paid"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfirmPayment_BadResult(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/payment/confirm", "", gin.H{"order_id": "x", "result": "maybe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetOrder_OwnershipEnforced(t *testing.T) {
	env := newTestEnv(t)
	ownerToken := env.token(t, "user-1")
	otherToken := env.token(t, "user-2")

	w := env.do(t, http.MethodPost, "/api/v1/payment/create-order", ownerToken, gin.H{"product_id": "coin_10"})
	require.Equal(t, http.StatusOK, w.Code)
	orderID := decode(t, w)["data"].(map[string]interface{})["order_id"].(string)

	w = env.do(t, http.MethodGet, "/api/v1/order/detail?order_id="+orderID, ownerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/order/detail?order_id="+orderID, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListProducts_Public(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/payment/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	list := body["data"].(map[string]interface{})["list"].([]interface{})
	assert.Len(t, list, len(catalog.DefaultProducts))
}
