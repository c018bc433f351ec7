package handler

import (
	"errors"
	"strconv"

	"coinshop/internal/catalog"
	"coinshop/internal/model"
	"coinshop/internal/repository"
	"coinshop/internal/service"
	"coinshop/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	ledgerService  *service.LedgerService
	orderService   *service.OrderService
	paymentService *service.PaymentService
	catalog        catalog.Catalog
}

func NewHandler(ledgerService *service.LedgerService, orderService *service.OrderService, paymentService *service.PaymentService, cat catalog.Catalog) *Handler {
	return &Handler{
		ledgerService:  ledgerService,
		orderService:   orderService,
		paymentService: paymentService,
		catalog:        cat,
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// ============================================================
// account
// ============================================================

// GetBalance
// GET /api/v1/account/balance
func (h *Handler) GetBalance(c *gin.Context) {
	userID := currentUserID(c)

	account, err := h.ledgerService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		response.ServerError(c, "failed to load account")
		return
	}

	response.Success(c, gin.H{
		"user_id":    account.UserID,
		"balance":    account.Balance,
		"updated_at": account.UpdatedAt,
	})
}

// GetCreditHistory returns the paginated ledger for the authenticated user.
// GET /api/v1/account/credit-history?limit=20&offset=0
func (h *Handler) GetCreditHistory(c *gin.Context) {
	userID := currentUserID(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	transactions, total, err := h.ledgerService.GetCreditHistory(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.ServerError(c, "failed to load credit history")
		return
	}

	response.Success(c, gin.H{
		"list":   transactions,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// ============================================================
// generation
// ============================================================

// ChargeGeneration deducts the per-generation cost. Insufficient balance is a
// business outcome (code 1003) so the client can prompt a purchase instead of
// showing a failure.
// POST /api/v1/generation/charge
func (h *Handler) ChargeGeneration(c *gin.Context) {
	userID := currentUserID(c)

	charged, err := h.ledgerService.ChargeGeneration(c.Request.Context(), userID)
	if err != nil {
		response.ServerError(c, "failed to charge generation")
		return
	}

	if !charged {
		response.BusinessError(c, response.CodeBalanceNotEnough, "insufficient balance")
		return
	}

	account, err := h.ledgerService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		response.ServerError(c, "failed to load account")
		return
	}

	response.Success(c, gin.H{
		"charged": true,
		"balance": account.Balance,
	})
}

// ============================================================
// catalog
// ============================================================

// ListProducts
// GET /api/v1/payment/products
func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListActiveProducts(c.Request.Context())
	if err != nil {
		response.ServerError(c, "failed to load products")
		return
	}

	response.Success(c, gin.H{"list": products})
}

// ============================================================
// order / payment
// ============================================================

// CreateOrderRequest carries the requested package. Any price or coin fields
// a client sends are not part of this struct and are dropped by binding; the
// catalog alone decides the amounts.
type CreateOrderRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	UserID    string `json:"user_id"` // optional, must match the token subject when present
}

// CreateOrder creates a pending order for handoff to the payment gateway.
// POST /api/v1/payment/create-order
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request body: "+err.Error())
		return
	}

	userID := currentUserID(c)
	if req.UserID != "" && req.UserID != userID {
		response.Forbidden(c, "user_id does not match the authenticated user")
		return
	}

	result, err := h.orderService.CreateOrder(c.Request.Context(), userID, req.ProductID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrInvalidProduct):
			response.Error(c, 400, response.CodeInvalidProduct, "unknown or inactive product")
		default:
			response.ServerError(c, "failed to create order")
		}
		return
	}

	response.Success(c, result)
}

// ConfirmPaymentRequest is the gateway callback body.
type ConfirmPaymentRequest struct {
	OrderID string `json:"order_id" binding:"required"`
	Result  string `json:"result" binding:"required"` // "paid" or "failed"
}

// ConfirmPayment applies the gateway verdict. Safe to call more than once
// per order.
// POST /api/v1/payment/confirm
func (h *Handler) ConfirmPayment(c *gin.Context) {
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request body: "+err.Error())
		return
	}

	var (
		result *service.ConfirmResult
		err    error
	)

	switch req.Result {
	case "paid":
		result, err = h.paymentService.ConfirmPayment(c.Request.Context(), req.OrderID)
	case "failed":
		result, err = h.paymentService.FailPayment(c.Request.Context(), req.OrderID)
	default:
		response.ParamError(c, "result must be paid or failed")
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			response.Error(c, 404, response.CodeOrderNotFound, "order not found")
		case errors.Is(err, service.ErrOrderNotConfirmable):
			response.Error(c, 400, response.CodeOrderStatusInvalid, "order is not confirmable")
		default:
			response.ServerError(c, "failed to process payment result")
		}
		return
	}

	response.Success(c, result)
}

// GetOrder
// GET /api/v1/order/detail?order_id=xxx
func (h *Handler) GetOrder(c *gin.Context) {
	orderID := c.Query("order_id")
	if orderID == "" {
		response.ParamError(c, "order_id is required")
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			response.Error(c, 404, response.CodeOrderNotFound, "order not found")
			return
		}
		response.ServerError(c, "failed to load order")
		return
	}

	if order.UserID != currentUserID(c) {
		response.Forbidden(c, "not your order")
		return
	}

	response.Success(c, order)
}

// ListOrders
// GET /api/v1/order/list?limit=20&offset=0
func (h *Handler) ListOrders(c *gin.Context) {
	userID := currentUserID(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	orders, total, err := h.orderService.ListUserOrders(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.ServerError(c, "failed to load orders")
		return
	}

	if orders == nil {
		orders = []*model.Order{}
	}

	response.Success(c, gin.H{
		"list":   orders,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}
