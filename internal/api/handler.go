package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"commerce-service/internal/models"
	"commerce-service/internal/provider"
	"commerce-service/internal/service"
	"commerce-service/internal/util"
)

// Handler contains HTTP handlers
type Handler struct {
	wallet      *service.WalletService
	checkout    *service.CheckoutService
	webhooks    *service.WebhookProcessor
	fulfillment *service.FulfillmentEngine
	payouts     *service.PayoutService
	orders      *service.OrderService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	wallet *service.WalletService,
	checkout *service.CheckoutService,
	webhooks *service.WebhookProcessor,
	fulfillment *service.FulfillmentEngine,
	payouts *service.PayoutService,
	orders *service.OrderService,
) *Handler {
	return &Handler{
		wallet:      wallet,
		checkout:    checkout,
		webhooks:    webhooks,
		fulfillment: fulfillment,
		payouts:     payouts,
		orders:      orders,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/webhooks/payment", h.paymentWebhook)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/checkout", h.createCheckout)
		v1.GET("/wallets/:userId", h.getWalletBalance)
		v1.GET("/wallets/:userId/transactions", h.getWalletTransactions)
		v1.GET("/users/:id/orders", h.listBuyerOrders)
		v1.GET("/orders/:id", h.getOrder)
		v1.POST("/orders/:id/sync-fulfillment", h.syncFulfillment)
		v1.POST("/orders/:id/cancel-printing", h.cancelPrinting)
		v1.POST("/creators/:id/payout", h.triggerPayout)
		v1.POST("/creators/:id/onboarding-link", h.createOnboardingLink)
		v1.GET("/payouts/:id", h.getPayout)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// CheckoutRequest selects either a marketplace listing or a credit package
type CheckoutRequest struct {
	UserID    int64  `json:"user_id" binding:"required"`
	Target    string `json:"target" binding:"required,oneof=listing credits"`
	ListingID int64  `json:"listing_id,omitempty"`
	EditionID int64  `json:"edition_id,omitempty"`
	PackageID int64  `json:"package_id,omitempty"`
	Locale    string `json:"locale,omitempty"`
}

// createCheckout starts a hosted payment session
func (h *Handler) createCheckout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	var resp *service.CheckoutResponse
	var err error

	switch req.Target {
	case "listing":
		resp, err = h.checkout.CreateListingCheckout(c.Request.Context(), req.UserID, req.ListingID, req.EditionID, req.Locale)
	case "credits":
		resp, err = h.checkout.CreateCreditCheckout(c.Request.Context(), req.UserID, req.PackageID, req.Locale)
	}

	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrNotPurchasable) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": "Checkout rejected", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// paymentWebhook processes checkout-completed deliveries. The response is
// always 200 so the provider stops retrying; the body carries the business
// outcome.
func (h *Handler) paymentWebhook(c *gin.Context) {
	var event provider.CheckoutCompletedEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid webhook payload",
			"details": err.Error(),
		})
		return
	}

	result := h.webhooks.HandleCheckoutCompleted(c.Request.Context(), &event)
	c.JSON(http.StatusOK, result)
}

// getWalletBalance returns (and lazily initializes) a user's wallet
func (h *Handler) getWalletBalance(c *gin.Context) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}

	balance, err := h.wallet.GetBalance(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load wallet", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, balance)
}

// getWalletTransactions returns the user's ledger, newest first
func (h *Handler) getWalletTransactions(c *gin.Context) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := h.wallet.GetTransactionHistory(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load transactions", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": entries})
}

// triggerPayout batches a creator's available earnings into one transfer
func (h *Handler) triggerPayout(c *gin.Context) {
	creatorID, ok := parseID(c, "id")
	if !ok {
		return
	}

	payout, err := h.payouts.ProcessCreatorPayout(c.Request.Context(), creatorID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrPayoutNotConfigured):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Payout account missing or not onboarded"})
		case errors.Is(err, models.ErrNoAvailableEarnings):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No available earnings"})
		case errors.Is(err, models.ErrPayoutLocked):
			c.JSON(http.StatusConflict, gin.H{"error": "Payout already in progress"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "Payout failed", "details": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, payout)
}

// getOrder returns an order with its items and print jobs
func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	detail, err := h.orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load order", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, detail)
}

// listBuyerOrders returns a buyer's orders, newest first
func (h *Handler) listBuyerOrders(c *gin.Context) {
	buyerID, ok := parseID(c, "id")
	if !ok {
		return
	}

	orders, err := h.orders.ListBuyerOrders(c.Request.Context(), buyerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load orders", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// cancelPrinting cancels an order's print jobs that have not shipped
func (h *Handler) cancelPrinting(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	cancelled, err := h.fulfillment.CancelOrderPrintJobs(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, models.ErrPrintUnavailable) {
			c.JSON(http.StatusConflict, gin.H{"error": "Print provider not configured", "cancelled": cancelled})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Cancel failed", "details": err.Error(), "cancelled": cancelled})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cancelled": cancelled})
}

// getPayout returns a payout and the earnings it settled
func (h *Handler) getPayout(c *gin.Context) {
	payoutID, ok := parseID(c, "id")
	if !ok {
		return
	}

	detail, err := h.payouts.GetPayout(c.Request.Context(), payoutID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Payout not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payout", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, detail)
}

// createOnboardingLink mints a provider onboarding URL for a creator's payout
// account
func (h *Handler) createOnboardingLink(c *gin.Context) {
	creatorID, ok := parseID(c, "id")
	if !ok {
		return
	}

	url, err := h.payouts.CreateOnboardingLink(c.Request.Context(), creatorID)
	if err != nil {
		if errors.Is(err, models.ErrPayoutNotConfigured) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No payout account on file"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create onboarding link", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": url})
}

// syncFulfillment polls the print provider for an order's open jobs
func (h *Handler) syncFulfillment(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.fulfillment.SyncPrintJobStatus(c.Request.Context(), orderID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sync failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "synced"})
}

func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return id, true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
