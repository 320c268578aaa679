package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-agent-orderdesk/internal/idempotency"
	"github.com/imrishuroy/go-agent-orderdesk/internal/orders"
	"github.com/imrishuroy/go-agent-orderdesk/internal/validation"
)

// IdempotencyKeyHeader makes POST /orders safe to retry.
const IdempotencyKeyHeader = "Idempotency-Key"

// HandlerConfig groups dependencies for the orders handler.
type HandlerConfig struct {
	Orders *orders.Service
	// Idempotency may be nil, in which case the Idempotency-Key header is ignored.
	Idempotency *idempotency.Store
	Logger      *zap.Logger
}

type ordersHandler struct {
	svc    *orders.Service
	idem   *idempotency.Store
	logger *zap.Logger
}

// createdResponse is the body of a successful POST /orders, stored verbatim for replays.
type createdResponse struct {
	Message string        `json:"message"`
	Order   *orders.Order `json:"order"`
}

// RegisterOrdersRoutes registers routes for order API.
func RegisterOrdersRoutes(r gin.IRouter, cfg HandlerConfig) {
	h := &ordersHandler{svc: cfg.Orders, idem: cfg.Idempotency, logger: cfg.Logger}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}

	r.GET("/orders/:id", h.get)
	r.POST("/orders", h.create)
	r.POST("/orders/:id/cancel", h.cancel)
}

func (h *ordersHandler) get(c *gin.Context) {
	id := c.Param("id")
	o, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get order failed", zap.String("order_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get_order_failed"})
		return
	}
	if o == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": fmt.Sprintf("Order %s not found.", id)})
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *ordersHandler) cancel(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": h.svc.CancelText(c.Request.Context(), c.Param("id"))})
}

func (h *ordersHandler) create(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body", "msg": err.Error()})
		return
	}
	var req validation.PlaceOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body", "msg": err.Error()})
		return
	}

	key := c.GetHeader(IdempotencyKeyHeader)
	if key == "" || h.idem == nil {
		o, err := h.svc.PlaceOrder(c.Request.Context(), req)
		h.writePlaced(c, o, err)
		return
	}
	h.createIdempotent(c, key, idempotency.Fingerprint(body), req)
}

// createIdempotent places the order at most once per key. The first request writes the order and
// the IN_PROGRESS record in one transaction; duplicates replay the stored response. A failed
// transaction writes neither, so the client may retry with the same key.
func (h *ordersHandler) createIdempotent(c *gin.Context, key, fingerprint string, req validation.PlaceOrderRequest) {
	ctx := c.Request.Context()
	log := h.logger.With(zap.String("idempotency_key", key))

	rec, err := h.idem.Get(ctx, key)
	if err != nil {
		log.Error("idempotency lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed"})
		return
	}

	if rec != nil {
		h.replay(c, rec, fingerprint)
		return
	}

	o, err := h.svc.PlaceOrderClaimed(ctx, req, func(orderID string) (types.Put, error) {
		return h.idem.ClaimPut(key, fingerprint, orderID)
	})
	if errors.Is(err, orders.ErrClaimConflict) {
		// lost the race to a concurrent request with the same key
		if rec, err = h.idem.Get(ctx, key); err != nil || rec == nil {
			log.Error("idempotency record vanished after conflict", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed"})
			return
		}
		h.replay(c, rec, fingerprint)
		return
	}
	if err == nil {
		h.complete(c, key, o)
	}
	h.writePlaced(c, o, err)
}

func (h *ordersHandler) replay(c *gin.Context, rec *idempotency.Record, fingerprint string) {
	if rec.Fingerprint != fingerprint {
		keyReused(c)
		return
	}
	switch rec.Status {
	case idempotency.StatusDone:
		if rec.ResponseBody != "" {
			c.Data(rec.ResponseStatus, "application/json; charset=utf-8", []byte(rec.ResponseBody))
			return
		}
		c.JSON(http.StatusOK, gin.H{"order_id": rec.OrderID})
	case idempotency.StatusInProgress:
		c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress", "order_id": rec.OrderID})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unknown_idempotency_status"})
	}
}

func keyReused(c *gin.Context) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "idempotency_key_reused", "msg": "Idempotency-Key was used with a different request body"})
}

// complete stores the success response for replays. A failure here leaves the record
// IN_PROGRESS, which duplicates see as 202 until it expires.
func (h *ordersHandler) complete(c *gin.Context, key string, o *orders.Order) {
	body, err := json.Marshal(createdResponse{Message: orders.ConfirmationText(o), Order: o})
	if err != nil {
		h.logger.Warn("marshal stored response", zap.Error(err))
		return
	}
	if err := h.idem.Complete(c.Request.Context(), key, o.OrderID, string(body), http.StatusCreated); err != nil {
		h.logger.Warn("mark idempotency done", zap.String("idempotency_key", key), zap.Error(err))
	}
}

func (h *ordersHandler) writePlaced(c *gin.Context, o *orders.Order, err error) {
	switch {
	case err == nil:
		c.Header("Location", fmt.Sprintf("/orders/%s", o.OrderID))
		c.JSON(http.StatusCreated, createdResponse{Message: orders.ConfirmationText(o), Order: o})
	case errors.Is(err, orders.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation_failed",
			"fields": validation.FieldErrors(err),
		})
	default:
		h.logger.Error("place order failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": orders.TextPlaceOrderFailed})
	}
}
