package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-agent-orderdesk/internal/action"
	"github.com/imrishuroy/go-agent-orderdesk/internal/orders"
	"github.com/imrishuroy/go-agent-orderdesk/internal/returns"
	"github.com/imrishuroy/go-agent-orderdesk/internal/validation"
)

// Action groups and the functions the agent can call in them.
const (
	OrderActionGroup  = "order-action-group"
	ReturnActionGroup = "return-refund-action-group"

	FuncTrackOrder     = "retrieve-order-tracking-info"
	FuncCancelOrder    = "cancel-order"
	FuncPlaceOrder     = "place-order"
	FuncInitiateReturn = "initiate-return"
	FuncProcessRefund  = "process-refund"
)

// RegisterOrderActions wires the order action group onto r.
func RegisterOrderActions(r *action.Router, svc *orders.Service) {
	r.Handle(OrderActionGroup, FuncTrackOrder, func(ctx context.Context, ev action.Event) string {
		return svc.TrackText(ctx, ev.Param("order_id"))
	})
	r.Handle(OrderActionGroup, FuncCancelOrder, func(ctx context.Context, ev action.Event) string {
		return svc.CancelText(ctx, ev.Param("order_id"))
	})
	r.Handle(OrderActionGroup, FuncPlaceOrder, func(ctx context.Context, ev action.Event) string {
		return svc.PlaceText(ctx, validation.PlaceOrderRequest{
			ProductName:     ev.Param("product_name"),
			Name:            ev.ParamOrSession("name", "customer_name"),
			Quantity:        ev.ParamOr("quantity", "1"),
			ShippingAddress: ev.ParamOrSession("shipping_address", "shipping_address"),
			PaymentMethod:   ev.ParamOrSession("payment_method", "payment_method"),
		})
	})
}

// RegisterReturnActions wires the return-refund action group onto r.
func RegisterReturnActions(r *action.Router, svc *returns.Service) {
	r.Handle(ReturnActionGroup, FuncInitiateReturn, func(ctx context.Context, ev action.Event) string {
		return svc.InitiateReturn(ctx, ev.Param("order_id"), ev.Param("reason"))
	})
	r.Handle(ReturnActionGroup, FuncProcessRefund, func(ctx context.Context, ev action.Event) string {
		return svc.ProcessRefund(ctx, ev.Param("order_id"))
	})
}

// RegisterActionRoutes exposes the agent contract over HTTP, for local testing without an agent.
func RegisterActionRoutes(r gin.IRouter, router *action.Router) {
	r.POST("/actions", func(c *gin.Context) {
		var ev action.Event
		if err := c.ShouldBindJSON(&ev); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body", "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, router.Dispatch(c.Request.Context(), ev))
	})
}
