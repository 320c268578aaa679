package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-agent-orderdesk/internal/action"
	"github.com/imrishuroy/go-agent-orderdesk/internal/dynamotest"
	"github.com/imrishuroy/go-agent-orderdesk/internal/orders"
	"github.com/imrishuroy/go-agent-orderdesk/internal/returns"
)

func TestSetupRouter_Health(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := services{
		orders:  orders.NewService(orders.NewStore(dynamotest.NewTable(orders.PartitionKey), "orders"), nil, nil),
		returns: returns.NewService(returns.NewDemoStore(), nil),
		actions: action.NewRouter(nil),
	}
	r := setupRouter(svc, zap.NewNop())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	// no idempotency store configured: the header is ignored
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/returns/ORD11111", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
