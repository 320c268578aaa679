package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-agent-orderdesk/internal/returns"
	"github.com/imrishuroy/go-agent-orderdesk/internal/validation"
)

// RegisterReturnsRoutes registers the return/refund routes over the demo dataset.
func RegisterReturnsRoutes(r gin.IRouter, svc *returns.Service, v *validatorv10.Validate) {
	r.GET("/returns/:id", func(c *gin.Context) {
		id := c.Param("id")
		o, ok := svc.Lookup(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"message": fmt.Sprintf("No order found with ID %s", id)})
			return
		}
		c.JSON(http.StatusOK, o)
	})

	r.POST("/returns/:id", func(c *gin.Context) {
		var req validation.InitiateReturnRequest
		if c.Request.ContentLength != 0 {
			if err := validation.BindAndValidate(c, &req, v); err != nil {
				// BindAndValidate already wrote a 400
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"message": svc.InitiateReturn(c.Request.Context(), c.Param("id"), req.Reason)})
	})

	r.POST("/returns/:id/refund", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": svc.ProcessRefund(c.Request.Context(), c.Param("id"))})
	})
}
