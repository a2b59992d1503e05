package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mysnackdev/mysnack-storefront/internal/table"
)

type tableQRRequest struct {
	Payload string `json:"payload" binding:"required"`
}

func tableQRHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req tableQRRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "payload is required"})
			return
		}
		t, err := table.ParseQRPayload(req.Payload)
		if err != nil {
			if errors.Is(err, table.ErrUnparsable) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not read table from QR code"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resolve table"})
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

type tableBypassRequest struct {
	StoreID string `json:"storeId" binding:"required"`
}

func tableBypassHandler(tables TableService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req tableBypassRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "storeId is required"})
			return
		}
		t, err := tables.ResolveBypass(c.Request.Context(), req.StoreID)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "could not resolve table"})
			return
		}
		c.JSON(http.StatusOK, t)
	}
}
