package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mysnackdev/mysnack-storefront/internal/checkout"
	"github.com/mysnackdev/mysnack-storefront/internal/domain"
)

type startCheckoutRequest struct {
	StoreID string `json:"storeId"`
	Nome    string `json:"nome"`
}

func startCheckoutHandler(checkouts CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req startCheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		uid := c.GetString(ctxUserID)
		if uid == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing X-User-ID header"})
			return
		}
		nome := req.Nome
		if nome == "" {
			nome = c.GetString(ctxUserName)
		}
		w := checkouts.Start(c.Request.Context(), c.GetString(ctxDeviceID), uid, nome, req.StoreID)
		c.JSON(http.StatusCreated, w.State())
	}
}

func getCheckoutHandler(checkouts CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, err := checkouts.Get(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "checkout not found"})
			return
		}
		c.JSON(http.StatusOK, w.State())
	}
}

func checkoutSelectTableHandler(checkouts CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, err := checkouts.Get(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "checkout not found"})
			return
		}
		var table domain.Table
		if err := c.ShouldBindJSON(&table); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid table"})
			return
		}
		if err := w.SetTable(table); err != nil {
			writeCheckoutError(c, err)
			return
		}
		c.JSON(http.StatusOK, w.State())
	}
}

type selectPaymentRequest struct {
	Method string `json:"method" binding:"required"`
	CardID string `json:"cardId"`
}

func checkoutSelectPaymentHandler(checkouts CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, err := checkouts.Get(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "checkout not found"})
			return
		}
		var req selectPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "method is required"})
			return
		}
		if err := w.SelectPayment(req.Method, req.CardID); err != nil {
			writeCheckoutError(c, err)
			return
		}
		c.JSON(http.StatusOK, w.State())
	}
}

func checkoutAdvanceHandler(checkouts CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, err := checkouts.Get(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "checkout not found"})
			return
		}
		if _, err := w.Advance(c.Request.Context()); err != nil {
			writeCheckoutError(c, err)
			return
		}
		c.JSON(http.StatusOK, w.State())
	}
}

func checkoutCancelHandler(checkouts CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, err := checkouts.Get(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "checkout not found"})
			return
		}
		if err := w.Cancel(); err != nil {
			writeCheckoutError(c, err)
			return
		}
		checkouts.Remove(w.ID)
		c.JSON(http.StatusOK, w.State())
	}
}

// writeCheckoutError maps wizard errors to HTTP statuses. Upstream order
// creation failures keep their message so the caller can show it as-is.
func writeCheckoutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, checkout.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrNoTable),
		errors.Is(err, checkout.ErrNoPaymentMethod),
		errors.Is(err, checkout.ErrNoCardSelected),
		errors.Is(err, checkout.ErrUnknownPaymentMethod):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
