package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mysnackdev/mysnack-storefront/internal/domain"
)

type cartResponse struct {
	Items      []domain.CartItem `json:"items"`
	TotalCents int64             `json:"totalCents"`
	TotalQty   int               `json:"totalQty"`
}

func toCartResponse(cart domain.Cart) cartResponse {
	items := cart.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	return cartResponse{
		Items:      items,
		TotalCents: cart.TotalCents(),
		TotalQty:   cart.TotalQty(),
	}
}

func getCartHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := carts.Read(c.Request.Context(), c.GetString(ctxDeviceID))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read cart"})
			return
		}
		c.JSON(http.StatusOK, toCartResponse(cart))
	}
}

type addItemsRequest struct {
	Items []domain.CartItem `json:"items" binding:"required"`
}

func addCartItemsHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addItemsRequest
		if err := c.ShouldBindJSON(&req); err != nil || len(req.Items) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "items is required"})
			return
		}
		for _, it := range req.Items {
			if it.ID == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "item id is required"})
				return
			}
		}
		cart, err := carts.Add(c.Request.Context(), c.GetString(ctxDeviceID), req.Items)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update cart"})
			return
		}
		c.JSON(http.StatusOK, toCartResponse(cart))
	}
}

type setQtyRequest struct {
	Qty *int `json:"qty" binding:"required"`
}

func setCartQtyHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req setQtyRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Qty == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "qty is required"})
			return
		}
		cart, err := carts.SetQty(c.Request.Context(), c.GetString(ctxDeviceID), c.Param("id"), *req.Qty)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update cart"})
			return
		}
		c.JSON(http.StatusOK, toCartResponse(cart))
	}
}

func removeCartItemHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := carts.Remove(c.Request.Context(), c.GetString(ctxDeviceID), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update cart"})
			return
		}
		c.JSON(http.StatusOK, toCartResponse(cart))
	}
}

func clearCartHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := carts.Clear(c.Request.Context(), c.GetString(ctxDeviceID)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not clear cart"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func getCartMetaHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		meta, err := carts.Meta(c.Request.Context(), c.GetString(ctxDeviceID))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read cart meta"})
			return
		}
		c.JSON(http.StatusOK, meta)
	}
}

func setCartMetaHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var meta domain.CartMeta
		if err := c.ShouldBindJSON(&meta); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cart meta"})
			return
		}
		if err := carts.SetMeta(c.Request.Context(), c.GetString(ctxDeviceID), meta); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save cart meta"})
			return
		}
		c.JSON(http.StatusOK, meta)
	}
}
