package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mysnackdev/mysnack-storefront/internal/domain"
)

func listStoresHandler(catalog CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stores, err := catalog.Stores(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "catalog unavailable"})
			return
		}
		if stores == nil {
			stores = []domain.Store{}
		}
		c.JSON(http.StatusOK, gin.H{"stores": stores})
	}
}

func nearbyStoresHandler(catalog CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
		lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
		if errLat != nil || errLng != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng are required"})
			return
		}
		radiusKm := 10.0
		if v := c.Query("radiusKm"); v != "" {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil || parsed <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "radiusKm must be a positive number"})
				return
			}
			radiusKm = parsed
		}
		stores, err := catalog.Nearby(c.Request.Context(), lat, lng, radiusKm)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "catalog unavailable"})
			return
		}
		if stores == nil {
			stores = []domain.Store{}
		}
		c.JSON(http.StatusOK, gin.H{"stores": stores})
	}
}

func storeMenuHandler(catalog CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := catalog.Menu(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "menu unavailable"})
			return
		}
		if items == nil {
			items = []domain.MenuItem{}
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}
