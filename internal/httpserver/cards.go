package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mysnackdev/mysnack-storefront/internal/domain"
)

func listCardsHandler(cards CardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := cards.ListCards(c.Request.Context(), c.GetString(ctxUserID))
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "could not list cards"})
			return
		}
		if list == nil {
			list = []domain.UserCard{}
		}
		c.JSON(http.StatusOK, gin.H{"cards": list})
	}
}
