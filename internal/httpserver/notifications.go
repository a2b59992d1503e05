package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func listNotificationsHandler(mirrors MirrorHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := mirrors.Notifications(c.GetString(ctxUserID))
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "notifications unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"notifications": m.Snapshot(),
			"unread":        m.Unread(),
		})
	}
}

func markNotificationsReadHandler(mirrors MirrorHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := mirrors.Notifications(c.GetString(ctxUserID))
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "notifications unavailable"})
			return
		}
		if err := m.MarkAllRead(c.Request.Context()); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "could not mark notifications read"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"unread": 0})
	}
}
