package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type sessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	DeviceID     string `json:"device_id"`
}

func issueSessionHandler(sessions SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		access, refresh, deviceID, err := sessions.Issue(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue session"})
			return
		}
		c.JSON(http.StatusOK, sessionResponse{
			AccessToken:  access,
			RefreshToken: refresh,
			TokenType:    "Bearer",
			ExpiresIn:    sessions.AccessTTLSeconds(),
			DeviceID:     deviceID,
		})
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func refreshSessionHandler(sessions SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token is required"})
			return
		}
		access, deviceID, err := sessions.Refresh(c.Request.Context(), req.RefreshToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.JSON(http.StatusOK, sessionResponse{
			AccessToken: access,
			TokenType:   "Bearer",
			ExpiresIn:   sessions.AccessTTLSeconds(),
			DeviceID:    deviceID,
		})
	}
}
