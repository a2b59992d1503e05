package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mysnackdev/mysnack-storefront/internal/domain"
)

type orderView struct {
	domain.SnackOrder
	Progress float64 `json:"progress"`
	Final    bool    `json:"final"`
}

func toOrderView(o domain.SnackOrder) orderView {
	return orderView{
		SnackOrder: o,
		Progress:   domain.StatusProgress(o.Status),
		Final:      domain.IsFinalStatus(o.Status),
	}
}

func toOrderViews(orders []domain.SnackOrder) []orderView {
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, toOrderView(o))
	}
	return views
}

func listOrdersHandler(mirrors MirrorHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := mirrors.Orders(c.GetString(ctxUserID))
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "orders unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": toOrderViews(m.Snapshot())})
	}
}

func getOrderHandler(mirrors MirrorHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := mirrors.Orders(c.GetString(ctxUserID))
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "orders unavailable"})
			return
		}
		key := c.Param("key")
		for _, o := range m.Snapshot() {
			if o.Key == key {
				c.JSON(http.StatusOK, toOrderView(o))
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	}
}

// streamOrdersHandler pushes the full order list as a server-sent event on
// every mirror change, starting with the current snapshot.
func streamOrdersHandler(mirrors MirrorHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := mirrors.Orders(c.GetString(ctxUserID))
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "orders unavailable"})
			return
		}

		updates := make(chan []domain.SnackOrder, 8)
		unsubscribe := m.Subscribe(func(orders []domain.SnackOrder) {
			select {
			case updates <- orders:
			default:
			}
		})
		defer unsubscribe()

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")

		writeOrdersEvent(c, m.Snapshot())
		for {
			select {
			case <-c.Request.Context().Done():
				return
			case orders := <-updates:
				writeOrdersEvent(c, orders)
			}
		}
	}
}

func writeOrdersEvent(c *gin.Context, orders []domain.SnackOrder) {
	payload, err := json.Marshal(gin.H{"orders": toOrderViews(orders)})
	if err != nil {
		return
	}
	c.Writer.WriteString("event: orders\ndata: ")
	c.Writer.Write(payload)
	c.Writer.WriteString("\n\n")
	c.Writer.Flush()
}

// orderChangesHandler reports status transitions since this device last
// asked, so the caller can raise one toast per change.
func orderChangesHandler(mirrors MirrorHub, statuses StatusService) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := mirrors.Orders(c.GetString(ctxUserID))
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "orders unavailable"})
			return
		}
		changes := statuses.Diff(c.Request.Context(), c.GetString(ctxDeviceID), m.Snapshot())
		c.JSON(http.StatusOK, gin.H{"changes": changes})
	}
}
