package httpserver

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mysnackdev/mysnack-storefront/internal/checkout"
	"github.com/mysnackdev/mysnack-storefront/internal/domain"
	"github.com/mysnackdev/mysnack-storefront/internal/mirror"
)

// SessionService issues and validates anonymous device sessions.
type SessionService interface {
	Issue(ctx context.Context) (accessToken, refreshToken, deviceID string, err error)
	Refresh(ctx context.Context, token string) (accessToken, deviceID string, err error)
	LookupByToken(ctx context.Context, token string) (string, error)
	AccessTTLSeconds() int
}

// CartService is the per-device cart store.
type CartService interface {
	Read(ctx context.Context, deviceID string) (domain.Cart, error)
	Add(ctx context.Context, deviceID string, items []domain.CartItem) (domain.Cart, error)
	SetQty(ctx context.Context, deviceID, id string, qty int) (domain.Cart, error)
	Remove(ctx context.Context, deviceID, id string) (domain.Cart, error)
	Clear(ctx context.Context, deviceID string) error
	Meta(ctx context.Context, deviceID string) (domain.CartMeta, error)
	SetMeta(ctx context.Context, deviceID string, meta domain.CartMeta) error
}

// CheckoutService manages checkout wizard sessions.
type CheckoutService interface {
	Start(ctx context.Context, deviceID, uid, nome, storeID string) *checkout.Wizard
	Get(id string) (*checkout.Wizard, error)
	Remove(id string)
}

// CatalogService serves store listings and menus.
type CatalogService interface {
	Stores(ctx context.Context) ([]domain.Store, error)
	Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]domain.Store, error)
	Menu(ctx context.Context, storeID string) ([]domain.MenuItem, error)
}

// MirrorHub hands out per-user order and notification mirrors.
type MirrorHub interface {
	Orders(uid string) (*mirror.Orders, error)
	Notifications(uid string) (*mirror.Notifications, error)
}

// TableService resolves tables out of QR payloads or the test bypass.
type TableService interface {
	ResolveBypass(ctx context.Context, storeID string) (domain.Table, error)
}

// CardService lists a user's saved cards from the upstream API.
type CardService interface {
	ListCards(ctx context.Context, uid string) ([]domain.UserCard, error)
}

// PrefsService stores small per-device preference blobs.
type PrefsService interface {
	Get(ctx context.Context, deviceID, key string) ([]byte, error)
	Set(ctx context.Context, deviceID, key string, value []byte) error
	Delete(ctx context.Context, deviceID, key string) error
}

// StatusService reports order status transitions since the device last looked.
type StatusService interface {
	Diff(ctx context.Context, deviceID string, orders []domain.SnackOrder) []mirror.StatusChange
}

// Deps collects everything the routes need.
type Deps struct {
	Sessions SessionService
	Carts    CartService
	Checkout CheckoutService
	Catalog  CatalogService
	Mirrors  MirrorHub
	Tables   TableService
	Cards    CardService
	Prefs    PrefsService
	Statuses StatusService
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps, allowedOrigins []string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowedOrigins
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "X-User-ID", "X-User-Name")
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	router.POST("/session/anonymous", issueSessionHandler(deps.Sessions))
	router.POST("/session/refresh", refreshSessionHandler(deps.Sessions))

	router.GET("/stores", listStoresHandler(deps.Catalog))
	router.GET("/stores/nearby", nearbyStoresHandler(deps.Catalog))
	router.GET("/stores/:id/menu", storeMenuHandler(deps.Catalog))

	router.POST("/table/qr", tableQRHandler())
	router.POST("/table/bypass", tableBypassHandler(deps.Tables))

	authed := router.Group("/", sessionMiddleware(deps.Sessions))
	{
		authed.GET("/cart", getCartHandler(deps.Carts))
		authed.POST("/cart/items", addCartItemsHandler(deps.Carts))
		authed.PATCH("/cart/items/:id", setCartQtyHandler(deps.Carts))
		authed.DELETE("/cart/items/:id", removeCartItemHandler(deps.Carts))
		authed.DELETE("/cart", clearCartHandler(deps.Carts))
		authed.GET("/cart/meta", getCartMetaHandler(deps.Carts))
		authed.PUT("/cart/meta", setCartMetaHandler(deps.Carts))

		authed.POST("/checkout", startCheckoutHandler(deps.Checkout))
		authed.GET("/checkout/:id", getCheckoutHandler(deps.Checkout))
		authed.POST("/checkout/:id/select-table", checkoutSelectTableHandler(deps.Checkout))
		authed.POST("/checkout/:id/select-payment", checkoutSelectPaymentHandler(deps.Checkout))
		authed.POST("/checkout/:id/advance", checkoutAdvanceHandler(deps.Checkout))
		authed.POST("/checkout/:id/cancel", checkoutCancelHandler(deps.Checkout))

		authed.GET("/prefs/:key", getPrefHandler(deps.Prefs))
		authed.PUT("/prefs/:key", setPrefHandler(deps.Prefs))
		authed.DELETE("/prefs/:key", deletePrefHandler(deps.Prefs))

		user := authed.Group("/", requireUserMiddleware())
		{
			user.GET("/orders", listOrdersHandler(deps.Mirrors))
			user.GET("/orders/stream", streamOrdersHandler(deps.Mirrors))
			user.GET("/orders/changes", orderChangesHandler(deps.Mirrors, deps.Statuses))
			user.GET("/orders/:key", getOrderHandler(deps.Mirrors))

			user.GET("/notifications", listNotificationsHandler(deps.Mirrors))
			user.POST("/notifications/read", markNotificationsReadHandler(deps.Mirrors))

			user.GET("/cards", listCardsHandler(deps.Cards))
		}
	}

	return router
}

const (
	ctxDeviceID = "deviceID"
	ctxUserID   = "userID"
	ctxUserName = "userName"
)

// sessionMiddleware resolves the bearer token to a device ID. The user
// identity rides on headers set by the caller, which already holds a
// platform auth session; this service only trusts it for scoping reads.
func sessionMiddleware(sessions SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		deviceID, err := sessions.LookupByToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxDeviceID, deviceID)
		c.Set(ctxUserID, c.GetHeader("X-User-ID"))
		c.Set(ctxUserName, c.GetHeader("X-User-Name"))
		c.Next()
	}
}

func requireUserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxUserID) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing X-User-ID header"})
			return
		}
		c.Next()
	}
}
