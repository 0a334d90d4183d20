package httpserver

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Nagoor-Khan-P/FarmConnect-sub000/internal/assets"
	"github.com/Nagoor-Khan-P/FarmConnect-sub000/internal/backend"
)

// Deps carries the wired collaborators the handlers need.
type Deps struct {
	Sessions *Registry
	Backend  *backend.Client
	Assets   assets.Resolver
}

const sessionHeader = "X-Session-Id"

// buildRouter wires routes for the storefront-facing API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps, corsOrigins []string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", sessionHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{deps: deps, logger: logger}

	api := router.Group("/api")
	api.POST("/session", h.createSession)
	api.POST("/auth/signup", h.signUp)
	api.GET("/products", h.products)

	sess := api.Group("", h.withSession)
	sess.POST("/auth/signin", h.signIn)
	sess.POST("/auth/signout", h.signOut)
	sess.PATCH("/profile", h.updateProfile)
	sess.GET("/cart", h.getCart)
	sess.POST("/cart/items", h.addItem)
	sess.POST("/cart/items/:lineId/increase", h.increaseItem)
	sess.POST("/cart/items/:lineId/decrease", h.decreaseItem)
	sess.DELETE("/cart/items/:lineId", h.removeItem)
	sess.DELETE("/cart", h.clearCart)

	return router
}
