// Package httpapi is the REST surface of the storefront server, built
// on gin. Handlers stay thin: bind, call a service, map the error.
package httpapi

import (
	"github.com/gin-gonic/gin"

	"storefront/internal/logging"
	"storefront/internal/server/services"
)

// NewRouter wires all endpoints. Auth-protected groups share one
// bearer-token middleware.
func NewRouter(
	authSvc *services.AuthService,
	catalog *services.CatalogService,
	readiness *services.ReadinessService,
	log logging.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	userH := NewUserHandler(authSvc)
	productH := NewProductHandler(catalog)
	healthH := NewHealthHandler(readiness)

	r.GET("/healthz", healthH.Healthz)
	r.GET("/ready", healthH.Ready)

	api := r.Group("/api")

	usersGroup := api.Group("/users")
	{
		usersGroup.POST("/register", userH.Register)
		usersGroup.POST("/login", userH.Login)
		usersGroup.POST("/logout", requireAuth(authSvc), userH.Logout)

		usersGroup.GET("", requireAuth(authSvc), userH.List)
		usersGroup.GET("/profile", requireAuth(authSvc), userH.Profile)
		usersGroup.PUT("/profile", requireAuth(authSvc), userH.UpdateProfile)
		usersGroup.PUT("/password", requireAuth(authSvc), userH.ChangePassword)
	}

	productsGroup := api.Group("/products")
	{
		productsGroup.GET("", productH.List)
		productsGroup.GET("/search", productH.Search)
		productsGroup.GET("/:id", productH.Get)
		productsGroup.GET("/:id/inventory", productH.Inventory)

		productsGroup.POST("", requireAuth(authSvc), productH.Create)
		productsGroup.PUT("/:id", requireAuth(authSvc), productH.Update)
		productsGroup.DELETE("/:id", requireAuth(authSvc), productH.Delete)
	}

	return r
}
