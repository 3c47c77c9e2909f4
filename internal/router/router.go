// Package router assembles the HTTP surface of the store.
package router

import (
	"time"

	"github.com/Baaaki/buy-sell-store/internal/broker"
	"github.com/Baaaki/buy-sell-store/internal/config"
	"github.com/Baaaki/buy-sell-store/internal/handler"
	"github.com/Baaaki/buy-sell-store/internal/middleware"
	"github.com/Baaaki/buy-sell-store/internal/models"
	"github.com/Baaaki/buy-sell-store/internal/repository"
	"github.com/Baaaki/buy-sell-store/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the shared resources the routes are built on.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Events broker.EventBroker
}

// New wires repositories, services and handlers into a gin engine.
func New(d Deps) *gin.Engine {
	cfg := d.Config

	userRepo := repository.NewUserRepository(d.DB)
	productRepo := repository.NewProductRepository(d.DB)
	sessions := repository.NewSessionRepository(d.Redis)

	authService := service.NewAuthService(userRepo, sessions, cfg.JWTSecret, cfg.JWTExpiry, cfg.Environment)
	userService := service.NewUserService(userRepo, sessions)
	productService := service.NewProductService(productRepo, userRepo, d.Events)
	incomeService := service.NewIncomeService(productRepo)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService, cfg.IsProduction())
	productHandler := handler.NewProductHandler(productService)
	incomeHandler := handler.NewIncomeHandler(incomeService)
	wsHandler := handler.NewWebSocketHandler(d.Events, cfg.CORSOrigins)
	healthHandler := handler.NewHealthHandler(d.DB, d.Redis)

	rateLimiter := middleware.NewRateLimiter(d.Redis, middleware.RateLimiterConfig{
		MaxRequests: cfg.RateLimitMaxRequests,
		Window:      cfg.RateLimitWindow,
		BlockTime:   cfg.RateLimitBlockTime,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.HSTSMiddleware(cfg.IsProduction()))
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes
	auth := r.Group("/api/auth")
	auth.Use(rateLimiter.Middleware())
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// Protected routes
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(authService))
	{
		api.POST("/auth/logout", authHandler.Logout)

		api.GET("/users/me", authHandler.Me)
		api.GET("/users/:id", userHandler.Get)
		api.PATCH("/users/:id", userHandler.Update)
		api.DELETE("/users/:id", userHandler.Delete)

		suppliers := middleware.RequireRoles(models.RoleSupplier)
		staff := middleware.RequireRoles(models.RoleSupplier, models.RoleSeller)

		products := api.Group("/products")
		products.GET("", productHandler.List)
		products.POST("/add", suppliers, productHandler.Create)
		products.GET("/:id", productHandler.Get)
		products.PATCH("/:id", staff, productHandler.Update)
		products.DELETE("/:id", suppliers, productHandler.Delete)
		products.POST("/:id/archive", staff, productHandler.Archive)
		products.POST("/:id/restore", staff, productHandler.Restore)
		products.POST("/:id/seller", staff, productHandler.AssignSeller)
		products.POST("/:id/buy", middleware.RequireRoles(models.RoleBuyer), productHandler.Buy)

		api.GET("/income", staff, incomeHandler.Report)

		api.GET("/ws/products", wsHandler.ProductFeed)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowOrigins = nil
		c.AllowAllOrigins = true
	}
	return c
}
