package router

import (
	"time"

	"stocktrack/internal/config"
	"stocktrack/internal/handler"
	"stocktrack/internal/middleware"
	"stocktrack/internal/repository"
	"stocktrack/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	requisitionRepo := repository.NewRequisitionRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	inventorySvc := service.NewInventoryService(inventoryRepo, transactionRepo, sequenceRepo, rdb)
	requisitionSvc := service.NewRequisitionService(requisitionRepo, sequenceRepo, inventorySvc)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	inventoryH := handler.NewInventoryHandler(inventorySvc)
	requisitionH := handler.NewRequisitionHandler(requisitionSvc)
	stockH := handler.NewStockCheckHandler(inventoryRepo, rdb)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Stock check — no auth required
	r.GET("/v1/stock/:code", stockH.GetStockByCode)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: staff, manager, admin — declared per-endpoint

		// Inventory reads — any authenticated role
		v1.GET("/inventory", middleware.RequireRole("staff", "manager", "admin"), inventoryH.ListItems)
		v1.GET("/inventory/stats", middleware.RequireRole("staff", "manager", "admin"), inventoryH.Stats)
		v1.GET("/inventory/low-stock", middleware.RequireRole("staff", "manager", "admin"), inventoryH.LowStock)
		v1.GET("/inventory/out-of-stock", middleware.RequireRole("staff", "manager", "admin"), inventoryH.OutOfStock)
		v1.GET("/inventory/aging", middleware.RequireRole("manager", "admin"), inventoryH.AgingReport)
		v1.GET("/inventory/:id", middleware.RequireRole("staff", "manager", "admin"), inventoryH.GetItem)
		v1.GET("/inventory/:id/transactions", middleware.RequireRole("staff", "manager", "admin"), inventoryH.ListTransactions)

		// Ledger writes — staff can post transactions; adjustments need manager
		v1.POST("/inventory/:id/transactions", middleware.RequireRole("staff", "manager", "admin"), inventoryH.RecordTransaction)
		v1.PATCH("/inventory/:id/quantity", middleware.RequireRole("manager", "admin"), inventoryH.AdjustQuantity)

		// Item management — manager or admin
		inv := v1.Group("/inventory", middleware.RequireRole("manager", "admin"))
		{
			inv.POST("", inventoryH.CreateItem)
			inv.PUT("/:id", inventoryH.UpdateItem)
			inv.DELETE("/:id", inventoryH.DiscontinueItem)
		}

		// Requisitions — staff may create and edit their own pending requests;
		// transitions that spend money need manager or admin
		reqs := v1.Group("/requisitions")
		{
			reqs.POST("", middleware.RequireRole("staff", "manager", "admin"), requisitionH.Create)
			reqs.GET("", middleware.RequireRole("staff", "manager", "admin"), requisitionH.List)
			reqs.GET("/stats", middleware.RequireRole("manager", "admin"), requisitionH.Stats)
			reqs.GET("/:id", middleware.RequireRole("staff", "manager", "admin"), requisitionH.Get)
			reqs.PUT("/:id", middleware.RequireRole("staff", "manager", "admin"), requisitionH.Update)
			reqs.DELETE("/:id", middleware.RequireRole("staff", "manager", "admin"), requisitionH.Delete)

			reqs.POST("/:id/items", middleware.RequireRole("staff", "manager", "admin"), requisitionH.AddItem)
			reqs.PUT("/:id/items/:item_id", middleware.RequireRole("staff", "manager", "admin"), requisitionH.UpdateItem)
			reqs.DELETE("/:id/items/:item_id", middleware.RequireRole("staff", "manager", "admin"), requisitionH.RemoveItem)

			reqs.POST("/:id/approve", middleware.RequireRole("manager", "admin"), requisitionH.Approve)
			reqs.POST("/:id/reject", middleware.RequireRole("manager", "admin"), requisitionH.Reject)
			reqs.POST("/:id/order", middleware.RequireRole("manager", "admin"), requisitionH.Order)
			reqs.POST("/:id/receive", middleware.RequireRole("staff", "manager", "admin"), requisitionH.Receive)
			reqs.POST("/:id/cancel", middleware.RequireRole("manager", "admin"), requisitionH.Cancel)
		}

		// Users — admin only
		users := v1.Group("/users", middleware.RequireRole("admin"))
		{
			users.POST("", authH.CreateUser)
			users.GET("", authH.ListUsers)
			users.GET("/:id", authH.GetUser)
			users.PUT("/:id", authH.UpdateUser)
			users.DELETE("/:id", authH.DeactivateUser)
			users.PATCH("/:id/reactivate", authH.ReactivateUser)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
