package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/coinarena/backend/internal/api/handlers"
	"github.com/coinarena/backend/internal/audit"
	"github.com/coinarena/backend/internal/config"
	"github.com/coinarena/backend/internal/ledger"
	"github.com/coinarena/backend/internal/middleware"
	"github.com/coinarena/backend/internal/prize"
	"github.com/coinarena/backend/internal/redemption"
)

// Deps bundles the long-lived services the handlers close over.
type Deps struct {
	DB          *sqlx.DB
	Redis       *redis.Client
	Config      *config.Config
	Engine      *ledger.Engine
	Queue       *redemption.Queue
	Distributor *prize.Distributor
	Auditor     *audit.Logger
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, d Deps) {
	router.Use(middleware.CORSMiddleware(d.Config))
	router.Use(middleware.WebSocketCORSCheck(d.Config))

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		// Session layer entry point: account + wallet provisioning
		v1.POST("/register", handlers.Register(d.DB, d.Config))

		// Operator console session
		v1.POST("/admin/login", handlers.AdminLogin(d.DB, d.Redis, d.Config, d.Auditor))

		// Authenticated user endpoints
		user := v1.Group("")
		user.Use(handlers.UserAuthMiddleware(d.DB, d.Config))
		{
			user.GET("/wallets/:id", handlers.GetWalletBalance(d.DB))
			user.GET("/wallets/:id/ws", handlers.HandleWalletSocket(d.DB))
			user.GET("/transactions", handlers.ListTransactions(d.DB, d.Config))
			user.POST("/redemptions", handlers.RequestRedemption(d.Queue))
			user.POST("/tournaments/:id/join", handlers.JoinTournament(d.DB, d.Engine))
		}

		// Operator console endpoints
		admin := v1.Group("/admin")
		admin.Use(handlers.AdminSessionMiddleware(d.Redis))
		{
			admin.POST("/logout", handlers.AdminLogout(d.Redis, d.Auditor))
			admin.GET("/me", handlers.AdminMe())

			admin.GET("/pool", handlers.GetPoolBalance(d.DB))
			admin.GET("/pool/ws", handlers.HandlePoolSocket(d.DB))
			admin.POST("/pool/deposit", handlers.PoolDeposit(d.Engine, d.Auditor))
			admin.POST("/coins/transfer", handlers.AdminTransferCoins(d.DB, d.Engine, d.Auditor))
			admin.GET("/transactions", handlers.ListTransactions(d.DB, d.Config))
			admin.GET("/wallets/:id", handlers.GetWalletBalance(d.DB))

			admin.GET("/users", handlers.GetAdminUsers(d.DB, d.Config.MaxPageSize))
			admin.POST("/users/:id/ban", handlers.AdminBanUser(d.DB, d.Auditor))
			admin.POST("/users/:id/unban", handlers.AdminUnbanUser(d.DB, d.Auditor))

			admin.GET("/teams", handlers.GetAdminTeams(d.DB, d.Config.MaxPageSize))
			admin.POST("/teams", handlers.CreateTeam(d.DB, d.Auditor))

			admin.POST("/tournaments", handlers.CreateTournament(d.DB, d.Auditor))
			admin.PUT("/tournaments/:id/prizes", handlers.UpdateTournamentPrizes(d.DB, d.Auditor))
			admin.POST("/tournaments/:id/distribute", handlers.DistributeTournament(d.Distributor))

			admin.GET("/redemptions", handlers.GetAdminRedemptions(d.Queue, d.Config.MaxPageSize))
			admin.POST("/redemptions/:id/complete", handlers.AdminCompleteRedemption(d.Queue))
			admin.POST("/redemptions/:id/reject", handlers.AdminRejectRedemption(d.Queue))

			admin.GET("/audit", handlers.GetAdminAuditLog(d.Auditor, d.Config.MaxPageSize))
			admin.GET("/config", handlers.GetAdminConfig(d.DB))
			admin.PUT("/config/:key", handlers.UpdateAdminConfig(d.DB, d.Auditor))
		}
	}
}
