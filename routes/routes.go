package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/givecircle/givecircle-backend/config"
	"github.com/givecircle/givecircle-backend/internal/auditlog"
	"github.com/givecircle/givecircle-backend/internal/beneficiary"
	"github.com/givecircle/givecircle-backend/internal/donation"
	"github.com/givecircle/givecircle-backend/internal/payout"
	"github.com/givecircle/givecircle-backend/internal/settlement"
	"github.com/givecircle/givecircle-backend/middleware"
	"github.com/givecircle/givecircle-backend/utils"
)

// Setup wires repositories, services, and handlers onto the router.
func Setup(r *gin.Engine, cfg *config.Config, db *gorm.DB) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Repositories
	auditRepo := auditlog.NewRepository(db)
	donationRepo := donation.NewRepository(db)
	beneficiaryRepo := beneficiary.NewRepository(db)
	settlementRepo := settlement.NewRepository(db)
	payoutRepo := payout.NewRepository(db)

	// Services. The report cache is shared: every write that feeds a
	// report (settlements, bank info, payout state) invalidates it.
	var cache payout.ReportCache = payout.NewNoopReportCache()
	if client := utils.InitRedis(cfg); client != nil {
		cache = payout.NewRedisReportCache(client, 15*time.Minute)
	}

	auditSvc := auditlog.NewService(auditRepo)
	beneficiarySvc := beneficiary.NewService(beneficiaryRepo, auditSvc, cache)

	gateway := settlement.NewProcessorGateway(cfg)
	settlementSvc := settlement.NewService(settlementRepo, gateway, auditSvc, cache)

	payoutSvc := payout.NewService(
		payout.NewEngine(cfg),
		donationRepo,
		settlementRepo,
		beneficiaryRepo,
		payoutRepo,
		payout.NewReportExporter(),
		cache,
		auditSvc,
		utils.NewEmailAlerter(cfg),
	)

	// Settlement feed consumer runs for the life of the process.
	settlement.StartKafkaConsumer(settlementSvc, cfg)

	// Handlers
	auditHandler := auditlog.NewHandler(auditSvc)
	beneficiaryHandler := beneficiary.NewHandler(beneficiarySvc)
	settlementHandler := settlement.NewHandler(settlementSvc)
	payoutHandler := payout.NewHandler(payoutSvc)

	api := r.Group("/api/v1")
	api.Use(middleware.RequestID())
	api.Use(middleware.RateLimiter())
	api.Use(middleware.AuditMiddleware())

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg))

	beneficiaryRoutes := protected.Group("/beneficiaries")
	{
		beneficiaryRoutes.GET("", beneficiaryHandler.ListBeneficiaries)
		beneficiaryRoutes.GET("/:id", beneficiaryHandler.GetBeneficiary)
		beneficiaryRoutes.PUT("/:id/bank-info", middleware.RequireRole("admin", "finance"), beneficiaryHandler.UpdateBankInfo)
	}

	payoutRoutes := protected.Group("/payouts")
	{
		payoutRoutes.GET("/report", payoutHandler.GetPayoutReport)
		payoutRoutes.GET("/export", payoutHandler.ExportPayoutReport)
		payoutRoutes.PATCH("/:beneficiary_id/status", middleware.RequireRole("admin", "finance"), payoutHandler.UpdatePayoutStatus)
	}

	settlementRoutes := protected.Group("/settlements")
	settlementRoutes.Use(middleware.RequireRole("admin", "finance"))
	{
		settlementRoutes.GET("", settlementHandler.ListSettlements)
		settlementRoutes.POST("", settlementHandler.IngestSettlement)
	}

	auditRoutes := protected.Group("/auditlogs")
	auditRoutes.Use(middleware.RequireRole("admin"))
	{
		auditRoutes.GET("", auditHandler.GetAuditLogs)
		auditRoutes.GET("/:id", auditHandler.GetAuditLogByID)
	}
}
