package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/givecircle/givecircle-backend/config"
	"github.com/givecircle/givecircle-backend/database"
	"github.com/givecircle/givecircle-backend/internal/auditlog"
	"github.com/givecircle/givecircle-backend/internal/beneficiary"
	"github.com/givecircle/givecircle-backend/internal/donation"
	"github.com/givecircle/givecircle-backend/internal/payout"
	"github.com/givecircle/givecircle-backend/internal/settlement"
	"github.com/givecircle/givecircle-backend/routes"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg)

	log.Println("🔄 Running database migrations...")
	if err := db.AutoMigrate(
		&auditlog.AuditLog{},
		&beneficiary.Beneficiary{},
		&donation.Event{},
		&settlement.Settlement{},
		&payout.PayoutState{},
	); err != nil {
		log.Fatalf("❌ DB AutoMigrate failed: %v", err)
	}
	log.Println("✅ Database migrations completed")

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	routes.Setup(router, cfg, db)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}
