package settlement

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// ==============================
// 📥 1. Manual Settlement Ingest
// ==============================
// Backfill path for periods the processor feed missed. Same validation
// as the Kafka consumer.
func (h *Handler) IngestSettlement(c *gin.Context) {
	var msg Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg.Source = SourceManual

	if err := h.svc.Ingest(c.Request.Context(), msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true})
}

// ==============================
// 🔍 2. List Settlements
// ==============================
func (h *Handler) ListSettlements(c *gin.Context) {
	periodMonth := c.Query("period")
	if periodMonth == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period query parameter is required"})
		return
	}

	settlements, err := h.svc.GetByPeriod(c.Request.Context(), periodMonth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":    settlements,
		"success": true,
	})
}
