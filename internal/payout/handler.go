package payout

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/givecircle/givecircle-backend/middleware"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// ==============================
// 📊 1. Payout Report
// ==============================
func (h *Handler) GetPayoutReport(c *gin.Context) {
	periodMonth := c.Query("period")
	if periodMonth == "" {
		periodMonth = time.Now().Format("2006-01")
	}

	report, err := h.svc.GeneratePayoutReport(c.Request.Context(), periodMonth)
	if err != nil {
		var pErr *PeriodError
		if errors.As(err, &pErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": pErr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":    report,
		"success": true,
	})
}

// ==============================
// 📤 2. Export Payout Report
// ==============================
func (h *Handler) ExportPayoutReport(c *gin.Context) {
	periodMonth := c.Query("period")
	if periodMonth == "" {
		periodMonth = time.Now().Format("2006-01")
	}
	format := c.DefaultQuery("format", FormatCSV)

	userID := middleware.GetUserIDFromContext(c)
	ip := middleware.GetIPFromContext(c)

	data, filename, contentType, err := h.svc.ExportPayoutReport(c.Request.Context(), periodMonth, format, userID, ip)
	log.Printf("📤 Payout export (period=%s format=%s request=%s err=%v)",
		periodMonth, format, middleware.GetRequestIDFromContext(c), err)
	if err != nil {
		var pErr *PeriodError
		if errors.As(err, &pErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": pErr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, data)
}

// ==============================
// 🔄 3. Update Payout Status
// ==============================
func (h *Handler) UpdatePayoutStatus(c *gin.Context) {
	beneficiaryID, err := strconv.ParseUint(c.Param("beneficiary_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid beneficiary ID"})
		return
	}

	periodMonth := c.Query("period")
	if periodMonth == "" {
		periodMonth = time.Now().Format("2006-01")
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.GetUserIDFromContext(c)
	ip := middleware.GetIPFromContext(c)

	state, err := h.svc.UpdatePayoutStatus(c.Request.Context(), uint(beneficiaryID), periodMonth, req, userID, ip)
	if err != nil {
		var tErr *TransitionError
		if errors.As(err, &tErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": tErr.Error()})
			return
		}
		var pErr *PeriodError
		if errors.As(err, &pErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": pErr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":    state,
		"success": true,
	})
}
