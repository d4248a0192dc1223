package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/retailpulse/stocksense/internal/domain"
	"github.com/retailpulse/stocksense/internal/service"
)

type InsightHandler struct {
	service *service.InsightService
}

func NewInsightHandler(service *service.InsightService) *InsightHandler {
	return &InsightHandler{service: service}
}

func (h *InsightHandler) parseFilter(c *gin.Context) domain.InsightFilter {
	filter := domain.InsightFilter{}

	if brand := strings.TrimSpace(c.Query("brand")); brand != "" {
		filter.Brand = brand
	}
	if priority := strings.TrimSpace(c.Query("priority")); priority != "" {
		if p, ok := domain.ParsePriority(priority); ok {
			filter.Priority = string(p)
		}
	}
	if trend := strings.TrimSpace(c.Query("trend")); trend != "" {
		filter.Trend = trend
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "0")); err == nil && limit > 0 {
		filter.Limit = limit
	}

	return filter
}

// RunAnalysis triggers a full analysis batch over the stored dataset.
func (h *InsightHandler) RunAnalysis(c *gin.Context) {
	result, err := h.service.RunAnalysis(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to run analysis: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_at":    result.RunAt,
		"products":  len(result.Insights),
		"transfers": len(result.Transfers),
		"summary":   result.Summary,
	})
}

func (h *InsightHandler) GetInsights(c *gin.Context) {
	filter := h.parseFilter(c)

	insights, err := h.service.GetInsights(c.Request.Context(), filter)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to get insights: "+err.Error())
		return
	}
	if insights == nil {
		insights = make([]domain.ProductInsight, 0)
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  insights,
		"count": len(insights),
	})
}

func (h *InsightHandler) GetSummary(c *gin.Context) {
	summary, err := h.service.GetSummary(c.Request.Context())
	if err != nil {
		h.notReadyOrError(c, err, "failed to get summary")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summary})
}

func (h *InsightHandler) GetSeasonal(c *gin.Context) {
	seasonal, err := h.service.GetSeasonal(c.Request.Context())
	if err != nil {
		h.notReadyOrError(c, err, "failed to get seasonal insights")
		return
	}
	if seasonal == nil {
		seasonal = make([]domain.SeasonalInsight, 0)
	}
	c.JSON(http.StatusOK, gin.H{"data": seasonal})
}

func (h *InsightHandler) GetTransfers(c *gin.Context) {
	transfers, err := h.service.GetTransfers(c.Request.Context())
	if err != nil {
		h.notReadyOrError(c, err, "failed to get transfers")
		return
	}
	if transfers == nil {
		transfers = make([]domain.TransferRecommendation, 0)
	}
	c.JSON(http.StatusOK, gin.H{"data": transfers})
}

func (h *InsightHandler) GetForecast(c *gin.Context) {
	productID := strings.TrimSpace(c.Param("product_id"))
	if productID == "" {
		errorResponse(c, http.StatusBadRequest, "product_id is required")
		return
	}

	horizon := 14
	if d, err := strconv.Atoi(c.DefaultQuery("days", "14")); err == nil && d > 0 {
		horizon = d
	}

	forecast, err := h.service.Forecast(c.Request.Context(), productID, horizon)
	if err != nil {
		errorResponse(c, http.StatusUnprocessableEntity, "failed to forecast: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product_id": productID,
		"days":       horizon,
		"forecast":   forecast,
	})
}

func (h *InsightHandler) notReadyOrError(c *gin.Context, err error, message string) {
	if errors.Is(err, service.ErrNoAnalysisRun) {
		c.JSON(http.StatusNotFound, gin.H{"error": service.ErrNoAnalysisRun.Error()})
		return
	}
	errorResponse(c, http.StatusInternalServerError, message+": "+err.Error())
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	log.Error().Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
}
