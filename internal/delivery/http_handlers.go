package delivery

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"campaigndash/internal/domain"
	"campaigndash/internal/usecase"
	"campaigndash/pkg/logger"
	"campaigndash/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const uploadField = "file"

// handles HTTP requests
type HTTPHandlers struct {
	campaignService *usecase.CampaignService
	logger          *logger.Logger
	metrics         *metrics.Metrics
	maxUploadBytes  int64
}

// creates new HTTP handlers
func NewHTTPHandlers(
	campaignService *usecase.CampaignService,
	logger *logger.Logger,
	metrics *metrics.Metrics,
	maxUploadBytes int64,
) *HTTPHandlers {
	return &HTTPHandlers{
		campaignService: campaignService,
		logger:          logger,
		metrics:         metrics,
		maxUploadBytes:  maxUploadBytes,
	}
}

// filterRequest is the wire form of domain.FilterOptions, used for query strings and JSON bodies.
type filterRequest struct {
	Sort      string `form:"sort" json:"sortField" binding:"omitempty,oneof=none revenue orders openRate clickRate time"`
	Direction string `form:"direction" json:"sortDirection" binding:"omitempty,oneof=asc desc"`
	From      string `form:"from" json:"dateFrom" binding:"omitempty,datetime=2006-01-02"`
	To        string `form:"to" json:"dateTo" binding:"omitempty,datetime=2006-01-02"`
}

func (r filterRequest) options() domain.FilterOptions {
	return domain.FilterOptions{
		SortField:     domain.SortField(r.Sort),
		SortDirection: domain.SortDirection(r.Direction),
		DateFrom:      r.From,
		DateTo:        r.To,
	}
}

// UploadCampaigns replaces the session collection with the campaigns of the uploaded file
func (h *HTTPHandlers) UploadCampaigns(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := c.GetString("request_id")

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	fileHeader, err := c.FormFile(uploadField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":      "File too large",
				"message":    fmt.Sprintf("uploads are limited to %d bytes", h.maxUploadBytes),
				"request_id": requestID,
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Missing file",
			"message":    "multipart field \"file\" is required",
			"request_id": requestID,
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to open uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Failed to read upload",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}
	defer file.Close()

	result, err := h.campaignService.Upload(ctx, fileHeader.Filename, file)
	if err != nil {
		h.writeUploadError(c, err, requestID)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Campaign file processed successfully",
		"result":     result,
		"request_id": requestID,
	})
}

func (h *HTTPHandlers) writeUploadError(c *gin.Context, err error, requestID string) {
	var decodeErr *domain.DecodeError
	switch {
	case errors.Is(err, domain.ErrUploadInProgress):
		c.JSON(http.StatusConflict, gin.H{
			"error":      "Upload in progress",
			"message":    err.Error(),
			"request_id": requestID,
		})
	case errors.As(err, &decodeErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Failed to process file",
			"stage":      decodeErr.Stage,
			"message":    decodeErr.Error(),
			"request_id": requestID,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Failed to process file",
			"message":    err.Error(),
			"request_id": requestID,
		})
	}
}

// GetCampaigns returns the canonical collection, or an ad-hoc filtered view when query parameters are given
func (h *HTTPHandlers) GetCampaigns(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := c.GetString("request_id")

	var req filterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.writeValidationError(c, err, requestID)
		return
	}

	campaigns, err := h.campaignService.Query(ctx, req.options())
	if err != nil {
		h.writeInternalError(c, err, "Failed to retrieve campaigns", requestID)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       campaigns,
		"total":      len(campaigns),
		"request_id": requestID,
	})
}

// ClearCampaigns discards the collection and the filter state
func (h *HTTPHandlers) ClearCampaigns(c *gin.Context) {
	requestID := c.GetString("request_id")

	if err := h.campaignService.Clear(c.Request.Context()); err != nil {
		h.writeInternalError(c, err, "Failed to clear campaigns", requestID)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Campaign data cleared",
		"request_id": requestID,
	})
}

// GetFilter returns the active sort and date range
func (h *HTTPHandlers) GetFilter(c *gin.Context) {
	requestID := c.GetString("request_id")

	opts, err := h.campaignService.Filter(c.Request.Context())
	if err != nil {
		h.writeInternalError(c, err, "Failed to retrieve filter", requestID)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"filter":     opts,
		"request_id": requestID,
	})
}

// SetFilter replaces the active sort and date range
func (h *HTTPHandlers) SetFilter(c *gin.Context) {
	requestID := c.GetString("request_id")

	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeValidationError(c, err, requestID)
		return
	}

	opts, err := h.campaignService.SetFilter(c.Request.Context(), req.options())
	if err != nil {
		h.writeInternalError(c, err, "Failed to update filter", requestID)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"filter":     opts,
		"request_id": requestID,
	})
}

// GetStats returns CampaignStats over the filtered collection
func (h *HTTPHandlers) GetStats(c *gin.Context) {
	requestID := c.GetString("request_id")

	dashboard, err := h.campaignService.Dashboard(c.Request.Context())
	if err != nil {
		h.writeInternalError(c, err, "Failed to compute stats", requestID)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":      dashboard.Stats,
		"request_id": requestID,
	})
}

// GetCharts returns chart series over the filtered collection
func (h *HTTPHandlers) GetCharts(c *gin.Context) {
	requestID := c.GetString("request_id")

	dashboard, err := h.campaignService.Dashboard(c.Request.Context())
	if err != nil {
		h.writeInternalError(c, err, "Failed to compute charts", requestID)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       dashboard.Charts,
		"request_id": requestID,
	})
}

// GetDashboard returns the filtered collection with its stats and charts
func (h *HTTPHandlers) GetDashboard(c *gin.Context) {
	requestID := c.GetString("request_id")

	dashboard, err := h.campaignService.Dashboard(c.Request.Context())
	if err != nil {
		h.writeInternalError(c, err, "Failed to build dashboard", requestID)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// GetAPIInfo returns API v1 information and available endpoints
func (h *HTTPHandlers) GetAPIInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"api_version": "v1",
		"service":     "Campaign Dashboard",
		"version":     "1.0.0",
		"description": "Normalizes email campaign exports (CSV, XLSX, XLS) and serves campaign analytics",
		"endpoints": gin.H{
			"upload": gin.H{
				"path":        "/api/v1/campaigns/upload",
				"method":      "POST",
				"description": "Multipart upload (field \"file\"); replaces the loaded campaigns",
			},
			"campaigns": gin.H{
				"path":        "/api/v1/campaigns",
				"methods":     []string{"GET", "DELETE"},
				"description": "List campaigns, optionally filtered; DELETE clears data and filters",
				"parameters": gin.H{
					"sort":      "Optional: none, revenue, orders, openRate, clickRate, time",
					"direction": "Optional: asc or desc (default desc)",
					"from":      "Optional: first send date (YYYY-MM-DD), inclusive",
					"to":        "Optional: last send date (YYYY-MM-DD), inclusive",
				},
				"example": "/api/v1/campaigns?sort=revenue&direction=desc&from=2024-01-01&to=2024-01-31",
			},
			"filter": gin.H{
				"path":        "/api/v1/campaigns/filter",
				"methods":     []string{"GET", "PUT"},
				"description": "Read or replace the active filter used by stats, charts and dashboard",
			},
			"stats": gin.H{
				"path":        "/api/v1/campaigns/stats",
				"method":      "GET",
				"description": "Totals, average rates and best/worst campaign by revenue",
			},
			"charts": gin.H{
				"path":        "/api/v1/campaigns/charts",
				"method":      "GET",
				"description": "Revenue and engagement series ordered by revenue",
			},
			"dashboard": gin.H{
				"path":        "/api/v1/dashboard",
				"method":      "GET",
				"description": "Campaigns, stats and charts in one response",
			},
		},
		"request_id": c.GetString("request_id"),
	})
}

// HealthCheck returns the health status of the service
func (h *HTTPHandlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"service":    "campaigndash",
		"version":    "1.0.0",
		"request_id": c.GetString("request_id"),
	})
}

func (h *HTTPHandlers) writeValidationError(c *gin.Context, err error, requestID string) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(gin.H, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fmt.Sprintf("failed on %q (%v)", fe.Tag(), fe.Value())
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid parameters",
			"fields":     fields,
			"request_id": requestID,
		})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{
		"error":      "Invalid parameters",
		"message":    err.Error(),
		"request_id": requestID,
	})
}

func (h *HTTPHandlers) writeInternalError(c *gin.Context, err error, message, requestID string) {
	h.logger.WithContext(c.Request.Context()).WithError(err).Error(message)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":      message,
		"message":    err.Error(),
		"request_id": requestID,
	})
}
