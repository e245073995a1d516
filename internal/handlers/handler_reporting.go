package handlers

import (
	"log/slog"
	"net/http"
	"time"

	portssvc "github.com/SscSPs/bookkeeping_core/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_core/internal/dto"
	"github.com/SscSPs/bookkeeping_core/internal/middleware"
	"github.com/gin-gonic/gin"
)

// reportingHandler handles HTTP requests related to financial reports
type reportingHandler struct {
	reportingService portssvc.ReportingService
}

func newReportingHandler(rs portssvc.ReportingService) *reportingHandler {
	return &reportingHandler{reportingService: rs}
}

// registerReportingRoutes registers routes related to financial reports
func registerReportingRoutes(rg *gin.RouterGroup, reportingService portssvc.ReportingService) {
	h := newReportingHandler(reportingService)

	reports := rg.Group("/reports")
	{
		reports.GET("/income-statement", h.getIncomeStatement)
		reports.GET("/cost-centers", h.getCostCenterPerformance)
		reports.GET("/trial-balance", h.getTrialBalance)
	}
}

// dateQuery parses a YYYY-MM-DD query parameter, answering 400 when it is missing or malformed.
func dateQuery(c *gin.Context, logger *slog.Logger, name string) (time.Time, bool) {
	raw := c.Query(name)
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		logger.Warn("Invalid date parameter", slog.String(name, raw))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid " + name + " date. Use YYYY-MM-DD"})
		return time.Time{}, false
	}
	return t, true
}

func optionalQuery(c *gin.Context, name string) *string {
	if v := c.Query(name); v != "" {
		return &v
	}
	return nil
}

// getIncomeStatement godoc
// @Summary Generate an income statement
// @Tags reports
// @Produce json
// @Param from query string true "First day (YYYY-MM-DD)"
// @Param to query string true "Last day, inclusive (YYYY-MM-DD)"
// @Param costCenter query string false "Cost center filter"
// @Param profitCenter query string false "Profit center filter"
// @Success 200 {object} domain.IncomeStatement
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse "Costing feed unavailable"
// @Security BearerAuth
// @Router /reports/income-statement [get]
func (h *reportingHandler) getIncomeStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	start, ok := dateQuery(c, logger, "from")
	if !ok {
		return
	}
	end, ok := dateQuery(c, logger, "to")
	if !ok {
		return
	}

	report, err := h.reportingService.IncomeStatement(c.Request.Context(), dto.IncomeStatementRequest{
		Start:          start,
		End:            end,
		CostCenterID:   optionalQuery(c, "costCenter"),
		ProfitCenterID: optionalQuery(c, "profitCenter"),
	})
	if err != nil {
		respondError(c, logger, err, "Failed to generate income statement")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *reportingHandler) getCostCenterPerformance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	start, ok := dateQuery(c, logger, "from")
	if !ok {
		return
	}
	end, ok := dateQuery(c, logger, "to")
	if !ok {
		return
	}

	rows, err := h.reportingService.CostCenterPerformance(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, logger, err, "Failed to generate cost center report")
		return
	}
	c.JSON(http.StatusOK, rows)
}

// getTrialBalance godoc
// @Summary Generate trial balance report
// @Tags reports
// @Produce json
// @Param asOf query string false "Report date (YYYY-MM-DD)" default(current date)
// @Success 200 {object} dto.TrialBalanceResponse
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /reports/trial-balance [get]
func (h *reportingHandler) getTrialBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	asOf := time.Now().UTC()
	if c.Query("asOf") != "" {
		var ok bool
		if asOf, ok = dateQuery(c, logger, "asOf"); !ok {
			return
		}
	}

	rows, err := h.reportingService.TrialBalance(c.Request.Context(), asOf)
	if err != nil {
		respondError(c, logger, err, "Failed to generate trial balance")
		return
	}
	c.JSON(http.StatusOK, dto.ToTrialBalanceResponse(asOf, rows))
}
