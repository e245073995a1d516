package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	portssvc "github.com/SscSPs/bookkeeping_core/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_core/internal/dto"
	"github.com/SscSPs/bookkeeping_core/internal/middleware"
	"github.com/gin-gonic/gin"
)

// clearingHandler handles open item and clearing requests.
type clearingHandler struct {
	clearingService portssvc.ClearingSvcFacade
}

func newClearingHandler(cs portssvc.ClearingSvcFacade) *clearingHandler {
	return &clearingHandler{clearingService: cs}
}

// registerClearingRoutes registers clearing routes.
func registerClearingRoutes(rg *gin.RouterGroup, clearingService portssvc.ClearingSvcFacade) {
	h := newClearingHandler(clearingService)

	rg.GET("/partners/:partnerID/open-items", h.openItems)

	clearings := rg.Group("/clearings")
	{
		clearings.POST("", h.clearManual)
		clearings.GET("/:clearingID", h.getClearingGroup)
		clearings.DELETE("/:clearingID", h.resetClearing)
	}
}

// openItems godoc
// @Summary List a partner's uncleared lines
// @Description Items are ordered by posting date, then line ID.
// @Tags clearing
// @Produce  json
// @Param   partnerID path string true "Partner ID"
// @Param   limit query int false "Stop after this many items (0: all)" default(0)
// @Success 200 {array} domain.OpenItem
// @Security BearerAuth
// @Router /partners/{partnerID}/open-items [get]
func (h *clearingHandler) openItems(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("partner_id", c.Param("partnerID")))

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a non-negative integer"})
		return
	}

	items := make([]domain.OpenItem, 0)
	for item, err := range h.clearingService.OpenItems(c.Request.Context(), c.Param("partnerID")) {
		if err != nil {
			respondError(c, logger, err, "Failed to list open items")
			return
		}
		items = append(items, item)
		if limit > 0 && len(items) == limit {
			break
		}
	}
	c.JSON(http.StatusOK, items)
}

// clearManual godoc
// @Summary Clear open items that net to zero
// @Tags clearing
// @Accept  json
// @Produce  json
// @Param   selection body dto.ClearManualRequest true "Line IDs"
// @Success 201 {object} dto.ClearingResponse
// @Failure 409 {object} ErrorResponse "Concurrently cleared"
// @Failure 422 {object} ErrorResponse "Invalid selection or non-zero residual"
// @Security BearerAuth
// @Router /clearings [post]
func (h *clearingHandler) clearManual(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ClearManualRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	group, err := h.clearingService.ClearManual(c.Request.Context(), req.LineIDs)
	if err != nil {
		respondError(c, logger, err, "Failed to clear lines")
		return
	}
	logger.Info("Lines cleared", slog.String("clearing_id", group.ClearingID), slog.Int("lines", len(group.Lines)))
	c.JSON(http.StatusCreated, dto.ToClearingResponse(group))
}

func (h *clearingHandler) getClearingGroup(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("clearing_id", c.Param("clearingID")))

	group, err := h.clearingService.GetClearingGroup(c.Request.Context(), c.Param("clearingID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve clearing group")
		return
	}
	c.JSON(http.StatusOK, dto.ToClearingResponse(group))
}

func (h *clearingHandler) resetClearing(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("clearing_id", c.Param("clearingID")))

	if err := h.clearingService.ResetClearing(c.Request.Context(), c.Param("clearingID")); err != nil {
		respondError(c, logger, err, "Failed to reset clearing")
		return
	}
	logger.Info("Clearing reset")
	c.Status(http.StatusNoContent)
}
