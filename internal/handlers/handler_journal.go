package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/bookkeeping_core/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_core/internal/dto"
	"github.com/SscSPs/bookkeeping_core/internal/middleware"
	"github.com/gin-gonic/gin"
)

// journalHandler handles HTTP requests related to journal entries.
type journalHandler struct {
	journalService portssvc.JournalSvcFacade
}

func newJournalHandler(js portssvc.JournalSvcFacade) *journalHandler {
	return &journalHandler{journalService: js}
}

// registerJournalRoutes registers journal entry routes.
func registerJournalRoutes(rg *gin.RouterGroup, journalService portssvc.JournalSvcFacade) {
	h := newJournalHandler(journalService)

	entries := rg.Group("/entries")
	{
		entries.POST("", h.createEntry)
		entries.GET("/:entryID", h.getEntry)
		entries.GET("/:entryID/totals", h.getEntryTotals)
		entries.POST("/:entryID/lines", h.addLine)
		entries.DELETE("/:entryID/lines/:lineID", h.removeLine)
		entries.POST("/:entryID/post", h.postEntry)
		entries.POST("/:entryID/cancel", h.cancelEntry)
		entries.POST("/:entryID/reverse", h.reverseEntry)
	}
}

// createEntry godoc
// @Summary Create a draft journal entry
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   entry body dto.CreateEntryRequest true "Entry header"
// @Success 201 {object} domain.JournalEntry
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /entries [post]
func (h *journalHandler) createEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateEntryRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	entry, err := h.journalService.CreateEntry(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to create journal entry")
		return
	}

	logger.Info("Journal entry created", slog.String("entry_id", entry.EntryID))
	c.JSON(http.StatusCreated, entry)
}

// getEntry godoc
// @Summary Get a journal entry with its lines
// @Tags entries
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Success 200 {object} domain.JournalEntry
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /entries/{entryID} [get]
func (h *journalHandler) getEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("entry_id", c.Param("entryID")))

	entry, err := h.journalService.GetEntryByID(c.Request.Context(), c.Param("entryID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve journal entry")
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *journalHandler) getEntryTotals(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("entry_id", c.Param("entryID")))

	entry, err := h.journalService.GetEntryByID(c.Request.Context(), c.Param("entryID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve journal entry")
		return
	}
	c.JSON(http.StatusOK, dto.ToEntryTotalsResponse(entry))
}

// addLine godoc
// @Summary Append a line to a draft entry
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Param   line body dto.AddLineRequest true "Line"
// @Success 201 {object} domain.JournalLine
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Entry is not a draft"
// @Security BearerAuth
// @Router /entries/{entryID}/lines [post]
func (h *journalHandler) addLine(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("entry_id", c.Param("entryID")))
	var req dto.AddLineRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	line, err := h.journalService.AddLine(c.Request.Context(), c.Param("entryID"), req)
	if err != nil {
		respondError(c, logger, err, "Failed to add line")
		return
	}
	c.JSON(http.StatusCreated, line)
}

func (h *journalHandler) removeLine(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(
		slog.String("entry_id", c.Param("entryID")),
		slog.String("line_id", c.Param("lineID")),
	)

	if err := h.journalService.RemoveLine(c.Request.Context(), c.Param("entryID"), c.Param("lineID")); err != nil {
		respondError(c, logger, err, "Failed to remove line")
		return
	}
	c.Status(http.StatusNoContent)
}

// postEntry godoc
// @Summary Post a balanced draft entry
// @Tags entries
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Success 200 {object} domain.JournalEntry
// @Failure 409 {object} ErrorResponse "Not a draft or concurrently modified"
// @Failure 422 {object} ErrorResponse "Unbalanced"
// @Security BearerAuth
// @Router /entries/{entryID}/post [post]
func (h *journalHandler) postEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("entry_id", c.Param("entryID")))

	entry, err := h.journalService.PostEntry(c.Request.Context(), c.Param("entryID"))
	if err != nil {
		respondError(c, logger, err, "Failed to post journal entry")
		return
	}
	logger.Info("Journal entry posted")
	c.JSON(http.StatusOK, entry)
}

func (h *journalHandler) cancelEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("entry_id", c.Param("entryID")))

	entry, err := h.journalService.CancelEntry(c.Request.Context(), c.Param("entryID"))
	if err != nil {
		respondError(c, logger, err, "Failed to cancel journal entry")
		return
	}
	c.JSON(http.StatusOK, entry)
}

// reverseEntry godoc
// @Summary Post a mirror entry and cancel the original
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   entryID path string true "Entry ID"
// @Param   reversal body dto.ReverseEntryRequest true "Reason and optional posting date"
// @Success 201 {object} domain.JournalEntry "The reversal"
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /entries/{entryID}/reverse [post]
func (h *journalHandler) reverseEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("entry_id", c.Param("entryID")))
	var req dto.ReverseEntryRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	reversal, err := h.journalService.ReverseEntry(c.Request.Context(), c.Param("entryID"), req)
	if err != nil {
		respondError(c, logger, err, "Failed to reverse journal entry")
		return
	}
	logger.Info("Journal entry reversed", slog.String("reversal_id", reversal.EntryID))
	c.JSON(http.StatusCreated, reversal)
}
