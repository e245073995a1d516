package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/bookkeeping_core/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_core/internal/dto"
	"github.com/SscSPs/bookkeeping_core/internal/middleware"
	"github.com/gin-gonic/gin"
)

// documentHandler handles HTTP requests for invoices and payments.
type documentHandler struct {
	invoiceService portssvc.InvoiceSvcFacade
	paymentService portssvc.PaymentSvcFacade
}

func newDocumentHandler(is portssvc.InvoiceSvcFacade, ps portssvc.PaymentSvcFacade) *documentHandler {
	return &documentHandler{invoiceService: is, paymentService: ps}
}

// registerDocumentRoutes registers invoice and payment routes.
func registerDocumentRoutes(rg *gin.RouterGroup, invoiceService portssvc.InvoiceSvcFacade, paymentService portssvc.PaymentSvcFacade) {
	h := newDocumentHandler(invoiceService, paymentService)

	invoices := rg.Group("/invoices")
	{
		invoices.POST("", h.createInvoice)
		invoices.GET("/:invoiceID", h.getInvoice)
		invoices.POST("/:invoiceID/items", h.addItem)
		invoices.DELETE("/:invoiceID/items/:itemID", h.removeItem)
		invoices.POST("/:invoiceID/post", h.postInvoice)
		invoices.POST("/:invoiceID/mark-paid", h.markPaid)
		invoices.POST("/:invoiceID/cancel", h.cancelInvoice)
	}

	payments := rg.Group("/payments")
	{
		payments.POST("", h.createPayment)
		payments.GET("/:paymentID", h.getPayment)
		payments.POST("/:paymentID/post", h.postPayment)
		payments.POST("/:paymentID/cancel", h.cancelPayment)
	}
}

// createInvoice godoc
// @Summary Create a draft invoice
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   invoice body dto.CreateInvoiceRequest true "Invoice header"
// @Success 201 {object} domain.Invoice
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Duplicate number"
// @Failure 502 {object} ErrorResponse "Partner directory unavailable"
// @Security BearerAuth
// @Router /invoices [post]
func (h *documentHandler) createInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateInvoiceRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to create invoice")
		return
	}
	logger.Info("Invoice created", slog.String("invoice_id", invoice.InvoiceID))
	c.JSON(http.StatusCreated, invoice)
}

func (h *documentHandler) getInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("invoice_id", c.Param("invoiceID")))

	invoice, err := h.invoiceService.GetInvoiceByID(c.Request.Context(), c.Param("invoiceID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve invoice")
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *documentHandler) addItem(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("invoice_id", c.Param("invoiceID")))
	var req dto.AddInvoiceItemRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	invoice, err := h.invoiceService.AddItem(c.Request.Context(), c.Param("invoiceID"), req)
	if err != nil {
		respondError(c, logger, err, "Failed to add invoice item")
		return
	}
	c.JSON(http.StatusCreated, invoice)
}

func (h *documentHandler) removeItem(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(
		slog.String("invoice_id", c.Param("invoiceID")),
		slog.String("item_id", c.Param("itemID")),
	)

	invoice, err := h.invoiceService.RemoveItem(c.Request.Context(), c.Param("invoiceID"), c.Param("itemID"))
	if err != nil {
		respondError(c, logger, err, "Failed to remove invoice item")
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// postInvoice godoc
// @Summary Post an invoice to the ledger
// @Description Creates and posts the receivable or payable entry. The body is optional.
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   invoiceID path string true "Invoice ID"
// @Param   options body dto.PostInvoiceRequest false "Posting date override"
// @Success 200 {object} domain.Invoice
// @Failure 409 {object} ErrorResponse "Not a draft"
// @Failure 422 {object} ErrorResponse "No items"
// @Security BearerAuth
// @Router /invoices/{invoiceID}/post [post]
func (h *documentHandler) postInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("invoice_id", c.Param("invoiceID")))
	var req dto.PostInvoiceRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, logger, &req) {
		return
	}

	invoice, err := h.invoiceService.PostInvoice(c.Request.Context(), c.Param("invoiceID"), req)
	if err != nil {
		respondError(c, logger, err, "Failed to post invoice")
		return
	}
	logger.Info("Invoice posted", slog.String("entry_id", deref(invoice.JournalEntryID)))
	c.JSON(http.StatusOK, invoice)
}

func (h *documentHandler) markPaid(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("invoice_id", c.Param("invoiceID")))

	invoice, err := h.invoiceService.MarkPaid(c.Request.Context(), c.Param("invoiceID"))
	if err != nil {
		respondError(c, logger, err, "Failed to mark invoice paid")
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *documentHandler) cancelInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("invoice_id", c.Param("invoiceID")))

	invoice, err := h.invoiceService.CancelInvoice(c.Request.Context(), c.Param("invoiceID"))
	if err != nil {
		respondError(c, logger, err, "Failed to cancel invoice")
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// createPayment godoc
// @Summary Record a draft payment
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   payment body dto.CreatePaymentRequest true "Payment"
// @Success 201 {object} domain.Payment
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /payments [post]
func (h *documentHandler) createPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreatePaymentRequest
	if !bindJSON(c, logger, &req) {
		return
	}

	payment, err := h.paymentService.CreatePayment(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to create payment")
		return
	}
	logger.Info("Payment created", slog.String("payment_id", payment.PaymentID))
	c.JSON(http.StatusCreated, payment)
}

func (h *documentHandler) getPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("payment_id", c.Param("paymentID")))

	payment, err := h.paymentService.GetPaymentByID(c.Request.Context(), c.Param("paymentID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve payment")
		return
	}
	c.JSON(http.StatusOK, payment)
}

// postPayment godoc
// @Summary Post a payment and settle its invoice
// @Tags payments
// @Produce  json
// @Param   paymentID path string true "Payment ID"
// @Success 200 {object} domain.Payment
// @Failure 409 {object} ErrorResponse "Not a draft, or invoice not open"
// @Failure 400 {object} ErrorResponse "Exceeds the outstanding amount"
// @Security BearerAuth
// @Router /payments/{paymentID}/post [post]
func (h *documentHandler) postPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("payment_id", c.Param("paymentID")))

	payment, err := h.paymentService.PostPayment(c.Request.Context(), c.Param("paymentID"))
	if err != nil {
		respondError(c, logger, err, "Failed to post payment")
		return
	}
	logger.Info("Payment posted")
	c.JSON(http.StatusOK, payment)
}

func (h *documentHandler) cancelPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("payment_id", c.Param("paymentID")))

	payment, err := h.paymentService.CancelPayment(c.Request.Context(), c.Param("paymentID"))
	if err != nil {
		respondError(c, logger, err, "Failed to cancel payment")
		return
	}
	c.JSON(http.StatusOK, payment)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
