package mapping

import (
	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	"github.com/SscSPs/bookkeeping_core/internal/models"
)

// ToModelInvoice converts the header of a domain Invoice to a model Invoice
func ToModelInvoice(d domain.Invoice) models.Invoice {
	return models.Invoice{
		InvoiceID:       d.InvoiceID,
		Number:          d.Number,
		PartnerID:       d.PartnerID,
		Direction:       string(d.Direction),
		Status:          string(d.Status),
		IssueDate:       d.IssueDate,
		DueDate:         d.DueDate,
		GrossAmount:     d.GrossAmount,
		TaxAmount:       d.TaxAmount,
		NetAmount:       d.NetAmount,
		PaidAmount:      d.PaidAmount,
		LedgerAccountID: d.LedgerAccountID,
		CostCenterID:    d.CostCenterID,
		ProfitCenterID:  d.ProfitCenterID,
		JournalEntryID:  d.JournalEntryID,
		ReversalEntryID: d.ReversalEntryID,
		Version:         d.Version,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToModelInvoiceItems converts the items of a domain Invoice to model rows, keeping their order
func ToModelInvoiceItems(d domain.Invoice) []models.InvoiceItem {
	out := make([]models.InvoiceItem, len(d.Items))
	for i, it := range d.Items {
		var breakdown []models.TaxRate
		for _, tr := range it.TaxBreakdown {
			breakdown = append(breakdown, models.TaxRate{Name: tr.Name, Rate: tr.Rate, Amount: tr.Amount})
		}
		out[i] = models.InvoiceItem{
			ItemID:       it.ItemID,
			InvoiceID:    d.InvoiceID,
			Position:     i,
			Description:  it.Description,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			TaxAmount:    it.TaxAmount,
			Total:        it.Total,
			TaxBreakdown: breakdown,
		}
	}
	return out
}

// ToDomainInvoice converts a model Invoice and its item rows to a domain Invoice
func ToDomainInvoice(m models.Invoice, items []models.InvoiceItem) domain.Invoice {
	inv := domain.Invoice{
		InvoiceID:       m.InvoiceID,
		Number:          m.Number,
		PartnerID:       m.PartnerID,
		Direction:       domain.InvoiceDirection(m.Direction),
		Status:          domain.InvoiceStatus(m.Status),
		IssueDate:       m.IssueDate,
		DueDate:         m.DueDate,
		GrossAmount:     m.GrossAmount,
		TaxAmount:       m.TaxAmount,
		NetAmount:       m.NetAmount,
		PaidAmount:      m.PaidAmount,
		Items:           make([]domain.InvoiceItem, len(items)),
		LedgerAccountID: m.LedgerAccountID,
		CostCenterID:    m.CostCenterID,
		ProfitCenterID:  m.ProfitCenterID,
		JournalEntryID:  m.JournalEntryID,
		ReversalEntryID: m.ReversalEntryID,
		Version:         m.Version,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
	for i, it := range items {
		var breakdown []domain.TaxRate
		for _, tr := range it.TaxBreakdown {
			breakdown = append(breakdown, domain.TaxRate{Name: tr.Name, Rate: tr.Rate, Amount: tr.Amount})
		}
		inv.Items[i] = domain.InvoiceItem{
			ItemID:       it.ItemID,
			Description:  it.Description,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			TaxAmount:    it.TaxAmount,
			Total:        it.Total,
			TaxBreakdown: breakdown,
		}
	}
	return inv
}

// ToModelPayment converts a domain Payment to a model Payment
func ToModelPayment(d domain.Payment) models.Payment {
	return models.Payment{
		PaymentID:           d.PaymentID,
		PartnerID:           d.PartnerID,
		InvoiceID:           d.InvoiceID,
		SettlementAccountID: d.SettlementAccountID,
		Direction:           string(d.Direction),
		Amount:              d.Amount,
		PaymentDate:         d.PaymentDate,
		Method:              string(d.Method),
		Status:              string(d.Status),
		JournalEntryID:      d.JournalEntryID,
		ReversalEntryID:     d.ReversalEntryID,
		Version:             d.Version,
		AuditFields:         ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainPayment converts a model Payment to a domain Payment
func ToDomainPayment(m models.Payment) domain.Payment {
	return domain.Payment{
		PaymentID:           m.PaymentID,
		PartnerID:           m.PartnerID,
		InvoiceID:           m.InvoiceID,
		SettlementAccountID: m.SettlementAccountID,
		Direction:           domain.PaymentDirection(m.Direction),
		Amount:              m.Amount,
		PaymentDate:         m.PaymentDate,
		Method:              domain.PaymentMethod(m.Method),
		Status:              domain.PaymentStatus(m.Status),
		JournalEntryID:      m.JournalEntryID,
		ReversalEntryID:     m.ReversalEntryID,
		Version:             m.Version,
		AuditFields:         ToDomainAuditFields(m.AuditFields),
	}
}
