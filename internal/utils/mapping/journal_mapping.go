package mapping

import (
	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
	"github.com/SscSPs/bookkeeping_core/internal/models"
)

// ToModelJournalEntry converts the header of a domain JournalEntry to a model JournalEntry
func ToModelJournalEntry(d domain.JournalEntry) models.JournalEntry {
	return models.JournalEntry{
		EntryID:      d.EntryID,
		PostingDate:  d.PostingDate,
		DocumentDate: d.DocumentDate,
		Description:  d.Description,
		Reference:    d.Reference,
		Status:       models.JournalStatus(d.Status),
		ReversedBy:   d.ReversedBy,
		ReversalOf:   d.ReversalOf,
		IsReversal:   d.IsReversal,
		SourceType:   sourceTypeToModel(d.SourceType),
		SourceID:     d.SourceID,
		Version:      d.Version,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainJournalEntry converts a model JournalEntry and its lines to a domain JournalEntry
func ToDomainJournalEntry(m models.JournalEntry, lines []models.JournalLine) domain.JournalEntry {
	return domain.JournalEntry{
		EntryID:      m.EntryID,
		PostingDate:  m.PostingDate,
		DocumentDate: m.DocumentDate,
		Description:  m.Description,
		Reference:    m.Reference,
		Status:       domain.JournalStatus(m.Status),
		ReversedBy:   m.ReversedBy,
		ReversalOf:   m.ReversalOf,
		IsReversal:   m.IsReversal,
		SourceType:   sourceTypeToDomain(m.SourceType),
		SourceID:     m.SourceID,
		Lines:        ToDomainJournalLineSlice(lines),
		Version:      m.Version,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}

func sourceTypeToModel(t domain.SourceType) *string {
	if t == domain.SourceNone {
		return nil
	}
	s := string(t)
	return &s
}

func sourceTypeToDomain(t *string) domain.SourceType {
	if t == nil {
		return domain.SourceNone
	}
	return domain.SourceType(*t)
}

// ToModelJournalLine converts a domain JournalLine to a model JournalLine
func ToModelJournalLine(d domain.JournalLine) models.JournalLine {
	return models.JournalLine{
		LineID:          d.LineID,
		EntryID:         d.EntryID,
		LineNo:          d.LineNo,
		AccountID:       d.AccountID,
		Amount:          d.Amount,
		TransactionType: models.TransactionType(d.TransactionType),
		CostCenterID:    d.CostCenterID,
		ProfitCenterID:  d.ProfitCenterID,
		PartnerID:       d.PartnerID,
		Notes:           d.Notes,
		ClearingID:      d.ClearingID,
		ClearedAt:       d.ClearedAt,
	}
}

// ToDomainJournalLine converts a model JournalLine to a domain JournalLine
func ToDomainJournalLine(m models.JournalLine) domain.JournalLine {
	return domain.JournalLine{
		LineID:          m.LineID,
		EntryID:         m.EntryID,
		LineNo:          m.LineNo,
		AccountID:       m.AccountID,
		Amount:          m.Amount,
		TransactionType: domain.TransactionType(m.TransactionType),
		CostCenterID:    m.CostCenterID,
		ProfitCenterID:  m.ProfitCenterID,
		PartnerID:       m.PartnerID,
		Notes:           m.Notes,
		ClearingID:      m.ClearingID,
		ClearedAt:       m.ClearedAt,
	}
}

// ToDomainJournalLineSlice converts a slice of model JournalLines to a slice of domain JournalLines
func ToDomainJournalLineSlice(ms []models.JournalLine) []domain.JournalLine {
	ds := make([]domain.JournalLine, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainJournalLine(m)
	}
	return ds
}

// ToDomainPostedLine converts a joined line row to a domain PostedLine
func ToDomainPostedLine(m models.PostedLine) domain.PostedLine {
	return domain.PostedLine{
		JournalLine:  ToDomainJournalLine(m.JournalLine),
		PostingDate:  m.PostingDate,
		DocumentDate: m.DocumentDate,
		Description:  m.Description,
		Reference:    m.Reference,
		EntryStatus:  domain.JournalStatus(m.EntryStatus),
		IsReversal:   m.IsReversal,
	}
}
