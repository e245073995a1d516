package dto

import (
	"time"

	"github.com/SscSPs/bookkeeping_core/internal/core/domain"
)

// ClearingResponse describes a freshly created clearing group.
type ClearingResponse struct {
	ClearingID string    `json:"clearingID"`
	PartnerID  string    `json:"partnerID"`
	LineIDs    []string  `json:"lineIDs"`
	ClearedAt  time.Time `json:"clearedAt"`
}

// ToClearingResponse converts a clearing group to its response DTO.
func ToClearingResponse(g *domain.ClearingGroup) ClearingResponse {
	ids := make([]string, len(g.Lines))
	for i, l := range g.Lines {
		ids[i] = l.LineID
	}
	return ClearingResponse{
		ClearingID: g.ClearingID,
		PartnerID:  g.PartnerID,
		LineIDs:    ids,
		ClearedAt:  g.ClearedAt,
	}
}

// ClearManualRequest selects the open items to clear together.
type ClearManualRequest struct {
	LineIDs []string `json:"lineIDs"`
}
