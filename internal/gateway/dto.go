package gateway

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quotedesk/quotedesk-backend/pkg/enums"
)

// SubmittedPrice is one of the supplier's own past submissions for an item.
// The gateway never exposes other suppliers' prices.
type SubmittedPrice struct {
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Brand       *string         `json:"brand,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
	Round       int             `json:"round"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// RequestItem is one requested line as the responding supplier sees it.
type RequestItem struct {
	QuotationItemID uuid.UUID        `json:"quotation_item_id"`
	Name            string           `json:"name"`
	UnitType        string           `json:"unit_type"`
	Quantity        int              `json:"quantity"`
	Submitted       []SubmittedPrice `json:"submitted,omitempty"`
}

// RequestView is the token-scoped view of a quotation: the basket, the
// deadline and the supplier's own response state.
type RequestView struct {
	QuotationID    uuid.UUID                     `json:"quotation_id"`
	Title          string                        `json:"title"`
	Deadline       *time.Time                    `json:"deadline,omitempty"`
	Notes          *string                       `json:"notes,omitempty"`
	SupplierName   string                        `json:"supplier_name"`
	SupplierStatus enums.QuotationSupplierStatus `json:"supplier_status"`
	ContestNote    *string                       `json:"contest_note,omitempty"`
	GeneralNotes   *string                       `json:"general_notes,omitempty"`
	Items          []RequestItem                 `json:"items"`
}

// SubmitLine is one priced line in a supplier submission.
type SubmitLine struct {
	QuotationItemID uuid.UUID       `json:"quotation_item_id"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Brand           *string         `json:"brand,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
}

// SubmitInput is a full supplier submission for one negotiation round:
// priced lines plus optional free-text notes for the whole submission.
type SubmitInput struct {
	Lines        []SubmitLine `json:"lines"`
	GeneralNotes *string      `json:"general_notes,omitempty"`
}

// AcceptedLine reports the stored round for one submitted line. Rounds are
// tracked per (item, supplier) pair, so lines in one submission can land on
// different rounds.
type AcceptedLine struct {
	QuotationItemID uuid.UUID `json:"quotation_item_id"`
	Round           int       `json:"round"`
}

// SubmitResult reports which lines were stored and which were discarded for
// carrying a non-positive price.
type SubmitResult struct {
	Accepted []AcceptedLine `json:"accepted"`
	Dropped  []uuid.UUID    `json:"dropped,omitempty"`
}
