package quotations

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quotedesk/quotedesk-backend/pkg/db/models"
	"github.com/quotedesk/quotedesk-backend/pkg/enums"
)

// CreateItemInput is one requested line on a new quotation.
type CreateItemInput struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
}

// CreateInput carries everything needed to open a quotation. Suppliers are
// invited at creation; there is no separate send step.
type CreateInput struct {
	Title       string            `json:"title"`
	Deadline    *time.Time        `json:"deadline,omitempty"`
	Notes       *string           `json:"notes,omitempty"`
	SupplierIDs []uuid.UUID       `json:"supplier_ids"`
	Items       []CreateItemInput `json:"items"`
}

// SupplierView is one invited supplier as shown to the buyer, token included
// so the buyer can hand out response links.
type SupplierView struct {
	ID          uuid.UUID                     `json:"id"`
	SupplierID  uuid.UUID                     `json:"supplier_id"`
	Name        string                        `json:"name"`
	Phone       string                        `json:"phone,omitempty"`
	Token       string                        `json:"token"`
	Status      enums.QuotationSupplierStatus `json:"status"`
	RespondedAt *time.Time                    `json:"responded_at,omitempty"`
	Notes       *string                       `json:"notes,omitempty"`
}

// ItemView is one requested line as shown to the buyer.
type ItemView struct {
	ID               uuid.UUID  `json:"id"`
	ItemID           uuid.UUID  `json:"item_id"`
	Name             string     `json:"name"`
	UnitType         string     `json:"unit_type"`
	Quantity         int        `json:"quantity"`
	WinnerSupplierID *uuid.UUID `json:"winner_supplier_id,omitempty"`
}

// View is the buyer-facing read model of a quotation.
type View struct {
	ID         uuid.UUID             `json:"id"`
	Title      string                `json:"title"`
	Status     enums.QuotationStatus `json:"status"`
	Deadline   *time.Time            `json:"deadline,omitempty"`
	Notes      *string               `json:"notes,omitempty"`
	ResolvedAt *time.Time            `json:"resolved_at,omitempty"`
	Suppliers  []SupplierView        `json:"suppliers"`
	Items      []ItemView            `json:"items"`
	CreatedAt  time.Time             `json:"created_at"`
}

// OfferView is one supplier's current offer for one item, with its history.
type OfferView struct {
	QuotationSupplierID uuid.UUID       `json:"quotation_supplier_id"`
	SupplierID          uuid.UUID       `json:"supplier_id"`
	SupplierName        string          `json:"supplier_name"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	Brand               *string         `json:"brand,omitempty"`
	Round               int             `json:"round"`
	SubmittedAt         time.Time       `json:"submitted_at"`
	History             []PriceView     `json:"history"`
}

// PriceView is one historical price row.
type PriceView struct {
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Brand       *string         `json:"brand,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
	Round       int             `json:"round"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// ItemComparison is the per-item price comparison the buyer reviews before
// contesting or resolving.
type ItemComparison struct {
	ItemView
	Offers []OfferView `json:"offers"`
}

// Comparison is the full review surface for one quotation.
type Comparison struct {
	QuotationID uuid.UUID             `json:"quotation_id"`
	Status      enums.QuotationStatus `json:"status"`
	Items       []ItemComparison      `json:"items"`
}

// CurrentOffers partitions an item's price history by responding supplier and
// keeps only each supplier's max-round row — the current offer.
func CurrentOffers(prices []models.QuotationPrice) map[uuid.UUID]models.QuotationPrice {
	current := make(map[uuid.UUID]models.QuotationPrice)
	for _, price := range prices {
		existing, ok := current[price.QuotationSupplierID]
		if !ok || price.Round > existing.Round {
			current[price.QuotationSupplierID] = price
		}
	}
	return current
}
