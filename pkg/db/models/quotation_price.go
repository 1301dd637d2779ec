package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuotationPrice is one supplier's offer for one item in one negotiation
// round. Rows are append-only; a resubmission inserts round+1 rather than
// overwriting, so the full history stays auditable. The current offer for a
// (item, supplier) pair is the max-round row.
type QuotationPrice struct {
	ID                  uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuotationItemID     uuid.UUID       `gorm:"column:quotation_item_id;type:uuid;not null;uniqueIndex:ux_quotation_prices_round,priority:1"`
	QuotationSupplierID uuid.UUID       `gorm:"column:quotation_supplier_id;type:uuid;not null;uniqueIndex:ux_quotation_prices_round,priority:2"`
	UnitPrice           decimal.Decimal `gorm:"column:unit_price;type:numeric(14,4);not null"`
	Brand               *string         `gorm:"column:brand"`
	Notes               *string         `gorm:"column:notes"`
	Round               int             `gorm:"column:round;not null;uniqueIndex:ux_quotation_prices_round,priority:3"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`
}
