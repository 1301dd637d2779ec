package models

import (
	"time"

	"github.com/google/uuid"
)

// QuotationItem is one requested line on a quotation. Every invited supplier
// sees the same item and quantity. WinnerSupplierID stays null until
// resolution and is immutable afterward.
type QuotationItem struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuotationID      uuid.UUID        `gorm:"column:quotation_id;type:uuid;not null"`
	ItemID           uuid.UUID        `gorm:"column:item_id;type:uuid;not null"`
	Quantity         int              `gorm:"column:quantity;not null"`
	WinnerSupplierID *uuid.UUID       `gorm:"column:winner_supplier_id;type:uuid"`
	Prices           []QuotationPrice `gorm:"foreignKey:QuotationItemID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
