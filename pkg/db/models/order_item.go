package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is one won line carried over from the quotation: the requested
// quantity plus a snapshot of the winning offer's price and brand, so the
// draft order stays readable after the quotation is deleted.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	ItemID    uuid.UUID       `gorm:"column:item_id;type:uuid;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(14,4);not null"`
	Brand     *string         `gorm:"column:brand"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
