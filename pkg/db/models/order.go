package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/quotedesk/quotedesk-backend/pkg/enums"
)

// Order is the per-supplier purchase order materialized by resolution.
// QuotationID records provenance; fulfillment happens downstream.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuotationID *uuid.UUID        `gorm:"column:quotation_id;type:uuid"`
	SupplierID  uuid.UUID         `gorm:"column:supplier_id;type:uuid;not null"`
	Status      enums.OrderStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	Notes       *string           `gorm:"column:notes"`
	Items       []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
