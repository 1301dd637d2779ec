package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/quotedesk/quotedesk-backend/pkg/enums"
)

// Quotation is a request for price quotes sent to multiple suppliers for a
// fixed basket of inventory items. Status is monotonic except for the
// contested/comparing cycle; resolved is terminal.
type Quotation struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title      string                `gorm:"column:title;not null"`
	Status     enums.QuotationStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	Deadline   *time.Time            `gorm:"column:deadline"`
	Notes      *string               `gorm:"column:notes"`
	ResolvedAt *time.Time            `gorm:"column:resolved_at"`
	Suppliers  []QuotationSupplier   `gorm:"foreignKey:QuotationID;constraint:OnDelete:CASCADE"`
	Items      []QuotationItem       `gorm:"foreignKey:QuotationID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
