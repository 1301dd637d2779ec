package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/quotedesk/quotedesk-backend/pkg/enums"
)

// QuotationSupplier is one invited supplier on a quotation. The token is the
// sole credential for the public response gateway: opaque, unique and
// non-enumerable. It stops working once the quotation deadline passes or the
// quotation resolves.
type QuotationSupplier struct {
	ID          uuid.UUID                     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuotationID uuid.UUID                     `gorm:"column:quotation_id;type:uuid;not null"`
	SupplierID  uuid.UUID                     `gorm:"column:supplier_id;type:uuid;not null"`
	Token       string                        `gorm:"column:token;uniqueIndex;not null"`
	Status      enums.QuotationSupplierStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	RespondedAt *time.Time                    `gorm:"column:responded_at"`
	// Notes carries the buyer's contest note; ResponseNotes the supplier's
	// free-text accompanying their latest submission.
	Notes         *string `gorm:"column:notes"`
	ResponseNotes *string `gorm:"column:response_notes"`
	CreatedAt   time.Time                     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                     `gorm:"column:updated_at;autoUpdateTime"`
}
