package quotations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quotedesk/quotedesk-backend/pkg/db/models"
	"github.com/quotedesk/quotedesk-backend/pkg/enums"
)

// Repository defines persistence operations for the quotation aggregate.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateQuotation(ctx context.Context, quotation *models.Quotation) (*models.Quotation, error)
	FindFull(ctx context.Context, id uuid.UUID) (*models.Quotation, error)
	FindStatus(ctx context.Context, id uuid.UUID) (enums.QuotationStatus, error)
	UpdateQuotationStatus(ctx context.Context, id uuid.UUID, status enums.QuotationStatus, resolvedAt *time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error

	FindSupplierByToken(ctx context.Context, token string) (*models.QuotationSupplier, error)
	FindSupplier(ctx context.Context, quotationID, supplierID uuid.UUID) (*models.QuotationSupplier, error)
	MarkSupplierResponded(ctx context.Context, id uuid.UUID, respondedAt time.Time, generalNotes *string) error
	MarkSupplierContested(ctx context.Context, id uuid.UUID, note *string) error
	CountSuppliersWithStatus(ctx context.Context, quotationID uuid.UUID, status enums.QuotationSupplierStatus) (int64, error)

	MaxRound(ctx context.Context, quotationItemID, quotationSupplierID uuid.UUID) (int, error)
	CreatePrice(ctx context.Context, price *models.QuotationPrice) (*models.QuotationPrice, error)
	SetItemWinner(ctx context.Context, quotationItemID, supplierID uuid.UUID) error
}
