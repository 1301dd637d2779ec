package quotations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quotedesk/quotedesk-backend/pkg/db/models"
	"github.com/quotedesk/quotedesk-backend/pkg/enums"
	pkgerrors "github.com/quotedesk/quotedesk-backend/pkg/errors"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a quotation repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateQuotation(ctx context.Context, quotation *models.Quotation) (*models.Quotation, error) {
	if err := r.db.WithContext(ctx).Create(quotation).Error; err != nil {
		return nil, err
	}
	return quotation, nil
}

// FindFull loads the quotation with suppliers, items and each item's full
// price history in one pass so resolution never does per-row lookups.
func (r *repository) FindFull(ctx context.Context, id uuid.UUID) (*models.Quotation, error) {
	var quotation models.Quotation
	err := r.db.WithContext(ctx).
		Preload("Suppliers", func(db *gorm.DB) *gorm.DB {
			return db.Order("quotation_suppliers.created_at ASC")
		}).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("quotation_items.created_at ASC")
		}).
		Preload("Items.Prices", func(db *gorm.DB) *gorm.DB {
			return db.Order("quotation_prices.round ASC")
		}).
		Where("id = ?", id).
		First(&quotation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quotation not found")
	}
	if err != nil {
		return nil, err
	}
	return &quotation, nil
}

func (r *repository) FindStatus(ctx context.Context, id uuid.UUID) (enums.QuotationStatus, error) {
	var quotation models.Quotation
	err := r.db.WithContext(ctx).
		Select("id", "status").
		Where("id = ?", id).
		First(&quotation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "quotation not found")
	}
	if err != nil {
		return "", err
	}
	return quotation.Status, nil
}

func (r *repository) UpdateQuotationStatus(ctx context.Context, id uuid.UUID, status enums.QuotationStatus, resolvedAt *time.Time) error {
	updates := map[string]any{"status": status}
	if resolvedAt != nil {
		updates["resolved_at"] = resolvedAt
	}
	result := r.db.WithContext(ctx).
		Model(&models.Quotation{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "quotation not found")
	}
	return nil
}

// Delete removes a quotation and everything hanging off it. Children are
// removed explicitly so the cascade does not depend on FK enforcement being
// enabled in the backing store.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)

	var supplierIDs []uuid.UUID
	if err := db.Model(&models.QuotationSupplier{}).
		Where("quotation_id = ?", id).
		Pluck("id", &supplierIDs).Error; err != nil {
		return err
	}

	if len(supplierIDs) > 0 {
		if err := db.Where("quotation_supplier_id IN ?", supplierIDs).
			Delete(&models.QuotationPrice{}).Error; err != nil {
			return err
		}
	}
	if err := db.Where("quotation_id = ?", id).Delete(&models.QuotationItem{}).Error; err != nil {
		return err
	}
	if err := db.Where("quotation_id = ?", id).Delete(&models.QuotationSupplier{}).Error; err != nil {
		return err
	}

	result := db.Where("id = ?", id).Delete(&models.Quotation{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "quotation not found")
	}
	return nil
}

func (r *repository) FindSupplierByToken(ctx context.Context, token string) (*models.QuotationSupplier, error) {
	var supplier models.QuotationSupplier
	err := r.db.WithContext(ctx).
		Where("token = ?", token).
		First(&supplier).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invalid token")
	}
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *repository) FindSupplier(ctx context.Context, quotationID, supplierID uuid.UUID) (*models.QuotationSupplier, error) {
	var supplier models.QuotationSupplier
	err := r.db.WithContext(ctx).
		Where("quotation_id = ? AND supplier_id = ?", quotationID, supplierID).
		First(&supplier).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quotation supplier not found")
	}
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

// MarkSupplierResponded flips the invite to responded and stores the
// supplier's general notes when the submission carried any. Notes from an
// earlier round are kept unless the new submission replaces them.
func (r *repository) MarkSupplierResponded(ctx context.Context, id uuid.UUID, respondedAt time.Time, generalNotes *string) error {
	updates := map[string]any{
		"status":       enums.QuotationSupplierStatusResponded,
		"responded_at": respondedAt,
	}
	if generalNotes != nil {
		updates["response_notes"] = generalNotes
	}
	result := r.db.WithContext(ctx).
		Model(&models.QuotationSupplier{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "quotation supplier not found")
	}
	return nil
}

// MarkSupplierContested flips the invite to contested and records the buyer's
// note when one is given.
func (r *repository) MarkSupplierContested(ctx context.Context, id uuid.UUID, note *string) error {
	updates := map[string]any{"status": enums.QuotationSupplierStatusContested}
	if note != nil {
		updates["notes"] = note
	}
	result := r.db.WithContext(ctx).
		Model(&models.QuotationSupplier{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "quotation supplier not found")
	}
	return nil
}

func (r *repository) CountSuppliersWithStatus(ctx context.Context, quotationID uuid.UUID, status enums.QuotationSupplierStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.QuotationSupplier{}).
		Where("quotation_id = ? AND status = ?", quotationID, status).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// MaxRound returns the highest submitted round for the (item, supplier) pair,
// zero when no price exists yet.
func (r *repository) MaxRound(ctx context.Context, quotationItemID, quotationSupplierID uuid.UUID) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).
		Model(&models.QuotationPrice{}).
		Select("MAX(round)").
		Where("quotation_item_id = ? AND quotation_supplier_id = ?", quotationItemID, quotationSupplierID).
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (r *repository) CreatePrice(ctx context.Context, price *models.QuotationPrice) (*models.QuotationPrice, error) {
	if err := r.db.WithContext(ctx).Create(price).Error; err != nil {
		return nil, err
	}
	return price, nil
}

// SetItemWinner persists the winning supplier for an item. The guard keeps an
// already-assigned winner immutable.
func (r *repository) SetItemWinner(ctx context.Context, quotationItemID, supplierID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.QuotationItem{}).
		Where("id = ? AND winner_supplier_id IS NULL", quotationItemID).
		Update("winner_supplier_id", supplierID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "item winner already assigned")
	}
	return nil
}
