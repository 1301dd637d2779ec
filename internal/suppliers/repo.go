package suppliers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quotedesk/quotedesk-backend/pkg/db/models"
	pkgerrors "github.com/quotedesk/quotedesk-backend/pkg/errors"
)

// Repository reads the supplier directory. The directory is owned by a
// collaborating system; the quotation core only resolves ids to
// {id, name, phone}.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Supplier, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a supplier directory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	var supplier models.Supplier
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&supplier).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
	}
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Supplier, error) {
	found := make(map[uuid.UUID]models.Supplier, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	var rows []models.Supplier
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, supplier := range rows {
		found[supplier.ID] = supplier
	}
	return found, nil
}
