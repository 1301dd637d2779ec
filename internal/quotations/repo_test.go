package quotations

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgdb "github.com/quotedesk/quotedesk-backend/pkg/db"
	"github.com/quotedesk/quotedesk-backend/pkg/db/models"
	"github.com/quotedesk/quotedesk-backend/pkg/enums"
	pkgerrors "github.com/quotedesk/quotedesk-backend/pkg/errors"
)

func setupQuotationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	quotations := `
CREATE TABLE IF NOT EXISTS quotations (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'draft',
  deadline DATETIME,
  notes TEXT,
  resolved_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	quotationSuppliers := `
CREATE TABLE IF NOT EXISTS quotation_suppliers (
  id TEXT PRIMARY KEY,
  quotation_id TEXT NOT NULL,
  supplier_id TEXT NOT NULL,
  token TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  responded_at DATETIME,
  notes TEXT,
  response_notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_quotation_suppliers_token ON quotation_suppliers (token);`
	quotationItems := `
CREATE TABLE IF NOT EXISTS quotation_items (
  id TEXT PRIMARY KEY,
  quotation_id TEXT NOT NULL,
  item_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  winner_supplier_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	quotationPrices := `
CREATE TABLE IF NOT EXISTS quotation_prices (
  id TEXT PRIMARY KEY,
  quotation_item_id TEXT NOT NULL,
  quotation_supplier_id TEXT NOT NULL,
  unit_price TEXT NOT NULL,
  brand TEXT,
  notes TEXT,
  round INTEGER NOT NULL,
  created_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_quotation_prices_round ON quotation_prices (quotation_item_id, quotation_supplier_id, round);`

	require.NoError(t, db.Exec(quotations).Error)
	require.NoError(t, db.Exec(quotationSuppliers).Error)
	require.NoError(t, db.Exec(quotationItems).Error)
	require.NoError(t, db.Exec(quotationPrices).Error)
	return db
}

func seedQuotation(t *testing.T, db *gorm.DB, supplierCount, itemCount int) *models.Quotation {
	t.Helper()

	quotation := &models.Quotation{
		ID:     uuid.New(),
		Title:  "weekly restock",
		Status: enums.QuotationStatusSent,
	}
	for i := 0; i < supplierCount; i++ {
		quotation.Suppliers = append(quotation.Suppliers, models.QuotationSupplier{
			ID:         uuid.New(),
			SupplierID: uuid.New(),
			Token:      uuid.NewString(),
			Status:     enums.QuotationSupplierStatusPending,
		})
	}
	for i := 0; i < itemCount; i++ {
		quotation.Items = append(quotation.Items, models.QuotationItem{
			ID:       uuid.New(),
			ItemID:   uuid.New(),
			Quantity: 5 + i,
		})
	}
	require.NoError(t, db.Create(quotation).Error)
	return quotation
}

func TestRepositoryFindFull(t *testing.T) {
	db := setupQuotationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := seedQuotation(t, db, 2, 3)

	found, err := repo.FindFull(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.Title, found.Title)
	assert.Len(t, found.Suppliers, 2)
	assert.Len(t, found.Items, 3)

	_, err = repo.FindFull(ctx, uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRepositoryFindSupplierByToken(t *testing.T) {
	db := setupQuotationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := seedQuotation(t, db, 1, 1)

	invite, err := repo.FindSupplierByToken(ctx, seeded.Suppliers[0].Token)
	require.NoError(t, err)
	assert.Equal(t, seeded.Suppliers[0].ID, invite.ID)

	_, err = repo.FindSupplierByToken(ctx, "no-such-token")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	assert.Equal(t, "invalid token", typed.Message())
}

func TestRepositoryPriceRounds(t *testing.T) {
	db := setupQuotationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := seedQuotation(t, db, 1, 1)
	itemID := seeded.Items[0].ID
	inviteID := seeded.Suppliers[0].ID

	round, err := repo.MaxRound(ctx, itemID, inviteID)
	require.NoError(t, err)
	assert.Equal(t, 0, round)

	_, err = repo.CreatePrice(ctx, &models.QuotationPrice{
		ID:                  uuid.New(),
		QuotationItemID:     itemID,
		QuotationSupplierID: inviteID,
		UnitPrice:           decimal.RequireFromString("2.00"),
		Round:               1,
	})
	require.NoError(t, err)

	round, err = repo.MaxRound(ctx, itemID, inviteID)
	require.NoError(t, err)
	assert.Equal(t, 1, round)

	// same pair and round again trips the unique index
	_, err = repo.CreatePrice(ctx, &models.QuotationPrice{
		ID:                  uuid.New(),
		QuotationItemID:     itemID,
		QuotationSupplierID: inviteID,
		UnitPrice:           decimal.RequireFromString("1.80"),
		Round:               1,
	})
	require.Error(t, err)
	assert.True(t, pkgdb.IsUniqueViolation(err, "ux_quotation_prices_round"))
}

func TestRepositorySetItemWinnerImmutable(t *testing.T) {
	db := setupQuotationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := seedQuotation(t, db, 2, 1)
	itemID := seeded.Items[0].ID

	first := seeded.Suppliers[0].SupplierID
	require.NoError(t, repo.SetItemWinner(ctx, itemID, first))

	err := repo.SetItemWinner(ctx, itemID, seeded.Suppliers[1].SupplierID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	found, err := repo.FindFull(ctx, seeded.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Items[0].WinnerSupplierID)
	assert.Equal(t, first, *found.Items[0].WinnerSupplierID)
}

func TestRepositorySupplierStatusUpdates(t *testing.T) {
	db := setupQuotationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := seedQuotation(t, db, 2, 1)
	inviteID := seeded.Suppliers[0].ID

	now := time.Now().UTC()
	general := "delivery included in all prices"
	require.NoError(t, repo.MarkSupplierResponded(ctx, inviteID, now, &general))

	note := "quote feels high, please revisit"
	require.NoError(t, repo.MarkSupplierContested(ctx, inviteID, &note))

	count, err := repo.CountSuppliersWithStatus(ctx, seeded.ID, enums.QuotationSupplierStatusContested)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	invite, err := repo.FindSupplier(ctx, seeded.ID, seeded.Suppliers[0].SupplierID)
	require.NoError(t, err)
	assert.Equal(t, enums.QuotationSupplierStatusContested, invite.Status)
	require.NotNil(t, invite.Notes)
	assert.Equal(t, note, *invite.Notes)
	// the supplier's general notes survive the contest untouched
	require.NotNil(t, invite.ResponseNotes)
	assert.Equal(t, general, *invite.ResponseNotes)
	require.NotNil(t, invite.RespondedAt)

	// a resubmission without notes keeps the earlier ones
	require.NoError(t, repo.MarkSupplierResponded(ctx, inviteID, time.Now().UTC(), nil))
	invite, err = repo.FindSupplier(ctx, seeded.ID, seeded.Suppliers[0].SupplierID)
	require.NoError(t, err)
	assert.Equal(t, enums.QuotationSupplierStatusResponded, invite.Status)
	require.NotNil(t, invite.ResponseNotes)
	assert.Equal(t, general, *invite.ResponseNotes)

	err = repo.MarkSupplierResponded(ctx, uuid.New(), now, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRepositoryDeleteCascades(t *testing.T) {
	db := setupQuotationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := seedQuotation(t, db, 1, 2)
	_, err := repo.CreatePrice(ctx, &models.QuotationPrice{
		ID:                  uuid.New(),
		QuotationItemID:     seeded.Items[0].ID,
		QuotationSupplierID: seeded.Suppliers[0].ID,
		UnitPrice:           decimal.RequireFromString("3.25"),
		Round:               1,
	})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, seeded.ID))

	var prices int64
	require.NoError(t, db.Model(&models.QuotationPrice{}).
		Where("quotation_supplier_id = ?", seeded.Suppliers[0].ID).
		Count(&prices).Error)
	assert.Zero(t, prices)
	var invites int64
	require.NoError(t, db.Model(&models.QuotationSupplier{}).Where("quotation_id = ?", seeded.ID).Count(&invites).Error)
	assert.Zero(t, invites)

	err = repo.Delete(ctx, seeded.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRepositoryUpdateQuotationStatus(t *testing.T) {
	db := setupQuotationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := seedQuotation(t, db, 1, 1)

	resolvedAt := time.Now().UTC()
	require.NoError(t, repo.UpdateQuotationStatus(ctx, seeded.ID, enums.QuotationStatusResolved, &resolvedAt))

	status, err := repo.FindStatus(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.QuotationStatusResolved, status)

	err = repo.UpdateQuotationStatus(ctx, uuid.New(), enums.QuotationStatusComparing, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
