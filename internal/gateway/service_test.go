package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/quotedesk/quotedesk-backend/internal/catalog"
	"github.com/quotedesk/quotedesk-backend/internal/quotations"
	"github.com/quotedesk/quotedesk-backend/internal/suppliers"
	"github.com/quotedesk/quotedesk-backend/pkg/db/models"
	"github.com/quotedesk/quotedesk-backend/pkg/enums"
	pkgerrors "github.com/quotedesk/quotedesk-backend/pkg/errors"
	"github.com/quotedesk/quotedesk-backend/pkg/logger"
)

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeRepo struct {
	invite    *models.QuotationSupplier
	quotation *models.Quotation

	maxRounds       map[uuid.UUID]int
	created         []*models.QuotationPrice
	failCreatesLeft int

	supplierStatus enums.QuotationSupplierStatus
	respondedAt    *time.Time
	generalNotes   *string
}

func (f *fakeRepo) WithTx(tx *gorm.DB) quotations.Repository { return f }

func (f *fakeRepo) CreateQuotation(ctx context.Context, q *models.Quotation) (*models.Quotation, error) {
	return q, nil
}

func (f *fakeRepo) FindFull(ctx context.Context, id uuid.UUID) (*models.Quotation, error) {
	if f.quotation == nil || f.quotation.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quotation not found")
	}
	return f.quotation, nil
}

func (f *fakeRepo) FindStatus(ctx context.Context, id uuid.UUID) (enums.QuotationStatus, error) {
	return f.quotation.Status, nil
}

func (f *fakeRepo) UpdateQuotationStatus(ctx context.Context, id uuid.UUID, status enums.QuotationStatus, resolvedAt *time.Time) error {
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeRepo) FindSupplierByToken(ctx context.Context, token string) (*models.QuotationSupplier, error) {
	if f.invite == nil || f.invite.Token != token {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invalid token")
	}
	return f.invite, nil
}

func (f *fakeRepo) FindSupplier(ctx context.Context, quotationID, supplierID uuid.UUID) (*models.QuotationSupplier, error) {
	return f.invite, nil
}

func (f *fakeRepo) MarkSupplierResponded(ctx context.Context, id uuid.UUID, respondedAt time.Time, generalNotes *string) error {
	f.supplierStatus = enums.QuotationSupplierStatusResponded
	f.respondedAt = &respondedAt
	f.generalNotes = generalNotes
	return nil
}

func (f *fakeRepo) MarkSupplierContested(ctx context.Context, id uuid.UUID, note *string) error {
	return nil
}

func (f *fakeRepo) CountSuppliersWithStatus(ctx context.Context, quotationID uuid.UUID, status enums.QuotationSupplierStatus) (int64, error) {
	return 0, nil
}

func (f *fakeRepo) MaxRound(ctx context.Context, quotationItemID, quotationSupplierID uuid.UUID) (int, error) {
	return f.maxRounds[quotationItemID], nil
}

func (f *fakeRepo) CreatePrice(ctx context.Context, price *models.QuotationPrice) (*models.QuotationPrice, error) {
	if f.failCreatesLeft > 0 {
		f.failCreatesLeft--
		return nil, fmt.Errorf("UNIQUE constraint failed: quotation_prices")
	}
	f.created = append(f.created, price)
	return price, nil
}

func (f *fakeRepo) SetItemWinner(ctx context.Context, quotationItemID, supplierID uuid.UUID) error {
	return nil
}

type fakeLocks struct {
	held bool
	err  error
}

func (f *fakeLocks) Get(ctx context.Context, key string) (string, error) { return "", nil }
func (f *fakeLocks) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	return true, nil
}
func (f *fakeLocks) Exists(ctx context.Context, key string) (bool, error) { return f.held, f.err }
func (f *fakeLocks) Del(ctx context.Context, keys ...string) error        { return nil }
func (f *fakeLocks) LockKey(scope, id string) string                      { return "qd:lock:" + scope + ":" + id }

type fixture struct {
	repo        *fakeRepo
	locks       *fakeLocks
	svc         *Service
	token       string
	quotationID uuid.UUID
	inviteID    uuid.UUID
	otherInvite uuid.UUID
	items       []uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	quotationID := uuid.New()
	inviteID := uuid.New()
	otherInvite := uuid.New()
	itemA := uuid.New()
	itemB := uuid.New()
	token := "tok-" + uuid.NewString()

	invite := &models.QuotationSupplier{
		ID:          inviteID,
		QuotationID: quotationID,
		SupplierID:  uuid.New(),
		Token:       token,
		Status:      enums.QuotationSupplierStatusPending,
	}
	quotation := &models.Quotation{
		ID:        quotationID,
		Title:     "weekly restock",
		Status:    enums.QuotationStatusSent,
		Suppliers: []models.QuotationSupplier{*invite},
		Items: []models.QuotationItem{
			{ID: itemA, ItemID: uuid.New(), Quantity: 10, Prices: []models.QuotationPrice{
				{QuotationItemID: itemA, QuotationSupplierID: otherInvite, UnitPrice: decimal.RequireFromString("9.99"), Round: 1},
			}},
			{ID: itemB, ItemID: uuid.New(), Quantity: 3},
		},
	}

	repo := &fakeRepo{invite: invite, quotation: quotation, maxRounds: map[uuid.UUID]int{}}
	locks := &fakeLocks{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc := NewService(stubTx{}, repo, &stubCatalog{}, &stubDirectory{}, locks, logg, nil)

	return &fixture{
		repo:        repo,
		locks:       locks,
		svc:         svc,
		token:       token,
		quotationID: quotationID,
		inviteID:    inviteID,
		otherInvite: otherInvite,
		items:       []uuid.UUID{itemA, itemB},
	}
}

type stubCatalog struct{}

func (stubCatalog) WithTx(tx *gorm.DB) catalog.Repository { return stubCatalog{} }

func (stubCatalog) FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	return &models.Item{ID: id, Name: "item", UnitType: "kg"}, nil
}

func (stubCatalog) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Item, error) {
	found := map[uuid.UUID]models.Item{}
	for _, id := range ids {
		found[id] = models.Item{ID: id, Name: "item", UnitType: "kg"}
	}
	return found, nil
}

type stubDirectory struct{}

func (stubDirectory) WithTx(tx *gorm.DB) suppliers.Repository { return stubDirectory{} }

func (stubDirectory) FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	return &models.Supplier{ID: id, Name: "Alpha Foods"}, nil
}

func (stubDirectory) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Supplier, error) {
	found := map[uuid.UUID]models.Supplier{}
	for _, id := range ids {
		found[id] = models.Supplier{ID: id, Name: "Alpha Foods"}
	}
	return found, nil
}

func TestFetchByTokenUnknownToken(t *testing.T) {
	fix := newFixture(t)

	_, err := fix.svc.FetchByToken(context.Background(), "bogus")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	assert.Equal(t, "invalid token", typed.Message())
}

func TestFetchByTokenHidesOtherSuppliers(t *testing.T) {
	fix := newFixture(t)

	view, err := fix.svc.FetchByToken(context.Background(), fix.token)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	// itemA carries another supplier's price; the token holder must not see it
	assert.Empty(t, view.Items[0].Submitted)
	assert.Empty(t, view.Items[1].Submitted)
}

func TestFetchByTokenShowsOwnGeneralNotes(t *testing.T) {
	fix := newFixture(t)
	notes := "prices hold for 30 days"
	fix.repo.invite.ResponseNotes = &notes

	view, err := fix.svc.FetchByToken(context.Background(), fix.token)
	require.NoError(t, err)
	require.NotNil(t, view.GeneralNotes)
	assert.Equal(t, notes, *view.GeneralNotes)
}

func TestFetchByTokenDeadlinePassed(t *testing.T) {
	fix := newFixture(t)
	past := time.Now().Add(-time.Hour)
	fix.repo.quotation.Deadline = &past

	_, err := fix.svc.FetchByToken(context.Background(), fix.token)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	assert.Equal(t, "invalid token", typed.Message())
}

func TestFetchByTokenResolved(t *testing.T) {
	fix := newFixture(t)
	fix.repo.quotation.Status = enums.QuotationStatusResolved

	// same opaque error as an unknown token
	_, err := fix.svc.FetchByToken(context.Background(), fix.token)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	assert.Equal(t, "invalid token", typed.Message())
}

func TestSubmitStoresNextRound(t *testing.T) {
	fix := newFixture(t)
	fix.repo.maxRounds[fix.items[0]] = 2

	generalNotes := "can deliver everything by Friday"
	result, err := fix.svc.SubmitByToken(context.Background(), fix.token, SubmitInput{
		Lines: []SubmitLine{
			{QuotationItemID: fix.items[0], UnitPrice: decimal.RequireFromString("1.80")},
			{QuotationItemID: fix.items[1], UnitPrice: decimal.RequireFromString("4.50")},
		},
		GeneralNotes: &generalNotes,
	})
	require.NoError(t, err)
	require.Len(t, result.Accepted, 2)
	assert.Empty(t, result.Dropped)

	assert.Equal(t, 3, result.Accepted[0].Round)
	assert.Equal(t, 1, result.Accepted[1].Round)
	require.Len(t, fix.repo.created, 2)
	assert.Equal(t, fix.inviteID, fix.repo.created[0].QuotationSupplierID)

	assert.Equal(t, enums.QuotationSupplierStatusResponded, fix.repo.supplierStatus)
	require.NotNil(t, fix.repo.respondedAt)
	require.NotNil(t, fix.repo.generalNotes)
	assert.Equal(t, generalNotes, *fix.repo.generalNotes)
}

func TestSubmitDropsNonPositivePrices(t *testing.T) {
	fix := newFixture(t)

	result, err := fix.svc.SubmitByToken(context.Background(), fix.token, SubmitInput{
		Lines: []SubmitLine{
			{QuotationItemID: fix.items[0], UnitPrice: decimal.Zero},
			{QuotationItemID: fix.items[1], UnitPrice: decimal.RequireFromString("4.50")},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Accepted, 1)
	require.Len(t, result.Dropped, 1)
	assert.Equal(t, fix.items[0], result.Dropped[0])
	require.Len(t, fix.repo.created, 1)
}

func TestSubmitAllNonPositiveRefused(t *testing.T) {
	fix := newFixture(t)

	_, err := fix.svc.SubmitByToken(context.Background(), fix.token, SubmitInput{
		Lines: []SubmitLine{
			{QuotationItemID: fix.items[0], UnitPrice: decimal.RequireFromString("-1")},
		},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Empty(t, fix.repo.created)
}

func TestSubmitForeignItemRefused(t *testing.T) {
	fix := newFixture(t)

	_, err := fix.svc.SubmitByToken(context.Background(), fix.token, SubmitInput{
		Lines: []SubmitLine{
			{QuotationItemID: uuid.New(), UnitPrice: decimal.RequireFromString("2.00")},
		},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestSubmitRefusedWhileResolving(t *testing.T) {
	fix := newFixture(t)
	fix.locks.held = true

	_, err := fix.svc.SubmitByToken(context.Background(), fix.token, SubmitInput{
		Lines: []SubmitLine{
			{QuotationItemID: fix.items[0], UnitPrice: decimal.RequireFromString("2.00")},
		},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	assert.Empty(t, fix.repo.created)
}

func TestSubmitLockCheckFailure(t *testing.T) {
	fix := newFixture(t)
	fix.locks.err = errors.New("redis down")

	_, err := fix.svc.SubmitByToken(context.Background(), fix.token, SubmitInput{
		Lines: []SubmitLine{
			{QuotationItemID: fix.items[0], UnitPrice: decimal.RequireFromString("2.00")},
		},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestSubmitRetriesOnRoundCollision(t *testing.T) {
	fix := newFixture(t)
	fix.repo.failCreatesLeft = 1

	result, err := fix.svc.SubmitByToken(context.Background(), fix.token, SubmitInput{
		Lines: []SubmitLine{
			{QuotationItemID: fix.items[0], UnitPrice: decimal.RequireFromString("2.00")},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Accepted, 1)
	// first attempt collided with a concurrent round 1; the retry landed on 2
	assert.Equal(t, 2, result.Accepted[0].Round)
}

func TestSubmitDuplicateLineRefused(t *testing.T) {
	fix := newFixture(t)

	_, err := fix.svc.SubmitByToken(context.Background(), fix.token, SubmitInput{
		Lines: []SubmitLine{
			{QuotationItemID: fix.items[0], UnitPrice: decimal.RequireFromString("2.00")},
			{QuotationItemID: fix.items[0], UnitPrice: decimal.RequireFromString("1.90")},
		},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
