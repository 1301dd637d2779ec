package resolution

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/quotedesk/quotedesk-backend/internal/orders"
	"github.com/quotedesk/quotedesk-backend/internal/quotations"
	"github.com/quotedesk/quotedesk-backend/pkg/db/models"
	"github.com/quotedesk/quotedesk-backend/pkg/enums"
	pkgerrors "github.com/quotedesk/quotedesk-backend/pkg/errors"
	"github.com/quotedesk/quotedesk-backend/pkg/logger"
	"github.com/quotedesk/quotedesk-backend/pkg/metrics"
)

// TxRunner runs a closure inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ItemWinner is one resolved line: which supplier won the item and at what
// price.
type ItemWinner struct {
	QuotationItemID uuid.UUID       `json:"quotation_item_id"`
	ItemID          uuid.UUID       `json:"item_id"`
	SupplierID      uuid.UUID       `json:"supplier_id"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Round           int             `json:"round"`
}

// OrderSummary is one draft purchase order materialized by a resolution pass.
type OrderSummary struct {
	OrderID    uuid.UUID `json:"order_id"`
	SupplierID uuid.UUID `json:"supplier_id"`
	Lines      int       `json:"lines"`
}

// Outcome reports what one resolution pass decided and created.
type Outcome struct {
	QuotationID uuid.UUID      `json:"quotation_id"`
	ResolvedAt  time.Time      `json:"resolved_at"`
	Winners     []ItemWinner   `json:"winners"`
	Skipped     []uuid.UUID    `json:"skipped,omitempty"`
	Orders      []OrderSummary `json:"orders"`
}

// Service resolves quotations: it picks a deterministic winner per item from
// the current offers, materializes one draft purchase order per winning
// supplier and flips the quotation to resolved, all in a single transaction
// guarded by a per-quotation redis lock.
type Service struct {
	tx      TxRunner
	repo    quotations.Repository
	orders  orders.Repository
	locks   Locker
	log     *logger.Logger
	metrics *metrics.QuotationMetrics
	now     func() time.Time
}

// NewService wires the resolution service.
func NewService(
	tx TxRunner,
	repo quotations.Repository,
	ordersRepo orders.Repository,
	locks Locker,
	log *logger.Logger,
	m *metrics.QuotationMetrics,
) *Service {
	return &Service{
		tx:      tx,
		repo:    repo,
		orders:  ordersRepo,
		locks:   locks,
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

// Resolve runs one resolution pass over the quotation. Items nobody priced
// are skipped without a winner; everything else commits atomically. A
// concurrent pass on the same quotation is refused, as is a quotation that
// still has a contested supplier or is already resolved.
func (s *Service) Resolve(ctx context.Context, quotationID uuid.UUID) (*Outcome, error) {
	started := s.now()
	ctx = s.log.WithQuotationID(ctx, quotationID.String())

	lock, err := s.locks.Acquire(ctx, quotationID)
	if err != nil {
		if errors.Is(err, ErrLockHeld) {
			s.metrics.IncResolution("conflict")
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "quotation resolution in progress")
		}
		s.metrics.IncResolution("error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquiring resolution lock")
	}
	defer func() {
		if releaseErr := lock.Release(ctx); releaseErr != nil {
			s.log.Error(ctx, "releasing resolution lock", releaseErr)
		}
	}()

	outcome, err := s.resolveLocked(ctx, quotationID)
	if err != nil {
		if pkgerrors.As(err) != nil {
			s.metrics.IncResolution("refused")
		} else {
			s.metrics.IncResolution("error")
		}
		return nil, err
	}

	s.metrics.IncResolution("resolved")
	s.metrics.ObserveResolutionDuration(s.now().Sub(started))
	s.log.Info(ctx, "quotation resolved")
	return outcome, nil
}

func (s *Service) resolveLocked(ctx context.Context, quotationID uuid.UUID) (*Outcome, error) {
	quotation, err := s.repo.FindFull(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	if quotation.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "quotation already resolved")
	}
	// A contested quotation resolves once every contested supplier has
	// resubmitted; only an invite still awaiting revision blocks the pass.
	for _, invite := range quotation.Suppliers {
		if invite.Status == enums.QuotationSupplierStatusContested {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "quotation has contested suppliers awaiting resubmission")
		}
	}

	supplierByInvite := make(map[uuid.UUID]uuid.UUID, len(quotation.Suppliers))
	for _, invite := range quotation.Suppliers {
		supplierByInvite[invite.ID] = invite.SupplierID
	}

	outcome := &Outcome{QuotationID: quotationID}
	winnersBySupplier := make(map[uuid.UUID][]ItemWinner)
	for _, line := range quotation.Items {
		winner, ok := pickWinner(line.Prices, supplierByInvite)
		if !ok {
			outcome.Skipped = append(outcome.Skipped, line.ID)
			continue
		}
		entry := ItemWinner{
			QuotationItemID: line.ID,
			ItemID:          line.ItemID,
			SupplierID:      winner.supplierID,
			UnitPrice:       winner.offer.UnitPrice,
			Round:           winner.offer.Round,
		}
		outcome.Winners = append(outcome.Winners, entry)
		winnersBySupplier[winner.supplierID] = append(winnersBySupplier[winner.supplierID], entry)
	}

	quantityByItem := make(map[uuid.UUID]int, len(quotation.Items))
	brandByItem := make(map[uuid.UUID]*string)
	for _, line := range quotation.Items {
		quantityByItem[line.ID] = line.Quantity
	}
	for _, winner := range outcome.Winners {
		for _, price := range findItemPrices(quotation.Items, winner.QuotationItemID) {
			if price.Round == winner.Round && supplierByInvite[price.QuotationSupplierID] == winner.SupplierID {
				brandByItem[winner.QuotationItemID] = price.Brand
			}
		}
	}

	// Supplier order is sorted so repeated passes over identical data would
	// create orders in the same sequence.
	supplierIDs := make([]uuid.UUID, 0, len(winnersBySupplier))
	for supplierID := range winnersBySupplier {
		supplierIDs = append(supplierIDs, supplierID)
	}
	sort.Slice(supplierIDs, func(i, j int) bool {
		return supplierIDs[i].String() < supplierIDs[j].String()
	})

	resolvedAt := s.now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		for _, winner := range outcome.Winners {
			if txErr := repo.SetItemWinner(ctx, winner.QuotationItemID, winner.SupplierID); txErr != nil {
				return txErr
			}
		}

		for _, supplierID := range supplierIDs {
			order := &models.Order{
				QuotationID: &quotationID,
				SupplierID:  supplierID,
				Status:      enums.OrderStatusDraft,
			}
			if _, txErr := ordersRepo.CreateOrder(ctx, order); txErr != nil {
				return txErr
			}
			lines := winnersBySupplier[supplierID]
			items := make([]models.OrderItem, 0, len(lines))
			for _, winner := range lines {
				items = append(items, models.OrderItem{
					OrderID:   order.ID,
					ItemID:    winner.ItemID,
					Quantity:  quantityByItem[winner.QuotationItemID],
					UnitPrice: winner.UnitPrice,
					Brand:     brandByItem[winner.QuotationItemID],
				})
			}
			if txErr := ordersRepo.CreateOrderItems(ctx, items); txErr != nil {
				return txErr
			}
			outcome.Orders = append(outcome.Orders, OrderSummary{
				OrderID:    order.ID,
				SupplierID: supplierID,
				Lines:      len(items),
			})
		}

		return repo.UpdateQuotationStatus(ctx, quotationID, enums.QuotationStatusResolved, &resolvedAt)
	})
	if err != nil {
		return nil, err
	}

	outcome.ResolvedAt = resolvedAt
	return outcome, nil
}

type winningOffer struct {
	offer      models.QuotationPrice
	supplierID uuid.UUID
}

// pickWinner selects the item's winner from the current offers: lowest unit
// price, then earliest submission, then lowest supplier id as the final
// deterministic tie-break.
func pickWinner(prices []models.QuotationPrice, supplierByInvite map[uuid.UUID]uuid.UUID) (winningOffer, bool) {
	current := quotations.CurrentOffers(prices)
	if len(current) == 0 {
		return winningOffer{}, false
	}

	candidates := make([]winningOffer, 0, len(current))
	for inviteID, offer := range current {
		candidates = append(candidates, winningOffer{
			offer:      offer,
			supplierID: supplierByInvite[inviteID],
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if !a.offer.UnitPrice.Equal(b.offer.UnitPrice) {
			return a.offer.UnitPrice.LessThan(b.offer.UnitPrice)
		}
		if !a.offer.CreatedAt.Equal(b.offer.CreatedAt) {
			return a.offer.CreatedAt.Before(b.offer.CreatedAt)
		}
		return a.supplierID.String() < b.supplierID.String()
	})
	return candidates[0], true
}

func findItemPrices(items []models.QuotationItem, quotationItemID uuid.UUID) []models.QuotationPrice {
	for _, line := range items {
		if line.ID == quotationItemID {
			return line.Prices
		}
	}
	return nil
}
