package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quotedesk/quotedesk-backend/internal/catalog"
	"github.com/quotedesk/quotedesk-backend/internal/quotations"
	"github.com/quotedesk/quotedesk-backend/internal/suppliers"
	"github.com/quotedesk/quotedesk-backend/pkg/db"
	"github.com/quotedesk/quotedesk-backend/pkg/db/models"
	"github.com/quotedesk/quotedesk-backend/pkg/enums"
	pkgerrors "github.com/quotedesk/quotedesk-backend/pkg/errors"
	"github.com/quotedesk/quotedesk-backend/pkg/logger"
	"github.com/quotedesk/quotedesk-backend/pkg/metrics"
	"github.com/quotedesk/quotedesk-backend/pkg/redis"
)

const (
	outcomeAccepted = "accepted"
	outcomePartial  = "partial"
	outcomeRejected = "rejected"
)

// TxRunner runs a closure inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the public, token-authenticated supplier gateway. A response
// token is the only credential; the gateway never changes quotation status,
// only the invite it belongs to.
type Service struct {
	tx        TxRunner
	repo      quotations.Repository
	catalog   catalog.Repository
	directory suppliers.Repository
	locks     redis.LockStore
	log       *logger.Logger
	metrics   *metrics.QuotationMetrics
	now       func() time.Time
}

// NewService wires the supplier gateway.
func NewService(
	tx TxRunner,
	repo quotations.Repository,
	catalogRepo catalog.Repository,
	directory suppliers.Repository,
	locks redis.LockStore,
	log *logger.Logger,
	m *metrics.QuotationMetrics,
) *Service {
	return &Service{
		tx:        tx,
		repo:      repo,
		catalog:   catalogRepo,
		directory: directory,
		locks:     locks,
		log:       log,
		metrics:   m,
		now:       time.Now,
	}
}

// FetchByToken resolves a response token to the supplier's view of the
// quotation. Unknown tokens get an opaque not-found; valid tokens stop
// working once the deadline passes or the quotation resolves.
func (s *Service) FetchByToken(ctx context.Context, responseToken string) (*RequestView, error) {
	invite, quotation, err := s.resolveToken(ctx, responseToken)
	if err != nil {
		return nil, err
	}

	itemIDs := make([]uuid.UUID, 0, len(quotation.Items))
	for _, line := range quotation.Items {
		itemIDs = append(itemIDs, line.ItemID)
	}
	items, err := s.catalog.FindByIDs(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	supplier, err := s.directory.FindByID(ctx, invite.SupplierID)
	if err != nil {
		return nil, err
	}

	view := &RequestView{
		QuotationID:    quotation.ID,
		Title:          quotation.Title,
		Deadline:       quotation.Deadline,
		Notes:          quotation.Notes,
		SupplierName:   supplier.Name,
		SupplierStatus: invite.Status,
		Items:          make([]RequestItem, 0, len(quotation.Items)),
	}
	if invite.Status == enums.QuotationSupplierStatusContested {
		view.ContestNote = invite.Notes
	}
	view.GeneralNotes = invite.ResponseNotes
	for _, line := range quotation.Items {
		item := items[line.ItemID]
		entry := RequestItem{
			QuotationItemID: line.ID,
			Name:            item.Name,
			UnitType:        item.UnitType,
			Quantity:        line.Quantity,
		}
		for _, price := range line.Prices {
			if price.QuotationSupplierID != invite.ID {
				continue
			}
			entry.Submitted = append(entry.Submitted, SubmittedPrice{
				UnitPrice:   price.UnitPrice,
				Brand:       price.Brand,
				Notes:       price.Notes,
				Round:       price.Round,
				SubmittedAt: price.CreatedAt,
			})
		}
		view.Items = append(view.Items, entry)
	}
	return view, nil
}

// SubmitByToken stores one negotiation round of prices for the token's
// supplier. Non-positive prices are dropped rather than stored; each kept
// line lands on that (item, supplier) pair's next round. The submission is
// refused while resolution holds the quotation's lock.
func (s *Service) SubmitByToken(ctx context.Context, responseToken string, input SubmitInput) (*SubmitResult, error) {
	invite, quotation, err := s.resolveToken(ctx, responseToken)
	if err != nil {
		s.metrics.IncSubmission(outcomeRejected)
		return nil, err
	}

	ctx = s.log.WithQuotationID(ctx, quotation.ID.String())
	ctx = s.log.WithSupplierID(ctx, invite.SupplierID.String())

	if err := s.ensureNotResolving(ctx, quotation.ID); err != nil {
		s.metrics.IncSubmission(outcomeRejected)
		return nil, err
	}

	if len(input.Lines) == 0 {
		s.metrics.IncSubmission(outcomeRejected)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "submission has no lines")
	}

	itemsByID := make(map[uuid.UUID]models.QuotationItem, len(quotation.Items))
	for _, line := range quotation.Items {
		itemsByID[line.ID] = line
	}

	result := &SubmitResult{}
	var kept []SubmitLine
	seen := make(map[uuid.UUID]struct{}, len(input.Lines))
	for _, line := range input.Lines {
		if _, ok := itemsByID[line.QuotationItemID]; !ok {
			// uniform whether the id exists elsewhere or not at all
			s.metrics.IncSubmission(outcomeRejected)
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quotation item not found").
				WithDetails(map[string]any{"quotation_item_id": line.QuotationItemID})
		}
		if _, dup := seen[line.QuotationItemID]; dup {
			s.metrics.IncSubmission(outcomeRejected)
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate line for item").
				WithDetails(map[string]any{"quotation_item_id": line.QuotationItemID})
		}
		seen[line.QuotationItemID] = struct{}{}
		if !line.UnitPrice.IsPositive() {
			result.Dropped = append(result.Dropped, line.QuotationItemID)
			continue
		}
		kept = append(kept, line)
	}
	if len(kept) == 0 {
		s.metrics.IncSubmission(outcomeRejected)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no line carries a positive unit price")
	}

	now := s.now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, line := range kept {
			round, txErr := s.storeLine(ctx, repo, invite.ID, line)
			if txErr != nil {
				return txErr
			}
			result.Accepted = append(result.Accepted, AcceptedLine{
				QuotationItemID: line.QuotationItemID,
				Round:           round,
			})
		}
		return repo.MarkSupplierResponded(ctx, invite.ID, now, input.GeneralNotes)
	})
	if err != nil {
		result.Accepted = nil
		s.metrics.IncSubmission(outcomeRejected)
		return nil, err
	}

	outcome := outcomeAccepted
	if len(result.Dropped) > 0 {
		outcome = outcomePartial
	}
	s.metrics.IncSubmission(outcome)
	s.log.Info(ctx, fmt.Sprintf("supplier submission stored: %d accepted, %d dropped", len(result.Accepted), len(result.Dropped)))
	return result, nil
}

// storeLine appends the line on the pair's next round. A concurrent
// submission can race the MAX(round) read; the unique index catches it and
// one retry lands on the following round.
func (s *Service) storeLine(ctx context.Context, repo quotations.Repository, inviteID uuid.UUID, line SubmitLine) (int, error) {
	round, err := repo.MaxRound(ctx, line.QuotationItemID, inviteID)
	if err != nil {
		return 0, err
	}
	round++
	for attempt := 0; attempt < 2; attempt++ {
		price := &models.QuotationPrice{
			QuotationItemID:     line.QuotationItemID,
			QuotationSupplierID: inviteID,
			UnitPrice:           line.UnitPrice,
			Brand:               line.Brand,
			Notes:               line.Notes,
			Round:               round,
		}
		_, err = repo.CreatePrice(ctx, price)
		if err == nil {
			return round, nil
		}
		if !db.IsUniqueViolation(err, "ux_quotation_prices_round") {
			return 0, err
		}
		round++
	}
	return 0, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "concurrent submission for the same round")
}

func (s *Service) resolveToken(ctx context.Context, responseToken string) (*models.QuotationSupplier, *models.Quotation, error) {
	if responseToken == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "invalid token")
	}
	invite, err := s.repo.FindSupplierByToken(ctx, responseToken)
	if err != nil {
		return nil, nil, err
	}
	quotation, err := s.repo.FindFull(ctx, invite.QuotationID)
	if err != nil {
		return nil, nil, err
	}
	// A resolved quotation or a passed deadline invalidates the token with
	// the same opaque error as a wrong token: no token-guessing oracle.
	if quotation.Status.IsTerminal() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "invalid token")
	}
	if quotation.Deadline != nil && s.now().After(*quotation.Deadline) {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "invalid token")
	}
	return invite, quotation, nil
}

func (s *Service) ensureNotResolving(ctx context.Context, quotationID uuid.UUID) error {
	if s.locks == nil {
		return nil
	}
	held, err := s.locks.Exists(ctx, s.locks.LockKey(redis.ScopeResolve, quotationID.String()))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking resolution lock")
	}
	if held {
		return pkgerrors.New(pkgerrors.CodeConflict, "quotation resolution in progress")
	}
	return nil
}
