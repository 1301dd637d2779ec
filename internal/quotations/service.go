package quotations

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quotedesk/quotedesk-backend/internal/catalog"
	"github.com/quotedesk/quotedesk-backend/internal/suppliers"
	"github.com/quotedesk/quotedesk-backend/pkg/db/models"
	"github.com/quotedesk/quotedesk-backend/pkg/enums"
	pkgerrors "github.com/quotedesk/quotedesk-backend/pkg/errors"
	"github.com/quotedesk/quotedesk-backend/pkg/logger"
	"github.com/quotedesk/quotedesk-backend/pkg/metrics"
	"github.com/quotedesk/quotedesk-backend/pkg/token"
)

// TxRunner runs a closure inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service orchestrates the buyer-facing quotation lifecycle: create, review,
// contest and delete. Resolution lives in its own service.
type Service struct {
	tx         TxRunner
	repo       Repository
	catalog    catalog.Repository
	directory  suppliers.Repository
	log        *logger.Logger
	metrics    *metrics.QuotationMetrics
	tokenBytes int
}

// NewService wires the quotation service.
func NewService(
	tx TxRunner,
	repo Repository,
	catalogRepo catalog.Repository,
	directory suppliers.Repository,
	log *logger.Logger,
	m *metrics.QuotationMetrics,
	tokenBytes int,
) *Service {
	if tokenBytes <= 0 {
		tokenBytes = token.DefaultBytes
	}
	return &Service{
		tx:         tx,
		repo:       repo,
		catalog:    catalogRepo,
		directory:  directory,
		log:        log,
		metrics:    m,
		tokenBytes: tokenBytes,
	}
}

// Create opens a quotation, invites every listed supplier and mints each one
// a response token. The quotation, its items and its supplier invites are
// written in a single transaction.
func (s *Service) Create(ctx context.Context, input CreateInput) (*View, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	itemIDs := make([]uuid.UUID, 0, len(input.Items))
	for _, line := range input.Items {
		itemIDs = append(itemIDs, line.ItemID)
	}

	items, err := s.catalog.FindByIDs(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	if missing := missingIDs(itemIDs, func(id uuid.UUID) bool { _, ok := items[id]; return ok }); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown inventory item").
			WithDetails(map[string]any{"item_ids": missing})
	}

	directory, err := s.directory.FindByIDs(ctx, input.SupplierIDs)
	if err != nil {
		return nil, err
	}
	if missing := missingIDs(input.SupplierIDs, func(id uuid.UUID) bool { _, ok := directory[id]; return ok }); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown supplier").
			WithDetails(map[string]any{"supplier_ids": missing})
	}

	quotation := &models.Quotation{
		Title:    input.Title,
		Status:   enums.QuotationStatusSent,
		Deadline: input.Deadline,
		Notes:    input.Notes,
	}
	for _, supplierID := range input.SupplierIDs {
		responseToken, err := token.New(s.tokenBytes)
		if err != nil {
			return nil, fmt.Errorf("minting response token: %w", err)
		}
		quotation.Suppliers = append(quotation.Suppliers, models.QuotationSupplier{
			SupplierID: supplierID,
			Token:      responseToken,
			Status:     enums.QuotationSupplierStatusPending,
		})
	}
	for _, line := range input.Items {
		quotation.Items = append(quotation.Items, models.QuotationItem{
			ItemID:   line.ItemID,
			Quantity: line.Quantity,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, txErr := s.repo.WithTx(tx).CreateQuotation(ctx, quotation)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	ctx = s.log.WithQuotationID(ctx, quotation.ID.String())
	s.log.Info(ctx, "quotation created")

	return buildView(quotation, items, directory), nil
}

// Get returns the buyer-facing read model of one quotation.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*View, error) {
	quotation, err := s.repo.FindFull(ctx, id)
	if err != nil {
		return nil, err
	}
	items, directory, err := s.lookups(ctx, quotation)
	if err != nil {
		return nil, err
	}
	return buildView(quotation, items, directory), nil
}

// ReviewPrices builds the per-item price comparison and advances the
// quotation into comparing when the negotiation state allows it: sent moves
// immediately, contested only once no supplier invite is still contested.
func (s *Service) ReviewPrices(ctx context.Context, id uuid.UUID) (*Comparison, error) {
	quotation, err := s.repo.FindFull(ctx, id)
	if err != nil {
		return nil, err
	}

	next := quotation.Status
	switch quotation.Status {
	case enums.QuotationStatusSent:
		next = enums.QuotationStatusComparing
	case enums.QuotationStatusContested:
		contested, countErr := s.repo.CountSuppliersWithStatus(ctx, id, enums.QuotationSupplierStatusContested)
		if countErr != nil {
			return nil, countErr
		}
		if contested == 0 {
			next = enums.QuotationStatusComparing
		}
	}
	if next != quotation.Status {
		if err := s.repo.UpdateQuotationStatus(ctx, id, next, nil); err != nil {
			return nil, err
		}
		quotation.Status = next
	}

	items, directory, err := s.lookups(ctx, quotation)
	if err != nil {
		return nil, err
	}
	return buildComparison(quotation, items, directory), nil
}

// Contest flags one invited supplier for renegotiation and moves the
// quotation into contested. The supplier's token starts accepting
// resubmissions again; resolved quotations cannot be contested.
func (s *Service) Contest(ctx context.Context, quotationID, supplierID uuid.UUID, note *string) error {
	status, err := s.repo.FindStatus(ctx, quotationID)
	if err != nil {
		return err
	}
	if status.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "quotation already resolved")
	}

	invite, err := s.repo.FindSupplier(ctx, quotationID, supplierID)
	if err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if txErr := repo.MarkSupplierContested(ctx, invite.ID, note); txErr != nil {
			return txErr
		}
		return repo.UpdateQuotationStatus(ctx, quotationID, enums.QuotationStatusContested, nil)
	})
	if err != nil {
		return err
	}

	s.metrics.IncContest()
	ctx = s.log.WithQuotationID(ctx, quotationID.String())
	ctx = s.log.WithSupplierID(ctx, supplierID.String())
	s.log.Info(ctx, "supplier contested")
	return nil
}

// Delete removes an unresolved quotation with its invites, items and price
// history. Resolved quotations are immutable.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	status, err := s.repo.FindStatus(ctx, id)
	if err != nil {
		return err
	}
	if status.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "quotation already resolved")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	ctx = s.log.WithQuotationID(ctx, id.String())
	s.log.Info(ctx, "quotation deleted")
	return nil
}

func (s *Service) lookups(ctx context.Context, quotation *models.Quotation) (map[uuid.UUID]models.Item, map[uuid.UUID]models.Supplier, error) {
	itemIDs := make([]uuid.UUID, 0, len(quotation.Items))
	for _, line := range quotation.Items {
		itemIDs = append(itemIDs, line.ItemID)
	}
	supplierIDs := make([]uuid.UUID, 0, len(quotation.Suppliers))
	for _, invite := range quotation.Suppliers {
		supplierIDs = append(supplierIDs, invite.SupplierID)
	}

	items, err := s.catalog.FindByIDs(ctx, itemIDs)
	if err != nil {
		return nil, nil, err
	}
	directory, err := s.directory.FindByIDs(ctx, supplierIDs)
	if err != nil {
		return nil, nil, err
	}
	return items, directory, nil
}

func validateCreateInput(input CreateInput) error {
	// An empty invite or item list is a conflict with the quotation contract
	// rather than a malformed field.
	if len(input.SupplierIDs) == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "quotation requires at least one supplier")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "quotation requires at least one item")
	}

	details := map[string]any{}
	if input.Title == "" {
		details["title"] = "required"
	}
	for i, line := range input.Items {
		if line.Quantity <= 0 {
			details[fmt.Sprintf("items[%d].quantity", i)] = "must be positive"
		}
	}
	if dup := firstDuplicate(input.SupplierIDs); dup != nil {
		details["supplier_ids"] = fmt.Sprintf("duplicate supplier %s", dup)
	}
	itemIDs := make([]uuid.UUID, 0, len(input.Items))
	for _, line := range input.Items {
		itemIDs = append(itemIDs, line.ItemID)
	}
	if dup := firstDuplicate(itemIDs); dup != nil {
		details["items"] = fmt.Sprintf("duplicate item %s", dup)
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid quotation request").WithDetails(details)
	}
	return nil
}

func firstDuplicate(ids []uuid.UUID) *uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			dup := id
			return &dup
		}
		seen[id] = struct{}{}
	}
	return nil
}

func missingIDs(ids []uuid.UUID, has func(uuid.UUID) bool) []string {
	var missing []string
	for _, id := range ids {
		if !has(id) {
			missing = append(missing, id.String())
		}
	}
	return missing
}

func buildView(quotation *models.Quotation, items map[uuid.UUID]models.Item, directory map[uuid.UUID]models.Supplier) *View {
	view := &View{
		ID:         quotation.ID,
		Title:      quotation.Title,
		Status:     quotation.Status,
		Deadline:   quotation.Deadline,
		Notes:      quotation.Notes,
		ResolvedAt: quotation.ResolvedAt,
		CreatedAt:  quotation.CreatedAt,
		Suppliers:  make([]SupplierView, 0, len(quotation.Suppliers)),
		Items:      make([]ItemView, 0, len(quotation.Items)),
	}
	for _, invite := range quotation.Suppliers {
		supplier := directory[invite.SupplierID]
		view.Suppliers = append(view.Suppliers, SupplierView{
			ID:          invite.ID,
			SupplierID:  invite.SupplierID,
			Name:        supplier.Name,
			Phone:       supplier.Phone,
			Token:       invite.Token,
			Status:      invite.Status,
			RespondedAt: invite.RespondedAt,
			Notes:       invite.Notes,
		})
	}
	for _, line := range quotation.Items {
		view.Items = append(view.Items, buildItemView(line, items))
	}
	return view
}

func buildItemView(line models.QuotationItem, items map[uuid.UUID]models.Item) ItemView {
	item := items[line.ItemID]
	return ItemView{
		ID:               line.ID,
		ItemID:           line.ItemID,
		Name:             item.Name,
		UnitType:         item.UnitType,
		Quantity:         line.Quantity,
		WinnerSupplierID: line.WinnerSupplierID,
	}
}

func buildComparison(quotation *models.Quotation, items map[uuid.UUID]models.Item, directory map[uuid.UUID]models.Supplier) *Comparison {
	inviteBySupplier := make(map[uuid.UUID]models.QuotationSupplier, len(quotation.Suppliers))
	for _, invite := range quotation.Suppliers {
		inviteBySupplier[invite.ID] = invite
	}

	comparison := &Comparison{
		QuotationID: quotation.ID,
		Status:      quotation.Status,
		Items:       make([]ItemComparison, 0, len(quotation.Items)),
	}
	for _, line := range quotation.Items {
		entry := ItemComparison{ItemView: buildItemView(line, items)}

		history := make(map[uuid.UUID][]PriceView)
		for _, price := range line.Prices {
			history[price.QuotationSupplierID] = append(history[price.QuotationSupplierID], PriceView{
				UnitPrice:   price.UnitPrice,
				Brand:       price.Brand,
				Notes:       price.Notes,
				Round:       price.Round,
				SubmittedAt: price.CreatedAt,
			})
		}

		current := CurrentOffers(line.Prices)
		for _, invite := range quotation.Suppliers {
			offer, ok := current[invite.ID]
			if !ok {
				continue
			}
			supplier := directory[invite.SupplierID]
			entry.Offers = append(entry.Offers, OfferView{
				QuotationSupplierID: invite.ID,
				SupplierID:          invite.SupplierID,
				SupplierName:        supplier.Name,
				UnitPrice:           offer.UnitPrice,
				Brand:               offer.Brand,
				Round:               offer.Round,
				SubmittedAt:         offer.CreatedAt,
				History:             history[invite.ID],
			})
		}
		comparison.Items = append(comparison.Items, entry)
	}
	return comparison
}
