package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/quotedesk/quotedesk-backend/api/responses"
	"github.com/quotedesk/quotedesk-backend/api/validators"
	"github.com/quotedesk/quotedesk-backend/internal/quotations"
	"github.com/quotedesk/quotedesk-backend/internal/resolution"
	"github.com/quotedesk/quotedesk-backend/pkg/logger"
)

const (
	maxTitleLen = 200
	maxNoteLen  = 2000
)

// QuotationService is the buyer-facing lifecycle surface the controllers use.
type QuotationService interface {
	Create(ctx context.Context, input quotations.CreateInput) (*quotations.View, error)
	Get(ctx context.Context, id uuid.UUID) (*quotations.View, error)
	ReviewPrices(ctx context.Context, id uuid.UUID) (*quotations.Comparison, error)
	Contest(ctx context.Context, quotationID, supplierID uuid.UUID, note *string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Resolver runs one resolution pass over a quotation.
type Resolver interface {
	Resolve(ctx context.Context, quotationID uuid.UUID) (*resolution.Outcome, error)
}

type createQuotationItem struct {
	ItemID   uuid.UUID `json:"item_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,gt=0"`
}

type createQuotationRequest struct {
	Title       string                `json:"title" validate:"required,max=200"`
	Deadline    *time.Time            `json:"deadline,omitempty"`
	Notes       *string               `json:"notes,omitempty"`
	SupplierIDs []uuid.UUID           `json:"supplier_ids" validate:"required,min=1"`
	Items       []createQuotationItem `json:"items" validate:"required,min=1,dive"`
}

type contestRequest struct {
	SupplierID uuid.UUID `json:"supplier_id" validate:"required"`
	Note       *string   `json:"note,omitempty"`
}

func QuotationCreate(svc QuotationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createQuotationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := quotations.CreateInput{
			Title:       validators.SanitizeString(req.Title, maxTitleLen),
			Deadline:    req.Deadline,
			Notes:       sanitizeNote(req.Notes),
			SupplierIDs: req.SupplierIDs,
		}
		for _, line := range req.Items {
			input.Items = append(input.Items, quotations.CreateItemInput{
				ItemID:   line.ItemID,
				Quantity: line.Quantity,
			})
		}

		view, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

func QuotationGet(svc QuotationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "quotationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func QuotationPrices(svc QuotationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "quotationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		comparison, err := svc.ReviewPrices(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, comparison)
	}
}

func QuotationContest(svc QuotationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "quotationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req contestRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Contest(r.Context(), id, req.SupplierID, sanitizeNote(req.Note)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "contested"})
	}
}

func QuotationResolve(resolver Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "quotationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		outcome, err := resolver.Resolve(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, outcome)
	}
}

func QuotationDelete(svc QuotationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "quotationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func sanitizeNote(note *string) *string {
	if note == nil {
		return nil
	}
	clean := validators.SanitizeString(*note, maxNoteLen)
	if clean == "" {
		return nil
	}
	return &clean
}
