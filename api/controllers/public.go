package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quotedesk/quotedesk-backend/api/responses"
	"github.com/quotedesk/quotedesk-backend/api/validators"
	"github.com/quotedesk/quotedesk-backend/internal/gateway"
	"github.com/quotedesk/quotedesk-backend/pkg/logger"
)

// GatewayService is the token-authenticated supplier surface.
type GatewayService interface {
	FetchByToken(ctx context.Context, token string) (*gateway.RequestView, error)
	SubmitByToken(ctx context.Context, token string, input gateway.SubmitInput) (*gateway.SubmitResult, error)
}

type submitPriceLine struct {
	QuotationItemID uuid.UUID       `json:"quotation_item_id" validate:"required"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Brand           *string         `json:"brand,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
}

type submitPricesRequest struct {
	Lines        []submitPriceLine `json:"lines" validate:"required,min=1,dive"`
	GeneralNotes *string           `json:"general_notes,omitempty"`
}

// GatewayFetch serves the supplier's view of the quotation their token
// belongs to.
func GatewayFetch(svc GatewayService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responseToken, err := validators.ParseQueryToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.FetchByToken(r.Context(), responseToken)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// GatewaySubmit stores one round of supplier prices.
func GatewaySubmit(svc GatewayService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responseToken, err := validators.ParseQueryToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req submitPricesRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := gateway.SubmitInput{GeneralNotes: sanitizeNote(req.GeneralNotes)}
		for _, line := range req.Lines {
			input.Lines = append(input.Lines, gateway.SubmitLine{
				QuotationItemID: line.QuotationItemID,
				UnitPrice:       line.UnitPrice,
				Brand:           line.Brand,
				Notes:           sanitizeNote(line.Notes),
			})
		}

		result, err := svc.SubmitByToken(r.Context(), responseToken, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
