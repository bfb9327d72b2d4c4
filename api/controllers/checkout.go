package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tradeflow-backend/api/middleware"
	"github.com/angelmondragon/tradeflow-backend/api/responses"
	"github.com/angelmondragon/tradeflow-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/tradeflow-backend/internal/checkout"
	"github.com/angelmondragon/tradeflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradeflow-backend/pkg/errors"
	"github.com/angelmondragon/tradeflow-backend/pkg/logger"
)

const deliveryDateLayout = "2006-01-02"

type placeOrderRequest struct {
	DeliveryAddress       string               `json:"deliveryAddress" validate:"required"`
	ContactPhone          string               `json:"contactPhone" validate:"required"`
	PreferredDeliveryDate *string              `json:"preferredDeliveryDate,omitempty"`
	DeliveryInstructions  *string              `json:"deliveryInstructions,omitempty"`
	PaymentMethod         string               `json:"paymentMethod" validate:"required"`
	WholesalerNotes       map[uuid.UUID]string `json:"wholesalerNotes,omitempty"`
}

func (p placeOrderRequest) toInput() (checkoutsvc.PlaceOrderInput, error) {
	input := checkoutsvc.PlaceOrderInput{
		DeliveryAddress:      p.DeliveryAddress,
		ContactPhone:         p.ContactPhone,
		DeliveryInstructions: p.DeliveryInstructions,
		PaymentMethod:        enums.PaymentMethod(p.PaymentMethod),
		WholesalerNotes:      p.WholesalerNotes,
	}
	if p.PreferredDeliveryDate != nil {
		parsed, err := parseDeliveryDate(*p.PreferredDeliveryDate)
		if err != nil {
			return input, err
		}
		input.PreferredDeliveryDate = parsed
	}
	return input, nil
}

// parseDeliveryDate accepts a calendar date or an RFC 3339 timestamp.
func parseDeliveryDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(deliveryDateLayout, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed").
			WithDetails(map[string]string{"preferredDeliveryDate": "must be a date (YYYY-MM-DD)"})
	}
	return &t, nil
}

// CheckoutPrefill returns the retailer's saved contact details with the cart summary.
func CheckoutPrefill(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		retailerID, err := middleware.CallerID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Prefill(r.Context(), retailerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// PlaceOrder converts the retailer's cart into one order per wholesaler.
func PlaceOrder(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		retailerID, err := middleware.CallerID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload placeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.PlaceOrder(r.Context(), retailerID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"checkout_id": result.CheckoutID.String(),
				"order_count": len(result.OrderIDs),
			})
			logg.Info(ctx, "checkout.placed")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
