package orders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/tradeflow-backend/api/middleware"
	"github.com/angelmondragon/tradeflow-backend/api/responses"
	"github.com/angelmondragon/tradeflow-backend/api/validators"
	internalorders "github.com/angelmondragon/tradeflow-backend/internal/orders"
	"github.com/angelmondragon/tradeflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradeflow-backend/pkg/errors"
	"github.com/angelmondragon/tradeflow-backend/pkg/logger"
	"github.com/angelmondragon/tradeflow-backend/pkg/pagination"
)

type updateStatusRequest struct {
	Status         string  `json:"status" validate:"required"`
	TrackingNumber *string `json:"trackingNumber,omitempty" validate:"omitempty,max=128"`
	Note           *string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

type listFunc func(r *http.Request, userID uuid.UUID, params internalorders.ListParams) (*internalorders.OrderList, error)

// ListMine returns the retailer's own orders, newest first.
func ListMine(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg)
	}
	return list(logg, func(r *http.Request, userID uuid.UUID, params internalorders.ListParams) (*internalorders.OrderList, error) {
		return svc.ListForRetailer(r.Context(), userID, params)
	})
}

// ListReceived returns orders placed with the wholesaler, newest first.
func ListReceived(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg)
	}
	return list(logg, func(r *http.Request, userID uuid.UUID, params internalorders.ListParams) (*internalorders.OrderList, error) {
		return svc.ListForWholesaler(r.Context(), userID, params)
	})
}

func list(logg *logger.Logger, fetch listFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := middleware.CallerID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := parseListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := fetch(r, userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func parseListParams(r *http.Request) (internalorders.ListParams, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return internalorders.ListParams{}, err
	}
	params := internalorders.ListParams{
		Params: pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		},
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return internalorders.ListParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter").
				WithDetails(map[string]any{"field": "status"})
		}
		params.Status = &status
	}
	return params, nil
}

// Detail returns one order to either of its parties.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		userID, err := middleware.CallerID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userType, _ := middleware.UserTypeFromContext(r.Context())
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), userID, userType, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// UpdateStatus moves a received order along the fulfilment state machine.
func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		wholesalerID, err := middleware.CallerID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(r.Context(), wholesalerID, orderID, internalorders.UpdateStatusInput{
			Status:         enums.OrderStatus(strings.ToLower(strings.TrimSpace(payload.Status))),
			TrackingNumber: payload.TrackingNumber,
			Note:           payload.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// CancelOrder cancels a pending order on behalf of its retailer.
func CancelOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		retailerID, err := middleware.CallerID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), retailerID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func unavailable(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
	}
}
