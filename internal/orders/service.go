package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tradeflow-backend/internal/inventory"
	"github.com/angelmondragon/tradeflow-backend/pkg/db"
	"github.com/angelmondragon/tradeflow-backend/pkg/db/models"
	"github.com/angelmondragon/tradeflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradeflow-backend/pkg/errors"
	"github.com/angelmondragon/tradeflow-backend/pkg/logger"
	"github.com/angelmondragon/tradeflow-backend/pkg/outbox"
	"github.com/angelmondragon/tradeflow-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/tradeflow-backend/pkg/pagination"
)

// Service exposes order reads and the post-placement lifecycle.
type Service interface {
	ListForRetailer(ctx context.Context, retailerID uuid.UUID, params ListParams) (*OrderList, error)
	ListForWholesaler(ctx context.Context, wholesalerID uuid.UUID, params ListParams) (*OrderList, error)
	Get(ctx context.Context, userID uuid.UUID, userType enums.UserType, orderID uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, wholesalerID, orderID uuid.UUID, input UpdateStatusInput) (*OrderDTO, error)
	Cancel(ctx context.Context, retailerID, orderID uuid.UUID) (*OrderDTO, error)
}

type service struct {
	repo      Repository
	inventory *inventory.Repository
	tx        txRunner
	outbox    outbox.Emitter
	retry     db.RetryPolicy
	logg      *logger.Logger
}

// NewService builds the order lifecycle service. Cancellation and status
// transitions run under retry.
func NewService(repo Repository, inv *inventory.Repository, tx txRunner, emitter outbox.Emitter, retry db.RetryPolicy, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if inv == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		inventory: inv,
		tx:        tx,
		outbox:    emitter,
		retry:     retry,
		logg:      logg,
	}, nil
}

func (s *service) ListForRetailer(ctx context.Context, retailerID uuid.UUID, params ListParams) (*OrderList, error) {
	return s.list(ctx, PartyRetailer, retailerID, params)
}

func (s *service) ListForWholesaler(ctx context.Context, wholesalerID uuid.UUID, params ListParams) (*OrderList, error) {
	return s.list(ctx, PartyWholesaler, wholesalerID, params)
}

func (s *service) list(ctx context.Context, party Party, partyID uuid.UUID, params ListParams) (*OrderList, error) {
	if partyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	rows, err := s.repo.ListByParty(ctx, party, partyID, ListFilter{
		Status: params.Status,
		Limit:  limit,
		Cursor: cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	page := pagination.BuildPage(rows, limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	list := &OrderList{Items: make([]OrderDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, order := range page.Items {
		dto := FromModel(order)
		if party == PartyWholesaler {
			dto.AllowedTransitions = AllowedTargets(order.Status)
		}
		list.Items = append(list.Items, dto)
	}
	return list, nil
}

// Get returns an order to its retailer or its wholesaler.
func (s *service) Get(ctx context.Context, userID uuid.UUID, userType enums.UserType, orderID uuid.UUID) (*OrderDTO, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}

	switch {
	case userType == enums.UserTypeRetailer && order.RetailerID == userID:
		dto := FromModel(*order)
		return &dto, nil
	case userType == enums.UserTypeWholesaler && order.WholesalerID == userID:
		dto := FromModel(*order)
		dto.AllowedTransitions = AllowedTargets(order.Status)
		return &dto, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order is not visible to this user")
	}
}

func (s *service) UpdateStatus(ctx context.Context, wholesalerID, orderID uuid.UUID, input UpdateStatusInput) (*OrderDTO, error) {
	if wholesalerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]any{"status": input.Status})
	}
	if input.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the retailer can cancel an order")
	}
	tracking := trimmed(input.TrackingNumber)
	note := trimmed(input.Note)
	if tracking != nil && input.Status != enums.OrderStatusShipped && input.Status != enums.OrderStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking number only applies when shipping or delivering")
	}

	var result *models.Order
	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.WholesalerID != wholesalerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to wholesaler")
		}
		from := order.Status
		if !CanTransition(from, input.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
				WithDetails(map[string]any{
					"from":    from,
					"to":      input.Status,
					"allowed": AllowedTargets(from),
				})
		}

		now := time.Now().UTC()
		change := StatusChange{To: input.Status, At: now, TrackingNumber: tracking}
		switch input.Status {
		case enums.OrderStatusShipped:
			change.ShippedAt = &now
		case enums.OrderStatusDelivered:
			change.DeliveredAt = &now
			if order.ShippedAt == nil {
				change.ShippedAt = &now
			}
		}

		ok, err := repo.TransitionStatus(ctx, order.ID, from, change)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}

		order.Status = input.Status
		if tracking != nil {
			order.TrackingNumber = tracking
		}
		if change.ShippedAt != nil {
			order.ShippedAt = change.ShippedAt
		}
		if change.DeliveredAt != nil {
			order.DeliveredAt = change.DeliveredAt
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: wholesalerID, UserType: enums.UserTypeWholesaler},
			OccurredAt:    now,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:        order.ID,
				RetailerID:     order.RetailerID,
				WholesalerID:   order.WholesalerID,
				From:           from,
				To:             input.Status,
				TrackingNumber: tracking,
				Note:           note,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit status change")
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id": result.ID.String(),
		"status":   string(result.Status),
	})
	s.logg.Info(logCtx, "order status updated")

	dto := FromModel(*result)
	dto.AllowedTransitions = AllowedTargets(result.Status)
	return &dto, nil
}

// Cancel lets the owning retailer withdraw a pending order. Stock goes back
// to the wholesaler and any retailer credit from checkout is reversed.
func (s *service) Cancel(ctx context.Context, retailerID, orderID uuid.UUID) (*OrderDTO, error) {
	if retailerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	var result *models.Order
	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.RetailerID != retailerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to retailer")
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be cancelled").
				WithDetails(map[string]any{"status": order.Status})
		}

		now := time.Now().UTC()
		ok, err := repo.CancelPending(ctx, order.ID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is no longer pending")
		}

		inv := s.inventory.WithTx(tx)
		restored := 0
		for _, item := range order.Items {
			if err := inv.RestoreStock(ctx, item.WholesalerProductID, item.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock").
					WithDetails(map[string]any{"wholesalerProductId": item.WholesalerProductID})
			}
			restored += item.Quantity
			if order.RetailerStockCredited {
				if err := inv.DebitRetailer(ctx, order.RetailerID, item.ProductID, item.Quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reverse retailer stock")
				}
			}
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: retailerID, UserType: enums.UserTypeRetailer},
			OccurredAt:    now,
			Data: payloads.OrderCancelledEvent{
				OrderID:       order.ID,
				CheckoutID:    order.CheckoutID,
				RetailerID:    order.RetailerID,
				WholesalerID:  order.WholesalerID,
				CancelledAt:   now,
				RestoredUnits: restored,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order cancelled")
		}

		order.Status = enums.OrderStatusCancelled
		order.CancelledAt = &now
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "order_id", result.ID.String()), "order cancelled")
	dto := FromModel(*result)
	return &dto, nil
}

func (s *service) load(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) withRetry(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := db.WithRetry(ctx, s.retry, func(ctx context.Context) error {
		return s.tx.WithTx(ctx, fn)
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, db.ErrRetriesExhausted) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order store unavailable, try again")
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order transaction failed")
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
