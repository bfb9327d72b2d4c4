package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tradeflow-backend/internal/cart"
	"github.com/angelmondragon/tradeflow-backend/internal/checkout/helpers"
	"github.com/angelmondragon/tradeflow-backend/internal/inventory"
	"github.com/angelmondragon/tradeflow-backend/internal/orders"
	pkgcheckout "github.com/angelmondragon/tradeflow-backend/pkg/checkout"
	"github.com/angelmondragon/tradeflow-backend/pkg/config"
	"github.com/angelmondragon/tradeflow-backend/pkg/db"
	"github.com/angelmondragon/tradeflow-backend/pkg/db/models"
	"github.com/angelmondragon/tradeflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradeflow-backend/pkg/errors"
	"github.com/angelmondragon/tradeflow-backend/pkg/logger"
	"github.com/angelmondragon/tradeflow-backend/pkg/metrics"
	"github.com/angelmondragon/tradeflow-backend/pkg/outbox"
	"github.com/angelmondragon/tradeflow-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service places orders from a retailer's cart.
type Service interface {
	PlaceOrder(ctx context.Context, retailerID uuid.UUID, input PlaceOrderInput) (*PlaceOrderResult, error)
	Prefill(ctx context.Context, retailerID uuid.UUID) (*PrefillView, error)
}

// PlaceOrderResult identifies the orders created by one checkout.
type PlaceOrderResult struct {
	CheckoutID uuid.UUID   `json:"checkoutId"`
	OrderIDs   []uuid.UUID `json:"orderIds"`
}

// PrefillView seeds the checkout form.
type PrefillView struct {
	DeliveryAddress string                `json:"deliveryAddress"`
	ContactPhone    string                `json:"contactPhone"`
	PaymentMethods  []enums.PaymentMethod `json:"paymentMethods"`
	Cart            cart.View             `json:"cart"`
}

// Config tunes the placement engine.
type Config struct {
	Retry                   db.RetryPolicy
	CreditRetailerInventory bool
	EnforceMOQ              bool
	RetailerMarkup          decimal.Decimal
}

// ConfigFrom maps environment configuration onto the engine settings.
func ConfigFrom(cfg config.CheckoutConfig) Config {
	return Config{
		Retry: db.RetryPolicy{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
		},
		CreditRetailerInventory: cfg.CreditRetailerInventory,
		EnforceMOQ:              cfg.EnforceMOQAtCheckout,
		RetailerMarkup:          cfg.RetailerMarkup,
	}
}

// Params wires the service. Metrics and Clock are optional.
type Params struct {
	Tx        txRunner
	Cart      cart.CartRepository
	Orders    orders.Repository
	Inventory *inventory.Repository
	Users     userLoader
	Outbox    outbox.Emitter
	Metrics   *metrics.CheckoutMetrics
	Logger    *logger.Logger
	Config    Config
	Clock     func() time.Time
}

type service struct {
	tx        txRunner
	cart      cart.CartRepository
	orders    orders.Repository
	inventory *inventory.Repository
	users     userLoader
	outbox    outbox.Emitter
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
	cfg       Config
	now       func() time.Time
}

// NewService builds the checkout service.
func NewService(p Params) (Service, error) {
	if p.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if p.Cart == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if p.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if p.Inventory == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if p.Users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if p.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := p.Clock
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	cfg := p.Config
	if cfg.RetailerMarkup.IsZero() {
		cfg.RetailerMarkup = decimal.RequireFromString("1.2")
	}
	return &service{
		tx:        p.Tx,
		cart:      p.Cart,
		orders:    p.Orders,
		inventory: p.Inventory,
		users:     p.Users,
		outbox:    p.Outbox,
		metrics:   p.Metrics,
		logg:      p.Logger,
		cfg:       cfg,
		now:       now,
	}, nil
}

// PlaceOrder converts the retailer's cart into one pending order per
// wholesaler. Either every order commits and the cart is drained, or nothing
// changes.
func (s *service) PlaceOrder(ctx context.Context, retailerID uuid.UUID, input PlaceOrderInput) (result *PlaceOrderResult, err error) {
	started := time.Now()
	defer func() {
		orderCount := 0
		if result != nil {
			orderCount = len(result.OrderIDs)
		}
		s.metrics.Observe(outcomeFor(err), time.Since(started), orderCount)
	}()

	if retailerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	input.Normalize()
	if err := input.Validate(s.now()); err != nil {
		return nil, err
	}

	items, err := s.cart.ListByRetailer(ctx, retailerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(items) == 0 {
		return nil, emptyCart()
	}
	for _, item := range helpers.SortedLines(helpers.GroupCartItemsByWholesaler(items)) {
		if err := precheckLine(item); err != nil {
			s.logStockFailure(ctx, retailerID, err)
			return nil, err
		}
	}

	checkoutID := uuid.New()
	policy := s.cfg.Retry
	policy.OnRetry = func(attempt int, cause error) {
		s.metrics.IncRetry()
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"checkout_id": checkoutID.String(),
			"attempt":     attempt,
		})
		s.logg.Warn(logCtx, "checkout transaction retry: "+cause.Error())
	}

	var orderIDs []uuid.UUID
	err = db.WithRetry(ctx, policy, func(ctx context.Context) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			ids, err := s.placeInTx(ctx, tx, retailerID, checkoutID, input)
			if err != nil {
				return err
			}
			orderIDs = ids
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, db.ErrRetriesExhausted) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order store unavailable, try again")
		}
		var stockErr *InsufficientStockError
		if errors.As(err, &stockErr) {
			s.logStockFailure(ctx, retailerID, err)
		}
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"checkout_id": checkoutID.String(),
		"retailer_id": retailerID.String(),
		"orders":      len(orderIDs),
	})
	s.logg.Info(logCtx, "checkout committed")
	return &PlaceOrderResult{CheckoutID: checkoutID, OrderIDs: orderIDs}, nil
}

// placeInTx runs one attempt of the checkout body. Every read happens again
// here, so an attempt never trusts state loaded outside its transaction.
func (s *service) placeInTx(ctx context.Context, tx *gorm.DB, retailerID, checkoutID uuid.UUID, input PlaceOrderInput) ([]uuid.UUID, error) {
	cartRepo := s.cart.WithTx(tx)
	ordersRepo := s.orders.WithTx(tx)
	inv := s.inventory.WithTx(tx)

	items, err := cartRepo.ListByRetailer(ctx, retailerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	if len(items) == 0 {
		return nil, emptyCart()
	}
	if s.cfg.EnforceMOQ {
		if err := pkgcheckout.ValidateMOQ(moqLines(items)); err != nil {
			return nil, err
		}
	}

	now := s.now()
	actor := &outbox.ActorRef{UserID: retailerID, UserType: enums.UserTypeRetailer}
	groups := helpers.GroupCartItemsByWholesaler(items)
	orderIDs := make([]uuid.UUID, 0, len(groups))
	cartItemIDs := make([]uuid.UUID, 0, len(items))

	for _, group := range groups {
		if group.WholesalerID == uuid.Nil {
			line := group.Items[0]
			return nil, insufficientStock(line.WholesalerProductID, line.WholesalerProductID.String(), line.Quantity, 0)
		}

		order := &models.Order{
			ID:                    uuid.New(),
			CheckoutID:            checkoutID,
			RetailerID:            retailerID,
			WholesalerID:          group.WholesalerID,
			OrderDate:             now,
			Status:                enums.OrderStatusPending,
			DeliveryAddress:       input.DeliveryAddress,
			ContactPhone:          input.ContactPhone,
			PreferredDeliveryDate: input.PreferredDeliveryDate,
			DeliveryInstructions:  input.DeliveryInstructions,
			PaymentMethod:         input.PaymentMethod,
			WholesalerNotes:       noteFor(input.WholesalerNotes, group.WholesalerID),
			TotalAmount:           decimal.Zero,
			RetailerStockCredited: s.cfg.CreditRetailerInventory,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		if err := ordersRepo.CreateOrder(ctx, order); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		total := decimal.Zero
		placed := make([]payloads.OrderPlacedItem, 0, len(group.Items))
		for _, line := range group.Items {
			item, err := s.placeLine(ctx, inv, ordersRepo, order, line, now)
			if err != nil {
				return nil, err
			}
			total = total.Add(item.LineTotal())
			placed = append(placed, payloads.OrderPlacedItem{
				WholesalerProductID: item.WholesalerProductID,
				ProductID:           item.ProductID,
				Quantity:            item.Quantity,
				UnitPrice:           item.UnitPrice,
			})
			cartItemIDs = append(cartItemIDs, line.ID)
		}

		if err := ordersRepo.UpdateTotal(ctx, order.ID, total); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order total")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor,
			OccurredAt:    now,
			Data: payloads.OrderPlacedEvent{
				OrderID:       order.ID,
				CheckoutID:    checkoutID,
				RetailerID:    retailerID,
				WholesalerID:  order.WholesalerID,
				TotalAmount:   total,
				PaymentMethod: order.PaymentMethod,
				Items:         placed,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order placed")
		}
		orderIDs = append(orderIDs, order.ID)
	}

	deleted, err := cartRepo.DeleteForRetailer(ctx, retailerID, cartItemIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	if deleted != int64(len(cartItemIDs)) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart changed during checkout").WithDetails(map[string]any{
			"expected": len(cartItemIDs),
			"deleted":  deleted,
		})
	}
	return orderIDs, nil
}

func (s *service) placeLine(ctx context.Context, inv *inventory.Repository, ordersRepo orders.Repository, order *models.Order, line models.CartItem, now time.Time) (*models.OrderItem, error) {
	listing, err := inv.FindWholesalerProduct(ctx, line.WholesalerProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, insufficientStock(line.WholesalerProductID, lineName(line), line.Quantity, 0)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wholesaler product")
	}
	if listing.AvailableQuantity < line.Quantity {
		return nil, insufficientStock(listing.ID, listing.DisplayName(), line.Quantity, listing.AvailableQuantity)
	}

	item := &models.OrderItem{
		ID:                  uuid.New(),
		OrderID:             order.ID,
		ProductID:           listing.ProductID,
		WholesalerProductID: listing.ID,
		ProductName:         listing.DisplayName(),
		Quantity:            line.Quantity,
		UnitPrice:           listing.Price,
		CreatedAt:           now,
	}
	if err := ordersRepo.CreateItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order item")
	}

	if err := inv.DecrementStock(ctx, listing.ID, line.Quantity); err != nil {
		if errors.Is(err, inventory.ErrStockConflict) {
			available := 0
			if fresh, ferr := inv.FindWholesalerProduct(ctx, listing.ID); ferr == nil {
				available = fresh.AvailableQuantity
			}
			return nil, insufficientStock(listing.ID, listing.DisplayName(), line.Quantity, available)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
	}

	if s.cfg.CreditRetailerInventory {
		price := helpers.RetailerPrice(listing.Price, s.cfg.RetailerMarkup)
		if err := inv.CreditRetailer(ctx, order.RetailerID, listing.ProductID, line.Quantity, price); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit retailer inventory")
		}
	}
	return item, nil
}

// Prefill returns the retailer's saved contact details and the current cart.
func (s *service) Prefill(ctx context.Context, retailerID uuid.UUID) (*PrefillView, error) {
	if retailerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	user, err := s.users.FindByID(ctx, retailerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "retailer profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load retailer profile")
	}
	items, err := s.cart.ListByRetailer(ctx, retailerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	view := &PrefillView{
		PaymentMethods: enums.PaymentMethods(),
		Cart:           cart.BuildView(items),
	}
	if user.Address != nil {
		view.DeliveryAddress = *user.Address
	}
	if user.Phone != nil {
		view.ContactPhone = *user.Phone
	}
	return view, nil
}

func precheckLine(item models.CartItem) error {
	listing := item.WholesalerProduct
	if listing == nil {
		return insufficientStock(item.WholesalerProductID, item.WholesalerProductID.String(), item.Quantity, 0)
	}
	if listing.AvailableQuantity < item.Quantity {
		return insufficientStock(listing.ID, listing.DisplayName(), item.Quantity, listing.AvailableQuantity)
	}
	return nil
}

func (s *service) logStockFailure(ctx context.Context, retailerID uuid.UUID, err error) {
	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) {
		return
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"retailer_id":           retailerID.String(),
		"wholesaler_product_id": stockErr.WholesalerProductID.String(),
		"requested":             stockErr.Requested,
		"available":             stockErr.Available,
	})
	s.logg.Warn(logCtx, "checkout rejected: insufficient stock")
}

func noteFor(notes map[uuid.UUID]string, wholesalerID uuid.UUID) *string {
	note, ok := notes[wholesalerID]
	if !ok || note == "" {
		return nil
	}
	return &note
}

// moqLines skips lines whose listing is gone; placeLine reports those as out
// of stock.
func moqLines(items []models.CartItem) []pkgcheckout.MOQLine {
	lines := make([]pkgcheckout.MOQLine, 0, len(items))
	for _, item := range items {
		if item.WholesalerProduct == nil {
			continue
		}
		lines = append(lines, pkgcheckout.MOQLine{
			WholesalerProductID:  item.WholesalerProductID,
			ProductName:          item.WholesalerProduct.DisplayName(),
			MinimumOrderQuantity: item.WholesalerProduct.MinimumOrderQuantity,
			Quantity:             item.Quantity,
		})
	}
	return lines
}

func lineName(line models.CartItem) string {
	if line.WholesalerProduct != nil {
		return line.WholesalerProduct.DisplayName()
	}
	return line.WholesalerProductID.String()
}

func outcomeFor(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	switch {
	case errors.Is(err, db.ErrRetriesExhausted):
		return metrics.OutcomeRetriesExhausted
	case errors.Is(err, ErrEmptyCart):
		return metrics.OutcomeEmptyCart
	case pkgerrors.IsCode(err, pkgerrors.CodeOutOfStock):
		return metrics.OutcomeInsufficientStock
	case pkgerrors.IsCode(err, pkgerrors.CodeValidation):
		return metrics.OutcomeValidation
	case pkgerrors.IsCode(err, pkgerrors.CodeConflict), pkgerrors.IsCode(err, pkgerrors.CodeStateConflict):
		return metrics.OutcomeConflict
	}
	return metrics.OutcomeError
}
