package orders

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/tradeflow-backend/internal/inventory"
	"github.com/angelmondragon/tradeflow-backend/pkg/db"
	"github.com/angelmondragon/tradeflow-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tradeflow-backend/pkg/db/models"
	"github.com/angelmondragon/tradeflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradeflow-backend/pkg/errors"
	"github.com/angelmondragon/tradeflow-backend/pkg/logger"
	"github.com/angelmondragon/tradeflow-backend/pkg/outbox"
	"github.com/angelmondragon/tradeflow-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	gdb := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	emitter := outbox.NewService(outbox.NewRepository(gdb), logg)
	svc, err := NewService(
		NewRepository(gdb),
		inventory.NewRepository(gdb),
		db.NewFromGorm(gdb),
		emitter,
		db.RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond},
		logg,
	)
	require.NoError(t, err)
	return svc, gdb
}

type seededOrder struct {
	retailerID   uuid.UUID
	status       enums.OrderStatus
	credited     bool
	createdAt    time.Time
	listing      *models.WholesalerProduct
	quantity     int
	wholesalerID uuid.UUID
}

func seedOrder(t *testing.T, gdb *gorm.DB, in seededOrder) *models.Order {
	t.Helper()
	if in.status == "" {
		in.status = enums.OrderStatusPending
	}
	if in.createdAt.IsZero() {
		in.createdAt = time.Now().UTC()
	}
	if in.quantity == 0 {
		in.quantity = 1
	}
	if in.listing == nil {
		in.listing = dbtest.SeedListing(t, gdb, dbtest.Listing{WholesalerID: in.wholesalerID, Available: 10})
	}
	item := models.OrderItem{
		ID:                  uuid.New(),
		ProductID:           in.listing.ProductID,
		WholesalerProductID: in.listing.ID,
		ProductName:         in.listing.DisplayName(),
		Quantity:            in.quantity,
		UnitPrice:           in.listing.Price,
	}
	order := &models.Order{
		ID:                    uuid.New(),
		CheckoutID:            uuid.New(),
		RetailerID:            in.retailerID,
		WholesalerID:          in.listing.WholesalerID,
		OrderDate:             in.createdAt,
		Status:                in.status,
		DeliveryAddress:       "1 Dock Street",
		ContactPhone:          "+1 555 0100",
		PaymentMethod:         enums.PaymentMethodBankTransfer,
		TotalAmount:           item.LineTotal(),
		RetailerStockCredited: in.credited,
		CreatedAt:             in.createdAt,
		UpdatedAt:             in.createdAt,
	}
	repo := NewRepository(gdb)
	require.NoError(t, repo.CreateOrder(context.Background(), order))
	item.OrderID = order.ID
	require.NoError(t, repo.CreateItem(context.Background(), &item))
	order.Items = []models.OrderItem{item}
	return order
}

func countEvents(t *testing.T, gdb *gorm.DB, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&n).Error)
	return n
}

func TestCancelRestoresStockExactlyOnce(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()
	retailerID := uuid.New()
	listing := dbtest.SeedListing(t, gdb, dbtest.Listing{Available: 7})
	order := seedOrder(t, gdb, seededOrder{retailerID: retailerID, listing: listing, quantity: 3})

	dto, err := svc.Cancel(ctx, retailerID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, dto.Status)
	assert.NotNil(t, dto.CancelledAt)
	assert.Equal(t, 10, dbtest.Available(t, gdb, listing.ID))

	_, err = svc.Cancel(ctx, retailerID, order.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)
	assert.Equal(t, 10, dbtest.Available(t, gdb, listing.ID))
	assert.Equal(t, int64(1), countEvents(t, gdb, enums.EventOrderCancelled))
}

func TestCancelReversesRetailerCredit(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()
	retailerID := uuid.New()
	listing := dbtest.SeedListing(t, gdb, dbtest.Listing{Available: 5})
	inv := inventory.NewRepository(gdb)
	require.NoError(t, inv.CreditRetailer(ctx, retailerID, listing.ProductID, 4, decimal.RequireFromString("12.00")))

	order := seedOrder(t, gdb, seededOrder{retailerID: retailerID, listing: listing, quantity: 3, credited: true})
	_, err := svc.Cancel(ctx, retailerID, order.ID)
	require.NoError(t, err)

	rp := dbtest.RetailerProduct(t, gdb, retailerID, listing.ProductID)
	require.NotNil(t, rp)
	assert.Equal(t, 1, rp.StockQuantity)

	second := seedOrder(t, gdb, seededOrder{retailerID: retailerID, listing: listing, quantity: 3, credited: true})
	_, err = svc.Cancel(ctx, retailerID, second.ID)
	require.NoError(t, err)
	rp = dbtest.RetailerProduct(t, gdb, retailerID, listing.ProductID)
	require.NotNil(t, rp)
	assert.Equal(t, 0, rp.StockQuantity, "debit clamps at zero")
}

func TestCancelLeavesRetailerStockWhenNotCredited(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()
	retailerID := uuid.New()
	listing := dbtest.SeedListing(t, gdb, dbtest.Listing{Available: 5})
	inv := inventory.NewRepository(gdb)
	require.NoError(t, inv.CreditRetailer(ctx, retailerID, listing.ProductID, 4, decimal.RequireFromString("12.00")))

	order := seedOrder(t, gdb, seededOrder{retailerID: retailerID, listing: listing, quantity: 3})
	_, err := svc.Cancel(ctx, retailerID, order.ID)
	require.NoError(t, err)

	rp := dbtest.RetailerProduct(t, gdb, retailerID, listing.ProductID)
	require.NotNil(t, rp)
	assert.Equal(t, 4, rp.StockQuantity)
}

func TestCancelGuards(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()
	retailerID := uuid.New()

	pending := seedOrder(t, gdb, seededOrder{retailerID: retailerID})
	_, err := svc.Cancel(ctx, uuid.New(), pending.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "got %v", err)

	processing := seedOrder(t, gdb, seededOrder{retailerID: retailerID, status: enums.OrderStatusProcessing})
	_, err = svc.Cancel(ctx, retailerID, processing.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)

	_, err = svc.Cancel(ctx, retailerID, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestUpdateStatusFollowsTransitionTable(t *testing.T) {
	cases := []struct {
		name string
		from enums.OrderStatus
		to   enums.OrderStatus
		code pkgerrors.Code
	}{
		{name: "pending to processing", from: enums.OrderStatusPending, to: enums.OrderStatusProcessing},
		{name: "processing to shipped", from: enums.OrderStatusProcessing, to: enums.OrderStatusShipped},
		{name: "delivered to returned", from: enums.OrderStatusDelivered, to: enums.OrderStatusReturned},
		{name: "pending to returned", from: enums.OrderStatusPending, to: enums.OrderStatusReturned},
		{name: "shipped back to processing", from: enums.OrderStatusShipped, to: enums.OrderStatusProcessing, code: pkgerrors.CodeStateConflict},
		{name: "cancelled is terminal", from: enums.OrderStatusCancelled, to: enums.OrderStatusProcessing, code: pkgerrors.CodeStateConflict},
		{name: "wholesaler cannot cancel", from: enums.OrderStatusPending, to: enums.OrderStatusCancelled, code: pkgerrors.CodeForbidden},
		{name: "unknown status", from: enums.OrderStatusPending, to: "lost", code: pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, gdb := newTestService(t)
			order := seedOrder(t, gdb, seededOrder{retailerID: uuid.New(), status: tc.from})

			dto, err := svc.UpdateStatus(context.Background(), order.WholesalerID, order.ID, UpdateStatusInput{Status: tc.to})
			if tc.code == "" {
				require.NoError(t, err)
				assert.Equal(t, tc.to, dto.Status)
				assert.Equal(t, int64(1), countEvents(t, gdb, enums.EventOrderStatusChanged))
				return
			}
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, tc.code), "got %v", err)
			assert.Zero(t, countEvents(t, gdb, enums.EventOrderStatusChanged))
		})
	}
}

func TestUpdateStatusStampsShippingFields(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()
	order := seedOrder(t, gdb, seededOrder{retailerID: uuid.New()})
	tracking := "  TRK-001 "

	dto, err := svc.UpdateStatus(ctx, order.WholesalerID, order.ID, UpdateStatusInput{
		Status:         enums.OrderStatusShipped,
		TrackingNumber: &tracking,
	})
	require.NoError(t, err)
	require.NotNil(t, dto.TrackingNumber)
	assert.Equal(t, "TRK-001", *dto.TrackingNumber)
	require.NotNil(t, dto.ShippedAt)
	assert.Nil(t, dto.DeliveredAt)
	assert.Equal(t, []enums.OrderStatus{enums.OrderStatusDelivered}, dto.AllowedTransitions)

	var stored models.Order
	require.NoError(t, gdb.First(&stored, "id = ?", order.ID).Error)
	require.NotNil(t, stored.TrackingNumber)
	assert.Equal(t, "TRK-001", *stored.TrackingNumber)
	assert.NotNil(t, stored.ShippedAt)
}

func TestUpdateStatusDeliveredBackfillsShippedAt(t *testing.T) {
	svc, gdb := newTestService(t)
	order := seedOrder(t, gdb, seededOrder{retailerID: uuid.New()})

	dto, err := svc.UpdateStatus(context.Background(), order.WholesalerID, order.ID, UpdateStatusInput{Status: enums.OrderStatusDelivered})
	require.NoError(t, err)
	require.NotNil(t, dto.DeliveredAt)
	require.NotNil(t, dto.ShippedAt)
	assert.Equal(t, []enums.OrderStatus{enums.OrderStatusReturned}, dto.AllowedTransitions)
}

func TestUpdateStatusRejectsForeignWholesalerAndMisplacedTracking(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()
	order := seedOrder(t, gdb, seededOrder{retailerID: uuid.New()})

	_, err := svc.UpdateStatus(ctx, uuid.New(), order.ID, UpdateStatusInput{Status: enums.OrderStatusProcessing})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "got %v", err)

	tracking := "TRK"
	_, err = svc.UpdateStatus(ctx, order.WholesalerID, order.ID, UpdateStatusInput{
		Status:         enums.OrderStatusProcessing,
		TrackingNumber: &tracking,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestListForRetailerPaginatesNewestFirst(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()
	retailerID := uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var seeded []*models.Order
	for i := 0; i < 5; i++ {
		seeded = append(seeded, seedOrder(t, gdb, seededOrder{
			retailerID: retailerID,
			createdAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}
	seedOrder(t, gdb, seededOrder{retailerID: uuid.New(), createdAt: base})

	var got []uuid.UUID
	params := ListParams{Params: pagination.Params{Limit: 2}}
	pages := 0
	for {
		page, err := svc.ListForRetailer(ctx, retailerID, params)
		require.NoError(t, err)
		pages++
		for _, item := range page.Items {
			got = append(got, item.ID)
			assert.Len(t, item.Items, 1)
		}
		if page.NextCursor == "" {
			break
		}
		params.Cursor = page.NextCursor
	}

	assert.Equal(t, 3, pages)
	want := []uuid.UUID{seeded[4].ID, seeded[3].ID, seeded[2].ID, seeded[1].ID, seeded[0].ID}
	assert.Equal(t, want, got)
}

func TestListForWholesalerFiltersByStatus(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()
	wholesalerID := uuid.New()

	seedOrder(t, gdb, seededOrder{retailerID: uuid.New(), wholesalerID: wholesalerID})
	shipped := seedOrder(t, gdb, seededOrder{retailerID: uuid.New(), wholesalerID: wholesalerID, status: enums.OrderStatusShipped})
	seedOrder(t, gdb, seededOrder{retailerID: uuid.New(), status: enums.OrderStatusShipped})

	status := enums.OrderStatusShipped
	page, err := svc.ListForWholesaler(ctx, wholesalerID, ListParams{Status: &status})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, shipped.ID, page.Items[0].ID)
	assert.Equal(t, []enums.OrderStatus{enums.OrderStatusDelivered}, page.Items[0].AllowedTransitions)
	assert.Empty(t, page.NextCursor)

	all, err := svc.ListForWholesaler(ctx, wholesalerID, ListParams{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	_, err = svc.ListForWholesaler(ctx, wholesalerID, ListParams{Params: pagination.Params{Cursor: "%%%"}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestGetIsVisibleToBothPartiesOnly(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()
	retailerID := uuid.New()
	order := seedOrder(t, gdb, seededOrder{retailerID: retailerID, quantity: 2})

	dto, err := svc.Get(ctx, retailerID, enums.UserTypeRetailer, order.ID)
	require.NoError(t, err)
	require.Len(t, dto.Items, 1)
	assert.Equal(t, 2, dto.Items[0].Quantity)
	assert.True(t, dto.TotalAmount.Equal(order.TotalAmount))
	assert.Empty(t, dto.AllowedTransitions)

	dto, err = svc.Get(ctx, order.WholesalerID, enums.UserTypeWholesaler, order.ID)
	require.NoError(t, err)
	assert.Len(t, dto.AllowedTransitions, 4)

	_, err = svc.Get(ctx, order.WholesalerID, enums.UserTypeRetailer, order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "got %v", err)
	_, err = svc.Get(ctx, uuid.New(), enums.UserTypeRetailer, order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "got %v", err)
}
