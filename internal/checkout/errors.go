package checkout

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/tradeflow-backend/pkg/errors"
)

// ErrEmptyCart is returned when a retailer checks out with nothing in the cart.
var ErrEmptyCart = errors.New("cart is empty")

// InsufficientStockError names the listing that could not cover its cart line.
type InsufficientStockError struct {
	WholesalerProductID uuid.UUID
	ProductName         string
	Requested           int
	Available           int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, only %d available", e.ProductName, e.Requested, e.Available)
}

func emptyCart() error {
	return pkgerrors.Wrap(pkgerrors.CodeEmptyCart, ErrEmptyCart, "cart is empty")
}

func insufficientStock(wholesalerProductID uuid.UUID, name string, requested, available int) error {
	if available < 0 {
		available = 0
	}
	typed := &InsufficientStockError{
		WholesalerProductID: wholesalerProductID,
		ProductName:         name,
		Requested:           requested,
		Available:           available,
	}
	return pkgerrors.Wrap(pkgerrors.CodeOutOfStock, typed, typed.Error()).WithDetails(map[string]any{
		"wholesalerProductId": wholesalerProductID,
		"productName":         name,
		"requested":           requested,
		"available":           available,
	})
}
