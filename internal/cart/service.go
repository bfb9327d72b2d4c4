package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tradeflow-backend/pkg/db"
	"github.com/angelmondragon/tradeflow-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tradeflow-backend/pkg/errors"
)

// Service exposes the retailer's cart mutations.
type Service interface {
	GetCart(ctx context.Context, retailerID uuid.UUID) (*View, error)
	AddItem(ctx context.Context, retailerID, wholesalerProductID uuid.UUID, quantity int) (*View, error)
	UpdateQuantity(ctx context.Context, retailerID, cartItemID uuid.UUID, quantity int) (*View, error)
	RemoveItem(ctx context.Context, retailerID, cartItemID uuid.UUID) (*View, error)
}

type service struct {
	repo     CartRepository
	listings listingLoader
}

// NewService builds the cart service.
func NewService(repo CartRepository, listings listingLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if listings == nil {
		return nil, fmt.Errorf("listing loader required")
	}
	return &service{repo: repo, listings: listings}, nil
}

func (s *service) GetCart(ctx context.Context, retailerID uuid.UUID) (*View, error) {
	if retailerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retailer id is required")
	}
	items, err := s.repo.ListByRetailer(ctx, retailerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	view := BuildView(items)
	return &view, nil
}

// AddItem puts a listing in the cart. Adding a listing that is already in the
// cart raises the existing line, capped at the available stock.
func (s *service) AddItem(ctx context.Context, retailerID, wholesalerProductID uuid.UUID, quantity int) (*View, error) {
	if retailerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retailer id is required")
	}
	if wholesalerProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wholesaler product id is required")
	}
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	listing, err := s.loadListing(ctx, wholesalerProductID)
	if err != nil {
		return nil, err
	}
	if err := checkBounds(listing, quantity); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByWholesalerProduct(ctx, retailerID, wholesalerProductID)
	switch {
	case err == nil:
		next := min(existing.Quantity+quantity, listing.AvailableQuantity)
		if next != existing.Quantity {
			if err := s.repo.UpdateQuantity(ctx, existing.ID, retailerID, next); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
			}
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item := &models.CartItem{
			ID:                  uuid.New(),
			RetailerID:          retailerID,
			WholesalerProductID: wholesalerProductID,
			Quantity:            quantity,
		}
		if err := s.repo.Create(ctx, item); err != nil {
			if db.IsUniqueViolation(err, "") {
				return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart line was added concurrently")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart line")
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	return s.GetCart(ctx, retailerID)
}

func (s *service) UpdateQuantity(ctx context.Context, retailerID, cartItemID uuid.UUID, quantity int) (*View, error) {
	if retailerID == uuid.Nil || cartItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retailer id and cart item id are required")
	}
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	item, err := s.repo.FindByIDForRetailer(ctx, cartItemID, retailerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	listing := item.WholesalerProduct
	if listing == nil {
		if listing, err = s.loadListing(ctx, item.WholesalerProductID); err != nil {
			return nil, err
		}
	}
	if err := checkBounds(listing, quantity); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateQuantity(ctx, cartItemID, retailerID, quantity); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}
	return s.GetCart(ctx, retailerID)
}

func (s *service) RemoveItem(ctx context.Context, retailerID, cartItemID uuid.UUID) (*View, error) {
	if retailerID == uuid.Nil || cartItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retailer id and cart item id are required")
	}
	deleted, err := s.repo.DeleteForRetailer(ctx, retailerID, []uuid.UUID{cartItemID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
	}
	if deleted == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.GetCart(ctx, retailerID)
}

func (s *service) loadListing(ctx context.Context, id uuid.UUID) (*models.WholesalerProduct, error) {
	listing, err := s.listings.FindWholesalerProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return listing, nil
}

func checkBounds(listing *models.WholesalerProduct, quantity int) error {
	if quantity < listing.MinimumOrderQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("minimum order quantity is %d", listing.MinimumOrderQuantity)).
			WithDetails(map[string]any{
				"field":                "quantity",
				"minimumOrderQuantity": listing.MinimumOrderQuantity,
			})
	}
	if quantity > listing.AvailableQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("only %d units available", listing.AvailableQuantity)).
			WithDetails(map[string]any{
				"field":             "quantity",
				"availableQuantity": listing.AvailableQuantity,
			})
	}
	return nil
}
