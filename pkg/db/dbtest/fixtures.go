package dbtest

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tradeflow-backend/pkg/db/models"
	"github.com/angelmondragon/tradeflow-backend/pkg/enums"
)

// Listing describes a wholesaler product to seed.
type Listing struct {
	WholesalerID uuid.UUID
	Name         string
	Price        string
	Available    int
	MOQ          int
}

// SeedUser inserts a user of the given type with an address and phone.
func SeedUser(t testing.TB, db *gorm.DB, userType enums.UserType) *models.User {
	t.Helper()
	address := "12 Harbour Road"
	phone := "+44 20 7946 0000"
	user := &models.User{
		ID:          uuid.New(),
		Email:       uuid.NewString() + "@example.com",
		DisplayName: string(userType) + " user",
		UserType:    userType,
		Address:     &address,
		Phone:       &phone,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// SeedListing inserts a catalog product and a wholesaler listing for it.
func SeedListing(t testing.TB, db *gorm.DB, l Listing) *models.WholesalerProduct {
	t.Helper()
	if l.WholesalerID == uuid.Nil {
		l.WholesalerID = uuid.New()
	}
	if l.Name == "" {
		l.Name = "product " + uuid.NewString()[:8]
	}
	if l.Price == "" {
		l.Price = "10.00"
	}
	if l.MOQ == 0 {
		l.MOQ = 1
	}
	price := decimal.RequireFromString(l.Price)
	product := &models.Product{
		ID:           uuid.New(),
		Name:         l.Name,
		DefaultPrice: price,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	wp := &models.WholesalerProduct{
		ID:                   uuid.New(),
		ProductID:            product.ID,
		WholesalerID:         l.WholesalerID,
		Price:                price,
		AvailableQuantity:    l.Available,
		MinimumOrderQuantity: l.MOQ,
	}
	if err := db.Create(wp).Error; err != nil {
		t.Fatalf("seed wholesaler product: %v", err)
	}
	wp.Product = product
	return wp
}

// SeedCartItem puts qty units of a listing into the retailer's cart.
func SeedCartItem(t testing.TB, db *gorm.DB, retailerID, wholesalerProductID uuid.UUID, qty int) *models.CartItem {
	t.Helper()
	item := &models.CartItem{
		ID:                  uuid.New(),
		RetailerID:          retailerID,
		WholesalerProductID: wholesalerProductID,
		Quantity:            qty,
		AddedAt:             time.Now().UTC(),
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("seed cart item: %v", err)
	}
	return item
}

// Available reads the current stock of a listing.
func Available(t testing.TB, db *gorm.DB, wholesalerProductID uuid.UUID) int {
	t.Helper()
	var wp models.WholesalerProduct
	if err := db.First(&wp, "id = ?", wholesalerProductID).Error; err != nil {
		t.Fatalf("load wholesaler product: %v", err)
	}
	return wp.AvailableQuantity
}

// CartCount returns how many lines the retailer's cart holds.
func CartCount(t testing.TB, db *gorm.DB, retailerID uuid.UUID) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.CartItem{}).Where("retailer_id = ?", retailerID).Count(&n).Error; err != nil {
		t.Fatalf("count cart: %v", err)
	}
	return n
}

// RetailerProduct loads the retailer's listing for a catalog product, or nil
// when the retailer holds none.
func RetailerProduct(t testing.TB, db *gorm.DB, retailerID, productID uuid.UUID) *models.RetailerProduct {
	t.Helper()
	var rp models.RetailerProduct
	err := db.Where("retailer_id = ? AND product_id = ?", retailerID, productID).First(&rp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		t.Fatalf("load retailer product: %v", err)
	}
	return &rp
}
