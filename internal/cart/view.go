package cart

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tradeflow-backend/pkg/db/models"
)

// LineView is one cart line as shown to the retailer.
type LineView struct {
	CartItemID           uuid.UUID       `json:"cartItemId"`
	WholesalerProductID  uuid.UUID       `json:"wholesalerProductId"`
	ProductID            uuid.UUID       `json:"productId"`
	ProductName          string          `json:"productName"`
	ImageURL             *string         `json:"imageUrl,omitempty"`
	UnitPrice            decimal.Decimal `json:"unitPrice"`
	Quantity             int             `json:"quantity"`
	LineTotal            decimal.Decimal `json:"lineTotal"`
	AvailableQuantity    int             `json:"availableQuantity"`
	MinimumOrderQuantity int             `json:"minimumOrderQuantity"`
}

// WholesalerGroup collects the lines bought from one wholesaler.
type WholesalerGroup struct {
	WholesalerID uuid.UUID       `json:"wholesalerId"`
	Lines        []LineView      `json:"lines"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// View is the grouped cart.
type View struct {
	Groups     []WholesalerGroup `json:"groups"`
	TotalItems int               `json:"totalItems"`
	GrandTotal decimal.Decimal   `json:"grandTotal"`
}

// IsEmpty reports whether the cart has no lines.
func (v View) IsEmpty() bool {
	return len(v.Groups) == 0
}

// BuildView groups loaded cart lines by wholesaler. Groups are ordered by
// wholesaler id and lines by wholesaler product id. Lines whose listing was not
// loaded are skipped.
func BuildView(items []models.CartItem) View {
	byWholesaler := map[uuid.UUID]*WholesalerGroup{}
	view := View{Groups: []WholesalerGroup{}, GrandTotal: decimal.Zero}

	for _, item := range items {
		wp := item.WholesalerProduct
		if wp == nil {
			continue
		}
		line := LineView{
			CartItemID:           item.ID,
			WholesalerProductID:  wp.ID,
			ProductID:            wp.ProductID,
			ProductName:          wp.DisplayName(),
			UnitPrice:            wp.Price,
			Quantity:             item.Quantity,
			LineTotal:            wp.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
			AvailableQuantity:    wp.AvailableQuantity,
			MinimumOrderQuantity: wp.MinimumOrderQuantity,
		}
		if wp.Product != nil {
			line.ImageURL = wp.Product.ImageURL
		}

		group, ok := byWholesaler[wp.WholesalerID]
		if !ok {
			group = &WholesalerGroup{WholesalerID: wp.WholesalerID, Subtotal: decimal.Zero}
			byWholesaler[wp.WholesalerID] = group
		}
		group.Lines = append(group.Lines, line)
		group.Subtotal = group.Subtotal.Add(line.LineTotal)
		view.TotalItems += item.Quantity
		view.GrandTotal = view.GrandTotal.Add(line.LineTotal)
	}

	for _, group := range byWholesaler {
		sort.Slice(group.Lines, func(i, j int) bool {
			return bytes.Compare(group.Lines[i].WholesalerProductID[:], group.Lines[j].WholesalerProductID[:]) < 0
		})
		view.Groups = append(view.Groups, *group)
	}
	sort.Slice(view.Groups, func(i, j int) bool {
		return bytes.Compare(view.Groups[i].WholesalerID[:], view.Groups[j].WholesalerID[:]) < 0
	})
	return view
}
