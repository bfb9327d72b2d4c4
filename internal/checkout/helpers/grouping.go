package helpers

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tradeflow-backend/pkg/db/models"
)

// WholesalerLines holds the cart lines that become one wholesaler's order.
type WholesalerLines struct {
	WholesalerID uuid.UUID
	Items        []models.CartItem
}

// GroupCartItemsByWholesaler partitions loaded cart lines by the wholesaler of
// their listing. Groups are ordered by wholesaler id and lines by wholesaler
// product id, so every checkout touches stock rows in the same order. Lines
// without a loaded listing are grouped under uuid.Nil.
func GroupCartItemsByWholesaler(items []models.CartItem) []WholesalerLines {
	index := map[uuid.UUID]int{}
	var groups []WholesalerLines
	for _, item := range items {
		wholesalerID := uuid.Nil
		if item.WholesalerProduct != nil {
			wholesalerID = item.WholesalerProduct.WholesalerID
		}
		pos, ok := index[wholesalerID]
		if !ok {
			pos = len(groups)
			index[wholesalerID] = pos
			groups = append(groups, WholesalerLines{WholesalerID: wholesalerID})
		}
		groups[pos].Items = append(groups[pos].Items, item)
	}

	for i := range groups {
		lines := groups[i].Items
		sort.Slice(lines, func(a, b int) bool {
			return bytes.Compare(lines[a].WholesalerProductID[:], lines[b].WholesalerProductID[:]) < 0
		})
	}
	sort.Slice(groups, func(a, b int) bool {
		return bytes.Compare(groups[a].WholesalerID[:], groups[b].WholesalerID[:]) < 0
	})
	return groups
}

// SortedLines flattens groups back into their lock order.
func SortedLines(groups []WholesalerLines) []models.CartItem {
	var out []models.CartItem
	for _, group := range groups {
		out = append(out, group.Items...)
	}
	return out
}

// RetailerPrice is the resale price credited to a retailer: the wholesale
// price times markup, rounded to cents.
func RetailerPrice(wholesale, markup decimal.Decimal) decimal.Decimal {
	if markup.LessThanOrEqual(decimal.Zero) {
		return wholesale.Round(2)
	}
	return wholesale.Mul(markup).Round(2)
}
