// Package checkout holds order placement rules shared by the cart and the
// checkout engine.
package checkout

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/tradeflow-backend/pkg/errors"
)

// MOQLine is a requested quantity against a listing's minimum order quantity.
type MOQLine struct {
	WholesalerProductID  uuid.UUID
	ProductName          string
	MinimumOrderQuantity int
	Quantity             int
}

// MOQViolation is returned in error details for every line below its minimum.
type MOQViolation struct {
	WholesalerProductID uuid.UUID `json:"wholesalerProductId"`
	ProductName         string    `json:"productName,omitempty"`
	Minimum             int       `json:"minimum"`
	Requested           int       `json:"requested"`
}

// ValidateMOQ fails with a state conflict listing every line whose quantity
// is below the listing's current minimum. A minimum of 1 or less never fails.
func ValidateMOQ(lines []MOQLine) error {
	var violations []MOQViolation
	for _, line := range lines {
		if line.MinimumOrderQuantity <= 1 || line.Quantity >= line.MinimumOrderQuantity {
			continue
		}
		violations = append(violations, MOQViolation{
			WholesalerProductID: line.WholesalerProductID,
			ProductName:         line.ProductName,
			Minimum:             line.MinimumOrderQuantity,
			Requested:           line.Quantity,
		})
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("minimum order quantity not met for %d line(s)", len(violations))).
		WithDetails(map[string]any{"violations": violations})
}
