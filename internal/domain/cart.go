package domain

import "github.com/shopspring/decimal"

// LineItem is one entry in a cart. For remote carts LineID is assigned by the
// backend and is distinct from ProductID; for local carts LineID equals
// ProductID.
type LineItem struct {
	LineID     string          `json:"lineId"`
	ProductID  string          `json:"productId"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Quantity   int             `json:"quantity"`
	Unit       string          `json:"unit"`
	ImageRef   string          `json:"imageUrl,omitempty"`
	FarmName   string          `json:"farmName,omitempty"`
	FarmerName string          `json:"farmerName,omitempty"`
}

// Product is the descriptor the storefront supplies when adding to the cart.
type Product struct {
	ID         string          `json:"productId"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Unit       string          `json:"unit"`
	ImageRef   string          `json:"imageUrl"`
	FarmName   string          `json:"farmName"`
	FarmerName string          `json:"farmerName"`
}

// Aggregates are derived cart totals, recomputed on every read.
type Aggregates struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// AggregatesOf sums quantities and quantity-weighted unit prices over items.
func AggregatesOf(items []LineItem) Aggregates {
	agg := Aggregates{Total: decimal.Zero}
	for _, it := range items {
		agg.Count += it.Quantity
		agg.Total = agg.Total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return agg
}
