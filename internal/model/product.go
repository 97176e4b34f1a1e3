package model

import (
	"time"

	"storefront/internal/money"
)

// Product represents a catalogue product. The catalogue is read-only from
// this service's perspective; price changes only affect future cart adds.
type Product struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       money.Money `json:"price"`
	SalePrice   money.Money `json:"salePrice"`
	Category    string      `json:"category"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// EffectivePrice returns the price a new cart line is snapshotted at:
// the sale price when one is set, otherwise the list price.
func (p *Product) EffectivePrice() money.Money {
	if p.SalePrice.IsPositive() {
		return p.SalePrice
	}
	return p.Price
}
