// Package translate turns canonical Portuguese text into structured
// charging-station queries, via an ordered pattern grammar with a
// model-backed fallback for unmatched input.
package translate

import (
	"github.com/shopspring/decimal"
)

// Ordering selects the result ordering of a query.
type Ordering string

const (
	// OrderPriceAsc orders by price per kWh, cheapest first.
	OrderPriceAsc Ordering = "price_asc"
	// OrderPowerDesc orders by power rating, strongest first.
	OrderPowerDesc Ordering = "power_desc"
	// OrderComposite orders by price ascending then power descending.
	OrderComposite Ordering = "composite"
)

// DefaultGenericLimit bounds the unfiltered catch-all query.
const DefaultGenericLimit = 5

// Query is the structured intermediate representation consumed by the
// store: a filter predicate plus an ordering key and a result limit.
// A Query is always well-formed enough to execute.
type Query struct {
	City          string           `json:"city,omitempty"`
	Address       string           `json:"address,omitempty"`
	MinPowerKW    int              `json:"min_power_kw,omitempty"`
	MaxPrice      *decimal.Decimal `json:"max_price,omitempty"`
	OnlyAvailable bool             `json:"only_available,omitempty"`
	Connector     string           `json:"connector,omitempty"`
	Network       string           `json:"network,omitempty"`
	OrderBy       Ordering         `json:"order_by"`
	Limit         int              `json:"limit"`

	// Generic marks the unfiltered catch-all produced when no pattern
	// matched. It is the signal that triggers the fallback translator.
	Generic bool `json:"generic,omitempty"`
}

// GenericQuery returns the designated catch-all: unfiltered,
// price-ascending, small limit.
func GenericQuery() Query {
	return Query{
		OrderBy: OrderPriceAsc,
		Limit:   DefaultGenericLimit,
		Generic: true,
	}
}

// Equal reports whether two queries describe the same predicate, ordering
// and limit. Decimal comparison is by value, not representation.
func (q Query) Equal(other Query) bool {
	if q.City != other.City ||
		q.Address != other.Address ||
		q.MinPowerKW != other.MinPowerKW ||
		q.OnlyAvailable != other.OnlyAvailable ||
		q.Connector != other.Connector ||
		q.Network != other.Network ||
		q.OrderBy != other.OrderBy ||
		q.Limit != other.Limit ||
		q.Generic != other.Generic {
		return false
	}
	if (q.MaxPrice == nil) != (other.MaxPrice == nil) {
		return false
	}
	if q.MaxPrice != nil && !q.MaxPrice.Equal(*other.MaxPrice) {
		return false
	}
	return true
}
