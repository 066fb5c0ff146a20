package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargingStation is one public charging point. City is stored folded
// (lowercase, no accents) so lookups never depend on input spelling;
// Address keeps the original casing for display.
type ChargingStation struct {
	ID          uuid.UUID       `json:"id"`
	City        string          `json:"city"`
	Address     string          `json:"address"`
	PricePerKWh decimal.Decimal `json:"price_per_kwh"`
	PowerKW     int             `json:"power_kw"`
	Available   bool            `json:"available"`
	Connector   string          `json:"connector"`
	Network     string          `json:"network"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
