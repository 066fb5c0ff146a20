package storage

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// SeedStations is the built-in dataset. Cities are folded, addresses
// keep their display form. Prices are euros per kWh.
func SeedStations() []*ChargingStation {
	price := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }

	return []*ChargingStation{
		{City: "lisboa", Address: "Avenida da Liberdade 110", PricePerKWh: price("0.25"), PowerKW: 50, Available: true, Connector: "ccs", Network: "mobie"},
		{City: "lisboa", Address: "Parque das Nações, Alameda dos Oceanos", PricePerKWh: price("0.32"), PowerKW: 150, Available: true, Connector: "ccs", Network: "tesla"},
		{City: "lisboa", Address: "Rua Castilho 39", PricePerKWh: price("0.21"), PowerKW: 22, Available: false, Connector: "type2", Network: "edp"},
		{City: "lisboa", Address: "Campo Grande 28", PricePerKWh: price("0.28"), PowerKW: 60, Available: true, Connector: "chademo", Network: "galp"},
		{City: "porto", Address: "Rua de Santa Catarina 312", PricePerKWh: price("0.23"), PowerKW: 50, Available: true, Connector: "ccs", Network: "mobie"},
		{City: "porto", Address: "Avenida dos Aliados 104", PricePerKWh: price("0.30"), PowerKW: 120, Available: true, Connector: "ccs", Network: "galp"},
		{City: "porto", Address: "Rua do Campo Alegre 823", PricePerKWh: price("0.19"), PowerKW: 22, Available: true, Connector: "type2", Network: "edp"},
		{City: "matosinhos", Address: "Avenida General Norton de Matos 95", PricePerKWh: price("0.24"), PowerKW: 60, Available: true, Connector: "ccs", Network: "mobie"},
		{City: "matosinhos", Address: "Rua Roberto Ivens 625", PricePerKWh: price("0.20"), PowerKW: 22, Available: false, Connector: "type2", Network: "edp"},
		{City: "leiria", Address: "Largo 5 de Outubro de 1910", PricePerKWh: price("0.22"), PowerKW: 50, Available: true, Connector: "ccs", Network: "mobie"},
		{City: "leiria", Address: "Avenida Heróis de Angola 91", PricePerKWh: price("0.27"), PowerKW: 100, Available: true, Connector: "ccs", Network: "galp"},
		{City: "braga", Address: "Avenida Central 128", PricePerKWh: price("0.21"), PowerKW: 43, Available: true, Connector: "type2", Network: "mobie"},
		{City: "braga", Address: "Rua do Souto 55", PricePerKWh: price("0.33"), PowerKW: 150, Available: true, Connector: "ccs", Network: "tesla"},
		{City: "coimbra", Address: "Largo da Portagem 14", PricePerKWh: price("0.26"), PowerKW: 50, Available: true, Connector: "chademo", Network: "galp"},
		{City: "coimbra", Address: "Avenida Sá da Bandeira 86", PricePerKWh: price("0.18"), PowerKW: 11, Available: true, Connector: "type2", Network: "edp"},
		{City: "faro", Address: "Rua de Santo António 23", PricePerKWh: price("0.29"), PowerKW: 60, Available: false, Connector: "ccs", Network: "mobie"},
		{City: "faro", Address: "Avenida 5 de Outubro 55", PricePerKWh: price("0.25"), PowerKW: 50, Available: true, Connector: "ccs", Network: "galp"},
		{City: "aveiro", Address: "Rua de João Mendonça 10", PricePerKWh: price("0.24"), PowerKW: 50, Available: true, Connector: "ccs", Network: "mobie"},
		{City: "evora", Address: "Praça do Giraldo 59", PricePerKWh: price("0.27"), PowerKW: 22, Available: true, Connector: "type2", Network: "edp"},
		{City: "setubal", Address: "Avenida Luísa Todi 163", PricePerKWh: price("0.23"), PowerKW: 60, Available: true, Connector: "ccs", Network: "mobie"},
		{City: "sintra", Address: "Volta do Duche 8", PricePerKWh: price("0.31"), PowerKW: 50, Available: true, Connector: "ccs", Network: "tesla"},
		{City: "cascais", Address: "Avenida Marginal 7034", PricePerKWh: price("0.34"), PowerKW: 250, Available: true, Connector: "ccs", Network: "tesla"},
		{City: "guimaraes", Address: "Largo do Toural 22", PricePerKWh: price("0.22"), PowerKW: 43, Available: true, Connector: "type2", Network: "mobie"},
		{City: "viseu", Address: "Rua Formosa 17", PricePerKWh: price("0.25"), PowerKW: 50, Available: false, Connector: "ccs", Network: "galp"},
	}
}

// SeedIfEmpty loads the built-in dataset when the table has no rows.
// Returns how many stations were inserted.
func (s *Store) SeedIfEmpty(ctx context.Context, progress func(done, total int)) (int, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	stations := SeedStations()
	for i, st := range stations {
		if err := s.Insert(ctx, st); err != nil {
			return i, fmt.Errorf("failed to seed station %s: %w", st.Address, err)
		}
		if progress != nil {
			progress(i+1, len(stations))
		}
	}
	return len(stations), nil
}
