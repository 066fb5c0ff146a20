package storage

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chargewise/charge-finder/internal/translate"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store := NewStore(db, "sqlite")
	require.NoError(t, store.Migrate(context.Background()))

	n, err := store.SeedIfEmpty(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, len(SeedStations()), n)
	return store
}

func TestSeedIfEmptyIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	n, err := store.SeedIfEmpty(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	total, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(SeedStations()), total)
}

func TestSearchOrderings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name        string
		query       translate.Query
		wantAddress string
	}{
		{
			name:        "cheapest in lisboa",
			query:       translate.Query{City: "lisboa", OrderBy: translate.OrderPriceAsc, Limit: 1},
			wantAddress: "Rua Castilho 39",
		},
		{
			name:        "fastest in lisboa",
			query:       translate.Query{City: "lisboa", OrderBy: translate.OrderPowerDesc, Limit: 1},
			wantAddress: "Parque das Nações, Alameda dos Oceanos",
		},
		{
			name:        "cheapest available in lisboa",
			query:       translate.Query{City: "lisboa", OnlyAvailable: true, OrderBy: translate.OrderPriceAsc, Limit: 1},
			wantAddress: "Avenida da Liberdade 110",
		},
		{
			name:        "best value in braga",
			query:       translate.Query{City: "braga", OrderBy: translate.OrderComposite, Limit: 1},
			wantAddress: "Rua do Souto 55",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Search(ctx, tt.query)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantAddress, got[0].Address)
		})
	}
}

func TestSearchFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("min power", func(t *testing.T) {
		got, err := store.Search(ctx, translate.Query{City: "porto", MinPowerKW: 50, OrderBy: translate.OrderPriceAsc, Limit: 5})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Rua de Santa Catarina 312", got[0].Address)
		for _, st := range got {
			assert.GreaterOrEqual(t, st.PowerKW, 50)
		}
	})

	t.Run("max price", func(t *testing.T) {
		limit := decimal.RequireFromString("0.25")
		got, err := store.Search(ctx, translate.Query{City: "lisboa", MaxPrice: &limit, OrderBy: translate.OrderPriceAsc, Limit: 5})
		require.NoError(t, err)
		require.Len(t, got, 2)
		for _, st := range got {
			assert.True(t, st.PricePerKWh.LessThanOrEqual(limit))
		}
	})

	t.Run("network", func(t *testing.T) {
		got, err := store.Search(ctx, translate.Query{City: "lisboa", Network: "tesla", OrderBy: translate.OrderPriceAsc, Limit: 5})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Parque das Nações, Alameda dos Oceanos", got[0].Address)
	})

	t.Run("connector", func(t *testing.T) {
		got, err := store.Search(ctx, translate.Query{City: "lisboa", Connector: "type2", OrderBy: translate.OrderPriceAsc, Limit: 5})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Rua Castilho 39", got[0].Address)
	})

	t.Run("unknown city yields no rows", func(t *testing.T) {
		got, err := store.Search(ctx, translate.Query{City: "ovar", OrderBy: translate.OrderPriceAsc, Limit: 5})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("generic query respects limit", func(t *testing.T) {
		got, err := store.Search(ctx, translate.GenericQuery())
		require.NoError(t, err)
		assert.Len(t, got, translate.DefaultGenericLimit)
	})
}

func TestGetByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	all, err := store.Search(ctx, translate.Query{City: "leiria", OrderBy: translate.OrderPriceAsc, Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, all)

	got, err := store.GetByID(ctx, all[0].ID)
	require.NoError(t, err)
	assert.Equal(t, all[0].Address, got.Address)
	assert.True(t, all[0].PricePerKWh.Equal(got.PricePerKWh))
}
