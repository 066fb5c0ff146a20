// Package storage provides the charging-station database and search.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chargewise/charge-finder/internal/config"
	"github.com/chargewise/charge-finder/internal/translate"
)

// Common errors
var (
	ErrNotFound = errors.New("record not found")
)

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Store wraps the station table behind the two drivers the config
// allows. Placeholders use the $N form, which both lib/pq and
// go-sqlite3 accept, so the SQL below serves either driver unchanged.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the configured database and runs migrations.
func Open(cfg *config.Config) (*Store, error) {
	driverName := cfg.Database.Driver
	if driverName == "sqlite" {
		driverName = "sqlite3"
	}

	db, err := sql.Open(driverName, cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	switch cfg.Database.Driver {
	case "sqlite":
		// SQLite serializes writers anyway; a single connection avoids
		// SQLITE_BUSY under concurrent requests.
		db.SetMaxOpenConns(cfg.Database.SQLite.MaxOpenConns)
	case "postgres":
		db.SetMaxOpenConns(cfg.Database.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.Postgres.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.Postgres.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db, driver: cfg.Database.Driver}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an existing connection, used by tests.
func NewStore(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// Migrate creates the station table when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS charging_stations (
			id TEXT PRIMARY KEY,
			city TEXT NOT NULL,
			address TEXT NOT NULL,
			price_per_kwh NUMERIC NOT NULL,
			power_kw INTEGER NOT NULL,
			available BOOLEAN NOT NULL,
			connector TEXT NOT NULL DEFAULT '',
			network TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMP NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create charging_stations table: %w", err)
	}

	index := `CREATE INDEX IF NOT EXISTS idx_charging_stations_city ON charging_stations (city)`
	if _, err := s.db.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("failed to create city index: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Count returns the number of stations.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM charging_stations`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count stations: %w", err)
	}
	return n, nil
}

// Insert adds one station, assigning an ID and timestamp when missing.
func (s *Store) Insert(ctx context.Context, st *ChargingStation) error {
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO charging_stations (id, city, address, price_per_kwh, power_kw, available, connector, network, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		st.ID.String(), st.City, st.Address, st.PricePerKWh.String(), st.PowerKW,
		st.Available, st.Connector, st.Network, st.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert station: %w", err)
	}
	return nil
}

// GetByID retrieves a single station.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*ChargingStation, error) {
	query := `
		SELECT id, city, address, price_per_kwh, power_kw, available, connector, network, updated_at
		FROM charging_stations WHERE id = $1
	`
	st, err := scanStation(s.db.QueryRowContext(ctx, query, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return st, err
}

// Search runs a structured query against the station table. An empty
// result is returned as an empty slice, never an error.
func (s *Store) Search(ctx context.Context, q translate.Query) ([]*ChargingStation, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.City != "" {
		conds = append(conds, "city = "+arg(q.City))
	}
	if q.Address != "" {
		conds = append(conds, "lower(address) LIKE "+arg("%"+strings.ToLower(q.Address)+"%"))
	}
	if q.MinPowerKW > 0 {
		conds = append(conds, "power_kw >= "+arg(q.MinPowerKW))
	}
	if q.MaxPrice != nil {
		conds = append(conds, "price_per_kwh <= "+arg(q.MaxPrice.String()))
	}
	if q.OnlyAvailable {
		conds = append(conds, "available = "+arg(true))
	}
	if q.Connector != "" {
		conds = append(conds, "connector = "+arg(q.Connector))
	}
	if q.Network != "" {
		conds = append(conds, "network = "+arg(q.Network))
	}

	query := `
		SELECT id, city, address, price_per_kwh, power_kw, available, connector, network, updated_at
		FROM charging_stations
	`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY " + orderClause(q.OrderBy)

	limit := q.Limit
	if limit <= 0 {
		limit = translate.DefaultGenericLimit
	}
	query += " LIMIT " + arg(limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search stations: %w", err)
	}
	defer rows.Close()

	var stations []*ChargingStation
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

// orderClause maps a query ordering to SQL. Ties always break on price
// so results stay deterministic across drivers.
func orderClause(ordering translate.Ordering) string {
	switch ordering {
	case translate.OrderPowerDesc:
		return "power_kw DESC, price_per_kwh ASC"
	case translate.OrderComposite:
		// Value for money: most power per euro first.
		return "(power_kw / price_per_kwh) DESC, price_per_kwh ASC"
	default:
		return "price_per_kwh ASC, power_kw DESC"
	}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanStation(row scanner) (*ChargingStation, error) {
	var (
		st    ChargingStation
		id    string
		price string
	)
	err := row.Scan(&id, &st.City, &st.Address, &price, &st.PowerKW,
		&st.Available, &st.Connector, &st.Network, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if st.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid station id %q: %w", id, err)
	}
	if st.PricePerKWh, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("invalid station price %q: %w", price, err)
	}
	return &st, nil
}
