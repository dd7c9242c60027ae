// Package region implements the state/district/market dimension repository.
// Dimension rows are append-only: resolved lazily on first reference via an
// atomic conditional insert, never renamed, never deleted.
package region

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/agrimatrix/mandi-prices/internal/adapter/postgres"
	"github.com/agrimatrix/mandi-prices/internal/domain"
)

// Repo provides region dimension persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new region repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// ---------------------------------------------------------------------------
// Resolve operations (atomic get-or-create)
// ---------------------------------------------------------------------------

// The DO UPDATE no-op makes RETURNING id yield the existing row on conflict,
// so each resolve is a single race-free statement: two concurrent callers
// with the same name converge to the same id with no duplicate row.
const (
	resolveStateSQL = `
INSERT INTO states (name) VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id`

	resolveDistrictSQL = `
INSERT INTO districts (state_id, name) VALUES ($1, $2)
ON CONFLICT (state_id, name) DO UPDATE SET name = EXCLUDED.name
RETURNING id`

	resolveMarketSQL = `
INSERT INTO markets (district_id, name) VALUES ($1, $2)
ON CONFLICT (district_id, name) DO UPDATE SET name = EXCLUDED.name
RETURNING id`
)

// ResolveState returns the id of the state with the given name, creating the
// row if it does not exist yet.
func (r *Repo) ResolveState(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, domain.NewValidationError("state", "is required")
	}

	var id int64
	if err := r.db.QueryRow(ctx, resolveStateSQL, name).Scan(&id); err != nil {
		return 0, postgres.MapError(err, "resolve state")
	}

	return id, nil
}

// ResolveDistrict returns the id of the district with the given name within
// a state, creating the row if it does not exist yet.
func (r *Repo) ResolveDistrict(ctx context.Context, stateID int64, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, domain.NewValidationError("district", "is required")
	}

	var id int64
	if err := r.db.QueryRow(ctx, resolveDistrictSQL, stateID, name).Scan(&id); err != nil {
		return 0, postgres.MapError(err, "resolve district")
	}

	return id, nil
}

// ResolveMarket returns the id of the market with the given name within a
// district, creating the row if it does not exist yet.
func (r *Repo) ResolveMarket(ctx context.Context, districtID int64, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, domain.NewValidationError("market", "is required")
	}

	var id int64
	if err := r.db.QueryRow(ctx, resolveMarketSQL, districtID, name).Scan(&id); err != nil {
		return 0, postgres.MapError(err, "resolve market")
	}

	return id, nil
}

// ---------------------------------------------------------------------------
// Read operations (query API)
// ---------------------------------------------------------------------------

// MarketRow is a market joined with its district and state names.
type MarketRow struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	District string `json:"district"`
	State    string `json:"state"`
}

// ListStates returns all states ordered by name.
// Returns an empty slice (not nil) when no states exist.
func (r *Repo) ListStates(ctx context.Context) ([]domain.State, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM states ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	defer rows.Close()

	states := []domain.State{}
	for rows.Next() {
		var s domain.State
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("list states: %w", err)
		}
		states = append(states, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}

	return states, nil
}

// ListMarkets returns markets joined with district and state names, optionally
// filtered by state and/or district name (case-insensitive), ordered by
// state, district, market.
func (r *Repo) ListMarkets(ctx context.Context, state, district string, limit, offset int) ([]MarketRow, error) {
	q := sq.Select("m.id", "m.name", "d.name", "s.name").
		From("markets m").
		Join("districts d ON m.district_id = d.id").
		Join("states s ON d.state_id = s.id").
		OrderBy("s.name", "d.name", "m.name").
		PlaceholderFormat(sq.Dollar)

	if state = strings.TrimSpace(state); state != "" {
		q = q.Where(sq.Eq{"lower(s.name)": strings.ToLower(state)})
	}
	if district = strings.TrimSpace(district); district != "" {
		q = q.Where(sq.Eq{"lower(d.name)": strings.ToLower(district)})
	}
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build markets query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list markets: %w", err)
	}
	defer rows.Close()

	markets := []MarketRow{}
	for rows.Next() {
		var m MarketRow
		if err := rows.Scan(&m.ID, &m.Name, &m.District, &m.State); err != nil {
			return nil, fmt.Errorf("list markets: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list markets: %w", err)
	}

	return markets, nil
}
