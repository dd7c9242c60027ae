// Package price implements the daily price fact repository: the idempotent
// fact writer and the filtered read queries behind the query API.
package price

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/agrimatrix/mandi-prices/internal/adapter/postgres"
	"github.com/agrimatrix/mandi-prices/internal/domain"
)

// Repo provides price fact persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new price repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// ---------------------------------------------------------------------------
// Fact writer
// ---------------------------------------------------------------------------

const insertSQL = `
INSERT INTO daily_prices (market_id, commodity_id, arrival_date, min_price, max_price, modal_price)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (market_id, commodity_id, arrival_date) DO NOTHING`

// Insert writes one price observation. A row that already exists under the
// (market_id, commodity_id, arrival_date) natural key is left untouched and
// reported as inserted=false; this is the dedup mechanism, not an error.
// Price values are never updated on conflict.
func (r *Repo) Insert(ctx context.Context, obs domain.PriceObservation) (bool, error) {
	tag, err := r.db.Exec(ctx, insertSQL,
		obs.MarketID,
		obs.CommodityID,
		obs.ArrivalDate,
		obs.MinPrice,
		obs.MaxPrice,
		obs.ModalPrice,
	)
	if err != nil {
		return false, postgres.MapError(err, "insert price")
	}

	return tag.RowsAffected() > 0, nil
}

// ---------------------------------------------------------------------------
// Read operations (query API)
// ---------------------------------------------------------------------------

const joinedColumns = `p.id, s.name, d.name, m.name, c.name, c.variety, c.grade,
p.arrival_date, p.min_price, p.max_price, p.modal_price`

// baseSelect builds the joined select the price queries share.
func baseSelect() sq.SelectBuilder {
	return sq.Select(
		"p.id", "s.name", "d.name", "m.name",
		"c.name", "c.variety", "c.grade",
		"p.arrival_date", "p.min_price", "p.max_price", "p.modal_price",
	).
		From("daily_prices p").
		Join("markets m ON p.market_id = m.id").
		Join("districts d ON m.district_id = d.id").
		Join("states s ON d.state_id = s.id").
		Join("commodities c ON p.commodity_id = c.id").
		PlaceholderFormat(sq.Dollar)
}

// applyFilter appends the WHERE clauses for the given filter.
func applyFilter(q sq.SelectBuilder, f domain.PriceFilter) sq.SelectBuilder {
	if v := strings.TrimSpace(f.State); v != "" {
		q = q.Where(sq.Eq{"lower(s.name)": strings.ToLower(v)})
	}
	if v := strings.TrimSpace(f.District); v != "" {
		q = q.Where(sq.Eq{"lower(d.name)": strings.ToLower(v)})
	}
	if v := strings.TrimSpace(f.Market); v != "" {
		q = q.Where(sq.Eq{"lower(m.name)": strings.ToLower(v)})
	}
	if v := strings.TrimSpace(f.Commodity); v != "" {
		q = q.Where(sq.Eq{"lower(c.name)": strings.ToLower(v)})
	}
	if !f.DateFrom.IsZero() {
		q = q.Where(sq.GtOrEq{"p.arrival_date": f.DateFrom})
	}
	if !f.DateTo.IsZero() {
		q = q.Where(sq.LtOrEq{"p.arrival_date": f.DateTo})
	}
	return q
}

// List returns price observations matching the filter, newest first, plus the
// total match count for pagination. Returns an empty slice (not nil) when
// nothing matches.
func (r *Repo) List(ctx context.Context, f domain.PriceFilter) ([]domain.PriceRow, int, error) {
	countQ := applyFilter(
		sq.Select("count(*)").
			From("daily_prices p").
			Join("markets m ON p.market_id = m.id").
			Join("districts d ON m.district_id = d.id").
			Join("states s ON d.state_id = s.id").
			Join("commodities c ON p.commodity_id = c.id").
			PlaceholderFormat(sq.Dollar),
		f,
	)

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build price count query: %w", err)
	}

	var total int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count prices: %w", err)
	}

	q := applyFilter(baseSelect(), f).
		OrderBy("p.arrival_date DESC", "s.name", "d.name", "m.name", "c.name")

	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build price query: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list prices: %w", err)
	}
	defer rows.Close()

	result, err := scanPriceRows(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("list prices: %w", err)
	}

	return result, total, nil
}

const latestSQL = `
SELECT ` + joinedColumns + `
FROM daily_prices p
JOIN markets m ON p.market_id = m.id
JOIN districts d ON m.district_id = d.id
JOIN states s ON d.state_id = s.id
JOIN commodities c ON p.commodity_id = c.id
WHERE p.arrival_date = (SELECT max(arrival_date) FROM daily_prices)
ORDER BY s.name, d.name, m.name, c.name
LIMIT $1`

// Latest returns observations for the most recent arrival date in the store.
func (r *Repo) Latest(ctx context.Context, limit int) ([]domain.PriceRow, error) {
	rows, err := r.db.Query(ctx, latestSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("latest prices: %w", err)
	}
	defer rows.Close()

	result, err := scanPriceRows(rows)
	if err != nil {
		return nil, fmt.Errorf("latest prices: %w", err)
	}

	return result, nil
}

func scanPriceRows(rows pgx.Rows) ([]domain.PriceRow, error) {
	result := []domain.PriceRow{}
	for rows.Next() {
		var p domain.PriceRow
		if err := rows.Scan(
			&p.ID, &p.State, &p.District, &p.Market,
			&p.Commodity, &p.Variety, &p.Grade,
			&p.ArrivalDate, &p.MinPrice, &p.MaxPrice, &p.ModalPrice,
		); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
