// Package commodity implements the commodity dimension repository.
// A commodity is identified by its (name, variety, grade) natural key.
package commodity

import (
	"context"
	"fmt"
	"strings"

	"github.com/agrimatrix/mandi-prices/internal/adapter/postgres"
	"github.com/agrimatrix/mandi-prices/internal/domain"
)

// Repo provides commodity dimension persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new commodity repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

const resolveSQL = `
INSERT INTO commodities (name, variety, grade) VALUES ($1, $2, $3)
ON CONFLICT (name, variety, grade) DO UPDATE SET name = EXCLUDED.name
RETURNING id`

// Resolve returns the id for the (name, variety, grade) triple, creating the
// row atomically if it does not exist yet. Empty variety/grade fall back to
// the sentinel values; an empty name is a validation error.
func (r *Repo) Resolve(ctx context.Context, name, variety, grade string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, domain.NewValidationError("commodity", "is required")
	}

	if variety = strings.TrimSpace(variety); variety == "" {
		variety = domain.DefaultVariety
	}
	if grade = strings.TrimSpace(grade); grade == "" {
		grade = domain.DefaultGrade
	}

	var id int64
	if err := r.db.QueryRow(ctx, resolveSQL, name, variety, grade).Scan(&id); err != nil {
		return 0, postgres.MapError(err, "resolve commodity")
	}

	return id, nil
}

const listSQL = `
SELECT id, name, variety, grade
FROM commodities
ORDER BY name, variety, grade`

// List returns all commodities ordered by the natural key.
// Returns an empty slice (not nil) when no commodities exist.
func (r *Repo) List(ctx context.Context) ([]domain.Commodity, error) {
	rows, err := r.db.Query(ctx, listSQL)
	if err != nil {
		return nil, fmt.Errorf("list commodities: %w", err)
	}
	defer rows.Close()

	commodities := []domain.Commodity{}
	for rows.Next() {
		var c domain.Commodity
		if err := rows.Scan(&c.ID, &c.Name, &c.Variety, &c.Grade); err != nil {
			return nil, fmt.Errorf("list commodities: %w", err)
		}
		commodities = append(commodities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list commodities: %w", err)
	}

	return commodities, nil
}
