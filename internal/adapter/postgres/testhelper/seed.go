package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrimatrix/mandi-prices/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedMarket creates a state, a district, and a market and returns the market
// with its parent IDs filled in.
func SeedMarket(t *testing.T, pool *pgxpool.Pool) domain.Market {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()

	var stateID int64
	err := pool.QueryRow(ctx,
		`INSERT INTO states (name) VALUES ($1) RETURNING id`,
		"State "+suffix,
	).Scan(&stateID)
	if err != nil {
		t.Fatalf("testhelper: SeedMarket insert state: %v", err)
	}

	var districtID int64
	err = pool.QueryRow(ctx,
		`INSERT INTO districts (state_id, name) VALUES ($1, $2) RETURNING id`,
		stateID, "District "+suffix,
	).Scan(&districtID)
	if err != nil {
		t.Fatalf("testhelper: SeedMarket insert district: %v", err)
	}

	market := domain.Market{
		DistrictID: districtID,
		Name:       "Market " + suffix,
	}
	err = pool.QueryRow(ctx,
		`INSERT INTO markets (district_id, name) VALUES ($1, $2) RETURNING id`,
		market.DistrictID, market.Name,
	).Scan(&market.ID)
	if err != nil {
		t.Fatalf("testhelper: SeedMarket insert market: %v", err)
	}

	return market
}

// SeedCommodity creates a commodity row and returns it.
func SeedCommodity(t *testing.T, pool *pgxpool.Pool) domain.Commodity {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	c := domain.Commodity{
		Name:    "Commodity " + suffix,
		Variety: "Variety " + suffix,
		Grade:   "FAQ",
	}

	err := pool.QueryRow(ctx,
		`INSERT INTO commodities (name, variety, grade) VALUES ($1, $2, $3) RETURNING id`,
		c.Name, c.Variety, c.Grade,
	).Scan(&c.ID)
	if err != nil {
		t.Fatalf("testhelper: SeedCommodity insert commodity: %v", err)
	}

	return c
}

// SeedPrice inserts one fact row for the given market and commodity.
func SeedPrice(t *testing.T, pool *pgxpool.Pool, marketID, commodityID int64, arrivalDate time.Time) {
	t.Helper()
	ctx := context.Background()

	_, err := pool.Exec(ctx,
		`INSERT INTO daily_prices (market_id, commodity_id, arrival_date, min_price, max_price, modal_price)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		marketID, commodityID, arrivalDate, 1000.0, 2000.0, 1500.0,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedPrice insert daily_price: %v", err)
	}
}
