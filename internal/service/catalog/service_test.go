package catalog

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrimatrix/mandi-prices/internal/adapter/postgres/region"
	"github.com/agrimatrix/mandi-prices/internal/domain"
)

// ---------------------------------------------------------------------------
// Manual mocks (func fields)
// ---------------------------------------------------------------------------

type mockPriceReader struct {
	ListFunc   func(ctx context.Context, f domain.PriceFilter) ([]domain.PriceRow, int, error)
	LatestFunc func(ctx context.Context, limit int) ([]domain.PriceRow, error)
}

func (m *mockPriceReader) List(ctx context.Context, f domain.PriceFilter) ([]domain.PriceRow, int, error) {
	return m.ListFunc(ctx, f)
}

func (m *mockPriceReader) Latest(ctx context.Context, limit int) ([]domain.PriceRow, error) {
	return m.LatestFunc(ctx, limit)
}

type mockRegionReader struct {
	ListStatesFunc  func(ctx context.Context) ([]domain.State, error)
	ListMarketsFunc func(ctx context.Context, state, district string, limit, offset int) ([]region.MarketRow, error)
}

func (m *mockRegionReader) ListStates(ctx context.Context) ([]domain.State, error) {
	return m.ListStatesFunc(ctx)
}

func (m *mockRegionReader) ListMarkets(ctx context.Context, state, district string, limit, offset int) ([]region.MarketRow, error) {
	return m.ListMarketsFunc(ctx, state, district, limit, offset)
}

type mockCommodityReader struct {
	ListFunc func(ctx context.Context) ([]domain.Commodity, error)
}

func (m *mockCommodityReader) List(ctx context.Context) ([]domain.Commodity, error) {
	return m.ListFunc(ctx)
}

func newTestService(prices *mockPriceReader, regions *mockRegionReader, commodities *mockCommodityReader) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(logger, prices, regions, commodities)
}

// ---------------------------------------------------------------------------
// Prices
// ---------------------------------------------------------------------------

func TestService_Prices_BuildsFilter(t *testing.T) {
	t.Parallel()

	var captured domain.PriceFilter
	prices := &mockPriceReader{
		ListFunc: func(_ context.Context, f domain.PriceFilter) ([]domain.PriceRow, int, error) {
			captured = f
			return []domain.PriceRow{{Market: "Binny Mill"}}, 1, nil
		},
	}

	svc := newTestService(prices, nil, nil)
	result, err := svc.Prices(context.Background(), PricesInput{
		State:     "  Karnataka ",
		Commodity: "Tomato",
		DateFrom:  "2025-08-01",
		DateTo:    "2025-08-15",
		Limit:     50,
		Offset:    10,
	})
	require.NoError(t, err)

	assert.Equal(t, "Karnataka", captured.State)
	assert.Equal(t, "Tomato", captured.Commodity)
	assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), captured.DateFrom)
	assert.Equal(t, time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC), captured.DateTo)
	assert.Equal(t, 50, captured.Limit)
	assert.Equal(t, 10, captured.Offset)

	assert.Equal(t, 1, result.Total)
	assert.Len(t, result.Prices, 1)
	assert.Equal(t, 50, result.Limit)
}

func TestService_Prices_BadDate(t *testing.T) {
	t.Parallel()

	svc := newTestService(&mockPriceReader{}, nil, nil)

	_, err := svc.Prices(context.Background(), PricesInput{DateFrom: "15/08/2025"})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Prices(context.Background(), PricesInput{DateTo: "not-a-date"})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_Prices_LimitClamping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		limit     int
		offset    int
		wantLimit int
		wantOff   int
	}{
		{"zero limit uses default", 0, 0, DefaultLimit, 0},
		{"negative limit uses default", -5, 0, DefaultLimit, 0},
		{"above max is capped", 5000, 0, MaxLimit, 0},
		{"negative offset clamped to zero", 10, -3, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var captured domain.PriceFilter
			prices := &mockPriceReader{
				ListFunc: func(_ context.Context, f domain.PriceFilter) ([]domain.PriceRow, int, error) {
					captured = f
					return nil, 0, nil
				},
			}

			svc := newTestService(prices, nil, nil)
			_, err := svc.Prices(context.Background(), PricesInput{Limit: tt.limit, Offset: tt.offset})
			require.NoError(t, err)

			assert.Equal(t, tt.wantLimit, captured.Limit)
			assert.Equal(t, tt.wantOff, captured.Offset)
		})
	}
}

func TestService_LatestPrices_ClampsLimit(t *testing.T) {
	t.Parallel()

	var captured int
	prices := &mockPriceReader{
		LatestFunc: func(_ context.Context, limit int) ([]domain.PriceRow, error) {
			captured = limit
			return nil, nil
		},
	}

	svc := newTestService(prices, nil, nil)
	_, err := svc.LatestPrices(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, captured)
}

func TestService_Markets_PassesFilters(t *testing.T) {
	t.Parallel()

	var gotState, gotDistrict string
	regions := &mockRegionReader{
		ListMarketsFunc: func(_ context.Context, state, district string, limit, offset int) ([]region.MarketRow, error) {
			gotState, gotDistrict = state, district
			return []region.MarketRow{{Name: "Binny Mill"}}, nil
		},
	}

	svc := newTestService(nil, regions, nil)
	rows, err := svc.Markets(context.Background(), "Karnataka", "Bangalore", 10, 0)
	require.NoError(t, err)

	assert.Len(t, rows, 1)
	assert.Equal(t, "Karnataka", gotState)
	assert.Equal(t, "Bangalore", gotDistrict)
}
