// Package catalog provides the read-only query surface over the stored
// dimensions and price facts.
package catalog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/agrimatrix/mandi-prices/internal/adapter/postgres/region"
	"github.com/agrimatrix/mandi-prices/internal/domain"
)

const (
	// DefaultLimit applies when a listing request does not specify one.
	DefaultLimit = 100
	// MaxLimit caps a single page of results.
	MaxLimit = 1000
)

type priceReader interface {
	List(ctx context.Context, f domain.PriceFilter) ([]domain.PriceRow, int, error)
	Latest(ctx context.Context, limit int) ([]domain.PriceRow, error)
}

type regionReader interface {
	ListStates(ctx context.Context) ([]domain.State, error)
	ListMarkets(ctx context.Context, state, district string, limit, offset int) ([]region.MarketRow, error)
}

type commodityReader interface {
	List(ctx context.Context) ([]domain.Commodity, error)
}

// Service answers read-only catalog and price queries.
type Service struct {
	prices      priceReader
	regions     regionReader
	commodities commodityReader
	log         *slog.Logger
}

// NewService creates a new catalog service.
func NewService(log *slog.Logger, prices priceReader, regions regionReader, commodities commodityReader) *Service {
	return &Service{
		prices:      prices,
		regions:     regions,
		commodities: commodities,
		log:         log.With("service", "catalog"),
	}
}

// PricesInput carries the raw query parameters for a price listing.
// Dates are ISO calendar dates (YYYY-MM-DD).
type PricesInput struct {
	State     string
	District  string
	Market    string
	Commodity string
	DateFrom  string
	DateTo    string
	Limit     int
	Offset    int
}

// PricesResult is one page of price observations plus the total match count.
type PricesResult struct {
	Prices []domain.PriceRow `json:"prices"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// Prices returns price observations matching the input filters, newest first.
func (s *Service) Prices(ctx context.Context, in PricesInput) (*PricesResult, error) {
	filter := domain.PriceFilter{
		State:     strings.TrimSpace(in.State),
		District:  strings.TrimSpace(in.District),
		Market:    strings.TrimSpace(in.Market),
		Commodity: strings.TrimSpace(in.Commodity),
		Limit:     clampLimit(in.Limit),
		Offset:    max(in.Offset, 0),
	}

	var err error
	if filter.DateFrom, err = parseISODate("date_from", in.DateFrom); err != nil {
		return nil, err
	}
	if filter.DateTo, err = parseISODate("date_to", in.DateTo); err != nil {
		return nil, err
	}

	prices, total, err := s.prices.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &PricesResult{
		Prices: prices,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

// LatestPrices returns observations for the most recent arrival date.
func (s *Service) LatestPrices(ctx context.Context, limit int) ([]domain.PriceRow, error) {
	return s.prices.Latest(ctx, clampLimit(limit))
}

// States lists all known states.
func (s *Service) States(ctx context.Context) ([]domain.State, error) {
	return s.regions.ListStates(ctx)
}

// Markets lists markets, optionally narrowed to a state and/or district.
func (s *Service) Markets(ctx context.Context, state, district string, limit, offset int) ([]region.MarketRow, error) {
	return s.regions.ListMarkets(ctx, state, district, clampLimit(limit), max(offset, 0))
}

// Commodities lists all known commodities.
func (s *Service) Commodities(ctx context.Context) ([]domain.Commodity, error) {
	return s.commodities.List(ctx)
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

func parseISODate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}

	t, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return time.Time{}, domain.NewValidationError(field, "must be YYYY-MM-DD")
	}
	return t, nil
}
