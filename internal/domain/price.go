// Package domain holds the entities and errors shared by all layers:
// the region/commodity dimensions, the daily price fact, the run ledger
// rows, and the normalized feed record.
package domain

import "time"

// State is the top level of the region hierarchy. Name is globally unique.
type State struct {
	ID   int64
	Name string
}

// District belongs to exactly one state. Name is unique within the state.
type District struct {
	ID      int64
	StateID int64
	Name    string
}

// Market (mandi) belongs to exactly one district. Name is unique within
// the district.
type Market struct {
	ID         int64
	DistrictID int64
	Name       string
}

// Commodity is identified by the (name, variety, grade) triple.
type Commodity struct {
	ID      int64
	Name    string
	Variety string
	Grade   string
}

// PriceObservation is the daily price fact. The natural key is
// (market_id, commodity_id, arrival_date): at most one observation per
// market, commodity, and date, enforced by the storage engine.
type PriceObservation struct {
	ID          int64
	MarketID    int64
	CommodityID int64
	ArrivalDate time.Time
	MinPrice    float64
	MaxPrice    float64
	ModalPrice  float64
	CreatedAt   time.Time
}

// PriceRow is a fully joined price observation as served by the query API.
type PriceRow struct {
	ID          int64     `json:"id"`
	State       string    `json:"state"`
	District    string    `json:"district"`
	Market      string    `json:"market"`
	Commodity   string    `json:"commodity"`
	Variety     string    `json:"variety"`
	Grade       string    `json:"grade"`
	ArrivalDate time.Time `json:"arrival_date"`
	MinPrice    float64   `json:"min_price"`
	MaxPrice    float64   `json:"max_price"`
	ModalPrice  float64   `json:"modal_price"`
}

// PriceFilter narrows price queries. Zero values mean "no filter".
// Name filters match case-insensitively.
type PriceFilter struct {
	State     string
	District  string
	Market    string
	Commodity string
	DateFrom  time.Time
	DateTo    time.Time
	Limit     int
	Offset    int
}
