package domain

import (
	"strconv"
	"strings"
	"time"
)

// Sentinel values substituted when the feed omits a commodity qualifier.
const (
	DefaultVariety = "Other"
	DefaultGrade   = "FAQ"
)

// arrivalDateLayout is the feed's date format (DD/MM/YYYY).
const arrivalDateLayout = "02/01/2006"

// RawRecord is one record as published by the feed. Every field is a string;
// Normalize produces the typed PriceRecord or a ValidationError.
type RawRecord struct {
	State       string `json:"state"`
	District    string `json:"district"`
	Market      string `json:"market"`
	Commodity   string `json:"commodity"`
	Variety     string `json:"variety"`
	Grade       string `json:"grade"`
	ArrivalDate string `json:"arrival_date"`
	MinPrice    string `json:"min_price"`
	MaxPrice    string `json:"max_price"`
	ModalPrice  string `json:"modal_price"`
}

// PriceRecord is a validated, normalized feed record ready for dimension
// resolution and fact insertion.
type PriceRecord struct {
	State       string
	District    string
	Market      string
	Commodity   string
	Variety     string
	Grade       string
	ArrivalDate time.Time
	MinPrice    float64
	MaxPrice    float64
	ModalPrice  float64
}

// PricesOrdered reports whether min <= modal <= max holds. Violations are
// admissible (the source does not enforce the invariant); callers log them.
func (r *PriceRecord) PricesOrdered() bool {
	return r.MinPrice <= r.ModalPrice && r.ModalPrice <= r.MaxPrice
}

// Normalize validates the raw record and converts it into a PriceRecord.
// Names are trimmed; missing state/district/market/commodity names, a
// malformed arrival date, or a non-numeric price yield a *ValidationError.
// Variety and grade fall back to DefaultVariety/DefaultGrade when absent.
func (r RawRecord) Normalize() (*PriceRecord, error) {
	var fields []FieldError

	rec := &PriceRecord{
		State:     strings.TrimSpace(r.State),
		District:  strings.TrimSpace(r.District),
		Market:    strings.TrimSpace(r.Market),
		Commodity: strings.TrimSpace(r.Commodity),
		Variety:   strings.TrimSpace(r.Variety),
		Grade:     strings.TrimSpace(r.Grade),
	}

	for _, f := range []struct {
		name  string
		value string
	}{
		{"state", rec.State},
		{"district", rec.District},
		{"market", rec.Market},
		{"commodity", rec.Commodity},
	} {
		if f.value == "" {
			fields = append(fields, FieldError{Field: f.name, Message: "is required"})
		}
	}

	if rec.Variety == "" {
		rec.Variety = DefaultVariety
	}
	if rec.Grade == "" {
		rec.Grade = DefaultGrade
	}

	date, err := ParseArrivalDate(r.ArrivalDate)
	if err != nil {
		fields = append(fields, FieldError{Field: "arrival_date", Message: "must be DD/MM/YYYY"})
	}
	rec.ArrivalDate = date

	for _, p := range []struct {
		name  string
		value string
		dst   *float64
	}{
		{"min_price", r.MinPrice, &rec.MinPrice},
		{"max_price", r.MaxPrice, &rec.MaxPrice},
		{"modal_price", r.ModalPrice, &rec.ModalPrice},
	} {
		v, err := strconv.ParseFloat(strings.TrimSpace(p.value), 64)
		if err != nil {
			fields = append(fields, FieldError{Field: p.name, Message: "is not numeric"})
			continue
		}
		*p.dst = v
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Errors: fields}
	}

	return rec, nil
}

// ParseArrivalDate converts the feed's DD/MM/YYYY date string into a
// time.Time (UTC midnight). The stored representation is the ISO calendar
// date, so only the date components are significant.
func ParseArrivalDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(arrivalDateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, NewValidationError("arrival_date", "must be DD/MM/YYYY")
	}
	return t, nil
}
