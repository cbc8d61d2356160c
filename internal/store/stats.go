package store

import (
	"time"

	"wine-service/internal/geo"
	"wine-service/internal/model"

	"github.com/shopspring/decimal"
)

const (
	topRegionLimit = 7
	bestRatedLimit = 5
	recentLimit    = 3
)

// TypeCount is a per-type bottle tally.
type TypeCount struct {
	Type string `json:"type"`
	Qty  int64  `json:"qty"`
}

// RegionCount is a per-region bottle tally.
type RegionCount struct {
	Region string `json:"region"`
	Qty    int64  `json:"qty"`
}

// MapPoint pairs a region tally with approximate coordinates.
type MapPoint struct {
	Region string  `json:"region"`
	Qty    int64   `json:"qty"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

// PricedWine names a single wine with its price.
type PricedWine struct {
	Name  string          `json:"name"`
	Year  *int            `json:"year"`
	Price decimal.Decimal `json:"price"`
}

// RatedWine names a single wine with its rating.
type RatedWine struct {
	Name     string `json:"name"`
	Year     *int   `json:"year"`
	Type     string `json:"type"`
	Rating   int    `json:"rating"`
	Quantity int    `json:"quantity"`
}

// VintageWine names a single wine with its vintage.
type VintageWine struct {
	Name string `json:"name"`
	Year *int   `json:"year"`
	Type string `json:"type"`
}

// RecentWine is a recently added record.
type RecentWine struct {
	Name  string    `json:"name"`
	Year  *int      `json:"year"`
	Type  string    `json:"type"`
	Added time.Time `json:"added"`
}

// Stats is the full read-side aggregate view, computed fresh per request.
// Absent numeric fields are excluded from their aggregate, not treated as
// zero.
type Stats struct {
	Bottles int64 `json:"bottles"`
	Wines   int64 `json:"wines"`

	ByType     []TypeCount   `json:"by_type"`
	TopRegions []RegionCount `json:"top_regions"`
	MapPoints  []MapPoint    `json:"map_points"`

	TotalValue decimal.NullDecimal `json:"total_value"`
	AvgPrice   decimal.NullDecimal `json:"avg_price"`
	MinPrice   decimal.NullDecimal `json:"min_price"`
	MaxPrice   decimal.NullDecimal `json:"max_price"`

	MostExpensive *PricedWine `json:"most_expensive"`
	Cheapest      *PricedWine `json:"cheapest"`

	BestRated []RatedWine `json:"best_rated"`

	AvgAge *float64     `json:"avg_age"`
	Oldest *VintageWine `json:"oldest"`
	Newest *VintageWine `json:"newest"`

	Recent []RecentWine `json:"recent"`

	InStock    int64 `json:"in_stock"`
	OutOfStock int64 `json:"out_of_stock"`
}

// QuickStats is the compact tally shown on the listing page and returned in
// mutation response envelopes.
type QuickStats struct {
	Total int64 `json:"total"`
	Types int64 `json:"types"`
}

// SummaryEntry is one row of the external summary API.
type SummaryEntry struct {
	Type  string `json:"type"`
	Cnt   int64  `json:"cnt"`
	Total int64  `json:"total"`
}

// Summary is the external consumption payload, e.g. for a dashboard sensor.
type Summary struct {
	TotalBottles int64          `json:"total_bottles"`
	ByType       []SummaryEntry `json:"by_type"`
}

// QuickStats returns in-stock bottle and distinct wine counts.
func (s *WineStore) QuickStats() (*QuickStats, error) {
	var qs QuickStats
	err := s.db.Model(&model.Wine{}).
		Select("COALESCE(SUM(quantity),0) AS total, COUNT(DISTINCT name) AS types").
		Where("quantity > 0").
		Scan(&qs).Error
	if err != nil {
		return nil, err
	}
	return &qs, nil
}

// Summary returns the per-type counts plus the in-stock bottle total.
func (s *WineStore) Summary() (*Summary, error) {
	sum := &Summary{ByType: []SummaryEntry{}}

	err := s.db.Model(&model.Wine{}).
		Select("type, COUNT(*) AS cnt, COALESCE(SUM(quantity),0) AS total").
		Group("type").
		Scan(&sum.ByType).Error
	if err != nil {
		return nil, err
	}

	err = s.db.Model(&model.Wine{}).
		Select("COALESCE(SUM(quantity),0)").
		Where("quantity > 0").
		Scan(&sum.TotalBottles).Error
	if err != nil {
		return nil, err
	}
	return sum, nil
}

// Stats computes the whole aggregate view.
func (s *WineStore) Stats() (*Stats, error) {
	st := &Stats{
		ByType:     []TypeCount{},
		TopRegions: []RegionCount{},
		MapPoints:  []MapPoint{},
		BestRated:  []RatedWine{},
		Recent:     []RecentWine{},
	}

	var totals struct {
		Bottles int64
		Wines   int64
	}
	err := s.db.Model(&model.Wine{}).
		Select("COALESCE(SUM(quantity),0) AS bottles, COUNT(*) AS wines").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	st.Bottles = totals.Bottles
	st.Wines = totals.Wines

	err = s.db.Model(&model.Wine{}).
		Select("type, SUM(quantity) AS qty").
		Where("type IS NOT NULL AND type != ''").
		Group("type").
		Order("qty DESC").
		Scan(&st.ByType).Error
	if err != nil {
		return nil, err
	}

	var allRegions []RegionCount
	err = s.db.Model(&model.Wine{}).
		Select("region, SUM(quantity) AS qty").
		Where("region IS NOT NULL AND region != ''").
		Group("region").
		Order("qty DESC").
		Scan(&allRegions).Error
	if err != nil {
		return nil, err
	}
	for i, r := range allRegions {
		if i < topRegionLimit {
			st.TopRegions = append(st.TopRegions, r)
		}
		// Regions without coordinates are omitted from the map, not errors.
		if p, ok := geo.Resolve(r.Region); ok {
			st.MapPoints = append(st.MapPoints, MapPoint{Region: r.Region, Qty: r.Qty, Lat: p.Lat, Lon: p.Lon})
		}
	}

	var money struct {
		TotalValue decimal.NullDecimal
		AvgPrice   decimal.NullDecimal
		MinPrice   decimal.NullDecimal
		MaxPrice   decimal.NullDecimal
	}
	err = s.db.Model(&model.Wine{}).
		Select("SUM(quantity * price) AS total_value, AVG(price) AS avg_price, MIN(price) AS min_price, MAX(price) AS max_price").
		Where("price IS NOT NULL AND price > 0").
		Scan(&money).Error
	if err != nil {
		return nil, err
	}
	st.TotalValue = money.TotalValue
	st.AvgPrice = money.AvgPrice
	st.MinPrice = money.MinPrice
	st.MaxPrice = money.MaxPrice

	if st.MostExpensive, err = s.pricedWine("price DESC", "price IS NOT NULL"); err != nil {
		return nil, err
	}
	if st.Cheapest, err = s.pricedWine("price ASC", "price IS NOT NULL AND price > 0"); err != nil {
		return nil, err
	}

	err = s.db.Model(&model.Wine{}).
		Select("name, year, type, rating, quantity").
		Where("rating > 0").
		Order("rating DESC, name").
		Limit(bestRatedLimit).
		Scan(&st.BestRated).Error
	if err != nil {
		return nil, err
	}

	var age struct{ AvgAge *float64 }
	err = s.db.Model(&model.Wine{}).
		Select("AVG(? - year) AS avg_age", time.Now().Year()).
		Where("year IS NOT NULL AND year > 0").
		Scan(&age).Error
	if err != nil {
		return nil, err
	}
	st.AvgAge = age.AvgAge

	if st.Oldest, err = s.vintageWine("year ASC"); err != nil {
		return nil, err
	}
	if st.Newest, err = s.vintageWine("year DESC"); err != nil {
		return nil, err
	}

	err = s.db.Model(&model.Wine{}).
		Select("name, year, type, added").
		Order("id DESC").
		Limit(recentLimit).
		Scan(&st.Recent).Error
	if err != nil {
		return nil, err
	}

	err = s.db.Model(&model.Wine{}).
		Select("COALESCE(SUM(quantity),0)").
		Where("quantity > 0").
		Scan(&st.InStock).Error
	if err != nil {
		return nil, err
	}
	err = s.db.Model(&model.Wine{}).
		Where("quantity = 0").
		Count(&st.OutOfStock).Error
	if err != nil {
		return nil, err
	}

	return st, nil
}

func (s *WineStore) pricedWine(order, where string) (*PricedWine, error) {
	var rows []PricedWine
	err := s.db.Model(&model.Wine{}).
		Select("name, year, price").
		Where(where).
		Order(order).
		Limit(1).
		Scan(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

func (s *WineStore) vintageWine(order string) (*VintageWine, error) {
	var rows []VintageWine
	err := s.db.Model(&model.Wine{}).
		Select("name, year, type").
		Where("year IS NOT NULL AND year > 0").
		Order(order).
		Limit(1).
		Scan(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}
