// Package entity defines the domain models for the symbollist feature.
package entity

// Symbol is a tracked ticker. Active symbols are ingested and counted in breadth series.
type Symbol struct {
	Code     string `yaml:"code" validate:"required"` // e.g. "AAPL", "7203.T"
	Name     string `yaml:"name"`
	Market   string `yaml:"market"` // e.g. "NASDAQ", "TSE"
	IsActive bool   `yaml:"-"`
	SortKey  int    `yaml:"sort_key"`
}
