// Package twelvedata provides a client for the Twelve Data stock market API.
package twelvedata

import "time"

// Config holds configuration for the Twelve Data API client.
type Config struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url" default:"https://api.twelvedata.com" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" default:"10s"`
}
