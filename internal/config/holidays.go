package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"orderdesk/internal/closing"
)

// HolidayConfig represents a holiday configuration.
type HolidayConfig struct {
	Date string `yaml:"date"` // "2026-01-01"
	Name string `yaml:"name"`
}

// HolidaysConfig is the root configuration for holidays.yaml.
type HolidaysConfig struct {
	Holidays []HolidayConfig `yaml:"holidays"`
}

// LoadHolidaysConfig loads and validates the holiday file.
func LoadHolidaysConfig(path string) (*HolidaysConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read holidays config: %w", err)
	}

	var cfg HolidaysConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse holidays config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate holidays config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *HolidaysConfig) Validate() error {
	seen := make(map[string]bool, len(c.Holidays))
	for i, h := range c.Holidays {
		if _, err := closing.ParseDate(h.Date); err != nil {
			return fmt.Errorf("holiday %d: invalid date %q (expected YYYY-MM-DD)", i, h.Date)
		}
		if seen[h.Date] {
			return fmt.Errorf("holiday %d: duplicate date %s", i, h.Date)
		}
		seen[h.Date] = true
	}
	return nil
}

// Calendar converts the holidays into a closing calendar.
func (c *HolidaysConfig) Calendar() closing.Calendar {
	if c == nil {
		return closing.Calendar{}
	}
	dates := make([]time.Time, 0, len(c.Holidays))
	for _, h := range c.Holidays {
		d, err := closing.ParseDate(h.Date)
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}
	return closing.New(dates...)
}
