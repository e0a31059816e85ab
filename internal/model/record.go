// Package model defines the domain types shared across the dashboard pipeline.
package model

import "time"

// DateFormat is the canonical day format used in CSV sources and API params.
const DateFormat = "2006-01-02"

// UnknownState is the sentinel filled in when a row carries no geography.
const UnknownState = "unknown"

// Day truncates t to UTC midnight. All record dates are day-resolution.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// BusinessRecord is one day of business performance, optionally split by state.
type BusinessRecord struct {
	Date         time.Time `json:"date"`
	State        string    `json:"state"`
	Revenue      float64   `json:"revenue"`
	Orders       float64   `json:"orders"`
	NewCustomers float64   `json:"new_customers"`
	GrossProfit  float64   `json:"gross_profit"`
	COGS         float64   `json:"cogs"`
}

// CampaignRecord is one day of activity for a single campaign on one platform.
// Spend, Impressions, Clicks, and AttributedRevenue are non-negative; the loader
// rejects files that violate this.
type CampaignRecord struct {
	Date              time.Time `json:"date"`
	Platform          string    `json:"platform"`
	Campaign          string    `json:"campaign"`
	State             string    `json:"state"`
	Spend             float64   `json:"spend"`
	Impressions       float64   `json:"impressions"`
	Clicks            float64   `json:"clicks"`
	AttributedRevenue float64   `json:"attributed_revenue"`
}

// CampaignMetrics is a CampaignRecord with its per-row derived metrics.
type CampaignMetrics struct {
	CampaignRecord
	ROAS Ratio `json:"roas"`
	CTR  Ratio `json:"ctr"`
	CPC  Ratio `json:"cpc"`
	CPM  Ratio `json:"cpm"`
}

// MergedRow joins one (date, state) of business performance with the marketing
// totals for the same key. Derived metrics are always recomputed from the raw
// fields; they are never loaded or stored independently.
type MergedRow struct {
	Date  time.Time `json:"date"`
	State string    `json:"state"`

	Revenue      float64 `json:"revenue"`
	Orders       float64 `json:"orders"`
	NewCustomers float64 `json:"new_customers"`
	GrossProfit  float64 `json:"gross_profit"`
	COGS         float64 `json:"cogs"`

	Spend             float64 `json:"spend"`
	Impressions       float64 `json:"impressions"`
	Clicks            float64 `json:"clicks"`
	AttributedRevenue float64 `json:"attributed_revenue"`

	ROAS                Ratio `json:"roas"`
	CTR                 Ratio `json:"ctr"`
	CPC                 Ratio `json:"cpc"`
	CPM                 Ratio `json:"cpm"`
	AOV                 Ratio `json:"aov"`
	GrossMargin         Ratio `json:"gross_margin"`
	MarketingEfficiency Ratio `json:"marketing_efficiency"`
}

// Snapshot is one immutable build of all loaded and derived tables. A refresh
// replaces the whole snapshot; nothing inside one is ever mutated.
type Snapshot struct {
	Business  []BusinessRecord  `json:"business"`
	Campaigns []CampaignMetrics `json:"campaigns"`
	Merged    []MergedRow       `json:"merged"`
	Quality   []QualityReport   `json:"quality"`
	LoadedAt  time.Time         `json:"loaded_at"`
}

// QualityReport summarizes one loaded source table for the validate command
// and the refresh-run history.
type QualityReport struct {
	Source     string    `json:"source"`
	Path       string    `json:"path"`
	Rows       int       `json:"rows"`
	DateMin    time.Time `json:"date_min"`
	DateMax    time.Time `json:"date_max"`
	Duplicates int       `json:"duplicates"`
	Warnings   []string  `json:"warnings,omitempty"`
}
