package dashboard

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/adpulse/internal/config"
	"github.com/sells-group/adpulse/internal/model"
)

// Builder produces section payloads under the configured dashboard tuning.
type Builder struct {
	cfg config.DashboardConfig
}

// NewBuilder creates a Builder. Zero-valued tuning fields fall back to the
// configuration defaults.
func NewBuilder(cfg config.DashboardConfig) *Builder {
	if cfg.TopCampaigns <= 0 {
		cfg.TopCampaigns = 10
	}
	if cfg.RollingWindowDays <= 0 {
		cfg.RollingWindowDays = 7
	}
	return &Builder{cfg: cfg}
}

// SummaryTotals are the raw sums the executive summary KPIs derive from.
type SummaryTotals struct {
	Revenue           float64 `json:"revenue"`
	Orders            float64 `json:"orders"`
	NewCustomers      float64 `json:"new_customers"`
	GrossProfit       float64 `json:"gross_profit"`
	Spend             float64 `json:"spend"`
	AttributedRevenue float64 `json:"attributed_revenue"`
	Clicks            float64 `json:"clicks"`
	Impressions       float64 `json:"impressions"`
}

// SummaryPayload is the executive summary section: overall totals and the
// headline ratios computed across the whole filtered range.
type SummaryPayload struct {
	Totals              SummaryTotals     `json:"totals"`
	ROAS                model.Ratio       `json:"roas"`
	CTR                 model.Ratio       `json:"ctr"`
	AOV                 model.Ratio       `json:"aov"`
	GrossMargin         model.Ratio       `json:"gross_margin"`
	MarketingEfficiency model.Ratio       `json:"marketing_efficiency"`
	Display             map[string]string `json:"display"`
}

var printer = message.NewPrinter(language.English)

// Summary computes the executive summary over the filtered view.
func (b *Builder) Summary(v View) SummaryPayload {
	var t SummaryTotals
	for _, r := range v.Merged {
		t.Revenue += r.Revenue
		t.Orders += r.Orders
		t.NewCustomers += r.NewCustomers
		t.GrossProfit += r.GrossProfit
		t.Spend += r.Spend
		t.AttributedRevenue += r.AttributedRevenue
		t.Clicks += r.Clicks
		t.Impressions += r.Impressions
	}

	p := SummaryPayload{
		Totals:              t,
		ROAS:                model.SafeDiv(t.AttributedRevenue, t.Spend),
		CTR:                 model.SafeDiv(t.Clicks, t.Impressions),
		AOV:                 model.SafeDiv(t.Revenue, t.Orders),
		GrossMargin:         model.SafeDiv(t.GrossProfit, t.Revenue),
		MarketingEfficiency: model.SafeDiv(t.Revenue, t.Spend),
	}

	p.Display = map[string]string{
		"total_revenue":      printer.Sprintf("$%.0f", t.Revenue),
		"total_orders":       printer.Sprintf("%.0f", t.Orders),
		"new_customers":      printer.Sprintf("%.0f", t.NewCustomers),
		"marketing_spend":    printer.Sprintf("$%.0f", t.Spend),
		"attributed_revenue": printer.Sprintf("$%.0f", t.AttributedRevenue),
		"roas":               displayRatio(p.ROAS, "%.2fx"),
		"ctr":                displayPercent(p.CTR),
		"aov":                displayRatio(p.AOV, "$%.2f"),
		"gross_margin":       displayPercent(p.GrossMargin),
	}
	return p
}

func displayRatio(r model.Ratio, format string) string {
	if !r.Valid {
		return model.NA
	}
	return printer.Sprintf(format, r.Value)
}

func displayPercent(r model.Ratio) string {
	if !r.Valid {
		return model.NA
	}
	return printer.Sprintf("%.2f%%", r.Value*100)
}
