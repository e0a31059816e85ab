// Package metrics derives the marketing and business ratio metrics from raw
// counts and sums. All functions are pure; a zero denominator produces an
// undefined Ratio, never a panic or a NaN.
package metrics

import "github.com/sells-group/adpulse/internal/model"

// Derive returns a copy of rows with every derived metric recomputed from the
// row's raw fields.
func Derive(rows []model.MergedRow) []model.MergedRow {
	out := make([]model.MergedRow, len(rows))
	for i, r := range rows {
		r.ROAS = model.SafeDiv(r.AttributedRevenue, r.Spend)
		r.CTR = model.SafeDiv(r.Clicks, r.Impressions)
		r.CPC = model.SafeDiv(r.Spend, r.Clicks)
		r.CPM = model.SafeDiv(r.Spend, r.Impressions).Scaled(1000)
		r.AOV = model.SafeDiv(r.Revenue, r.Orders)
		r.GrossMargin = model.SafeDiv(r.GrossProfit, r.Revenue)
		r.MarketingEfficiency = model.SafeDiv(r.Revenue, r.Spend)
		out[i] = r
	}
	return out
}

// DeriveCampaigns computes the per-row advertising metrics for the unioned
// campaign table.
func DeriveCampaigns(records []model.CampaignRecord) []model.CampaignMetrics {
	out := make([]model.CampaignMetrics, len(records))
	for i, rec := range records {
		out[i] = model.CampaignMetrics{
			CampaignRecord: rec,
			ROAS:           model.SafeDiv(rec.AttributedRevenue, rec.Spend),
			CTR:            model.SafeDiv(rec.Clicks, rec.Impressions),
			CPC:            model.SafeDiv(rec.Spend, rec.Clicks),
			CPM:            model.SafeDiv(rec.Spend, rec.Impressions).Scaled(1000),
		}
	}
	return out
}
