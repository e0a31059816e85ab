// Package merge combines the per-platform campaign tables and joins them with
// the business table into the merged (date, state) view the dashboard reads.
package merge

import (
	"sort"
	"strings"
	"time"

	"github.com/sells-group/adpulse/internal/model"
)

// UnionCampaigns concatenates the per-platform tables into one table. Rows
// sharing (date, platform, state, campaign) are summed, never dropped. The
// result is ordered by date, then platform, then campaign, then state.
func UnionCampaigns(tables map[string][]model.CampaignRecord) []model.CampaignRecord {
	type key struct {
		date     time.Time
		platform string
		state    string
		campaign string
	}

	byKey := make(map[key]*model.CampaignRecord)
	var order []key

	for _, records := range tables {
		for _, rec := range records {
			k := key{date: rec.Date, platform: rec.Platform, state: rec.State, campaign: rec.Campaign}
			agg, ok := byKey[k]
			if !ok {
				clone := rec
				byKey[k] = &clone
				order = append(order, k)
				continue
			}
			agg.Spend += rec.Spend
			agg.Impressions += rec.Impressions
			agg.Clicks += rec.Clicks
			agg.AttributedRevenue += rec.AttributedRevenue
		}
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if !a.date.Equal(b.date) {
			return a.date.Before(b.date)
		}
		if a.platform != b.platform {
			return a.platform < b.platform
		}
		if a.campaign != b.campaign {
			return a.campaign < b.campaign
		}
		return a.state < b.state
	})

	out := make([]model.CampaignRecord, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	return out
}

type mergeKey struct {
	date  time.Time
	state string
}

// Merge outer-joins the business table with the unioned campaign table on
// (date, state). Dates present in either source are retained; numeric fields
// missing on one side are zero and a missing state is "unknown". Duplicate
// business rows for the same key are summed. The result is ordered by date,
// then state.
func Merge(business []model.BusinessRecord, campaigns []model.CampaignRecord) []model.MergedRow {
	rows := make(map[mergeKey]*model.MergedRow)
	var order []mergeKey

	row := func(k mergeKey) *model.MergedRow {
		if r, ok := rows[k]; ok {
			return r
		}
		r := &model.MergedRow{Date: k.date, State: k.state}
		rows[k] = r
		order = append(order, k)
		return r
	}

	for _, b := range business {
		r := row(mergeKey{date: b.Date, state: normalizeState(b.State)})
		r.Revenue += b.Revenue
		r.Orders += b.Orders
		r.NewCustomers += b.NewCustomers
		r.GrossProfit += b.GrossProfit
		r.COGS += b.COGS
	}

	for _, c := range campaigns {
		r := row(mergeKey{date: c.Date, state: normalizeState(c.State)})
		r.Spend += c.Spend
		r.Impressions += c.Impressions
		r.Clicks += c.Clicks
		r.AttributedRevenue += c.AttributedRevenue
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if !a.date.Equal(b.date) {
			return a.date.Before(b.date)
		}
		return a.state < b.state
	})

	out := make([]model.MergedRow, 0, len(order))
	for _, k := range order {
		out = append(out, *rows[k])
	}
	return out
}

func normalizeState(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.UnknownState
	}
	return s
}
