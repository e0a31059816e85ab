package dashboard

import (
	"sort"

	"github.com/sells-group/adpulse/internal/model"
)

// CampaignStat is one (platform, campaign) pair's aggregate performance.
type CampaignStat struct {
	Platform          string      `json:"platform"`
	Campaign          string      `json:"campaign"`
	Spend             float64     `json:"spend"`
	Impressions       float64     `json:"impressions"`
	Clicks            float64     `json:"clicks"`
	AttributedRevenue float64     `json:"attributed_revenue"`
	ROAS              model.Ratio `json:"roas"`
	CTR               model.Ratio `json:"ctr"`
	CPC               model.Ratio `json:"cpc"`
	CPM               model.Ratio `json:"cpm"`
}

// CampaignsPayload is the campaign drill-down section: every campaign sorted
// by ROAS descending (undefined last), with the top slice broken out.
type CampaignsPayload struct {
	TopN int            `json:"top_n"`
	Top  []CampaignStat `json:"top"`
	All  []CampaignStat `json:"all"`
}

// Campaigns aggregates the filtered campaign table per (platform, campaign).
func (b *Builder) Campaigns(v View) CampaignsPayload {
	type key struct{ platform, campaign string }

	byKey := make(map[key]*CampaignStat)
	var keys []key

	for _, c := range v.Campaigns {
		k := key{platform: c.Platform, campaign: c.Campaign}
		s, ok := byKey[k]
		if !ok {
			s = &CampaignStat{Platform: c.Platform, Campaign: c.Campaign}
			byKey[k] = s
			keys = append(keys, k)
		}
		s.Spend += c.Spend
		s.Impressions += c.Impressions
		s.Clicks += c.Clicks
		s.AttributedRevenue += c.AttributedRevenue
	}

	all := make([]CampaignStat, 0, len(keys))
	for _, k := range keys {
		s := byKey[k]
		s.ROAS = model.SafeDiv(s.AttributedRevenue, s.Spend)
		s.CTR = model.SafeDiv(s.Clicks, s.Impressions)
		s.CPC = model.SafeDiv(s.Spend, s.Clicks)
		s.CPM = model.SafeDiv(s.Spend, s.Impressions).Scaled(1000)
		all = append(all, *s)
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.ROAS.Valid != b.ROAS.Valid {
			return a.ROAS.Valid
		}
		if a.ROAS.Valid && a.ROAS.Value != b.ROAS.Value {
			return a.ROAS.Value > b.ROAS.Value
		}
		if a.Spend != b.Spend {
			return a.Spend > b.Spend
		}
		if a.Platform != b.Platform {
			return a.Platform < b.Platform
		}
		return a.Campaign < b.Campaign
	})

	top := all
	if len(top) > b.cfg.TopCampaigns {
		top = all[:b.cfg.TopCampaigns]
	}

	return CampaignsPayload{TopN: b.cfg.TopCampaigns, Top: top, All: all}
}
