package dashboard

import (
	"sort"

	"github.com/sells-group/adpulse/internal/model"
)

// PlatformStat is one advertising platform's aggregate performance.
type PlatformStat struct {
	Platform          string      `json:"platform"`
	Spend             float64     `json:"spend"`
	Impressions       float64     `json:"impressions"`
	Clicks            float64     `json:"clicks"`
	AttributedRevenue float64     `json:"attributed_revenue"`
	ROAS              model.Ratio `json:"roas"`
	CTR               model.Ratio `json:"ctr"`
	CPC               model.Ratio `json:"cpc"`
	CPM               model.Ratio `json:"cpm"`
	SpendShare        model.Ratio `json:"spend_share"`
}

// PlatformsPayload is the platform comparison section, ordered by platform
// name for stable rendering.
type PlatformsPayload struct {
	Platforms []PlatformStat `json:"platforms"`
}

// Platforms aggregates the filtered campaign table per platform.
func (b *Builder) Platforms(v View) PlatformsPayload {
	byPlatform := make(map[string]*PlatformStat)
	var names []string
	var totalSpend float64

	for _, c := range v.Campaigns {
		s, ok := byPlatform[c.Platform]
		if !ok {
			s = &PlatformStat{Platform: c.Platform}
			byPlatform[c.Platform] = s
			names = append(names, c.Platform)
		}
		s.Spend += c.Spend
		s.Impressions += c.Impressions
		s.Clicks += c.Clicks
		s.AttributedRevenue += c.AttributedRevenue
		totalSpend += c.Spend
	}

	sort.Strings(names)

	out := make([]PlatformStat, 0, len(names))
	for _, name := range names {
		s := byPlatform[name]
		s.ROAS = model.SafeDiv(s.AttributedRevenue, s.Spend)
		s.CTR = model.SafeDiv(s.Clicks, s.Impressions)
		s.CPC = model.SafeDiv(s.Spend, s.Clicks)
		s.CPM = model.SafeDiv(s.Spend, s.Impressions).Scaled(1000)
		s.SpendShare = model.SafeDiv(s.Spend, totalSpend)
		out = append(out, *s)
	}

	return PlatformsPayload{Platforms: out}
}
