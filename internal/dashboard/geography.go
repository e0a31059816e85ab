package dashboard

import (
	"sort"

	"github.com/sells-group/adpulse/internal/model"
)

// StateStat is one state's combined business and marketing performance.
type StateStat struct {
	State             string      `json:"state"`
	Revenue           float64     `json:"revenue"`
	Spend             float64     `json:"spend"`
	Impressions       float64     `json:"impressions"`
	Clicks            float64     `json:"clicks"`
	AttributedRevenue float64     `json:"attributed_revenue"`
	ROAS              model.Ratio `json:"roas"`
	CTR               model.Ratio `json:"ctr"`
}

// GeographyPayload is the geographic performance section, ordered by state.
type GeographyPayload struct {
	States []StateStat `json:"states"`
}

// Geography aggregates the filtered tables per state: business revenue from
// the business table, marketing figures from the campaign table.
func (b *Builder) Geography(v View) GeographyPayload {
	byState := make(map[string]*StateStat)
	var names []string

	stat := func(state string) *StateStat {
		if s, ok := byState[state]; ok {
			return s
		}
		s := &StateStat{State: state}
		byState[state] = s
		names = append(names, state)
		return s
	}

	for _, rec := range v.Business {
		stat(rec.State).Revenue += rec.Revenue
	}
	for _, c := range v.Campaigns {
		s := stat(c.State)
		s.Spend += c.Spend
		s.Impressions += c.Impressions
		s.Clicks += c.Clicks
		s.AttributedRevenue += c.AttributedRevenue
	}

	sort.Strings(names)

	out := make([]StateStat, 0, len(names))
	for _, name := range names {
		s := byState[name]
		s.ROAS = model.SafeDiv(s.AttributedRevenue, s.Spend)
		s.CTR = model.SafeDiv(s.Clicks, s.Impressions)
		out = append(out, *s)
	}

	return GeographyPayload{States: out}
}
