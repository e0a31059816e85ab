package dashboard

import (
	"sort"
	"time"

	"github.com/sells-group/adpulse/internal/model"
)

// RevenuePoint is one day of the revenue-versus-marketing series, aggregated
// across states.
type RevenuePoint struct {
	Date                string      `json:"date"`
	Revenue             float64     `json:"revenue"`
	Orders              float64     `json:"orders"`
	NewCustomers        float64     `json:"new_customers"`
	Spend               float64     `json:"spend"`
	AttributedRevenue   float64     `json:"attributed_revenue"`
	MarketingEfficiency model.Ratio `json:"marketing_efficiency"`
	RollingRevenue      float64     `json:"rolling_revenue"`
}

// RevenuePayload is the daily revenue trend section. RollingRevenue is a
// trailing average over WindowDays calendar points.
type RevenuePayload struct {
	WindowDays int            `json:"window_days"`
	Series     []RevenuePoint `json:"series"`
}

// Revenue aggregates the filtered merged table into one point per date.
func (b *Builder) Revenue(v View) RevenuePayload {
	byDate := make(map[time.Time]*RevenuePoint)
	var dates []time.Time

	for _, r := range v.Merged {
		p, ok := byDate[r.Date]
		if !ok {
			p = &RevenuePoint{Date: r.Date.Format(model.DateFormat)}
			byDate[r.Date] = p
			dates = append(dates, r.Date)
		}
		p.Revenue += r.Revenue
		p.Orders += r.Orders
		p.NewCustomers += r.NewCustomers
		p.Spend += r.Spend
		p.AttributedRevenue += r.AttributedRevenue
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	series := make([]RevenuePoint, 0, len(dates))
	for _, d := range dates {
		p := byDate[d]
		p.MarketingEfficiency = model.SafeDiv(p.Revenue, p.Spend)
		series = append(series, *p)
	}

	window := b.cfg.RollingWindowDays
	for i := range series {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		var sum float64
		for j := lo; j <= i; j++ {
			sum += series[j].Revenue
		}
		series[i].RollingRevenue = sum / float64(i-lo+1)
	}

	return RevenuePayload{WindowDays: window, Series: series}
}
