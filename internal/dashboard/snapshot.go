// Package dashboard turns the merged dataset into the read-only section
// payloads the dashboard renders: summary KPIs, daily revenue series,
// platform and geography comparisons, campaign drill-down, and exports.
package dashboard

import (
	"time"

	"github.com/sells-group/adpulse/internal/loader"
	"github.com/sells-group/adpulse/internal/merge"
	"github.com/sells-group/adpulse/internal/metrics"
	"github.com/sells-group/adpulse/internal/model"
)

// BuildSnapshot assembles one immutable snapshot from a completed load:
// platform union, business join, and derived metrics.
func BuildSnapshot(res *loader.Result, loadedAt time.Time) *model.Snapshot {
	union := merge.UnionCampaigns(res.Campaigns)
	merged := metrics.Derive(merge.Merge(res.Business, union))

	return &model.Snapshot{
		Business:  res.Business,
		Campaigns: metrics.DeriveCampaigns(union),
		Merged:    merged,
		Quality:   res.Quality,
		LoadedAt:  loadedAt,
	}
}
