package dashboard

import "github.com/sells-group/adpulse/internal/model"

// View is the filtered slice of a snapshot that every section reads. Filtering
// preserves the snapshot's row order and never copies row contents; a view
// with zero rows is valid.
type View struct {
	Business  []model.BusinessRecord
	Campaigns []model.CampaignMetrics
	Merged    []model.MergedRow
	Spec      model.FilterSpec
}

// Apply filters a snapshot by the given spec. The date range applies to every
// table, the state selection applies to every table that carries geography,
// and the platform selection applies to the campaign table.
func Apply(snap *model.Snapshot, spec model.FilterSpec) View {
	v := View{Spec: spec}

	for _, b := range snap.Business {
		if !spec.MatchDate(b.Date) || !spec.MatchState(b.State) {
			continue
		}
		v.Business = append(v.Business, b)
	}

	for _, c := range snap.Campaigns {
		if !spec.MatchDate(c.Date) || !spec.MatchPlatform(c.Platform) || !spec.MatchState(c.State) {
			continue
		}
		v.Campaigns = append(v.Campaigns, c)
	}

	for _, m := range snap.Merged {
		if !spec.MatchDate(m.Date) || !spec.MatchState(m.State) {
			continue
		}
		v.Merged = append(v.Merged, m)
	}

	return v
}
