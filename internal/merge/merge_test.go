package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/adpulse/internal/model"
)

func day(s string) time.Time {
	t, err := time.Parse(model.DateFormat, s)
	if err != nil {
		panic(err)
	}
	return t
}

func campaign(date, platform, campaignName, state string, spend, impr, clicks, attr float64) model.CampaignRecord {
	return model.CampaignRecord{
		Date:              day(date),
		Platform:          platform,
		Campaign:          campaignName,
		State:             state,
		Spend:             spend,
		Impressions:       impr,
		Clicks:            clicks,
		AttributedRevenue: attr,
	}
}

func TestUnionCampaigns(t *testing.T) {
	t.Parallel()

	t.Run("sums duplicates instead of dropping", func(t *testing.T) {
		t.Parallel()
		tables := map[string][]model.CampaignRecord{
			"Facebook": {
				campaign("2024-01-01", "Facebook", "c1", "CA", 10, 100, 5, 30),
				campaign("2024-01-01", "Facebook", "c1", "CA", 15, 200, 10, 45),
			},
		}
		out := UnionCampaigns(tables)
		require.Len(t, out, 1)
		assert.InDelta(t, 25, out[0].Spend, 1e-9)
		assert.InDelta(t, 300, out[0].Impressions, 1e-9)
		assert.InDelta(t, 15, out[0].Clicks, 1e-9)
		assert.InDelta(t, 75, out[0].AttributedRevenue, 1e-9)
	})

	t.Run("orders by date then platform then campaign", func(t *testing.T) {
		t.Parallel()
		tables := map[string][]model.CampaignRecord{
			"TikTok":   {campaign("2024-01-02", "TikTok", "z", "CA", 1, 1, 1, 1)},
			"Facebook": {campaign("2024-01-02", "Facebook", "a", "CA", 1, 1, 1, 1)},
			"Google": {
				campaign("2024-01-01", "Google", "b", "CA", 1, 1, 1, 1),
				campaign("2024-01-02", "Google", "a", "CA", 1, 1, 1, 1),
			},
		}
		out := UnionCampaigns(tables)
		require.Len(t, out, 4)
		assert.Equal(t, "Google", out[0].Platform)
		assert.Equal(t, day("2024-01-01"), out[0].Date)
		assert.Equal(t, "Facebook", out[1].Platform)
		assert.Equal(t, "Google", out[2].Platform)
		assert.Equal(t, "TikTok", out[3].Platform)
	})

	t.Run("different states stay separate", func(t *testing.T) {
		t.Parallel()
		tables := map[string][]model.CampaignRecord{
			"Facebook": {
				campaign("2024-01-01", "Facebook", "c1", "CA", 10, 100, 5, 30),
				campaign("2024-01-01", "Facebook", "c1", "NY", 20, 400, 8, 50),
			},
		}
		out := UnionCampaigns(tables)
		assert.Len(t, out, 2)
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, UnionCampaigns(nil))
	})
}

func TestMerge(t *testing.T) {
	t.Parallel()

	business := []model.BusinessRecord{
		{Date: day("2024-01-01"), State: "CA", Revenue: 100, Orders: 2, NewCustomers: 1, GrossProfit: 40, COGS: 60},
		{Date: day("2024-01-02"), State: "CA", Revenue: 200, Orders: 4, NewCustomers: 2, GrossProfit: 80, COGS: 120},
	}
	campaigns := []model.CampaignRecord{
		campaign("2024-01-01", "Facebook", "c1", "CA", 50, 1000, 25, 150),
		campaign("2024-01-03", "Google", "c2", "NY", 30, 500, 10, 60),
	}

	merged := Merge(business, campaigns)
	require.Len(t, merged, 3)

	t.Run("matched key carries both sides", func(t *testing.T) {
		t.Parallel()
		r := merged[0]
		assert.Equal(t, day("2024-01-01"), r.Date)
		assert.Equal(t, "CA", r.State)
		assert.InDelta(t, 100, r.Revenue, 1e-9)
		assert.InDelta(t, 50, r.Spend, 1e-9)
	})

	t.Run("business only key has zero marketing", func(t *testing.T) {
		t.Parallel()
		r := merged[1]
		assert.Equal(t, day("2024-01-02"), r.Date)
		assert.InDelta(t, 200, r.Revenue, 1e-9)
		assert.Zero(t, r.Spend)
		assert.Zero(t, r.Impressions)
	})

	t.Run("marketing only key has zero business", func(t *testing.T) {
		t.Parallel()
		r := merged[2]
		assert.Equal(t, day("2024-01-03"), r.Date)
		assert.Equal(t, "NY", r.State)
		assert.Zero(t, r.Revenue)
		assert.InDelta(t, 30, r.Spend, 1e-9)
	})
}

func TestMergeSumsDuplicateBusinessRows(t *testing.T) {
	t.Parallel()

	business := []model.BusinessRecord{
		{Date: day("2024-01-01"), State: "CA", Revenue: 100, Orders: 2},
		{Date: day("2024-01-01"), State: "CA", Revenue: 50, Orders: 1},
	}
	merged := Merge(business, nil)
	require.Len(t, merged, 1)
	assert.InDelta(t, 150, merged[0].Revenue, 1e-9)
	assert.InDelta(t, 3, merged[0].Orders, 1e-9)
}

func TestMergeFillsUnknownState(t *testing.T) {
	t.Parallel()

	business := []model.BusinessRecord{{Date: day("2024-01-01"), State: "", Revenue: 10}}
	campaigns := []model.CampaignRecord{campaign("2024-01-01", "Facebook", "c1", "", 5, 10, 1, 2)}

	merged := Merge(business, campaigns)
	require.Len(t, merged, 1)
	assert.Equal(t, model.UnknownState, merged[0].State)
	assert.InDelta(t, 10, merged[0].Revenue, 1e-9)
	assert.InDelta(t, 5, merged[0].Spend, 1e-9)
}

func TestMergeRowCountBound(t *testing.T) {
	t.Parallel()

	business := []model.BusinessRecord{
		{Date: day("2024-01-01"), State: "CA"},
		{Date: day("2024-01-02"), State: "CA"},
	}
	campaigns := []model.CampaignRecord{
		campaign("2024-01-02", "Facebook", "c", "CA", 1, 1, 1, 1),
		campaign("2024-01-03", "Facebook", "c", "CA", 1, 1, 1, 1),
	}

	merged := Merge(business, campaigns)
	// Dates from either side are retained.
	assert.GreaterOrEqual(t, len(merged), 2)
	assert.Len(t, merged, 3)
}
