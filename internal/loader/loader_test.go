package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/adpulse/internal/config"
	"github.com/sells-group/adpulse/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const businessCSV = `date,total revenue,gross profit,COGS,# of orders,new customers,state
2024-01-01,"$1,000.50",400,600.50,20,5,CA
2024-01-02,2000,800,1200,40,8,CA
2024-01-02,500,-50,550,10,2,NY
`

const campaignCSV = `date,campaign,state,spend,impression,clicks,attributed revenue
2024-01-01,brand-awareness,CA,50,1000,25,150
2024-01-02,brand-awareness,CA,75,2000,50,300
2024-01-02,retargeting,,25,0,0,0
`

func TestLoadBusiness(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeFile(t, dir, "business.csv", businessCSV)

	recs, q, err := New().LoadBusiness(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	first := recs[0]
	assert.Equal(t, model.Day(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), first.Date)
	assert.Equal(t, "CA", first.State)
	assert.InDelta(t, 1000.50, first.Revenue, 1e-9)
	assert.InDelta(t, 400, first.GrossProfit, 1e-9)
	assert.InDelta(t, 600.50, first.COGS, 1e-9)
	assert.InDelta(t, 20, first.Orders, 1e-9)
	assert.InDelta(t, 5, first.NewCustomers, 1e-9)

	assert.Equal(t, "business", q.Source)
	assert.Equal(t, 3, q.Rows)
	assert.Equal(t, 0, q.Duplicates)
	assert.Equal(t, "2024-01-01", q.DateMin.Format(model.DateFormat))
	assert.Equal(t, "2024-01-02", q.DateMax.Format(model.DateFormat))
	// Negative gross profit is allowed and unflagged.
	assert.Empty(t, q.Warnings)
}

func TestLoadBusinessStateDefaultsToUnknown(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeFile(t, dir, "business.csv",
		"date,total revenue,gross profit,COGS,# of orders,new customers\n2024-01-01,100,40,60,2,1\n")

	recs, _, err := New().LoadBusiness(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, model.UnknownState, recs[0].State)
}

func TestLoadBusinessErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	t.Run("missing column", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, dir, "missing.csv", "date,total revenue\n2024-01-01,100\n")
		_, _, err := New().LoadBusiness(context.Background(), path)
		require.Error(t, err)
		assert.True(t, IsDataFormatError(err))
		assert.Contains(t, err.Error(), "num_of_orders")
	})

	t.Run("bad date", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, dir, "baddate.csv",
			"date,total revenue,gross profit,COGS,# of orders,new customers\nyesterday,100,40,60,2,1\n")
		_, _, err := New().LoadBusiness(context.Background(), path)
		require.Error(t, err)
		assert.True(t, IsDataFormatError(err))
	})

	t.Run("bad number", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, dir, "badnum.csv",
			"date,total revenue,gross profit,COGS,# of orders,new customers\n2024-01-01,lots,40,60,2,1\n")
		_, _, err := New().LoadBusiness(context.Background(), path)
		require.Error(t, err)
		assert.True(t, IsDataFormatError(err))
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, dir, "empty.csv", "")
		_, _, err := New().LoadBusiness(context.Background(), path)
		require.Error(t, err)
		assert.True(t, IsDataFormatError(err))
	})

	t.Run("file does not exist", func(t *testing.T) {
		t.Parallel()
		_, _, err := New().LoadBusiness(context.Background(), filepath.Join(dir, "nope.csv"))
		require.Error(t, err)
		assert.False(t, IsDataFormatError(err))
	})
}

func TestLoadBusinessNegativeWarnings(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeFile(t, dir, "neg.csv",
		"date,total revenue,gross profit,COGS,# of orders,new customers\n2024-01-01,-100,-40,60,2,1\n")

	_, q, err := New().LoadBusiness(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, q.Warnings, 1)
	assert.Contains(t, q.Warnings[0], "total_revenue")
}

func TestLoadCampaigns(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeFile(t, dir, "facebook.csv", campaignCSV)

	recs, q, err := New().LoadCampaigns(context.Background(), path, "Facebook")
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "Facebook", recs[0].Platform)
	assert.Equal(t, "brand-awareness", recs[0].Campaign)
	assert.InDelta(t, 50, recs[0].Spend, 1e-9)
	assert.InDelta(t, 1000, recs[0].Impressions, 1e-9)

	// Zero-impression rows are kept, not dropped.
	assert.InDelta(t, 0, recs[2].Impressions, 1e-9)
	assert.Equal(t, model.UnknownState, recs[2].State)

	assert.Equal(t, "facebook", q.Source)
	assert.Equal(t, 3, q.Rows)
}

func TestLoadCampaignsRejectsNegatives(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.csv",
		"date,campaign,spend,impression,clicks,attributed revenue\n2024-01-01,c1,-5,100,10,20\n")

	_, _, err := New().LoadCampaigns(context.Background(), path, "Google")
	require.Error(t, err)
	assert.True(t, IsDataFormatError(err))
	assert.Contains(t, err.Error(), "negative spend")
}

func TestLoadCampaignsCountsDuplicates(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeFile(t, dir, "dup.csv",
		"date,campaign,state,spend,impression,clicks,attributed revenue\n"+
			"2024-01-01,c1,CA,5,100,10,20\n"+
			"2024-01-01,c1,CA,7,200,20,40\n")

	recs, q, err := New().LoadCampaigns(context.Background(), path, "TikTok")
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.Equal(t, 1, q.Duplicates)
}

func TestLoaderMemoization(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeFile(t, dir, "business.csv", businessCSV)
	l := New()

	first, _, err := l.LoadBusiness(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, first, 3)

	second, _, err := l.LoadBusiness(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// A changed file is re-read.
	writeFile(t, dir, "business.csv",
		"date,total revenue,gross profit,COGS,# of orders,new customers,state\n2024-02-01,10,4,6,1,1,TX\n")
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	third, _, err := l.LoadBusiness(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, third, 1)
	assert.Equal(t, "TX", third[0].State)
}

func TestLoaderInvalidate(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeFile(t, dir, "business.csv", businessCSV)
	l := New()

	_, _, err := l.LoadBusiness(context.Background(), path)
	require.NoError(t, err)

	l.Invalidate(path)
	_, ok := l.lookup(path)
	assert.False(t, ok)
}

func TestLoadAll(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	business := writeFile(t, dir, "business.csv", businessCSV)
	fb := writeFile(t, dir, "fb.csv", campaignCSV)
	gg := writeFile(t, dir, "gg.csv", campaignCSV)

	cfg := config.DataConfig{
		Business:  business,
		Platforms: map[string]string{"facebook": fb, "google": gg},
	}

	res, err := New().Load(context.Background(), cfg)
	require.NoError(t, err)

	assert.Len(t, res.Business, 3)
	require.Len(t, res.Campaigns, 2)
	assert.Len(t, res.Campaigns["Facebook"], 3)
	assert.Len(t, res.Campaigns["Google"], 3)
	for _, rec := range res.Campaigns["Google"] {
		assert.Equal(t, "Google", rec.Platform)
	}

	require.Len(t, res.Quality, 3)
	assert.Equal(t, "business", res.Quality[0].Source)
	assert.Equal(t, "facebook", res.Quality[1].Source)
	assert.Equal(t, "google", res.Quality[2].Source)
}

func TestLoadAllFailsWhole(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	business := writeFile(t, dir, "business.csv", businessCSV)
	bad := writeFile(t, dir, "bad.csv", "date\n2024-01-01\n")

	cfg := config.DataConfig{
		Business:  business,
		Platforms: map[string]string{"facebook": bad},
	}

	_, err := New().Load(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, IsDataFormatError(err))
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "business.csv", businessCSV)

	w, err := NewWatcher([]string{path})
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 1)
	go w.Run(ctx, func(p string) {
		select {
		case changed <- p:
		default:
		}
	})

	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "business.csv", businessCSV+"2024-01-03,1,1,0,1,1,CA\n")

	select {
	case p := <-changed:
		assert.Equal(t, path, p)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not report the change")
	}
}
