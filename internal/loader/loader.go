// Package loader reads the business and per-platform campaign CSV exports into
// typed tables. Loads are memoized per file; a table is re-read only when the
// file on disk changes.
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/adpulse/internal/config"
	"github.com/sells-group/adpulse/internal/model"
)

// DataFormatError reports a malformed input file: a missing required column,
// an unparsable date, or an invalid numeric value.
type DataFormatError struct {
	File   string
	Detail string
}

func (e *DataFormatError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Detail)
}

// IsDataFormatError reports whether err is (or wraps) a DataFormatError.
func IsDataFormatError(err error) bool {
	var dfe *DataFormatError
	return errors.As(err, &dfe)
}

var dateLayouts = []string{model.DateFormat, "01/02/2006", "2006/01/02"}

var titler = cases.Title(language.English)

// Result holds everything one full load produced.
type Result struct {
	Business  []model.BusinessRecord
	Campaigns map[string][]model.CampaignRecord // keyed by platform name
	Quality   []model.QualityReport
}

// Loader memoizes parsed tables keyed by file identity (path, size, mtime).
type Loader struct {
	mu    sync.Mutex
	cache map[string]*cacheEntry
}

// New creates an empty Loader.
func New() *Loader {
	return &Loader{cache: make(map[string]*cacheEntry)}
}

// Load reads the business file and every configured platform file, in
// parallel. Any single malformed file fails the whole load: the dashboard
// never renders from a partial dataset.
func (l *Loader) Load(ctx context.Context, cfg config.DataConfig) (*Result, error) {
	res := &Result{Campaigns: make(map[string][]model.CampaignRecord, len(cfg.Platforms))}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		recs, q, err := l.LoadBusiness(ctx, cfg.Business)
		if err != nil {
			return err
		}
		mu.Lock()
		res.Business = recs
		res.Quality = append(res.Quality, q)
		mu.Unlock()
		return nil
	})

	for name, path := range cfg.Platforms {
		platform := titler.String(name)
		path := path
		g.Go(func() error {
			recs, q, err := l.LoadCampaigns(ctx, path, platform)
			if err != nil {
				return err
			}
			mu.Lock()
			res.Campaigns[platform] = recs
			res.Quality = append(res.Quality, q)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Quality reports arrive in goroutine completion order.
	sort.Slice(res.Quality, func(i, j int) bool { return res.Quality[i].Source < res.Quality[j].Source })
	return res, nil
}

// LoadBusiness parses the business performance CSV.
func (l *Loader) LoadBusiness(ctx context.Context, path string) ([]model.BusinessRecord, model.QualityReport, error) {
	if cached, ok := l.lookup(path); ok {
		t := cached.(*businessTable)
		return t.records, t.quality, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, model.QualityReport{}, eris.Wrap(err, "loader: business")
	}

	tbl, err := readTable(path)
	if err != nil {
		return nil, model.QualityReport{}, err
	}

	records, quality, err := parseBusiness(path, tbl)
	if err != nil {
		return nil, model.QualityReport{}, err
	}

	l.remember(path, &businessTable{records: records, quality: quality})
	zap.L().Info("loaded business data", zap.String("path", path), zap.Int("rows", len(records)))
	return records, quality, nil
}

// LoadCampaigns parses one advertising platform's campaign CSV, tagging every
// row with the platform name.
func (l *Loader) LoadCampaigns(ctx context.Context, path, platform string) ([]model.CampaignRecord, model.QualityReport, error) {
	if cached, ok := l.lookup(path); ok {
		t := cached.(*campaignTable)
		return t.records, t.quality, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, model.QualityReport{}, eris.Wrapf(err, "loader: %s", platform)
	}

	tbl, err := readTable(path)
	if err != nil {
		return nil, model.QualityReport{}, err
	}

	records, quality, err := parseCampaigns(path, platform, tbl)
	if err != nil {
		return nil, model.QualityReport{}, err
	}

	l.remember(path, &campaignTable{records: records, quality: quality})
	zap.L().Info("loaded campaign data",
		zap.String("path", path),
		zap.String("platform", platform),
		zap.Int("rows", len(records)),
	)
	return records, quality, nil
}

type businessTable struct {
	records []model.BusinessRecord
	quality model.QualityReport
}

type campaignTable struct {
	records []model.CampaignRecord
	quality model.QualityReport
}

// rawTable is a parsed CSV with normalized header names mapped to column indexes.
type rawTable struct {
	columns map[string]int
	rows    [][]string
}

func readTable(path string) (*rawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, &DataFormatError{File: path, Detail: "file is empty"}
	}
	if err != nil {
		return nil, &DataFormatError{File: path, Detail: fmt.Sprintf("read header: %v", err)}
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[normalizeHeader(name)] = i
	}

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &DataFormatError{File: path, Detail: fmt.Sprintf("read row: %v", err)}
		}
		for i, field := range record {
			record[i] = strings.TrimSpace(field)
		}
		rows = append(rows, record)
	}

	return &rawTable{columns: columns, rows: rows}, nil
}

// normalizeHeader lowercases a column name, collapses spaces to underscores,
// and rewrites "#" to "num", so "# of orders" and "Total Revenue" become
// "num_of_orders" and "total_revenue".
func normalizeHeader(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "#", "num")
	s = strings.Join(strings.Fields(s), "_")
	return s
}

// column resolves the first alias present in the table, or fails when the
// column is required.
func (t *rawTable) column(path string, required bool, aliases ...string) (int, error) {
	for _, a := range aliases {
		if idx, ok := t.columns[a]; ok {
			return idx, nil
		}
	}
	if !required {
		return -1, nil
	}
	return -1, &DataFormatError{File: path, Detail: fmt.Sprintf("missing required column %q", aliases[0])}
}

func (t *rawTable) cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseDate(path, s string, line int) (time.Time, error) {
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return model.Day(d), nil
		}
	}
	return time.Time{}, &DataFormatError{File: path, Detail: fmt.Sprintf("line %d: unparsable date %q", line, s)}
}

// parseNumber coerces a CSV cell to float64. Blank cells are zero; currency
// symbols and thousands separators are stripped.
func parseNumber(path, column, s string, line int) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &DataFormatError{File: path, Detail: fmt.Sprintf("line %d: column %q: invalid number %q", line, column, s)}
	}
	return v, nil
}

func parseBusiness(path string, tbl *rawTable) ([]model.BusinessRecord, model.QualityReport, error) {
	dateIdx, err := tbl.column(path, true, "date")
	if err != nil {
		return nil, model.QualityReport{}, err
	}
	revenueIdx, err := tbl.column(path, true, "total_revenue", "revenue")
	if err != nil {
		return nil, model.QualityReport{}, err
	}
	ordersIdx, err := tbl.column(path, true, "num_of_orders", "orders")
	if err != nil {
		return nil, model.QualityReport{}, err
	}
	newCustIdx, err := tbl.column(path, true, "new_customers")
	if err != nil {
		return nil, model.QualityReport{}, err
	}
	grossIdx, err := tbl.column(path, true, "gross_profit")
	if err != nil {
		return nil, model.QualityReport{}, err
	}
	cogsIdx, err := tbl.column(path, true, "cogs")
	if err != nil {
		return nil, model.QualityReport{}, err
	}
	stateIdx, _ := tbl.column(path, false, "state")

	records := make([]model.BusinessRecord, 0, len(tbl.rows))
	seen := make(map[string]bool, len(tbl.rows))
	q := model.QualityReport{Source: "business", Path: path}

	for i, row := range tbl.rows {
		line := i + 2 // header is line 1

		date, err := parseDate(path, tbl.cell(row, dateIdx), line)
		if err != nil {
			return nil, model.QualityReport{}, err
		}

		rec := model.BusinessRecord{Date: date, State: tbl.cell(row, stateIdx)}
		if rec.State == "" {
			rec.State = model.UnknownState
		}

		for _, field := range []struct {
			name string
			idx  int
			dst  *float64
		}{
			{"total_revenue", revenueIdx, &rec.Revenue},
			{"num_of_orders", ordersIdx, &rec.Orders},
			{"new_customers", newCustIdx, &rec.NewCustomers},
			{"gross_profit", grossIdx, &rec.GrossProfit},
			{"cogs", cogsIdx, &rec.COGS},
		} {
			v, err := parseNumber(path, field.name, tbl.cell(row, field.idx), line)
			if err != nil {
				return nil, model.QualityReport{}, err
			}
			*field.dst = v
		}

		// Gross profit may legitimately go negative; anything else negative
		// is flagged but kept.
		for _, check := range []struct {
			name string
			v    float64
		}{
			{"total_revenue", rec.Revenue},
			{"num_of_orders", rec.Orders},
			{"new_customers", rec.NewCustomers},
			{"cogs", rec.COGS},
		} {
			if check.v < 0 {
				q.Warnings = append(q.Warnings, fmt.Sprintf("line %d: negative %s (%g)", line, check.name, check.v))
			}
		}

		key := date.Format(model.DateFormat) + "|" + rec.State
		if seen[key] {
			q.Duplicates++
		}
		seen[key] = true

		records = append(records, rec)
		trackDateRange(&q, date)
	}

	q.Rows = len(records)
	return records, q, nil
}

func parseCampaigns(path, platform string, tbl *rawTable) ([]model.CampaignRecord, model.QualityReport, error) {
	dateIdx, err := tbl.column(path, true, "date")
	if err != nil {
		return nil, model.QualityReport{}, err
	}
	campaignIdx, err := tbl.column(path, true, "campaign", "campaign_name")
	if err != nil {
		return nil, model.QualityReport{}, err
	}
	spendIdx, err := tbl.column(path, true, "spend")
	if err != nil {
		return nil, model.QualityReport{}, err
	}
	imprIdx, err := tbl.column(path, true, "impression", "impressions")
	if err != nil {
		return nil, model.QualityReport{}, err
	}
	clicksIdx, err := tbl.column(path, true, "clicks")
	if err != nil {
		return nil, model.QualityReport{}, err
	}
	attrIdx, err := tbl.column(path, true, "attributed_revenue")
	if err != nil {
		return nil, model.QualityReport{}, err
	}
	stateIdx, _ := tbl.column(path, false, "state")

	records := make([]model.CampaignRecord, 0, len(tbl.rows))
	seen := make(map[string]bool, len(tbl.rows))
	q := model.QualityReport{Source: strings.ToLower(platform), Path: path}

	for i, row := range tbl.rows {
		line := i + 2

		date, err := parseDate(path, tbl.cell(row, dateIdx), line)
		if err != nil {
			return nil, model.QualityReport{}, err
		}

		rec := model.CampaignRecord{
			Date:     date,
			Platform: platform,
			Campaign: tbl.cell(row, campaignIdx),
			State:    tbl.cell(row, stateIdx),
		}
		if rec.State == "" {
			rec.State = model.UnknownState
		}

		for _, field := range []struct {
			name string
			idx  int
			dst  *float64
		}{
			{"spend", spendIdx, &rec.Spend},
			{"impression", imprIdx, &rec.Impressions},
			{"clicks", clicksIdx, &rec.Clicks},
			{"attributed_revenue", attrIdx, &rec.AttributedRevenue},
		} {
			v, err := parseNumber(path, field.name, tbl.cell(row, field.idx), line)
			if err != nil {
				return nil, model.QualityReport{}, err
			}
			if v < 0 {
				return nil, model.QualityReport{}, &DataFormatError{
					File:   path,
					Detail: fmt.Sprintf("line %d: negative %s (%g)", line, field.name, v),
				}
			}
			*field.dst = v
		}

		key := strings.Join([]string{date.Format(model.DateFormat), rec.State, rec.Campaign}, "|")
		if seen[key] {
			q.Duplicates++
		}
		seen[key] = true

		records = append(records, rec)
		trackDateRange(&q, date)
	}

	q.Rows = len(records)
	return records, q, nil
}

func trackDateRange(q *model.QualityReport, d time.Time) {
	if q.DateMin.IsZero() || d.Before(q.DateMin) {
		q.DateMin = d
	}
	if q.DateMax.IsZero() || d.After(q.DateMax) {
		q.DateMax = d
	}
}
