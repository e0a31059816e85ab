package dashboard

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/adpulse/internal/model"
)

// Document is a section rendered as an ordered-column table, ready for
// delimited-text download. The cell encoding is chosen so a rendered document
// re-parses to exactly the same values.
type Document struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Section names accepted by Export.
const (
	SectionSummary   = "summary"
	SectionRevenue   = "revenue"
	SectionPlatforms = "platforms"
	SectionGeography = "geography"
	SectionCampaigns = "campaigns"
	SectionMerged    = "merged"
)

// Sections lists every exportable section in rendering order.
var Sections = []string{
	SectionSummary, SectionRevenue, SectionPlatforms,
	SectionGeography, SectionCampaigns, SectionMerged,
}

// Export renders the named section of the view as a Document.
func (b *Builder) Export(v View, section string) (*Document, error) {
	switch section {
	case SectionSummary:
		return b.exportSummary(v), nil
	case SectionRevenue:
		return b.exportRevenue(v), nil
	case SectionPlatforms:
		return b.exportPlatforms(v), nil
	case SectionGeography:
		return b.exportGeography(v), nil
	case SectionCampaigns:
		return b.exportCampaigns(v), nil
	case SectionMerged:
		return ExportMerged(v.Merged), nil
	default:
		return nil, eris.Errorf("export: unknown section %q", section)
	}
}

// Documents renders every section of the view.
func (b *Builder) Documents(v View) []*Document {
	docs := make([]*Document, 0, len(Sections))
	for _, s := range Sections {
		doc, _ := b.Export(v, s)
		docs = append(docs, doc)
	}
	return docs
}

// CSV serializes the document as delimited text. The output is deterministic:
// rendering the same document twice yields identical bytes.
func (d *Document) CSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(d.Columns); err != nil {
		return nil, eris.Wrapf(err, "export %s: write header", d.Name)
	}
	for _, row := range d.Rows {
		if err := w.Write(row); err != nil {
			return nil, eris.Wrapf(err, "export %s: write row", d.Name)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, eris.Wrapf(err, "export %s: flush", d.Name)
	}
	return buf.Bytes(), nil
}

// ParseDocument is the inverse of CSV.
func ParseDocument(name string, data []byte) (*Document, error) {
	r := csv.NewReader(bytes.NewReader(data))
	records, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "export %s: parse", name)
	}
	if len(records) == 0 {
		return nil, eris.Errorf("export %s: empty document", name)
	}
	return &Document{Name: name, Columns: records[0], Rows: records[1:]}, nil
}

// WriteXLSX writes the documents as one workbook, one sheet per section.
func WriteXLSX(docs []*Document, w io.Writer) error {
	f := xlsx.NewFile()
	for _, d := range docs {
		sheet, err := f.AddSheet(d.Name)
		if err != nil {
			return eris.Wrapf(err, "export: add sheet %s", d.Name)
		}
		header := sheet.AddRow()
		for _, col := range d.Columns {
			header.AddCell().Value = col
		}
		for _, row := range d.Rows {
			r := sheet.AddRow()
			for _, cell := range row {
				r.AddCell().Value = cell
			}
		}
	}
	return eris.Wrap(f.Write(w), "export: write workbook")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (b *Builder) exportSummary(v View) *Document {
	p := b.Summary(v)
	return &Document{
		Name:    SectionSummary,
		Columns: []string{"metric", "value"},
		Rows: [][]string{
			{"total_revenue", formatFloat(p.Totals.Revenue)},
			{"total_orders", formatFloat(p.Totals.Orders)},
			{"new_customers", formatFloat(p.Totals.NewCustomers)},
			{"gross_profit", formatFloat(p.Totals.GrossProfit)},
			{"total_spend", formatFloat(p.Totals.Spend)},
			{"attributed_revenue", formatFloat(p.Totals.AttributedRevenue)},
			{"clicks", formatFloat(p.Totals.Clicks)},
			{"impressions", formatFloat(p.Totals.Impressions)},
			{"roas", p.ROAS.String()},
			{"ctr", p.CTR.String()},
			{"aov", p.AOV.String()},
			{"gross_margin", p.GrossMargin.String()},
			{"marketing_efficiency", p.MarketingEfficiency.String()},
		},
	}
}

func (b *Builder) exportRevenue(v View) *Document {
	p := b.Revenue(v)
	doc := &Document{
		Name: SectionRevenue,
		Columns: []string{
			"date", "revenue", "orders", "new_customers", "spend",
			"attributed_revenue", "marketing_efficiency", "rolling_revenue",
		},
	}
	for _, pt := range p.Series {
		doc.Rows = append(doc.Rows, []string{
			pt.Date,
			formatFloat(pt.Revenue),
			formatFloat(pt.Orders),
			formatFloat(pt.NewCustomers),
			formatFloat(pt.Spend),
			formatFloat(pt.AttributedRevenue),
			pt.MarketingEfficiency.String(),
			formatFloat(pt.RollingRevenue),
		})
	}
	return doc
}

func (b *Builder) exportPlatforms(v View) *Document {
	p := b.Platforms(v)
	doc := &Document{
		Name: SectionPlatforms,
		Columns: []string{
			"platform", "spend", "impressions", "clicks", "attributed_revenue",
			"roas", "ctr", "cpc", "cpm", "spend_share",
		},
	}
	for _, s := range p.Platforms {
		doc.Rows = append(doc.Rows, []string{
			s.Platform,
			formatFloat(s.Spend),
			formatFloat(s.Impressions),
			formatFloat(s.Clicks),
			formatFloat(s.AttributedRevenue),
			s.ROAS.String(),
			s.CTR.String(),
			s.CPC.String(),
			s.CPM.String(),
			s.SpendShare.String(),
		})
	}
	return doc
}

func (b *Builder) exportGeography(v View) *Document {
	p := b.Geography(v)
	doc := &Document{
		Name: SectionGeography,
		Columns: []string{
			"state", "revenue", "spend", "impressions", "clicks",
			"attributed_revenue", "roas", "ctr",
		},
	}
	for _, s := range p.States {
		doc.Rows = append(doc.Rows, []string{
			s.State,
			formatFloat(s.Revenue),
			formatFloat(s.Spend),
			formatFloat(s.Impressions),
			formatFloat(s.Clicks),
			formatFloat(s.AttributedRevenue),
			s.ROAS.String(),
			s.CTR.String(),
		})
	}
	return doc
}

func (b *Builder) exportCampaigns(v View) *Document {
	p := b.Campaigns(v)
	doc := &Document{
		Name: SectionCampaigns,
		Columns: []string{
			"platform", "campaign", "spend", "impressions", "clicks",
			"attributed_revenue", "roas", "ctr", "cpc", "cpm",
		},
	}
	for _, s := range p.All {
		doc.Rows = append(doc.Rows, []string{
			s.Platform,
			s.Campaign,
			formatFloat(s.Spend),
			formatFloat(s.Impressions),
			formatFloat(s.Clicks),
			formatFloat(s.AttributedRevenue),
			s.ROAS.String(),
			s.CTR.String(),
			s.CPC.String(),
			s.CPM.String(),
		})
	}
	return doc
}

var mergedColumns = []string{
	"date", "state", "revenue", "orders", "new_customers", "gross_profit",
	"cogs", "spend", "impressions", "clicks", "attributed_revenue",
	"roas", "ctr", "cpc", "cpm", "aov", "gross_margin", "marketing_efficiency",
}

// ExportMerged renders the filtered merged table row for row.
func ExportMerged(rows []model.MergedRow) *Document {
	doc := &Document{Name: SectionMerged, Columns: mergedColumns}
	for _, r := range rows {
		doc.Rows = append(doc.Rows, []string{
			r.Date.Format(model.DateFormat),
			r.State,
			formatFloat(r.Revenue),
			formatFloat(r.Orders),
			formatFloat(r.NewCustomers),
			formatFloat(r.GrossProfit),
			formatFloat(r.COGS),
			formatFloat(r.Spend),
			formatFloat(r.Impressions),
			formatFloat(r.Clicks),
			formatFloat(r.AttributedRevenue),
			r.ROAS.String(),
			r.CTR.String(),
			r.CPC.String(),
			r.CPM.String(),
			r.AOV.String(),
			r.GrossMargin.String(),
			r.MarketingEfficiency.String(),
		})
	}
	return doc
}

// ParseMerged reconstructs merged rows from an exported merged document.
func ParseMerged(doc *Document) ([]model.MergedRow, error) {
	if len(doc.Columns) != len(mergedColumns) {
		return nil, eris.Errorf("export merged: expected %d columns, got %d", len(mergedColumns), len(doc.Columns))
	}

	rows := make([]model.MergedRow, 0, len(doc.Rows))
	for i, cells := range doc.Rows {
		if len(cells) != len(mergedColumns) {
			return nil, eris.Errorf("export merged: row %d: expected %d cells, got %d", i, len(mergedColumns), len(cells))
		}

		var r model.MergedRow
		date, err := time.Parse(model.DateFormat, cells[0])
		if err != nil {
			return nil, eris.Wrapf(err, "export merged: row %d: date", i)
		}
		r.Date = date.UTC()
		r.State = cells[1]

		floats := []*float64{
			&r.Revenue, &r.Orders, &r.NewCustomers, &r.GrossProfit, &r.COGS,
			&r.Spend, &r.Impressions, &r.Clicks, &r.AttributedRevenue,
		}
		for j, dst := range floats {
			v, err := strconv.ParseFloat(cells[2+j], 64)
			if err != nil {
				return nil, eris.Wrapf(err, "export merged: row %d: column %s", i, mergedColumns[2+j])
			}
			*dst = v
		}

		ratios := []*model.Ratio{
			&r.ROAS, &r.CTR, &r.CPC, &r.CPM, &r.AOV, &r.GrossMargin, &r.MarketingEfficiency,
		}
		for j, dst := range ratios {
			ratio, err := model.ParseRatio(cells[11+j])
			if err != nil {
				return nil, eris.Wrapf(err, "export merged: row %d: column %s", i, mergedColumns[11+j])
			}
			*dst = ratio
		}

		rows = append(rows, r)
	}
	return rows, nil
}

