package dashboard

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/adpulse/internal/model"
)

func TestExportMergedRoundTrip(t *testing.T) {
	t.Parallel()
	v := Apply(fixtureSnapshot(), model.FilterSpec{})

	doc := ExportMerged(v.Merged)
	raw, err := doc.CSV()
	require.NoError(t, err)

	parsed, err := ParseDocument(SectionMerged, raw)
	require.NoError(t, err)
	assert.Equal(t, doc.Columns, parsed.Columns)
	assert.Equal(t, doc.Rows, parsed.Rows)

	rows, err := ParseMerged(parsed)
	require.NoError(t, err)
	assert.Equal(t, v.Merged, rows)
}

func TestExportMergedUndefinedCells(t *testing.T) {
	t.Parallel()

	doc := ExportMerged([]model.MergedRow{{
		Date:    day("2024-01-01"),
		State:   "CA",
		Revenue: 100,
		// spend, clicks, impressions, orders all zero
		GrossMargin: model.SafeDiv(40, 100),
	}})
	require.Len(t, doc.Rows, 1)

	row := doc.Rows[0]
	cell := func(name string) string {
		for i, c := range doc.Columns {
			if c == name {
				return row[i]
			}
		}
		t.Fatalf("no column %s", name)
		return ""
	}

	assert.Equal(t, model.NA, cell("roas"))
	assert.Equal(t, model.NA, cell("ctr"))
	assert.Equal(t, model.NA, cell("cpc"))
	assert.Equal(t, model.NA, cell("cpm"))
	assert.Equal(t, model.NA, cell("aov"))
	assert.Equal(t, "0.4", cell("gross_margin"))
}

func TestExportDeterministic(t *testing.T) {
	t.Parallel()
	b := newBuilder()
	v := Apply(fixtureSnapshot(), model.FilterSpec{})

	for _, section := range Sections {
		doc1, err := b.Export(v, section)
		require.NoError(t, err)
		doc2, err := b.Export(v, section)
		require.NoError(t, err)

		csv1, err := doc1.CSV()
		require.NoError(t, err)
		csv2, err := doc2.CSV()
		require.NoError(t, err)
		assert.Equal(t, csv1, csv2, "section %s", section)
	}
}

func TestExportUnknownSection(t *testing.T) {
	t.Parallel()
	b := newBuilder()

	_, err := b.Export(View{}, "charts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown section")
}

func TestExportSectionColumns(t *testing.T) {
	t.Parallel()
	b := newBuilder()
	v := Apply(fixtureSnapshot(), model.FilterSpec{})

	doc, err := b.Export(v, SectionCampaigns)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"platform", "campaign", "spend", "impressions", "clicks",
		"attributed_revenue", "roas", "ctr", "cpc", "cpm",
	}, doc.Columns)
	assert.Len(t, doc.Rows, 3)

	doc, err = b.Export(v, SectionSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"metric", "value"}, doc.Columns)
}

func TestWriteXLSX(t *testing.T) {
	t.Parallel()
	b := newBuilder()
	v := Apply(fixtureSnapshot(), model.FilterSpec{})

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(b.Documents(v), &buf))
	require.NotZero(t, buf.Len())

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Sheets, len(Sections))
	assert.Equal(t, SectionSummary, f.Sheets[0].Name)
	assert.Equal(t, SectionMerged, f.Sheets[len(Sections)-1].Name)
}

func TestParseMergedRejectsBadInput(t *testing.T) {
	t.Parallel()

	t.Run("wrong column count", func(t *testing.T) {
		t.Parallel()
		_, err := ParseMerged(&Document{Name: SectionMerged, Columns: []string{"date"}})
		assert.Error(t, err)
	})

	t.Run("bad date", func(t *testing.T) {
		t.Parallel()
		doc := ExportMerged([]model.MergedRow{{Date: day("2024-01-01"), State: "CA"}})
		doc.Rows[0][0] = "not-a-date"
		_, err := ParseMerged(doc)
		assert.Error(t, err)
	})

	t.Run("bad ratio", func(t *testing.T) {
		t.Parallel()
		doc := ExportMerged([]model.MergedRow{{Date: day("2024-01-01"), State: "CA"}})
		doc.Rows[0][11] = "three"
		_, err := ParseMerged(doc)
		assert.Error(t, err)
	})
}
