package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/fredw/recommendit/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleRows() []store.EffectiveRow {
	pct := 84
	votes := 1234
	at := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	my := 90
	return []store.EffectiveRow{
		{
			ItemID: 1, Title: "A Short Hike", MediaCode: "game",
			Platforms: "web,windows", Tags: "cozy,exploration",
			ExternalPercent: &pct, ExternalVotes: &votes, ExternalRatedAt: &at,
			PersonalPercent: &my, PersonalRatedAt: &at,
		},
		{ItemID: 2, Title: "The Hobbit", MediaCode: "book"},
		{ItemID: 3, Title: "Spirited Away", MediaCode: "movie"},
	}
}

func TestItemsSheet(t *testing.T) {
	s := ItemsSheet("Items", sampleRows())
	assert.Equal(t, "Items", s.Name)
	assert.Equal(t, "external_percent", s.Headers[5])
	require.Len(t, s.Rows, 3)

	assert.Equal(t, 84, s.Rows[0][5])
	assert.Equal(t, "2026-01-10 12:00", s.Rows[0][7])
	// Missing ratings stay empty, not zero.
	assert.Nil(t, s.Rows[1][5])
}

func TestBucketByMediaDefaultOrder(t *testing.T) {
	sheets := BucketByMedia(sampleRows(), nil, false)
	require.Len(t, sheets, 3)
	assert.Equal(t, "Games", sheets[0].Name)
	assert.Equal(t, "Books", sheets[1].Name)
	assert.Equal(t, "Movies", sheets[2].Name)
}

func TestBucketByMediaExplicitOrder(t *testing.T) {
	sheets := BucketByMedia(sampleRows(), []string{"movie", "game", "music"}, false)
	require.Len(t, sheets, 2)
	assert.Equal(t, "Movies", sheets[0].Name)
	assert.Equal(t, "Games", sheets[1].Name)

	withEmpty := BucketByMedia(sampleRows(), []string{"movie", "game", "music"}, true)
	require.Len(t, withEmpty, 3)
	assert.Equal(t, "Music", withEmpty[2].Name)
	assert.Empty(t, withEmpty[2].Rows)
}

func TestLedgerSheet(t *testing.T) {
	raw := "true"
	votes := 10
	rows := []store.LedgerRow{{
		ItemID: 1, Title: "A Short Hike", MediaCode: "game", Source: "itchio",
		ScaleID: 2, RawValue: &raw, Percent: 100, VoteCount: &votes,
		Confidence: 3.16, RatedAt: time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC),
	}}

	s := LedgerSheet(rows)
	assert.Equal(t, "Ratings", s.Name)
	require.Len(t, s.Rows, 1)
	assert.Equal(t, "true", s.Rows[0][5])
	assert.Equal(t, 100, s.Rows[0][7])
	assert.Equal(t, "2026-02-01 08:30", s.Rows[0][10])
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	sheets := append(BucketByMedia(sampleRows(), nil, false), LedgerSheet(nil))

	require.NoError(t, WriteWorkbook(path, sheets))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Games", "Books", "Movies", "Ratings"}, f.GetSheetList())

	title, err := f.GetCellValue("Games", "B2")
	require.NoError(t, err)
	assert.Equal(t, "A Short Hike", title)

	header, err := f.GetCellValue("Games", "A1")
	require.NoError(t, err)
	assert.Equal(t, "id", header)
}

func TestWriteWorkbookNoSheets(t *testing.T) {
	err := WriteWorkbook(filepath.Join(t.TempDir(), "out.xlsx"), nil)
	assert.Error(t, err)
}

func TestRenderItems(t *testing.T) {
	out := RenderItems(sampleRows())
	assert.Contains(t, out, "A Short Hike")
	assert.Contains(t, out, "external_percent")
	assert.Contains(t, out, "84")
}

func TestRenderLedgerEmpty(t *testing.T) {
	out := RenderLedger(nil)
	assert.Contains(t, out, "rated_at")
}
