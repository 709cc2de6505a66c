package itchio

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fredw/recommendit/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleJSON = `[
	{"title": "A Short Hike", "short_text": "climb a mountain",
	 "url": "https://example.itch.io/a-short-hike", "id": 1234,
	 "platforms": {"windows": true, "html5": true, "linux": false},
	 "tags": ["cozy", "exploration"], "price": 0},
	{"name": "Paid Game", "game_url": "https://example.itch.io/paid",
	 "game_id": 99, "platforms": ["windows"],
	 "tag_names": "roguelike|deckbuilder", "price": "4.99"}
]`

func TestImportJSON(t *testing.T) {
	s := newTestStore(t)
	imp := NewImporter(s)
	ctx := context.Background()

	path := writeFile(t, "games.json", sampleJSON)
	n, err := imp.ImportFile(ctx, path, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := s.EffectiveRatings(ctx, store.EffectiveOpts{ExternalSource: "itchio", PersonalSource: "fred"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byTitle := make(map[string]store.EffectiveRow, len(rows))
	for _, r := range rows {
		byTitle[r.Title] = r
	}

	hike := byTitle["A Short Hike"]
	assert.ElementsMatch(t, []string{"web", "windows"}, splitList(hike.Platforms))
	assert.ElementsMatch(t, []string{"cozy", "exploration"}, splitList(hike.Tags))

	paid := byTitle["Paid Game"]
	assert.ElementsMatch(t, []string{"roguelike", "deckbuilder"}, splitList(paid.Tags))
}

func TestImportJSONSingleObject(t *testing.T) {
	s := newTestStore(t)
	imp := NewImporter(s)

	path := writeFile(t, "one.json", `{"title": "Baba Is You", "id": "7"}`)
	n, err := imp.ImportFile(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestImportWebOnly(t *testing.T) {
	s := newTestStore(t)
	imp := NewImporter(s)

	path := writeFile(t, "games.json", sampleJSON)
	n, err := imp.ImportFile(context.Background(), path, Options{WebOnly: true})
	require.NoError(t, err)
	// Only the html5 game survives the filter.
	assert.Equal(t, 1, n)
}

func TestImportFreeOnly(t *testing.T) {
	s := newTestStore(t)
	imp := NewImporter(s)

	path := writeFile(t, "games.json", sampleJSON)
	n, err := imp.ImportFile(context.Background(), path, Options{FreeOnly: true})
	require.NoError(t, err)
	// The $4.99 game is skipped; unknown prices would pass through.
	assert.Equal(t, 1, n)
}

func TestImportIdempotent(t *testing.T) {
	s := newTestStore(t)
	imp := NewImporter(s)
	ctx := context.Background()

	path := writeFile(t, "games.json", sampleJSON)
	_, err := imp.ImportFile(ctx, path, Options{})
	require.NoError(t, err)
	_, err = imp.ImportFile(ctx, path, Options{})
	require.NoError(t, err)

	counts, err := s.CountItemsByMedia(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["game"])
}

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
	<title>New itch.io games</title>
	<item>
		<title>Night Bus</title>
		<link>https://example.itch.io/night-bus</link>
		<description>a quiet ride</description>
		<category>Atmospheric</category>
		<category>short</category>
	</item>
	<item>
		<title>Donut County</title>
		<link>https://example.itch.io/donut-county</link>
		<description>raccoon with a hole</description>
	</item>
</channel></rss>`

func TestImportRSS(t *testing.T) {
	s := newTestStore(t)
	imp := NewImporter(s)
	ctx := context.Background()

	path := writeFile(t, "feed.xml", sampleRSS)
	n, err := imp.ImportFile(ctx, path, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := s.EffectiveRatings(ctx, store.EffectiveOpts{ExternalSource: "itchio", PersonalSource: "fred"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	for _, r := range rows {
		if r.Title == "Night Bus" {
			assert.ElementsMatch(t, []string{"atmospheric", "short"}, splitList(r.Tags))
		}
	}
}

func TestImportUnparsable(t *testing.T) {
	s := newTestStore(t)
	imp := NewImporter(s)

	path := writeFile(t, "garbage.txt", "this is neither json nor rss")
	n, err := imp.ImportFile(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestImportMissingFile(t *testing.T) {
	s := newTestStore(t)
	imp := NewImporter(s)

	_, err := imp.ImportFile(context.Background(), filepath.Join(t.TempDir(), "absent.json"), Options{})
	assert.Error(t, err)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
