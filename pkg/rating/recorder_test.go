package rating

import (
	"context"
	"path/filepath"
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

	ctx := context.Background()
	require.NoError(t, s.EnsureDefaultScales(ctx))
	require.NoError(t, s.EnsureSource(ctx, "itchio", "external", 1.0, 1.0))
	return s
}

func TestRecordStars(t *testing.T) {
	s := newTestStore(t)
	rec := NewRecorder(s)
	ctx := context.Background()

	res, err := rec.RecordStars(ctx, StarsRating{
		ItemTitle: "Dwarf Fortress",
		MediaCode: "game",
		Source:    "itchio",
		Stars:     4.2,
		Votes:     100,
	})
	require.NoError(t, err)
	assert.Equal(t, 84, res.Percent)
	assert.Equal(t, 10.0, res.Confidence)
	assert.NotZero(t, res.ItemID)

	rows, err := s.RatingLedger(ctx, store.LedgerOpts{Source: "itchio"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Dwarf Fortress", rows[0].Title)
	require.NotNil(t, rows[0].ValueNum)
	assert.Equal(t, 4.2, *rows[0].ValueNum)
	require.NotNil(t, rows[0].VoteCount)
	assert.Equal(t, 100, *rows[0].VoteCount)
}

func TestRecordStarsNoVotes(t *testing.T) {
	s := newTestStore(t)
	rec := NewRecorder(s)

	res, err := rec.RecordStars(context.Background(), StarsRating{
		ItemTitle: "Outer Wilds",
		MediaCode: "game",
		Source:    "itchio",
		Stars:     5,
	})
	require.NoError(t, err)
	assert.Equal(t, 100, res.Percent)
	assert.Equal(t, 1.0, res.Confidence)
}

func TestRecordThumb(t *testing.T) {
	s := newTestStore(t)
	rec := NewRecorder(s)
	ctx := context.Background()

	up, err := rec.RecordThumb(ctx, ThumbRating{
		ItemTitle: "The Hobbit",
		MediaCode: "book",
		Source:    "itchio",
		Up:        true,
	})
	require.NoError(t, err)
	assert.Equal(t, 100, up.Percent)
	assert.Equal(t, 1.0, up.Confidence)

	down, err := rec.RecordThumb(ctx, ThumbRating{
		ItemTitle: "The Hobbit",
		MediaCode: "book",
		Source:    "itchio",
		Up:        false,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, down.Percent)
	assert.Equal(t, up.ItemID, down.ItemID)

	rows, err := s.RatingLedger(ctx, store.LedgerOpts{Media: "book"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotNil(t, rows[len(rows)-1].RawValue)
}

// The thumb scale map in the store must reproduce the percents the recorder
// writes directly.
func TestThumbMatchesScaleMap(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	scaleID, err := s.ScaleID(ctx, ScaleThumb)
	require.NoError(t, err)

	for _, up := range []bool{true, false} {
		mapped, err := s.ScalePercent(ctx, scaleID, ThumbRaw(up))
		require.NoError(t, err)
		assert.Equal(t, ThumbPercent(up), mapped)
	}
}

func TestRecordUnknownSource(t *testing.T) {
	s := newTestStore(t)
	rec := NewRecorder(s)

	_, err := rec.RecordStars(context.Background(), StarsRating{
		ItemTitle: "Hades",
		MediaCode: "game",
		Source:    "steam",
		Stars:     4.5,
	})
	assert.ErrorIs(t, err, store.ErrSourceNotFound)
}
