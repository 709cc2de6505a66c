package rating

import (
	"context"
	"fmt"

	"github.com/fredw/recommendit/internal/store"
)

// StarsRating is a continuous 0-5 star rating to be recorded.
type StarsRating struct {
	ItemTitle string
	MediaCode string
	Source    string
	Stars     float64
	Votes     int
	Notes     string
}

// ThumbRating is a binary thumbs up/down rating to be recorded.
type ThumbRating struct {
	ItemTitle string
	MediaCode string
	Source    string
	Up        bool
	Votes     int
	Notes     string
}

// Result reports what a recording call persisted.
type Result struct {
	ItemID     int64
	Percent    int
	Confidence float64
}

// Recorder normalizes ratings and appends them to the store's ledger. The
// item is created on first reference; the source must already be registered.
type Recorder struct {
	store store.Store
}

// NewRecorder creates a Recorder over the given store.
func NewRecorder(s store.Store) *Recorder {
	return &Recorder{store: s}
}

// RecordStars normalizes a star rating to percent, derives its confidence
// from the vote count, and appends one ledger row on the stars_5 scale.
func (rec *Recorder) RecordStars(ctx context.Context, in StarsRating) (Result, error) {
	percent, err := StarsPercent(in.Stars)
	if err != nil {
		return Result{}, err
	}

	itemID, sourceID, scaleID, err := rec.resolve(ctx, in.ItemTitle, in.MediaCode, in.Source, ScaleStars5)
	if err != nil {
		return Result{}, err
	}

	conf := Confidence(in.Votes)
	stars := in.Stars
	r := store.Rating{
		ItemID:     itemID,
		SourceID:   sourceID,
		ScaleID:    scaleID,
		ValueNum:   &stars,
		Percent:    percent,
		VoteCount:  optVotes(in.Votes),
		Confidence: conf,
		Notes:      optNotes(in.Notes),
	}
	if err := rec.store.InsertRating(ctx, &r); err != nil {
		return Result{}, err
	}
	return Result{ItemID: itemID, Percent: percent, Confidence: conf}, nil
}

// RecordThumb appends one ledger row on the binary thumb scale. The percent
// is written directly but must match what the scale map reproduces on read.
func (rec *Recorder) RecordThumb(ctx context.Context, in ThumbRating) (Result, error) {
	itemID, sourceID, scaleID, err := rec.resolve(ctx, in.ItemTitle, in.MediaCode, in.Source, ScaleThumb)
	if err != nil {
		return Result{}, err
	}

	percent := ThumbPercent(in.Up)
	conf := Confidence(in.Votes)
	raw := ThumbRaw(in.Up)
	r := store.Rating{
		ItemID:     itemID,
		SourceID:   sourceID,
		ScaleID:    scaleID,
		RawValue:   &raw,
		Percent:    percent,
		VoteCount:  optVotes(in.Votes),
		Confidence: conf,
		Notes:      optNotes(in.Notes),
	}
	if err := rec.store.InsertRating(ctx, &r); err != nil {
		return Result{}, err
	}
	return Result{ItemID: itemID, Percent: percent, Confidence: conf}, nil
}

// resolve creates the item if absent and looks up the source and scale ids.
// An unregistered source is a hard error, never defaulted.
func (rec *Recorder) resolve(ctx context.Context, title, mediaCode, source, scale string) (itemID, sourceID, scaleID int64, err error) {
	itemID, err = rec.store.EnsureItem(ctx, title, mediaCode, "")
	if err != nil {
		return 0, 0, 0, fmt.Errorf("ensure item %q: %w", title, err)
	}
	sourceID, err = rec.store.SourceID(ctx, source)
	if err != nil {
		return 0, 0, 0, err
	}
	scaleID, err = rec.store.ScaleID(ctx, scale)
	if err != nil {
		return 0, 0, 0, err
	}
	return itemID, sourceID, scaleID, nil
}

func optVotes(votes int) *int {
	if votes <= 0 {
		return nil
	}
	return &votes
}

func optNotes(notes string) *string {
	if notes == "" {
		return nil
	}
	return &notes
}
