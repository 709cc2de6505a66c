package export

import (
	"fmt"
	"time"

	"github.com/fredw/recommendit/internal/store"
	"github.com/fredw/recommendit/pkg/media"
)

// Sheet is one spreadsheet tab ready to be written.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// sheetNames maps media codes to friendly tab titles.
var sheetNames = map[string]string{
	"game":  "Games",
	"book":  "Books",
	"movie": "Movies",
	"tv":    "TV",
	"music": "Music",
}

// Excel caps sheet names at 31 characters.
const maxSheetName = 31

func itemHeaders() []string {
	return []string{
		"id", "title", "media", "platforms", "tags",
		"external_percent", "external_votes", "external_rated_at",
		"my_percent", "my_rated_at",
	}
}

func itemCells(r store.EffectiveRow) []any {
	return []any{
		r.ItemID, r.Title, r.MediaCode, r.Platforms, r.Tags,
		optInt(r.ExternalPercent), optInt(r.ExternalVotes), optTime(r.ExternalRatedAt),
		optInt(r.PersonalPercent), optTime(r.PersonalRatedAt),
	}
}

func ledgerHeaders() []string {
	return []string{
		"item_id", "title", "media", "source", "scale_id",
		"raw_value", "value_num", "percent", "votes", "confidence", "rated_at",
	}
}

func ledgerCells(r store.LedgerRow) []any {
	return []any{
		r.ItemID, r.Title, r.MediaCode, r.Source, r.ScaleID,
		optString(r.RawValue), optFloat(r.ValueNum), r.Percent,
		optInt(r.VoteCount), r.Confidence, formatTime(r.RatedAt),
	}
}

// ItemsSheet builds a single tab holding all given items.
func ItemsSheet(name string, rows []store.EffectiveRow) Sheet {
	s := Sheet{Name: clipName(name), Headers: itemHeaders()}
	for _, r := range rows {
		s.Rows = append(s.Rows, itemCells(r))
	}
	return s
}

// LedgerSheet builds the raw rating-history tab.
func LedgerSheet(rows []store.LedgerRow) Sheet {
	s := Sheet{Name: "Ratings", Headers: ledgerHeaders()}
	for _, r := range rows {
		s.Rows = append(s.Rows, ledgerCells(r))
	}
	return s
}

// BucketByMedia splits items into one tab per media type. An explicit order
// lists media codes to emit first; unknown codes follow in encounter order.
// Empty tabs are only emitted for explicitly ordered codes when asked.
func BucketByMedia(rows []store.EffectiveRow, order []string, includeEmpty bool) []Sheet {
	grouped := make(map[string][]store.EffectiveRow)
	var extra []string
	for _, r := range rows {
		code := r.MediaCode
		if _, seen := grouped[code]; !seen && !media.ValidCode(code) {
			extra = append(extra, code)
		}
		grouped[code] = append(grouped[code], r)
	}

	codes := order
	if len(codes) == 0 {
		for _, c := range media.AllCodes() {
			codes = append(codes, string(c))
		}
		// Unknown media codes tag along at the end of the default order.
		codes = append(codes, extra...)
		includeEmpty = false
	}

	var sheets []Sheet
	emitted := make(map[string]bool)
	for _, code := range codes {
		if emitted[code] {
			continue
		}
		emitted[code] = true
		bucket := grouped[code]
		if len(bucket) == 0 && !includeEmpty {
			continue
		}
		sheets = append(sheets, ItemsSheet(displayName(code), bucket))
	}
	return sheets
}

func displayName(code string) string {
	if name, ok := sheetNames[code]; ok {
		return name
	}
	if code == "" {
		return "Other"
	}
	return code
}

func clipName(name string) string {
	if len(name) > maxSheetName {
		return name[:maxSheetName]
	}
	return name
}

func optInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func optFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func optString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func optTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return formatTime(*v)
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}

func cellString(v any) string {
	if v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return fmt.Sprintf("%.2f", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
