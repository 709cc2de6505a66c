package itchio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fredw/recommendit/internal/store"
	"github.com/mmcdole/gofeed"
)

// Options filters which records an import accepts.
type Options struct {
	WebOnly  bool
	FreeOnly bool
}

// Record is a single game parsed from an itch.io export file or feed.
// Platforms and tags keep their raw labels; the store normalizes them.
type Record struct {
	Title       string
	Description string
	URL         string
	ExternalID  string
	Platforms   []string
	Tags        []string
	Free        *bool
}

// rawRecord tolerates the field-name variants seen across itch.io API
// dumps, exported JSON, and feed-derived records.
type rawRecord struct {
	Title       string          `json:"title"`
	Name        string          `json:"name"`
	GameTitle   string          `json:"game_title"`
	ShortText   string          `json:"short_text"`
	Description string          `json:"description"`
	URL         string          `json:"url"`
	GameURL     string          `json:"game_url"`
	CoverURL    string          `json:"cover_url"`
	ID          json.RawMessage `json:"id"`
	GameID      json.RawMessage `json:"game_id"`
	Platforms   json.RawMessage `json:"platforms"`
	Tags        json.RawMessage `json:"tags"`
	TagNames    json.RawMessage `json:"tag_names"`
	Price       json.RawMessage `json:"price"`
}

func (r rawRecord) normalize() Record {
	rec := Record{
		Title:       firstNonEmpty(r.Title, r.Name, r.GameTitle, "(untitled)"),
		Description: firstNonEmpty(r.ShortText, r.Description),
		URL:         firstNonEmpty(r.URL, r.GameURL, r.CoverURL),
		ExternalID:  firstNonEmpty(parseID(r.ID), parseID(r.GameID)),
		Platforms:   parsePlatforms(r.Platforms),
		Free:        parseFree(r.Price),
	}
	rec.Tags = parseTags(r.Tags)
	if rec.Tags == nil {
		rec.Tags = parseTags(r.TagNames)
	}
	return rec
}

// parseID reads an external id written as a JSON number or string.
func parseID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// parsePlatforms handles both the API shape {"windows":true,"html5":true}
// and plain lists or single strings.
func parsePlatforms(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var flags map[string]bool
	if err := json.Unmarshal(raw, &flags); err == nil {
		var plats []string
		for name, on := range flags {
			if on {
				plats = append(plats, name)
			}
		}
		return plats
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil && one != "" {
		return []string{one}
	}
	return nil
}

// parseTags handles tag lists as arrays or comma/pipe separated strings.
func parseTags(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var joined string
	if err := json.Unmarshal(raw, &joined); err == nil {
		var tags []string
		for _, t := range strings.Split(strings.ReplaceAll(joined, "|", ","), ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		return tags
	}
	return nil
}

// parseFree interprets price as "free" when it is numeric zero or one of
// the common zero-price strings. Unknown shapes stay nil.
func parseFree(raw json.RawMessage) *bool {
	if len(raw) == 0 {
		return nil
	}
	free := new(bool)
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		*free = num == 0
		return free
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "0", "0.00", "free":
			*free = true
		default:
			*free = false
		}
		return free
	}
	return nil
}

// Importer writes itch.io records into the store as game items.
type Importer struct {
	store store.Store
	feed  *gofeed.Parser
}

// NewImporter creates an Importer over the given store.
func NewImporter(s store.Store) *Importer {
	return &Importer{store: s, feed: gofeed.NewParser()}
}

// ImportFile reads a JSON export (object or array) or an RSS/Atom feed and
// imports every accepted record. A file that parses as neither format
// imports zero rows without failing the command.
func (im *Importer) ImportFile(ctx context.Context, path string, opts Options) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read import file %s: %w", path, err)
	}
	text := string(data)

	if recs, ok := parseJSON(text); ok {
		return im.importRecords(ctx, recs, opts)
	}
	if recs, ok := im.parseFeed(text); ok {
		return im.importRecords(ctx, recs, opts)
	}

	fmt.Fprintf(os.Stderr, "could not parse %s as JSON or RSS, no rows imported\n", path)
	return 0, nil
}

func parseJSON(text string) ([]Record, bool) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "[") {
		var raws []rawRecord
		if err := json.Unmarshal([]byte(trimmed), &raws); err != nil {
			return nil, false
		}
		recs := make([]Record, len(raws))
		for i, r := range raws {
			recs[i] = r.normalize()
		}
		return recs, true
	}

	var raw rawRecord
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return nil, false
	}
	return []Record{raw.normalize()}, true
}

func (im *Importer) parseFeed(text string) ([]Record, bool) {
	parsed, err := im.feed.ParseString(text)
	if err != nil {
		return nil, false
	}

	var recs []Record
	for _, entry := range parsed.Items {
		var tags []string
		for _, c := range entry.Categories {
			if c = strings.TrimSpace(c); c != "" {
				tags = append(tags, strings.ToLower(c))
			}
		}
		recs = append(recs, Record{
			Title:       strings.TrimSpace(entry.Title),
			Description: strings.TrimSpace(entry.Description),
			URL:         strings.TrimSpace(entry.Link),
			Tags:        tags,
		})
	}
	return recs, true
}

func (im *Importer) importRecords(ctx context.Context, recs []Record, opts Options) (int, error) {
	imported := 0
	for _, rec := range recs {
		ok, err := im.importRecord(ctx, rec, opts)
		if err != nil {
			return imported, err
		}
		if ok {
			imported++
		}
	}
	return imported, nil
}

func (im *Importer) importRecord(ctx context.Context, rec Record, opts Options) (bool, error) {
	if opts.WebOnly && !hasWebPlatform(rec.Platforms) {
		return false, nil
	}
	if opts.FreeOnly && rec.Free != nil && !*rec.Free {
		return false, nil
	}

	itemID, err := im.store.EnsureItem(ctx, rec.Title, "game", rec.Description)
	if err != nil {
		return false, err
	}
	if err := im.store.SetPlatforms(ctx, itemID, rec.Platforms); err != nil {
		return false, err
	}
	if err := im.store.AttachTags(ctx, itemID, rec.Tags); err != nil {
		return false, err
	}
	if err := im.store.AddExternalRef(ctx, itemID, SourceName, rec.ExternalID, rec.URL); err != nil {
		return false, err
	}
	return true, nil
}

func hasWebPlatform(platforms []string) bool {
	for _, p := range platforms {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "html5", "web", "browser", "playable in browser":
			return true
		}
	}
	return false
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
