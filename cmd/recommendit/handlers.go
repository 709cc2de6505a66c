package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fredw/recommendit/internal/config"
	"github.com/fredw/recommendit/internal/store"
	"github.com/fredw/recommendit/pkg/export"
	"github.com/fredw/recommendit/pkg/itchio"
	"github.com/fredw/recommendit/pkg/media"
	"github.com/fredw/recommendit/pkg/rating"
)

type rateOpts struct {
	Item   string
	Media  string
	Source string
	Votes  int
	Notes  string
}

type viewOpts struct {
	Media       string
	Platform    string
	MinExternal int
	Limit       int
	JSON        bool
}

type ledgerOpts struct {
	Media  string
	Source string
	Since  string
	Limit  int
	JSON   bool
}

type exportOpts struct {
	Out              string
	Media            string
	Platform         string
	MinExternal      int
	Limit            int
	SplitByMedia     bool
	TabOrder         []string
	IncludeEmptyTabs bool
	IncludeRatings   bool
	RatingsSource    string
	RatingsSince     string
	RatingsLimit     int
}

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return db, nil
}

func runInit() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.EnsureDefaultScales(context.Background()); err != nil {
		return err
	}

	fmt.Printf("db ready at %s\n", cfg.Database.Path)
	return nil
}

func runAddSource(name, kind string, weight, trust float64) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.EnsureSource(context.Background(), name, kind, weight, trust); err != nil {
		return err
	}

	fmt.Printf("source %s ready\n", name)
	return nil
}

func runRateStars(opts rateOpts, stars float64) error {
	if !media.ValidCode(opts.Media) {
		return fmt.Errorf("unknown media code %q", opts.Media)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	rec := rating.NewRecorder(db)
	res, err := rec.RecordStars(context.Background(), rating.StarsRating{
		ItemTitle: opts.Item,
		MediaCode: opts.Media,
		Source:    opts.Source,
		Stars:     stars,
		Votes:     opts.Votes,
		Notes:     opts.Notes,
	})
	if err != nil {
		return err
	}

	fmt.Printf("saved: item_id=%d percent=%d confidence=%.2f\n", res.ItemID, res.Percent, res.Confidence)
	return nil
}

func runRateThumb(opts rateOpts, up bool) error {
	if !media.ValidCode(opts.Media) {
		return fmt.Errorf("unknown media code %q", opts.Media)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	rec := rating.NewRecorder(db)
	res, err := rec.RecordThumb(context.Background(), rating.ThumbRating{
		ItemTitle: opts.Item,
		MediaCode: opts.Media,
		Source:    opts.Source,
		Up:        up,
		Votes:     opts.Votes,
		Notes:     opts.Notes,
	})
	if err != nil {
		return err
	}

	fmt.Printf("saved: item_id=%d percent=%d confidence=%.2f\n", res.ItemID, res.Percent, res.Confidence)
	return nil
}

func runImport(path string, webOnly, freeOnly bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	imp := itchio.NewImporter(db)
	n, err := imp.ImportFile(context.Background(), path, itchio.Options{
		WebOnly:  webOnly,
		FreeOnly: freeOnly,
	})
	if err != nil {
		return err
	}

	counts, err := db.CountItemsByMedia(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("imported %d items (%d games total)\n", n, counts[string(media.Game)])
	return nil
}

func runFetch(url, title string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()

	// The scrape path bootstraps its own prerequisites so a fresh database
	// works without a separate init step.
	if err := db.EnsureDefaultScales(ctx); err != nil {
		return err
	}
	if err := db.EnsureSource(ctx, cfg.Sources.External, "external", 1.0, 1.0); err != nil {
		return err
	}

	client := itchio.NewClient(cfg.Itchio.Timeout(), cfg.Itchio.UserAgent)
	page, err := client.FetchRating(ctx, url)
	if errors.Is(err, itchio.ErrNoRating) {
		fmt.Println("no rating found on page (or game has no public ratings yet)")
		return nil
	}
	if err != nil {
		return err
	}

	if title == "" {
		title = url
	}
	rec := rating.NewRecorder(db)
	res, err := rec.RecordStars(ctx, rating.StarsRating{
		ItemTitle: title,
		MediaCode: string(media.Game),
		Source:    cfg.Sources.External,
		Stars:     page.Stars,
		Votes:     page.Votes,
		Notes:     fmt.Sprintf("Scraped from %s", url),
	})
	if err != nil {
		return err
	}

	fmt.Printf("saved: item_id=%d avg=%.1f votes=%d percent=%d confidence=%.2f\n",
		res.ItemID, page.Stars, page.Votes, res.Percent, res.Confidence)
	return nil
}

func runList(opts viewOpts) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.EffectiveRatings(context.Background(), store.EffectiveOpts{
		ExternalSource: cfg.Sources.External,
		PersonalSource: cfg.Sources.Personal,
		Media:          opts.Media,
		Platform:       opts.Platform,
		MinExternal:    optThreshold(opts.MinExternal),
		Limit:          opts.Limit,
	})
	if err != nil {
		return err
	}

	if opts.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Println("no items found (try importing or rating something first)")
		return nil
	}

	fmt.Println(export.RenderItems(rows))
	return nil
}

func runLedger(opts ledgerOpts) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	since, err := parseSince(opts.Since)
	if err != nil {
		return err
	}

	rows, err := db.RatingLedger(context.Background(), store.LedgerOpts{
		Media:  opts.Media,
		Source: opts.Source,
		Since:  since,
		Limit:  opts.Limit,
	})
	if err != nil {
		return err
	}

	if opts.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Println("no ratings recorded yet")
		return nil
	}

	fmt.Println(export.RenderLedger(rows))
	return nil
}

func runExport(opts exportOpts) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()

	items, err := db.EffectiveRatings(ctx, store.EffectiveOpts{
		ExternalSource: cfg.Sources.External,
		PersonalSource: cfg.Sources.Personal,
		Media:          opts.Media,
		Platform:       opts.Platform,
		MinExternal:    optThreshold(opts.MinExternal),
		Limit:          opts.Limit,
	})
	if err != nil {
		return err
	}

	var sheets []export.Sheet
	if opts.SplitByMedia {
		order := opts.TabOrder
		if len(order) == 0 {
			order = cfg.Export.TabOrder
		}
		sheets = export.BucketByMedia(items, order, opts.IncludeEmptyTabs)
	} else {
		sheets = []export.Sheet{export.ItemsSheet("Items", items)}
	}

	if opts.IncludeRatings {
		since, err := parseSince(opts.RatingsSince)
		if err != nil {
			return err
		}
		// When tabs are split per media the Ratings sheet covers everything.
		ratingsMedia := opts.Media
		if opts.SplitByMedia {
			ratingsMedia = ""
		}
		ledger, err := db.RatingLedger(ctx, store.LedgerOpts{
			Media:  ratingsMedia,
			Source: opts.RatingsSource,
			Since:  since,
			Limit:  opts.RatingsLimit,
		})
		if err != nil {
			return err
		}
		sheets = append(sheets, export.LedgerSheet(ledger))
	}

	if err := export.WriteWorkbook(opts.Out, sheets); err != nil {
		return err
	}

	for _, s := range sheets {
		fmt.Fprintf(os.Stderr, "  %s: %d rows\n", s.Name, len(s.Rows))
	}
	fmt.Printf("wrote %s\n", opts.Out)
	return nil
}

func optThreshold(v int) *int {
	if v < 0 {
		return nil
	}
	return &v
}

func parseSince(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse --since %q: %w", s, err)
	}
	return t, nil
}
