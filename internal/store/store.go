package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fredw/recommendit/pkg/media"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Sentinel errors for lookups that must not be silently defaulted.
var (
	ErrSourceNotFound = errors.New("source not found")
	ErrScaleNotFound  = errors.New("scale not found")
)

// Rating is one row of the append-only item_rating ledger.
type Rating struct {
	ID         int64     `db:"id"`
	ItemID     int64     `db:"item_id"`
	SourceID   int64     `db:"source_id"`
	ScaleID    int64     `db:"scale_id"`
	RawValue   *string   `db:"raw_value"`
	ValueNum   *float64  `db:"value_num"`
	Percent    int       `db:"percent"`
	VoteCount  *int      `db:"vote_count"`
	Confidence float64   `db:"confidence"`
	Notes      *string   `db:"notes"`
	RatedAt    time.Time `db:"rated_at"`
}

// EffectiveRow is one item with its latest rating from each designated source.
type EffectiveRow struct {
	ItemID          int64      `db:"item_id"`
	Title           string     `db:"title"`
	MediaCode       string     `db:"media_code"`
	Platforms       string     `db:"platforms"`
	Tags            string     `db:"tags"`
	ExternalPercent *int       `db:"external_percent"`
	ExternalVotes   *int       `db:"external_votes"`
	ExternalRatedAt *time.Time `db:"external_rated_at"`
	PersonalPercent *int       `db:"personal_percent"`
	PersonalRatedAt *time.Time `db:"personal_rated_at"`
}

// LedgerRow is one raw rating event joined with its item and source.
type LedgerRow struct {
	ItemID     int64     `db:"item_id"`
	Title      string    `db:"title"`
	MediaCode  string    `db:"media_code"`
	Source     string    `db:"source"`
	ScaleID    int64     `db:"scale_id"`
	RawValue   *string   `db:"raw_value"`
	ValueNum   *float64  `db:"value_num"`
	Percent    int       `db:"percent"`
	VoteCount  *int      `db:"vote_count"`
	Confidence float64   `db:"confidence"`
	RatedAt    time.Time `db:"rated_at"`
}

// EffectiveOpts controls the effective-rating view.
type EffectiveOpts struct {
	ExternalSource string
	PersonalSource string
	Media          string
	Platform       string
	MinExternal    *int
	Limit          int
}

// LedgerOpts controls the rating-history listing.
type LedgerOpts struct {
	Media  string
	Source string
	Since  time.Time
	Limit  int
}

// Store is the persistence interface.
type Store interface {
	EnsureItem(ctx context.Context, title, mediaCode, description string) (int64, error)
	SetPlatforms(ctx context.Context, itemID int64, platforms []string) error
	AttachTags(ctx context.Context, itemID int64, tags []string) error
	AddExternalRef(ctx context.Context, itemID int64, source, externalID, url string) error

	EnsureDefaultScales(ctx context.Context) error
	EnsureSource(ctx context.Context, name, kind string, weight, trust float64) error
	SourceID(ctx context.Context, name string) (int64, error)
	ScaleID(ctx context.Context, name string) (int64, error)
	ScalePercent(ctx context.Context, scaleID int64, rawValue string) (int, error)

	InsertRating(ctx context.Context, r *Rating) error

	EffectiveRatings(ctx context.Context, opts EffectiveOpts) ([]EffectiveRow, error)
	RatingLedger(ctx context.Context, opts LedgerOpts) ([]LedgerRow, error)
	CountItemsByMedia(ctx context.Context) (map[string]int, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// EnsureItem finds an item by its (title, media_code) natural key, creating
// it if absent. A second call with the same key returns the existing id and
// fills in a missing description rather than duplicating the row.
func (s *SQLiteStore) EnsureItem(ctx context.Context, title, mediaCode, description string) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id,
		"SELECT id FROM item WHERE title = ? AND media_code = ?", title, mediaCode)
	if err == nil {
		if description != "" {
			if _, err := s.db.ExecContext(ctx,
				"UPDATE item SET description = COALESCE(description, ?) WHERE id = ?",
				description, id); err != nil {
				return 0, fmt.Errorf("merge item description %d: %w", id, err)
			}
		}
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("lookup item %q: %w", title, err)
	}

	var desc *string
	if description != "" {
		desc = &description
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO item (media_code, title, description) VALUES (?, ?, ?)",
		mediaCode, title, desc)
	if err != nil {
		return 0, fmt.Errorf("insert item %q: %w", title, err)
	}
	return res.LastInsertId()
}

// SetPlatforms normalizes free-text platform labels and links the recognized
// ones to the item. Unknown labels are dropped without error.
func (s *SQLiteStore) SetPlatforms(ctx context.Context, itemID int64, platforms []string) error {
	for _, code := range media.NormalizePlatforms(platforms) {
		_, err := s.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO item_platform (item_id, platform_code) VALUES (?, ?)",
			itemID, code)
		if err != nil {
			return fmt.Errorf("set platform %s on item %d: %w", code, itemID, err)
		}
	}
	return nil
}

// AttachTags links cleaned tag names to the item, creating tag rows as
// needed. Empty tags are skipped.
func (s *SQLiteStore) AttachTags(ctx context.Context, itemID int64, tags []string) error {
	for _, raw := range tags {
		name, ok := media.CleanTag(raw)
		if !ok {
			continue
		}
		tagID, err := s.ensureTag(ctx, name)
		if err != nil {
			return err
		}
		_, err = s.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO item_tag (item_id, tag_id) VALUES (?, ?)",
			itemID, tagID)
		if err != nil {
			return fmt.Errorf("attach tag %s to item %d: %w", name, itemID, err)
		}
	}
	return nil
}

func (s *SQLiteStore) ensureTag(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id, "SELECT id FROM tag WHERE name = ?", name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("lookup tag %s: %w", name, err)
	}
	res, err := s.db.ExecContext(ctx, "INSERT INTO tag (name) VALUES (?)", name)
	if err != nil {
		return 0, fmt.Errorf("insert tag %s: %w", name, err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) AddExternalRef(ctx context.Context, itemID int64, source, externalID, url string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO external_ref (item_id, source, external_id, url)
		VALUES (?, ?, ?, ?)
	`, itemID, source, externalID, url)
	if err != nil {
		return fmt.Errorf("add external ref %s for item %d: %w", source, itemID, err)
	}
	return nil
}

// EnsureDefaultScales registers the stars_5 and thumb scales plus the thumb
// raw-value map. Safe to call any number of times.
func (s *SQLiteStore) EnsureDefaultScales(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO rating_scale (name, type, min_value, max_value, step, notes)
		VALUES ('stars_5', 'continuous', 0, 5, 0.5, 'Half-star increments')
	`)
	if err != nil {
		return fmt.Errorf("register stars_5 scale: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO rating_scale (name, type, notes)
		VALUES ('thumb', 'binary', 'Thumbs up/down')
	`)
	if err != nil {
		return fmt.Errorf("register thumb scale: %w", err)
	}

	thumbID, err := s.ScaleID(ctx, "thumb")
	if err != nil {
		return err
	}
	for raw, percent := range map[string]int{"true": 100, "false": 0} {
		_, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO rating_scale_map (scale_id, raw_value, percent)
			VALUES (?, ?, ?)
		`, thumbID, raw, percent)
		if err != nil {
			return fmt.Errorf("register thumb map %s: %w", raw, err)
		}
	}
	return nil
}

// EnsureSource registers a rating source if absent. Re-registering with
// different weight or trust leaves the existing row untouched: first
// registration wins.
func (s *SQLiteStore) EnsureSource(ctx context.Context, name, kind string, weight, trust float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO rating_source (name, kind, weight, trust)
		VALUES (?, ?, ?, ?)
	`, name, kind, weight, trust)
	if err != nil {
		return fmt.Errorf("register source %s: %w", name, err)
	}
	return nil
}

func (s *SQLiteStore) SourceID(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id, "SELECT id FROM rating_source WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("source %s: %w", name, ErrSourceNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("lookup source %s: %w", name, err)
	}
	return id, nil
}

func (s *SQLiteStore) ScaleID(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id, "SELECT id FROM rating_scale WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("scale %s: %w", name, ErrScaleNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("lookup scale %s: %w", name, err)
	}
	return id, nil
}

// ScalePercent resolves a raw scale value to percent via rating_scale_map.
func (s *SQLiteStore) ScalePercent(ctx context.Context, scaleID int64, rawValue string) (int, error) {
	var percent int
	err := s.db.GetContext(ctx, &percent,
		"SELECT percent FROM rating_scale_map WHERE scale_id = ? AND raw_value = ?",
		scaleID, rawValue)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("scale %d raw value %q: %w", scaleID, rawValue, ErrScaleNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("lookup scale map %d/%q: %w", scaleID, rawValue, err)
	}
	return percent, nil
}

// InsertRating appends one row to the item_rating ledger. Rows are never
// updated or deleted; RatedAt defaults to now when unset.
func (s *SQLiteStore) InsertRating(ctx context.Context, r *Rating) error {
	if r.RatedAt.IsZero() {
		r.RatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO item_rating (item_id, source_id, scale_id, raw_value, value_num, percent, vote_count, confidence, notes, rated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ItemID, r.SourceID, r.ScaleID, r.RawValue, r.ValueNum, r.Percent,
		r.VoteCount, r.Confidence, r.Notes, r.RatedAt)
	if err != nil {
		return fmt.Errorf("insert rating for item %d: %w", r.ItemID, err)
	}
	r.ID, _ = res.LastInsertId()
	return nil
}

// EffectiveRatings returns one row per item carrying the latest rating from
// the designated external and personal sources. "Latest" per (item, source)
// is the row with the greatest rated_at, ties broken by highest id. Items
// are ranked by the personal percent when present, the external percent
// otherwise, then title.
func (s *SQLiteStore) EffectiveRatings(ctx context.Context, opts EffectiveOpts) ([]EffectiveRow, error) {
	// The latest row per (item, source) is picked with an anti-join rather
	// than a window function so rated_at stays a direct column reference;
	// the driver needs the declared DATETIME type to hand back time.Time.
	query := `
		WITH plats AS (
			SELECT item_id, GROUP_CONCAT(DISTINCT platform_code) AS platforms
			FROM item_platform GROUP BY item_id
		),
		tagged AS (
			SELECT it.item_id, GROUP_CONCAT(DISTINCT t.name) AS tags
			FROM item_tag it JOIN tag t ON t.id = it.tag_id
			GROUP BY it.item_id
		)
		SELECT i.id AS item_id, i.title, i.media_code,
		       COALESCE(p.platforms, '') AS platforms,
		       COALESCE(g.tags, '') AS tags,
		       le.percent AS external_percent,
		       le.vote_count AS external_votes,
		       le.rated_at AS external_rated_at,
		       lp.percent AS personal_percent,
		       lp.rated_at AS personal_rated_at
		FROM item i
		LEFT JOIN plats p ON p.item_id = i.id
		LEFT JOIN tagged g ON g.item_id = i.id
		LEFT JOIN rating_source se ON se.name = ?
		LEFT JOIN rating_source sp ON sp.name = ?
		LEFT JOIN item_rating le ON le.item_id = i.id AND le.source_id = se.id
			AND NOT EXISTS (
				SELECT 1 FROM item_rating r2
				WHERE r2.item_id = le.item_id AND r2.source_id = le.source_id
				  AND (r2.rated_at > le.rated_at OR (r2.rated_at = le.rated_at AND r2.id > le.id))
			)
		LEFT JOIN item_rating lp ON lp.item_id = i.id AND lp.source_id = sp.id
			AND NOT EXISTS (
				SELECT 1 FROM item_rating r2
				WHERE r2.item_id = lp.item_id AND r2.source_id = lp.source_id
				  AND (r2.rated_at > lp.rated_at OR (r2.rated_at = lp.rated_at AND r2.id > lp.id))
			)
		WHERE 1=1`
	args := []any{opts.ExternalSource, opts.PersonalSource}

	if opts.Media != "" {
		query += " AND i.media_code = ?"
		args = append(args, opts.Media)
	}
	if opts.Platform != "" {
		query += ` AND EXISTS (
			SELECT 1 FROM item_platform ip
			WHERE ip.item_id = i.id AND ip.platform_code = ?
		)`
		args = append(args, opts.Platform)
	}
	if opts.MinExternal != nil {
		query += " AND le.percent IS NOT NULL AND le.percent >= ?"
		args = append(args, *opts.MinExternal)
	}

	query += " ORDER BY COALESCE(lp.percent, le.percent) DESC, i.title ASC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	var rows []EffectiveRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("effective ratings: %w", err)
	}
	return rows, nil
}

// RatingLedger returns the raw rating history, newest first.
func (s *SQLiteStore) RatingLedger(ctx context.Context, opts LedgerOpts) ([]LedgerRow, error) {
	query := `
		SELECT i.id AS item_id, i.title, i.media_code,
		       s.name AS source, r.scale_id, r.raw_value, r.value_num,
		       r.percent, r.vote_count, r.confidence, r.rated_at
		FROM item_rating r
		JOIN item i ON i.id = r.item_id
		JOIN rating_source s ON s.id = r.source_id
		WHERE 1=1`
	var args []any

	if opts.Media != "" {
		query += " AND i.media_code = ?"
		args = append(args, opts.Media)
	}
	if opts.Source != "" {
		query += " AND s.name = ?"
		args = append(args, opts.Source)
	}
	if !opts.Since.IsZero() {
		query += " AND r.rated_at >= ?"
		args = append(args, opts.Since)
	}

	query += " ORDER BY r.rated_at DESC, i.title ASC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	var rows []LedgerRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("rating ledger: %w", err)
	}
	return rows, nil
}

// CountItemsByMedia returns how many items exist per media code.
func (s *SQLiteStore) CountItemsByMedia(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT media_code, COUNT(*) AS cnt FROM item GROUP BY media_code")
	if err != nil {
		return nil, fmt.Errorf("count items by media: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var code string
		var cnt int
		if err := rows.Scan(&code, &cnt); err != nil {
			return nil, err
		}
		counts[code] = cnt
	}
	return counts, rows.Err()
}
