package itchio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// SourceName is the rating source and external_ref source for itch.io.
const SourceName = "itchio"

// ErrNoRating means the page carries no public aggregate rating.
var ErrNoRating = errors.New("no rating found on page")

// PageRating is the aggregate rating scraped from a game page.
type PageRating struct {
	Stars float64
	Votes int
}

// Client fetches and scrapes itch.io game pages.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient creates a scraping client. An empty userAgent gets a default.
func NewClient(timeout time.Duration, userAgent string) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if userAgent == "" {
		userAgent = "recommendit/1.0"
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// FetchRating downloads a game page and extracts its average star rating
// and rating count. Returns ErrNoRating when the page has no public rating.
func (c *Client) FetchRating(ctx context.Context, url string) (PageRating, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return PageRating{}, fmt.Errorf("create request %s: %w", url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return PageRating{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return PageRating{}, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return PageRating{}, fmt.Errorf("parse page %s: %w", url, err)
	}
	return ExtractRating(doc)
}

// flexFloat tolerates JSON-LD numeric fields written either as numbers or
// as quoted strings, both of which show up in the wild.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// ldBlock is the subset of a JSON-LD object we care about. Pages embed
// either a single object or a list of them.
type ldBlock struct {
	AggregateRating *struct {
		RatingValue *flexFloat `json:"ratingValue"`
		RatingCount *flexFloat `json:"ratingCount"`
		ReviewCount *flexFloat `json:"reviewCount"`
	} `json:"aggregateRating"`
}

// ratingTextRe matches rating text like "4.2 average (1,234 ratings)" used
// as a last-resort fallback when no JSON-LD block is present.
var ratingTextRe = regexp.MustCompile(`(?i)([0-5](?:\.\d)?)\s*(?:average|stars)[^0-9]{0,20}\(?([\d,]+)\s*ratings?\)?`)

// ExtractRating pulls the aggregate rating out of a parsed game page,
// preferring JSON-LD metadata over free-text heuristics.
func ExtractRating(doc *goquery.Document) (PageRating, error) {
	var found PageRating
	var ok bool

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		blocks, err := decodeLD(sel.Text())
		if err != nil {
			return true
		}
		for _, b := range blocks {
			if b.AggregateRating == nil || b.AggregateRating.RatingValue == nil {
				continue
			}
			votes := ldCount(b.AggregateRating.RatingCount)
			if votes == 0 {
				votes = ldCount(b.AggregateRating.ReviewCount)
			}
			found = PageRating{Stars: float64(*b.AggregateRating.RatingValue), Votes: votes}
			ok = true
			return false
		}
		return true
	})
	if ok {
		return found, nil
	}

	// Fallback: scan visible text for a "4.2 average (1,234 ratings)" blurb.
	if m := ratingTextRe.FindStringSubmatch(doc.Text()); m != nil {
		stars, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return PageRating{}, ErrNoRating
		}
		votes, _ := strconv.Atoi(strings.ReplaceAll(m[2], ",", ""))
		return PageRating{Stars: stars, Votes: votes}, nil
	}

	return PageRating{}, ErrNoRating
}

// decodeLD parses a JSON-LD script body, which may hold one object or a
// list of objects.
func decodeLD(text string) ([]ldBlock, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "[") {
		var blocks []ldBlock
		if err := json.Unmarshal([]byte(text), &blocks); err != nil {
			return nil, err
		}
		return blocks, nil
	}
	var block ldBlock
	if err := json.Unmarshal([]byte(text), &block); err != nil {
		return nil, err
	}
	return []ldBlock{block}, nil
}

func ldCount(n *flexFloat) int {
	if n == nil {
		return 0
	}
	return int(*n)
}
