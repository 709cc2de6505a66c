package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	dbPath  string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "recommendit",
		Short: "Track and rank personal media ratings from multiple sources",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	root.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides config)")

	root.AddCommand(initCmd())
	root.AddCommand(sourceCmd())
	root.AddCommand(rateCmd())
	root.AddCommand(importCmd())
	root.AddCommand(fetchCmd())
	root.AddCommand(listCmd())
	root.AddCommand(ledgerCmd())
	root.AddCommand(exportCmd())

	return root
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database schema and default rating scales",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit()
		},
	}
}

func sourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Manage rating sources",
	}

	var (
		weight float64
		trust  float64
	)
	add := &cobra.Command{
		Use:   "add <name> <kind>",
		Short: "Register a rating source (no-op if it already exists)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAddSource(args[0], args[1], weight, trust)
		},
	}
	add.Flags().Float64Var(&weight, "weight", 1.0, "source weight")
	add.Flags().Float64Var(&trust, "trust", 1.0, "source trust")

	cmd.AddCommand(add)
	return cmd
}

func rateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Record a rating for an item",
	}
	cmd.AddCommand(rateStarsCmd())
	cmd.AddCommand(rateThumbCmd())
	return cmd
}

func rateStarsCmd() *cobra.Command {
	var opts rateOpts
	var stars float64

	cmd := &cobra.Command{
		Use:   "stars",
		Short: "Record a 0-5 star rating",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRateStars(opts, stars)
		},
	}

	addRateFlags(cmd, &opts)
	cmd.Flags().Float64Var(&stars, "stars", 0, "star value in [0, 5]")
	cmd.MarkFlagRequired("stars")
	return cmd
}

func rateThumbCmd() *cobra.Command {
	var opts rateOpts
	var up, down bool

	cmd := &cobra.Command{
		Use:   "thumb",
		Short: "Record a thumbs up/down rating",
		RunE: func(cmd *cobra.Command, args []string) error {
			if up == down {
				return fmt.Errorf("exactly one of --up or --down is required")
			}
			return runRateThumb(opts, up)
		},
	}

	addRateFlags(cmd, &opts)
	cmd.Flags().BoolVar(&up, "up", false, "thumbs up")
	cmd.Flags().BoolVar(&down, "down", false, "thumbs down")
	return cmd
}

func addRateFlags(cmd *cobra.Command, opts *rateOpts) {
	cmd.Flags().StringVar(&opts.Item, "item", "", "item title")
	cmd.Flags().StringVar(&opts.Media, "media", "", "media code (game, book, movie, tv, music)")
	cmd.Flags().StringVar(&opts.Source, "source", "", "rating source name")
	cmd.Flags().IntVar(&opts.Votes, "votes", 0, "number of ratings behind this value")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "free-text notes")
	cmd.MarkFlagRequired("item")
	cmd.MarkFlagRequired("media")
	cmd.MarkFlagRequired("source")
}

func importCmd() *cobra.Command {
	var webOnly, freeOnly bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import items from an itch.io JSON export or RSS feed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(args[0], webOnly, freeOnly)
		},
	}

	cmd.Flags().BoolVar(&webOnly, "web-only", false, "only import browser-playable games")
	cmd.Flags().BoolVar(&freeOnly, "free-only", false, "skip games with a known non-zero price")
	return cmd
}

func fetchCmd() *cobra.Command {
	var url, title string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Scrape an itch.io game page and record its star rating",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(url, title)
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "itch.io game page URL")
	cmd.Flags().StringVar(&title, "title", "", "item title override (defaults to the URL)")
	cmd.MarkFlagRequired("url")
	return cmd
}

func listCmd() *cobra.Command {
	var opts viewOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show items ranked by their effective rating",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Media, "media", "", "filter by media code")
	cmd.Flags().StringVar(&opts.Platform, "platform", "", "filter by platform code, e.g. web")
	cmd.Flags().IntVar(&opts.MinExternal, "min-external", -1, "minimum latest external-source percent")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "max rows (0 = unbounded)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "output as JSON")
	return cmd
}

func ledgerCmd() *cobra.Command {
	var opts ledgerOpts

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Show the raw rating history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLedger(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Media, "media", "", "filter by media code")
	cmd.Flags().StringVar(&opts.Source, "source", "", "filter by source name")
	cmd.Flags().StringVar(&opts.Since, "since", "", "only ratings since this date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "max rows (0 = unbounded)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "output as JSON")
	return cmd
}

func exportCmd() *cobra.Command {
	var opts exportOpts

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export items (and optional ratings) to an Excel workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Out, "out", "", "output .xlsx path")
	cmd.Flags().StringVar(&opts.Media, "media", "", "filter by media code")
	cmd.Flags().StringVar(&opts.Platform, "platform", "", "filter by platform code")
	cmd.Flags().IntVar(&opts.MinExternal, "min-external", -1, "minimum latest external-source percent")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "max items (0 = unbounded)")
	cmd.Flags().BoolVar(&opts.SplitByMedia, "split-by-media", false, "create one tab per media type")
	cmd.Flags().StringSliceVar(&opts.TabOrder, "tab-order", nil, "media codes ordering the tabs, e.g. game,book")
	cmd.Flags().BoolVar(&opts.IncludeEmptyTabs, "include-empty-tabs", false, "emit empty tabs named in --tab-order")
	cmd.Flags().BoolVar(&opts.IncludeRatings, "include-ratings", false, "add a Ratings sheet with the raw history")
	cmd.Flags().StringVar(&opts.RatingsSource, "source", "", "filter the Ratings sheet by source name")
	cmd.Flags().StringVar(&opts.RatingsSince, "since", "", "only ratings since this date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&opts.RatingsLimit, "limit-ratings", 0, "max ratings rows (0 = unbounded)")
	cmd.MarkFlagRequired("out")
	return cmd
}
