package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/enrich"
	"github.com/sells-group/catalog-cli/internal/pipeline"
	anthropicpkg "github.com/sells-group/catalog-cli/pkg/anthropic"
	"github.com/sells-group/catalog-cli/pkg/firecrawl"
	"github.com/sells-group/catalog-cli/pkg/tavily"
)

var (
	runBatchSize      int
	runMaxWorkers     int
	runRecordsPerFile int
	runSimilarity     float64
	runNoCheckpoints  bool
	runSkipEnrichment bool
	runSkipImages     bool
)

var runCmd = &cobra.Command{
	Use:   "run <input.csv|input.xlsx> [output.csv]",
	Short: "Compile a supplier catalog into Shopify import files",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		input := args[0]
		output := "shopify_import.csv"
		if len(args) == 2 {
			output = args[1]
		}

		applyRunFlags(cmd)

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		var enricher *enrich.Enricher
		if cfg.Anthropic.Key != "" {
			enricher = enrich.New(
				anthropicpkg.NewClient(cfg.Anthropic.Key),
				enrich.WithModel(cfg.Anthropic.Model),
				enrich.WithCache(st),
			)
		} else if !cfg.Pipeline.SkipEnrichment {
			zap.L().Warn("no anthropic key configured, products keep raw names and fallback content")
		}

		var searchClient tavily.Client
		if cfg.Tavily.Key != "" {
			searchClient = tavily.NewClient(cfg.Tavily.Key,
				tavily.WithBaseURL(cfg.Tavily.BaseURL),
				tavily.WithMaxResults(cfg.Tavily.MaxResults))
		}

		var scrapeClient firecrawl.Client
		if cfg.Firecrawl.Key != "" {
			scrapeClient = firecrawl.NewClient(cfg.Firecrawl.Key,
				firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL))
		}

		p := pipeline.New(cfg, st, enricher, searchClient, scrapeClient)

		snapshot, err := p.Run(ctx, input, output)
		fmt.Println(snapshot.Report())
		if err != nil {
			return eris.Wrap(err, "run")
		}
		return nil
	},
}

// applyRunFlags overlays explicitly-set flags onto the loaded config.
func applyRunFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("batch-size") {
		cfg.Pipeline.BatchSize = runBatchSize
	}
	if cmd.Flags().Changed("max-workers") {
		cfg.Pipeline.MaxWorkers = runMaxWorkers
	}
	if cmd.Flags().Changed("records-per-file") {
		cfg.Pipeline.RecordsPerFile = runRecordsPerFile
	}
	if cmd.Flags().Changed("similarity") {
		cfg.Pipeline.SimilarityThreshold = runSimilarity
	}
	if runNoCheckpoints {
		cfg.Pipeline.Checkpoints = false
	}
	if runSkipEnrichment {
		cfg.Pipeline.SkipEnrichment = true
	}
	if runSkipImages {
		cfg.Pipeline.SkipImages = true
	}
}

func init() {
	runCmd.Flags().IntVar(&runBatchSize, "batch-size", 100, "products per processing batch")
	runCmd.Flags().IntVar(&runMaxWorkers, "max-workers", 5, "concurrent enrichment workers")
	runCmd.Flags().IntVar(&runRecordsPerFile, "records-per-file", 1000, "max rows per output file")
	runCmd.Flags().Float64Var(&runSimilarity, "similarity", 0.7, "variant clustering similarity threshold")
	runCmd.Flags().BoolVar(&runNoCheckpoints, "no-checkpoints", false, "disable batch checkpoints")
	runCmd.Flags().BoolVar(&runSkipEnrichment, "skip-enrichment", false, "skip AI content enrichment")
	runCmd.Flags().BoolVar(&runSkipImages, "skip-images", false, "skip product page search and image scraping")
	rootCmd.AddCommand(runCmd)
}
