// Package pipeline orchestrates a full catalog compilation run: parse the
// input file, cluster variants into products, reserve output handles, then
// enrich and compile batch by batch with per-batch checkpoints.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/catalog-cli/internal/checkpoint"
	"github.com/sells-group/catalog-cli/internal/config"
	"github.com/sells-group/catalog-cli/internal/enrich"
	"github.com/sells-group/catalog-cli/internal/grouper"
	"github.com/sells-group/catalog-cli/internal/ingest"
	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/resilience"
	"github.com/sells-group/catalog-cli/internal/shopify"
	"github.com/sells-group/catalog-cli/internal/store"
	"github.com/sells-group/catalog-cli/pkg/firecrawl"
	"github.com/sells-group/catalog-cli/pkg/tavily"
)

// Pipeline wires the compilation stages together. The search, scrape, and
// store collaborators are optional; a nil client disables that stage.
type Pipeline struct {
	cfg       *config.Config
	store     store.Store
	enricher  *enrich.Enricher
	tavily    tavily.Client
	firecrawl firecrawl.Client

	aiLimit     *rate.Limiter
	searchLimit *rate.Limiter
	scrapeLimit *rate.Limiter

	retry resilience.RetryConfig
}

// New creates a Pipeline with all dependencies.
func New(
	cfg *config.Config,
	st store.Store,
	enricher *enrich.Enricher,
	tavilyClient tavily.Client,
	fcClient firecrawl.Client,
) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		store:       st,
		enricher:    enricher,
		tavily:      tavilyClient,
		firecrawl:   fcClient,
		aiLimit:     newLimiter(cfg.Anthropic.RequestsPerSec),
		searchLimit: newLimiter(cfg.Tavily.RequestsPerSec),
		scrapeLimit: newLimiter(cfg.Firecrawl.RequestsPerSec),
		retry:       resilience.DefaultRetryConfig(),
	}
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// Run compiles the catalog at inputPath into output files rooted at
// outputPath. It returns the final stats even when the run fails partway.
func (p *Pipeline) Run(ctx context.Context, inputPath, outputPath string) (model.StatsSnapshot, error) {
	log := zap.L().With(zap.String("input", inputPath))
	log.Info("pipeline: starting compilation")

	stats := model.NewProcessingStats()

	var runID string
	if p.store != nil {
		run, err := p.store.CreateRun(ctx, inputPath)
		if err != nil {
			log.Warn("pipeline: failed to record run", zap.Error(err))
		} else {
			runID = run.ID
		}
	}

	snapshot, err := p.run(ctx, log, stats, inputPath, outputPath)

	if p.store != nil && runID != "" {
		status := model.RunStatusComplete
		if err != nil {
			status = model.RunStatusFailed
		}
		// The run record should survive cancellation of the run itself.
		finishCtx := context.WithoutCancel(ctx)
		if finishErr := p.store.FinishRun(finishCtx, runID, status, snapshot); finishErr != nil {
			log.Warn("pipeline: failed to finish run record", zap.Error(finishErr))
		}
	}
	return snapshot, err
}

func (p *Pipeline) run(ctx context.Context, log *zap.Logger, stats *model.ProcessingStats, inputPath, outputPath string) (model.StatsSnapshot, error) {
	// Parse.
	variants, parseStats, err := ingest.ParseFile(inputPath)
	if err != nil {
		return stats.Snapshot(), eris.Wrap(err, "pipeline: parse input")
	}
	stats.RecordParse(parseStats.RowsRead, parseStats.Valid, parseStats.Duplicates, parseStats.Incomplete, parseStats.Errors)
	if len(variants) == 0 {
		return stats.Snapshot(), eris.Errorf("pipeline: no valid variants in %s", inputPath)
	}

	// Cluster.
	products := grouper.New(p.cfg.Pipeline.SimilarityThreshold).Group(variants)
	stats.RecordGrouping(len(products), len(variants))
	if len(products) == 0 {
		return stats.Snapshot(), eris.New("pipeline: clustering produced no products")
	}

	// Reserve handles before enrichment so renames never change issued slugs.
	registry := shopify.NewHandleRegistry()
	for _, prod := range products {
		prod.Handle = registry.Reserve(prod.Brand, prod.BaseName, prod.PrimaryVariant().ExternalID)
	}

	batchSize := p.cfg.Pipeline.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	totalBatches := (len(products) + batchSize - 1) / batchSize

	var checkpoints *checkpoint.Store
	if p.cfg.Pipeline.Checkpoints {
		checkpoints = checkpoint.NewStore(p.cfg.Pipeline.CheckpointDir)
	}

	writer := shopify.NewWriter(outputPath, p.cfg.Pipeline.RecordsPerFile)

	for batchNum := 1; batchNum <= totalBatches; batchNum++ {
		if ctx.Err() != nil {
			return stats.Snapshot(), eris.Wrap(ctx.Err(), "pipeline: interrupted")
		}

		if checkpoints != nil {
			if _, rowsWritten, ok := checkpoints.Load(batchNum); ok {
				log.Info("pipeline: skipping completed batch",
					zap.Int("batch", batchNum),
					zap.Int("rows_written", rowsWritten))
				stats.AddRowsWritten(rowsWritten)
				continue
			}
		}

		start := (batchNum - 1) * batchSize
		end := min(start+batchSize, len(products))
		batch := products[start:end]

		log.Info("pipeline: processing batch",
			zap.Int("batch", batchNum),
			zap.Int("total_batches", totalBatches),
			zap.Int("products", len(batch)))

		if err := p.processBatch(ctx, stats, writer, checkpoints, batch, batchNum, totalBatches); err != nil {
			stats.AddError(fmt.Sprintf("batch %d: %v", batchNum, err))
			log.Error("pipeline: batch failed", zap.Int("batch", batchNum), zap.Error(err))
		}
	}

	snapshot := stats.Snapshot()
	if snapshot.RowsWritten == 0 {
		return snapshot, eris.New("pipeline: no output rows produced")
	}

	if checkpoints != nil {
		if err := checkpoints.Clear(); err != nil {
			log.Warn("pipeline: failed to clear checkpoints", zap.Error(err))
		}
	}

	log.Info("pipeline: compilation complete",
		zap.Int("products", snapshot.ProductGroups),
		zap.Int("rows_written", snapshot.RowsWritten),
		zap.Int("files_written", snapshot.FilesWritten))
	return snapshot, nil
}

// processBatch enriches a batch of products concurrently, compiles their
// rows, writes the output files, and checkpoints the result. An in-flight
// batch runs to completion even when the run context is cancelled.
func (p *Pipeline) processBatch(
	ctx context.Context,
	stats *model.ProcessingStats,
	writer *shopify.Writer,
	checkpoints *checkpoint.Store,
	batch []*model.Product,
	batchNum, totalBatches int,
) error {
	workCtx := context.WithoutCancel(ctx)

	g := new(errgroup.Group)
	g.SetLimit(p.maxWorkers())
	for _, prod := range batch {
		g.Go(func() error {
			p.enrichProduct(workCtx, stats, prod)
			return nil
		})
	}
	// Workers record their own failures; the group never returns an error.
	_ = g.Wait()

	var rows []shopify.Row
	for _, prod := range batch {
		rows = append(rows, shopify.Compile(prod)...)
	}

	files, err := writer.WriteBatch(rows, batchNum, totalBatches)
	if err != nil {
		return eris.Wrapf(err, "pipeline: write batch %d", batchNum)
	}
	stats.AddRowsWritten(len(rows))
	stats.AddFilesWritten(len(files))

	if checkpoints != nil {
		if err := checkpoints.Save(batchNum, batch, stats.Snapshot(), len(rows)); err != nil {
			return eris.Wrapf(err, "pipeline: checkpoint batch %d", batchNum)
		}
	}
	return nil
}

// enrichProduct runs the per-product collaborators: content enrichment,
// option extraction, product page search, and image scraping. Each failure
// is recorded and the product keeps its fallback values.
func (p *Pipeline) enrichProduct(ctx context.Context, stats *model.ProcessingStats, prod *model.Product) {
	if !p.cfg.Pipeline.SkipEnrichment && p.enricher != nil {
		p.enrichContent(ctx, stats, prod)
		p.extractOptions(ctx, stats, prod)
	}

	if !p.cfg.Pipeline.SkipImages {
		p.collectImages(ctx, stats, prod)
	}

	stats.AddImages(prod.RefreshImages())
}

func (p *Pipeline) enrichContent(ctx context.Context, stats *model.ProcessingStats, prod *model.Product) {
	if err := p.aiLimit.Wait(ctx); err != nil {
		return
	}
	result, err := p.enricher.Enrich(ctx, prod.Brand, prod.BaseName, prod.PrimaryVariant().Price)
	if err != nil {
		stats.IncFailedEnrichment()
		stats.AddError(fmt.Sprintf("enrich %s: %v", prod.GroupID(), err))
	} else {
		stats.IncEnriched()
	}

	// The fallback result is applied too: it carries usable defaults.
	if result.CleanedName != "" {
		prod.BaseName = result.CleanedName
	}
	prod.Description = result.Description
	prod.Category = result.Category
	prod.Tags = result.Tags
	prod.Benefits = result.Benefits
	prod.Ingredients = result.Ingredients
	prod.UsageNotes = result.UsageNotes
	prod.SafetyNotes = result.SafetyNotes
}

func (p *Pipeline) extractOptions(ctx context.Context, stats *model.ProcessingStats, prod *model.Product) {
	for _, v := range prod.Variants {
		if err := p.aiLimit.Wait(ctx); err != nil {
			return
		}
		pairs, err := p.enricher.ExtractOptions(ctx, v.RawName)
		if err != nil {
			stats.AddError(fmt.Sprintf("options %s: %v", v.ExternalID, err))
			continue
		}
		v.DetectedOptions = pairs
	}
}

func (p *Pipeline) collectImages(ctx context.Context, stats *model.ProcessingStats, prod *model.Product) {
	if p.tavily == nil {
		return
	}
	// Input-supplied images win; search and scrape only fill the gap.
	for _, v := range prod.Variants {
		if len(v.Images) > 0 {
			return
		}
	}

	url, err := p.searchURL(ctx, prod)
	if err != nil {
		stats.IncFailedSearch()
		stats.AddError(fmt.Sprintf("search %s: %v", prod.GroupID(), err))
		return
	}
	if url == "" {
		return
	}
	prod.URL = url

	if p.firecrawl == nil {
		return
	}
	images, err := p.scrapeImages(ctx, prod.BaseName, url)
	if err != nil {
		stats.IncFailedExtraction()
		stats.AddError(fmt.Sprintf("images %s: %v", prod.GroupID(), err))
		return
	}

	// Scraped images belong to the primary variant; RefreshImages dedupes
	// them into the product union afterwards.
	primary := prod.PrimaryVariant()
	seen := make(map[string]struct{}, len(primary.Images))
	for _, img := range primary.Images {
		seen[img] = struct{}{}
	}
	for _, img := range images {
		if _, dup := seen[img]; dup {
			continue
		}
		primary.Images = append(primary.Images, img)
	}
}

// searchURL resolves a product page URL, consulting the cross-run cache
// first and retrying transient API failures with backoff.
func (p *Pipeline) searchURL(ctx context.Context, prod *model.Product) (string, error) {
	key := "url|" + strings.ToLower(prod.Brand) + "|" + strings.ToLower(prod.BaseName)
	if val, ok := p.cacheGet(ctx, "tavily", key); ok {
		return val, nil
	}

	retry := p.retry
	retry.OnRetry = resilience.RetryLogger("tavily", "search")
	url, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (string, error) {
		if err := p.searchLimit.Wait(ctx); err != nil {
			return "", err
		}
		return p.tavily.SearchProductURL(ctx, prod.Brand, prod.BaseName)
	})
	if err != nil {
		return "", err
	}
	p.cachePut(ctx, "tavily", key, url)
	return url, nil
}

// scrapeImages extracts product images from a page, cached by URL and
// retried on transient failures.
func (p *Pipeline) scrapeImages(ctx context.Context, productName, url string) ([]string, error) {
	key := "images|" + url
	if val, ok := p.cacheGet(ctx, "firecrawl", key); ok {
		var images []string
		if err := json.Unmarshal([]byte(val), &images); err == nil {
			return images, nil
		}
	}

	retry := p.retry
	retry.OnRetry = resilience.RetryLogger("firecrawl", "extract_images")
	images, err := resilience.DoVal(ctx, retry, func(ctx context.Context) ([]string, error) {
		if err := p.scrapeLimit.Wait(ctx); err != nil {
			return nil, err
		}
		return p.firecrawl.ExtractImages(ctx, url, productName)
	})
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(images); err == nil {
		p.cachePut(ctx, "firecrawl", key, string(data))
	}
	return images, nil
}

func (p *Pipeline) cacheGet(ctx context.Context, service, key string) (string, bool) {
	if p.store == nil {
		return "", false
	}
	val, ok, err := p.store.GetCache(ctx, service, key)
	if err != nil {
		zap.L().Debug("pipeline: cache read failed", zap.Error(err))
		return "", false
	}
	return val, ok
}

func (p *Pipeline) cachePut(ctx context.Context, service, key, value string) {
	if p.store == nil {
		return
	}
	if err := p.store.PutCache(ctx, service, key, value); err != nil {
		zap.L().Debug("pipeline: cache write failed", zap.Error(err))
	}
}

func (p *Pipeline) maxWorkers() int {
	if p.cfg.Pipeline.MaxWorkers <= 0 {
		return 5
	}
	return p.cfg.Pipeline.MaxWorkers
}
