package model

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// maxReportedErrors caps how many error strings the final report prints.
const maxReportedErrors = 10

// ProcessingStats accumulates counters for one pipeline run. All mutating
// methods are safe for concurrent use by enrichment workers; reads via
// Snapshot or Report should happen after the workers have joined.
type ProcessingStats struct {
	mu sync.Mutex

	startedAt time.Time

	// Parsing.
	rowsRead          int
	validVariants     int
	skippedDuplicates int
	skippedIncomplete int
	parseErrors       int

	// Grouping.
	productGroups int
	totalVariants int

	// Enrichment.
	enriched         int
	failedEnrichment int
	failedSearches   int
	failedExtraction int
	totalImages      int

	// Output.
	rowsWritten int
	filesOut    int

	errors []string
}

// NewProcessingStats creates a stats accumulator stamped with the run start.
func NewProcessingStats() *ProcessingStats {
	return &ProcessingStats{startedAt: time.Now()}
}

// RecordParse merges the ingestion collaborator's parse counters.
func (s *ProcessingStats) RecordParse(rowsRead, valid, duplicates, incomplete, errs int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rowsRead += rowsRead
	s.validVariants += valid
	s.skippedDuplicates += duplicates
	s.skippedIncomplete += incomplete
	s.parseErrors += errs
}

// RecordGrouping sets the group and variant totals after clustering.
func (s *ProcessingStats) RecordGrouping(groups, variants int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.productGroups = groups
	s.totalVariants = variants
}

func (s *ProcessingStats) IncEnriched() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enriched++
}

func (s *ProcessingStats) IncFailedEnrichment() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedEnrichment++
}

func (s *ProcessingStats) IncFailedSearch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedSearches++
}

func (s *ProcessingStats) IncFailedExtraction() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedExtraction++
}

func (s *ProcessingStats) AddImages(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalImages += n
}

func (s *ProcessingStats) AddRowsWritten(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rowsWritten += n
}

func (s *ProcessingStats) AddFilesWritten(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filesOut += n
}

// AddError records an error message for the final report.
func (s *ProcessingStats) AddError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, msg)
}

// RowsWritten returns the total output rows recorded so far.
func (s *ProcessingStats) RowsWritten() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rowsWritten
}

// StatsSnapshot is an immutable copy of the accumulator, used for
// checkpointing and reporting.
type StatsSnapshot struct {
	RowsRead          int      `json:"rows_read"`
	ValidVariants     int      `json:"valid_variants"`
	SkippedDuplicates int      `json:"skipped_duplicates"`
	SkippedIncomplete int      `json:"skipped_incomplete"`
	ParseErrors       int      `json:"parse_errors"`
	ProductGroups     int      `json:"product_groups"`
	TotalVariants     int      `json:"total_variants"`
	Enriched          int      `json:"enriched"`
	FailedEnrichment  int      `json:"failed_enrichment"`
	FailedSearches    int      `json:"failed_searches"`
	FailedExtraction  int      `json:"failed_extraction"`
	TotalImages       int      `json:"total_images"`
	RowsWritten       int      `json:"rows_written"`
	FilesWritten      int      `json:"files_written"`
	ElapsedSecs       float64  `json:"elapsed_secs"`
	Errors            []string `json:"errors,omitempty"`
}

// Snapshot returns a copy of the current counters.
func (s *ProcessingStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	errs := make([]string, len(s.errors))
	copy(errs, s.errors)
	return StatsSnapshot{
		RowsRead:          s.rowsRead,
		ValidVariants:     s.validVariants,
		SkippedDuplicates: s.skippedDuplicates,
		SkippedIncomplete: s.skippedIncomplete,
		ParseErrors:       s.parseErrors,
		ProductGroups:     s.productGroups,
		TotalVariants:     s.totalVariants,
		Enriched:          s.enriched,
		FailedEnrichment:  s.failedEnrichment,
		FailedSearches:    s.failedSearches,
		FailedExtraction:  s.failedExtraction,
		TotalImages:       s.totalImages,
		RowsWritten:       s.rowsWritten,
		FilesWritten:      s.filesOut,
		ElapsedSecs:       time.Since(s.startedAt).Seconds(),
		Errors:            errs,
	}
}

// Report renders the human-readable end-of-run summary.
func (s StatsSnapshot) Report() string {
	var b strings.Builder
	line := strings.Repeat("=", 60)
	b.WriteString(line + "\n")
	b.WriteString("CATALOG COMPILATION COMPLETE\n")
	b.WriteString(line + "\n")
	fmt.Fprintf(&b, "  Input rows read:         %d\n", s.RowsRead)
	fmt.Fprintf(&b, "  Valid variants parsed:   %d\n", s.ValidVariants)
	fmt.Fprintf(&b, "  Duplicates skipped:      %d\n", s.SkippedDuplicates)
	fmt.Fprintf(&b, "  Incomplete skipped:      %d\n", s.SkippedIncomplete)
	fmt.Fprintf(&b, "  Parse errors:            %d\n", s.ParseErrors)
	fmt.Fprintf(&b, "  Products formed:         %d\n", s.ProductGroups)
	fmt.Fprintf(&b, "  Enriched:                %d/%d\n", s.Enriched, s.ProductGroups)
	fmt.Fprintf(&b, "  Failed enrichment:       %d\n", s.FailedEnrichment)
	fmt.Fprintf(&b, "  Failed URL searches:     %d\n", s.FailedSearches)
	fmt.Fprintf(&b, "  Failed image extraction: %d\n", s.FailedExtraction)
	fmt.Fprintf(&b, "  Images collected:        %d\n", s.TotalImages)
	fmt.Fprintf(&b, "  Output rows written:     %d\n", s.RowsWritten)
	fmt.Fprintf(&b, "  Output files written:    %d\n", s.FilesWritten)
	fmt.Fprintf(&b, "  Elapsed:                 %.1fs\n", s.ElapsedSecs)

	if len(s.Errors) > 0 {
		fmt.Fprintf(&b, "\n  ERRORS (%d):\n", len(s.Errors))
		for i, e := range s.Errors {
			if i >= maxReportedErrors {
				fmt.Fprintf(&b, "    ... and %d more\n", len(s.Errors)-maxReportedErrors)
				break
			}
			fmt.Fprintf(&b, "    - %s\n", e)
		}
	}

	b.WriteString(line)
	return b.String()
}
