package model

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsSnapshotCopiesErrors(t *testing.T) {
	s := NewProcessingStats()
	s.AddError("first")

	snap := s.Snapshot()
	s.AddError("second")

	assert.Equal(t, []string{"first"}, snap.Errors)
	assert.Len(t, s.Snapshot().Errors, 2)
}

func TestStatsConcurrentIncrements(t *testing.T) {
	s := NewProcessingStats()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.IncEnriched()
			s.AddImages(2)
			s.AddRowsWritten(3)
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	assert.Equal(t, 50, snap.Enriched)
	assert.Equal(t, 100, snap.TotalImages)
	assert.Equal(t, 150, snap.RowsWritten)
	assert.Equal(t, 150, s.RowsWritten())
}

func TestReportCapsErrors(t *testing.T) {
	s := NewProcessingStats()
	s.RecordParse(20, 15, 3, 1, 1)
	s.RecordGrouping(4, 15)
	for i := 0; i < 15; i++ {
		s.AddError(fmt.Sprintf("enrich product %d: boom", i))
	}

	out := s.Snapshot().Report()
	assert.Contains(t, out, "CATALOG COMPILATION COMPLETE")
	assert.Contains(t, out, "Input rows read:         20")
	assert.Contains(t, out, "ERRORS (15)")
	assert.Contains(t, out, "... and 5 more")
	assert.Equal(t, maxReportedErrors, strings.Count(out, "    - "))
}
