package sweep

import (
	"sync"
	"time"

	"github.com/Onyekachukwu-Nweke/consensus-systems/consensus"
)

// ScenarioReport pairs a sweep scenario's label with the RunReport its
// driver produced.
type ScenarioReport struct {
	Label  string
	Report consensus.RunReport
}

// ReportBatcher groups finished ScenarioReports into periodic batches,
// adapted from BlockBuilder: "block size" becomes a batch of reports
// ready for a single summary print or metrics flush, either once a
// target count is reached or once a timeout since the first report in
// the batch elapses.
type ReportBatcher struct {
	batchSize    int
	batchTimeout time.Duration
	current      []ScenarioReport
	seen         map[string]bool
	batchStart   time.Time
	mu           sync.Mutex
}

// NewReportBatcher returns a batcher that flushes at batchSize reports
// or after timeout since the first report was added, whichever first.
func NewReportBatcher(batchSize int, timeout time.Duration) *ReportBatcher {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &ReportBatcher{
		batchSize:    batchSize,
		batchTimeout: timeout,
		current:      make([]ScenarioReport, 0, batchSize),
		seen:         make(map[string]bool),
		batchStart:   time.Now(),
	}
}

// Add records a finished scenario report. It returns the flushed batch
// if this addition filled it, or nil otherwise.
func (b *ReportBatcher) Add(r ScenarioReport) []ScenarioReport {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.seen[r.Label] {
		return nil
	}
	if len(b.current) == 0 {
		b.batchStart = time.Now()
	}
	b.current = append(b.current, r)
	b.seen[r.Label] = true

	if b.ready() {
		return b.finalize()
	}
	return nil
}

// Flush forces out the current batch regardless of size or timeout.
func (b *ReportBatcher) Flush() []ScenarioReport {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.current) == 0 {
		return nil
	}
	return b.finalize()
}

func (b *ReportBatcher) ready() bool {
	if len(b.current) >= b.batchSize {
		return true
	}
	return b.batchTimeout > 0 && time.Since(b.batchStart) >= b.batchTimeout
}

func (b *ReportBatcher) finalize() []ScenarioReport {
	batch := b.current
	b.current = make([]ScenarioReport, 0, b.batchSize)
	b.seen = make(map[string]bool)
	b.batchStart = time.Now()
	return batch
}

// Pending reports the number of reports currently held in the batch.
func (b *ReportBatcher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.current)
}
