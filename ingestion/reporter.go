package ingestion

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/poiesic/ipgest/core"
)

// Stage names a reporting checkpoint.
type Stage string

const (
	StageDiscovered Stage = "discovered"
	StageSplit      Stage = "split"
	StageBuilt      Stage = "built"
	StageFinished   Stage = "finished"
)

// Reporter logs cumulative counters at checkpoints.
// It only observes; nothing it does affects the run.
type Reporter struct {
	logger *slog.Logger
	clock  func() time.Time
	start  time.Time
	bytes  int64
	mu     sync.Mutex
}

// NewReporter creates a reporter. A nil clock means time.Now.
func NewReporter(logger *slog.Logger, clock func() time.Time) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = time.Now
	}
	return &Reporter{
		logger: logger,
		clock:  clock,
	}
}

// Start begins timing a run over bytes of input.
func (r *Reporter) Start(start time.Time, bytes int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.start = start
	r.bytes = bytes
}

// Elapsed returns the time since Start.
func (r *Reporter) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.start.IsZero() {
		return 0
	}
	return r.clock().Sub(r.start)
}

// Checkpoint logs the counters reached at stage.
func (r *Reporter) Checkpoint(stage Stage, c core.Counters) {
	elapsed := r.Elapsed()

	r.mu.Lock()
	bytes := r.bytes
	r.mu.Unlock()

	r.logger.Info("checkpoint",
		"stage", string(stage),
		"elapsed", elapsed.Round(time.Millisecond).String(),
		"input", humanize.Bytes(uint64(max(bytes, 0))),
		"rate", rate(c.Built+c.Failed, elapsed),
		"counters", c,
	)
}

// rate formats records per second.
func rate(n int64, elapsed time.Duration) string {
	if elapsed <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f records/s", float64(n)/elapsed.Seconds())
}
