// Package usage tracks token consumption and request times across LLM calls.
package usage

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/psarda/drona/internal/types"
)

// Tracker accumulates statistics from completed LLM calls. It is safe for
// concurrent use; the commit analyzer records from multiple goroutines.
type Tracker struct {
	mu sync.Mutex

	totalCalls        int
	totalInputTokens  int
	totalOutputTokens int
	totalTime         time.Duration
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Record commits the statistics of one completed LLM call.
func (t *Tracker) Record(elapsed time.Duration, u types.Usage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.totalCalls++
	t.totalTime += elapsed
	t.totalInputTokens += u.Input()
	t.totalOutputTokens += u.Output()
}

// Reset clears all accumulated statistics.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.totalCalls = 0
	t.totalInputTokens = 0
	t.totalOutputTokens = 0
	t.totalTime = 0
}

// Totals returns the accumulated counters.
func (t *Tracker) Totals() (calls, inputTokens, outputTokens int, elapsed time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalCalls, t.totalInputTokens, t.totalOutputTokens, t.totalTime
}

// Summary renders a usage report, or "" when no calls were recorded.
func (t *Tracker) Summary() string {
	calls, in, out, elapsed := t.Totals()
	if calls == 0 {
		return ""
	}

	tps := 0.0
	if elapsed > 0 {
		tps = float64(out) / elapsed.Seconds()
	}

	var b strings.Builder
	rule := strings.Repeat("=", 40)
	b.WriteString("\n" + rule + "\n")
	b.WriteString("LLM USAGE STATISTICS\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Total LLM Calls    : %d\n", calls)
	fmt.Fprintf(&b, "Total Input Tokens : %d\n", in)
	fmt.Fprintf(&b, "Total Output Tokens: %d\n", out)
	fmt.Fprintf(&b, "Total Tokens       : %d\n", in+out)
	fmt.Fprintf(&b, "Total Time         : %.2fs\n", elapsed.Seconds())
	fmt.Fprintf(&b, "Output TPS (avg)   : %.2f tokens/s\n", tps)
	b.WriteString(rule)
	return b.String()
}
