package usage

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/psarda/drona/internal/types"
)

func TestRecordAccumulates(t *testing.T) {
	tr := NewTracker()

	tr.Record(time.Second, types.Usage{PromptTokens: 10, CompletionTokens: 5})
	tr.Record(2*time.Second, types.Usage{PromptTokens: 20, CompletionTokens: 10})

	calls, in, out, elapsed := tr.Totals()
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if in != 30 {
		t.Errorf("input tokens = %d, want 30", in)
	}
	if out != 15 {
		t.Errorf("output tokens = %d, want 15", out)
	}
	if elapsed != 3*time.Second {
		t.Errorf("elapsed = %v, want 3s", elapsed)
	}
}

func TestRecordAlternateFieldNames(t *testing.T) {
	tr := NewTracker()

	tr.Record(0, types.Usage{InputTokens: 7, OutputTokens: 3})

	_, in, out, _ := tr.Totals()
	if in != 7 || out != 3 {
		t.Errorf("got in=%d out=%d, want 7/3", in, out)
	}
}

func TestReset(t *testing.T) {
	tr := NewTracker()
	tr.Record(time.Second, types.Usage{PromptTokens: 10, CompletionTokens: 5})
	tr.Reset()

	calls, in, out, elapsed := tr.Totals()
	if calls != 0 || in != 0 || out != 0 || elapsed != 0 {
		t.Errorf("tracker not cleared: calls=%d in=%d out=%d elapsed=%v",
			calls, in, out, elapsed)
	}
}

func TestSummaryEmptyWhenNoCalls(t *testing.T) {
	tr := NewTracker()
	if s := tr.Summary(); s != "" {
		t.Errorf("expected empty summary, got %q", s)
	}
}

func TestSummaryContainsTotals(t *testing.T) {
	tr := NewTracker()
	tr.Record(time.Second, types.Usage{PromptTokens: 100, CompletionTokens: 50})

	s := tr.Summary()
	for _, want := range []string{"Total LLM Calls    : 1", "Total Input Tokens : 100", "Total Tokens       : 150"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q:\n%s", want, s)
		}
	}
}

func TestConcurrentRecord(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Record(time.Millisecond, types.Usage{PromptTokens: 1, CompletionTokens: 1})
		}()
	}
	wg.Wait()

	calls, in, out, _ := tr.Totals()
	if calls != 50 || in != 50 || out != 50 {
		t.Errorf("got calls=%d in=%d out=%d, want 50 each", calls, in, out)
	}
}
