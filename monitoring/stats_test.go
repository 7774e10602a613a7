package monitoring

import (
	"sync"
	"testing"
	"time"
)

func TestCollectorSnapshot(t *testing.T) {
	c := NewCollector()
	c.Record(OutcomeOK, 2*time.Millisecond)
	c.Record(OutcomeOK, 4*time.Millisecond)
	c.Record(OutcomeBadRequest, 6*time.Millisecond)

	s := c.Snapshot()
	if s.Requests != 3 {
		t.Fatalf("expected 3 requests, got %d", s.Requests)
	}
	if s.Outcomes[OutcomeOK] != 2 || s.Outcomes[OutcomeBadRequest] != 1 {
		t.Fatalf("unexpected outcomes: %v", s.Outcomes)
	}
	if s.Latency.MinMs != 2 || s.Latency.MaxMs != 6 || s.Latency.AvgMs != 4 {
		t.Fatalf("unexpected latency: %+v", s.Latency)
	}
}

func TestCollectorConcurrentRecord(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Record(OutcomeInternalError, time.Millisecond)
		}()
	}
	wg.Wait()
	if got := c.Snapshot().Outcomes[OutcomeInternalError]; got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
}
