package monitoring

import (
	"sync"
	"time"
)

// Outcome 请求结果分类
type Outcome string

const (
	OutcomeOK            Outcome = "ok"
	OutcomeBadRequest    Outcome = "bad_request"
	OutcomeInternalError Outcome = "internal_error"
)

// Collector 预测请求统计
type Collector struct {
	mu        sync.RWMutex
	counts    map[Outcome]int64
	count     int64
	total     time.Duration
	min       time.Duration
	max       time.Duration
	startTime time.Time
}

// LatencySummary 延迟摘要（毫秒）
type LatencySummary struct {
	Count int64   `json:"count"`
	MinMs float64 `json:"min_ms"`
	MaxMs float64 `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
}

// Snapshot 统计快照
type Snapshot struct {
	UptimeSeconds float64           `json:"uptime_seconds"`
	Requests      int64             `json:"requests"`
	Outcomes      map[Outcome]int64 `json:"outcomes"`
	Latency       LatencySummary    `json:"latency"`
}

// NewCollector 创建统计收集器
func NewCollector() *Collector {
	return &Collector{
		counts:    make(map[Outcome]int64),
		startTime: time.Now(),
	}
}

// Record 记录一次请求
func (c *Collector) Record(outcome Outcome, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counts[outcome]++
	c.count++
	c.total += duration
	if c.count == 1 || duration < c.min {
		c.min = duration
	}
	if duration > c.max {
		c.max = duration
	}
}

// Snapshot 返回当前统计的副本
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	outcomes := make(map[Outcome]int64, len(c.counts))
	for k, v := range c.counts {
		outcomes[k] = v
	}
	summary := LatencySummary{Count: c.count}
	if c.count > 0 {
		summary.MinMs = millis(c.min)
		summary.MaxMs = millis(c.max)
		summary.AvgMs = millis(c.total) / float64(c.count)
	}
	return Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		Requests:      c.count,
		Outcomes:      outcomes,
		Latency:       summary,
	}
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
