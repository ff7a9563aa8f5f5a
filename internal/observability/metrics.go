package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/spec-kit/ticket-copilot/internal/domain"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	errorCount    map[string]int64
	outcomeCount  map[string]int64
	stageFailures map[string]int64
	pipelineTotal time.Duration
	pipelineRuns  int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Requests          map[string]int64 `json:"requests"`
	Errors            map[string]int64 `json:"errors"`
	Outcomes          map[string]int64 `json:"outcomes"`
	FailureCauses     map[string]int64 `json:"failure_causes"`
	PipelineRuns      int64            `json:"pipeline_runs"`
	PipelineAverageMs float64          `json:"pipeline_average_ms"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:  make(map[string]int64),
		errorCount:    make(map[string]int64),
		outcomeCount:  make(map[string]int64),
		stageFailures: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordOutcome counts a finished pipeline run.
func (m *Metrics) RecordOutcome(o domain.TicketOutcome, duration time.Duration) {
	if m == nil || o == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomeCount[string(o.Kind())]++
	if f, ok := o.(domain.ResolutionFailed); ok {
		m.stageFailures[string(f.Cause)]++
	}
	m.pipelineRuns++
	m.pipelineTotal += duration
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		Requests:      copyCounts(m.requestCount),
		Errors:        copyCounts(m.errorCount),
		Outcomes:      copyCounts(m.outcomeCount),
		FailureCauses: copyCounts(m.stageFailures),
		PipelineRuns:  m.pipelineRuns,
	}
	if m.pipelineRuns > 0 {
		s.PipelineAverageMs = float64(m.pipelineTotal.Milliseconds()) / float64(m.pipelineRuns)
	}
	return s
}

func copyCounts(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
