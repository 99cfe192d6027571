package forecast

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Run is one materialized forecast. Its results are never mutated; a newer
// run for the same source replaces it as a whole.
type Run struct {
	ID          uuid.UUID        `json:"id"`
	Source      string           `json:"source"`
	Method      Method           `json:"method"`
	GeneratedAt time.Time        `json:"generated_at"`
	Historical  HistoricalPeriod `json:"historical"`
	Results     []Result         `json:"results"`
}

// NewRun materializes the sequence into a run for the named source.
func NewRun(source string, seq Sequence) Run {
	return NewRunAt(source, seq, time.Now().UTC())
}

// NewRunAt is NewRun with an injectable generation time for testing.
func NewRunAt(source string, seq Sequence, generatedAt time.Time) Run {
	return Run{
		ID:          uuid.New(),
		Source:      source,
		Method:      seq.Method(),
		GeneratedAt: generatedAt,
		Historical:  seq.Historical(),
		Results:     seq.Collect(),
	}
}

// Registry keeps the latest run per source.
type Registry struct {
	mu   sync.RWMutex
	runs map[string]Run
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{runs: make(map[string]Run)}
}

// Put stores the run, replacing any earlier run for the same source. A run
// generated before the stored one is ignored and false is returned.
func (r *Registry) Put(run Run) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.runs[run.Source]; ok && run.GeneratedAt.Before(existing.GeneratedAt) {
		return false
	}
	r.runs[run.Source] = run
	return true
}

// Get returns the latest run for the source.
func (r *Registry) Get(source string) (Run, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[source]
	return run, ok
}

// Sources lists the sources with a stored run in sorted order.
func (r *Registry) Sources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sources := make([]string, 0, len(r.runs))
	for source := range r.runs {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	return sources
}
