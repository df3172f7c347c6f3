package workflow

import (
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/mailsage/mailsage-backend/internal/domain"
)

// Registry retains every execution for the process lifetime, keyed by
// execution ID. Executions are stored as value snapshots so concurrent
// readers never observe a record mid-mutation.
type Registry struct {
	mu      sync.RWMutex
	byID    map[string]domain.WorkflowExecution
	counter atomic.Uint64
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]domain.WorkflowExecution)}
}

// NextID assigns a monotonic execution ID. IDs are never reused within a
// process.
func (r *Registry) NextID() string {
	return "exec_" + strconv.FormatUint(r.counter.Add(1), 10)
}

// Put stores a snapshot of the execution, replacing any prior snapshot with
// the same ID.
func (r *Registry) Put(exec domain.WorkflowExecution) {
	r.mu.Lock()
	r.byID[exec.ID] = exec
	r.mu.Unlock()
}

func (r *Registry) Get(id string) (domain.WorkflowExecution, bool) {
	r.mu.RLock()
	exec, ok := r.byID[id]
	r.mu.RUnlock()
	return exec, ok
}

// ListRecent returns up to limit executions ordered by start time
// descending. Ties break on the numeric ID suffix descending so exec_10
// sorts ahead of exec_9.
func (r *Registry) ListRecent(limit int) []domain.WorkflowExecution {
	if limit <= 0 {
		limit = 10
	}

	r.mu.RLock()
	all := make([]domain.WorkflowExecution, 0, len(r.byID))
	for _, exec := range r.byID {
		all = append(all, exec)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].StartedAt.Equal(all[j].StartedAt) {
			return all[i].StartedAt.After(all[j].StartedAt)
		}
		return executionSeq(all[i].ID) > executionSeq(all[j].ID)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all
}

// executionSeq extracts the numeric suffix of a registry-issued ID. IDs
// that do not carry one sort last.
func executionSeq(id string) uint64 {
	const prefix = "exec_"
	if len(id) <= len(prefix) || id[:len(prefix)] != prefix {
		return 0
	}
	n, err := strconv.ParseUint(id[len(prefix):], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
