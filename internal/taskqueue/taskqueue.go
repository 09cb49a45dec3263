// Package taskqueue implements the enqueue-only hand-off between producers
// (the fetch orchestrator, the scheduler) and the maintenance workers that
// actually do the work. A task is a coalescing signal, not a payload:
// maintenance sweeps re-derive their own work list from the database, so
// there is nothing to carry on the queue besides "a run is due".
package taskqueue

// Queue is a single-slot, non-blocking signal channel. Enqueue never blocks
// the caller and never builds up backlog: if a run is already pending, a
// second Enqueue before it's consumed is a no-op, since the pending run will
// already pick up anything that triggered the second call.
type Queue struct {
	signal chan struct{}
}

func New() *Queue {
	return &Queue{signal: make(chan struct{}, 1)}
}

// Enqueue marks a run as due. Safe to call from multiple goroutines.
func (q *Queue) Enqueue() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// C is the channel a consumer selects on to learn a run is due.
func (q *Queue) C() <-chan struct{} {
	return q.signal
}
