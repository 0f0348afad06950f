// Package notifier implements the TaskNotifier record shared between an
// in-flight leaf operation and the executor's completion dispatcher.
//
// All methods run on the single OS thread the owning executor drives its
// run loop on (see the concurrency model in SPEC_FULL.md §5), so no locking
// or atomics are needed here.
package notifier

// Notifier is a heap-allocated record shared between the leaf future that
// created it and the executor's dispatch loop. Its address, round-tripped
// through an unsafe pointer, is what the kernel (or the in-process
// simulation ring) echoes back as the completion's user-data word.
//
// Refcount starts at 2: one hold for the submission-queue entry, one for
// the leaf future. The executor releases the first hold when it delivers a
// result; the leaf future releases the second when it observes that
// result. The notifier must be deallocated only once both holds are gone.
type Notifier struct {
	TaskID    uint64
	result    int32
	hasResult bool
	refcount  int32
}

// New creates a notifier for the given task, with both holds already
// accounted for.
func New(taskID uint64) *Notifier {
	return &Notifier{TaskID: taskID, refcount: 2}
}

// Deliver stores the completion's result and releases the submission-queue
// entry's hold. Must be called exactly once, by the executor's dispatch.
func (n *Notifier) Deliver(result int32) {
	n.result = result
	n.hasResult = true
	n.refcount--
}

// HasResult reports whether Deliver has been called yet.
func (n *Notifier) HasResult() bool {
	return n.hasResult
}

// Observe returns the delivered result and releases the leaf future's
// hold. Panics if called before Deliver; that would indicate a leaf future
// polling its result before the executor ever dispatched a completion for
// it, a programming error in this single-threaded model.
func (n *Notifier) Observe() int32 {
	if !n.hasResult {
		panic("notifier: Observe called before Deliver")
	}
	n.refcount--
	return n.result
}

// Refcount returns the number of live holders. The executor asserts this is
// zero immediately after redispatching the task that owns the notifier.
func (n *Notifier) Refcount() int32 {
	return n.refcount
}
