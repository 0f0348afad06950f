package notifier

import "testing"

func TestLifecycle(t *testing.T) {
	n := New(7)
	if n.TaskID != 7 {
		t.Fatalf("TaskID = %d, want 7", n.TaskID)
	}
	if n.Refcount() != 2 {
		t.Fatalf("initial refcount = %d, want 2", n.Refcount())
	}
	if n.HasResult() {
		t.Fatal("HasResult() true before Deliver")
	}

	n.Deliver(42)
	if n.Refcount() != 1 {
		t.Fatalf("refcount after Deliver = %d, want 1", n.Refcount())
	}
	if !n.HasResult() {
		t.Fatal("HasResult() false after Deliver")
	}

	got := n.Observe()
	if got != 42 {
		t.Fatalf("Observe() = %d, want 42", got)
	}
	if n.Refcount() != 0 {
		t.Fatalf("refcount after Observe = %d, want 0", n.Refcount())
	}
}

func TestObserveBeforeDeliverPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic calling Observe before Deliver")
		}
	}()
	n := New(1)
	n.Observe()
}
