package uringrt

import (
	"testing"
)

// countingTask polls to completion after remaining polls, appending its id
// to order on every poll.
type countingTask struct {
	remaining int
	id        string
	order     *[]string
}

func (t *countingTask) Poll(cx *Context) (struct{}, bool) {
	*t.order = append(*t.order, t.id)
	t.remaining--
	return struct{}{}, t.remaining <= 0
}

func TestRunDrainsSpawnQueueBeforeTasksEmpty(t *testing.T) {
	ex := NewSimExecutor(0)
	var order []string

	ex.Spawn(&countingTask{remaining: 1, id: "a", order: &order})
	ex.Spawn(&countingTask{remaining: 1, id: "b", order: &order})

	if err := ex.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("order = %v, want [a b] (FIFO admission)", order)
	}

	snap := ex.Metrics().Snapshot()
	if snap.TasksSpawned != 2 || snap.TasksCompleted != 2 {
		t.Fatalf("TasksSpawned/Completed = %d/%d, want 2/2", snap.TasksSpawned, snap.TasksCompleted)
	}
}

// spawningTask spawns a child task on its first poll and completes in that
// same poll. Exercises spawn-from-within-a-running-task (the free Spawn
// function) landing in the same drain pass. It submits no I/O, so it must
// not return pending: nothing would ever re-poll it and Run would block.
type spawningTask struct {
	order *[]string
}

func (t *spawningTask) Poll(cx *Context) (struct{}, bool) {
	Spawn(&countingTask{remaining: 1, id: "child", order: t.order})
	return struct{}{}, true
}

func TestSpawnFromWithinTask(t *testing.T) {
	ex := NewSimExecutor(0)
	var order []string
	ex.Spawn(&spawningTask{order: &order})

	if err := ex.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(order) != 1 || order[0] != "child" {
		t.Fatalf("order = %v, want [child] (child admitted in the same drain pass as its parent)", order)
	}
}

func TestSpawnOutsideRunningTaskPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Spawn with no active runtime to panic")
		}
	}()
	Spawn(&countingTask{remaining: 1, id: "x", order: &[]string{}})
}

func TestStreamRoundTripThroughSimRing(t *testing.T) {
	a, b, err := SocketPair()
	if err != nil {
		t.Fatalf("SocketPair() error = %v", err)
	}
	defer a.Close()
	defer b.Close()

	ex := NewSimExecutor(0)
	result := make(chan IOResult, 1)

	writeDone := false
	readDone := false
	var readBuf [16]byte

	ex.Spawn(&roundTripTask{
		writer: b, reader: a, readBuf: readBuf[:], result: result,
		writeDonePtr: &writeDone, readDonePtr: &readDone,
	})

	if err := ex.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	res := <-result
	if res.Err != nil {
		t.Fatalf("read error = %v", res.Err)
	}
	if string(readBuf[:res.N]) != "ping" {
		t.Fatalf("read %q, want %q", readBuf[:res.N], "ping")
	}
}

// roundTripTask writes "ping" on writer then reads it back from reader,
// reporting the read's IOResult on result.
type roundTripTask struct {
	writer, reader *Stream
	readBuf        []byte
	result         chan IOResult

	writeFut, readFut Future[IOResult]
	writeDonePtr      *bool
	readDonePtr       *bool
}

func (t *roundTripTask) Poll(cx *Context) (struct{}, bool) {
	if !*t.writeDonePtr {
		if t.writeFut == nil {
			t.writeFut = t.writer.WriteVectored([][]byte{[]byte("ping")})
		}
		res, ready := t.writeFut.Poll(cx)
		if !ready {
			return struct{}{}, false
		}
		if res.Err != nil {
			t.result <- res
			return struct{}{}, true
		}
		*t.writeDonePtr = true
	}

	if t.readFut == nil {
		t.readFut = t.reader.ReadVectored([][]byte{t.readBuf})
	}
	res, ready := t.readFut.Poll(cx)
	if !ready {
		return struct{}{}, false
	}
	t.result <- res
	return struct{}{}, true
}
