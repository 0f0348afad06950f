package uringrt

import "testing"

func TestWriteAllVectoredFlushesEverything(t *testing.T) {
	a, b, err := SocketPair()
	if err != nil {
		t.Fatalf("SocketPair() error = %v", err)
	}
	defer a.Close()
	defer b.Close()

	payload := make([]byte, 256*1024) // larger than a typical socket buffer
	for i := range payload {
		payload[i] = byte(i)
	}

	ex := NewSimExecutor(0)
	writeResult := make(chan IOResult, 1)
	readResult := make(chan int, 1)

	ex.Spawn(&writeAllTask{stream: b, data: payload, out: writeResult})
	ex.Spawn(&drainTask{stream: a, want: len(payload), out: readResult})

	if err := ex.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wres := <-writeResult
	if wres.Err != nil {
		t.Fatalf("WriteAllVectored error = %v", wres.Err)
	}
	n := <-readResult
	if n != len(payload) {
		t.Fatalf("drained %d bytes, want %d", n, len(payload))
	}
}

type writeAllTask struct {
	stream *Stream
	data   []byte
	inner  Future[IOResult]
	out    chan IOResult
}

func (t *writeAllTask) Poll(cx *Context) (struct{}, bool) {
	if t.inner == nil {
		t.inner = t.stream.WriteAllVectored([][]byte{t.data})
	}
	res, ready := t.inner.Poll(cx)
	if !ready {
		return struct{}{}, false
	}
	t.out <- res
	return struct{}{}, true
}

// drainTask reads from stream in a loop, accumulating bytes, until it has
// read want bytes or hit EOF/an error.
type drainTask struct {
	stream *Stream
	want   int
	got    int
	buf    [4096]byte
	inner  Future[IOResult]
	out    chan int
}

func (t *drainTask) Poll(cx *Context) (struct{}, bool) {
	for {
		if t.got >= t.want {
			t.out <- t.got
			return struct{}{}, true
		}
		if t.inner == nil {
			t.inner = t.stream.ReadVectored([][]byte{t.buf[:]})
		}
		res, ready := t.inner.Poll(cx)
		if !ready {
			return struct{}{}, false
		}
		t.inner = nil
		if res.Err != nil || res.N == 0 {
			t.out <- t.got
			return struct{}{}, true
		}
		t.got += res.N
	}
}

func TestShutdownBothDirections(t *testing.T) {
	a, b, err := SocketPair()
	if err != nil {
		t.Fatalf("SocketPair() error = %v", err)
	}
	defer a.Close()
	defer b.Close()

	if err := b.Shutdown(ShutdownBoth); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
}
