package uringrt

import "testing"

func TestChannelSendThenRecv(t *testing.T) {
	sender, receiver, err := Channel[int]()
	if err != nil {
		t.Fatalf("Channel() error = %v", err)
	}
	defer receiver.Close()
	defer sender.Close()

	if err := sender.Send(7); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	ex := NewSimExecutor(0)
	results := make(chan RecvResult[int], 1)
	ex.Spawn(&recvOnceTask[int]{recv: receiver, out: results})

	if err := ex.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	res := <-results
	if res.Disconnected || res.Value != 7 {
		t.Fatalf("Recv() = %+v, want Value=7", res)
	}
}

func TestChannelDisconnectAfterLastSenderCloses(t *testing.T) {
	sender, receiver, err := Channel[string]()
	if err != nil {
		t.Fatalf("Channel() error = %v", err)
	}
	defer receiver.Close()

	sender.Close()

	ex := NewSimExecutor(0)
	results := make(chan RecvResult[string], 1)
	ex.Spawn(&recvOnceTask[string]{recv: receiver, out: results})

	if err := ex.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	res := <-results
	if !res.Disconnected {
		t.Fatalf("Recv() = %+v, want Disconnected=true", res)
	}
}

func TestChannelSendAfterReceiverClosedReturnsError(t *testing.T) {
	sender, receiver, err := Channel[int]()
	if err != nil {
		t.Fatalf("Channel() error = %v", err)
	}
	if err := receiver.Close(); err != nil {
		t.Fatalf("Receiver.Close() error = %v", err)
	}

	err = sender.Send(1)
	var sendErr *SendError[int]
	if err == nil {
		t.Fatal("Send() after Receiver.Close() should error")
	}
	if se, ok := err.(*SendError[int]); ok {
		sendErr = se
	} else {
		t.Fatalf("Send() error type = %T, want *SendError[int]", err)
	}
	if sendErr.Value != 1 {
		t.Fatalf("SendError.Value = %d, want 1", sendErr.Value)
	}
}

func TestSenderCloneKeepsChannelOpenUntilAllClosed(t *testing.T) {
	sender, receiver, err := Channel[int]()
	if err != nil {
		t.Fatalf("Channel() error = %v", err)
	}
	defer receiver.Close()

	clone := sender.Clone()
	sender.Close()

	if err := clone.Send(9); err != nil {
		t.Fatalf("clone.Send() error = %v (channel should still be open)", err)
	}
	clone.Close()
}

// recvOnceTask drives a single Receiver.Recv to completion and reports the
// result on out.
type recvOnceTask[T any] struct {
	recv  Receiver[T]
	inner Future[RecvResult[T]]
	out   chan RecvResult[T]
}

func (t *recvOnceTask[T]) Poll(cx *Context) (struct{}, bool) {
	if t.inner == nil {
		t.inner = t.recv.Recv()
	}
	res, ready := t.inner.Poll(cx)
	if !ready {
		return struct{}{}, false
	}
	t.out <- res
	return struct{}{}, true
}
