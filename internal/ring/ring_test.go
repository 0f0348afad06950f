package ring

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestSimReadWriteRoundTrip(t *testing.T) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	r := NewSim(8)
	defer r.Close()

	payload := []byte("PING\r\n")
	wbuf := make([]byte, len(payload))
	copy(wbuf, payload)
	wiov := IovecsFromBuffers([][]byte{wbuf})

	sqe, err := r.Reserve()
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	sqe.PrepWriteVectored(int32(fds[0]), wiov)
	sqe.UserData = 0x1111

	if _, err := r.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	comp, err := r.WaitOne()
	if err != nil {
		t.Fatalf("WaitOne: %v", err)
	}
	if comp.UserData != 0x1111 {
		t.Fatalf("UserData = %x, want 0x1111", comp.UserData)
	}
	if comp.Result != int32(len(payload)) {
		t.Fatalf("write Result = %d, want %d", comp.Result, len(payload))
	}

	rbuf := make([]byte, 64)
	riov := IovecsFromBuffers([][]byte{rbuf})
	sqe2, err := r.Reserve()
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	sqe2.PrepReadVectored(int32(fds[1]), riov)
	sqe2.UserData = 0x2222

	if _, err := r.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	comp2, err := r.WaitOne()
	if err != nil {
		t.Fatalf("WaitOne: %v", err)
	}
	if comp2.UserData != 0x2222 {
		t.Fatalf("UserData = %x, want 0x2222", comp2.UserData)
	}
	if comp2.Result != int32(len(payload)) {
		t.Fatalf("read Result = %d, want %d", comp2.Result, len(payload))
	}
	if string(rbuf[:comp2.Result]) != string(payload) {
		t.Fatalf("read payload = %q, want %q", rbuf[:comp2.Result], payload)
	}
}

func TestSimRingFull(t *testing.T) {
	r := NewSim(1)
	defer r.Close()

	if _, err := r.Reserve(); err != nil {
		t.Fatalf("first Reserve: %v", err)
	}
	if _, err := r.Reserve(); err != ErrRingFull {
		t.Fatalf("second Reserve error = %v, want ErrRingFull", err)
	}
}

func TestSimClosedReceiveReturnsErr(t *testing.T) {
	r := NewSim(4)
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := r.WaitOne(); err != ErrClosed {
		t.Fatalf("WaitOne after Close = %v, want ErrClosed", err)
	}
	if _, err := r.Reserve(); err != ErrClosed {
		t.Fatalf("Reserve after Close = %v, want ErrClosed", err)
	}
}
