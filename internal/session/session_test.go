package session

import (
	"errors"
	"testing"
	"time"
)

func TestDeliverResolvesWait(t *testing.T) {
	m := NewManager()
	s := m.Begin(1, 10, "ARIA2_SPLIT", "aria2", 0, 55)

	done := make(chan struct{})
	go func() {
		r, err := s.Wait()
		if err != nil {
			t.Errorf("Wait returned %v", err)
		}
		if r.Text != "32" || r.MessageID != 7 {
			t.Errorf("reply = %+v", r)
		}
		close(done)
	}()

	if !m.Deliver(1, 10, Reply{MessageID: 7, Text: "32"}) {
		t.Fatal("Deliver did not consume the message")
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait never resolved")
	}
	if m.Active(1) {
		t.Error("session still active after delivery")
	}
}

func TestDeliverIgnoresOtherUsers(t *testing.T) {
	m := NewManager()
	m.Begin(1, 10, "ARIA2_SPLIT", "aria2", 0, 55)

	if m.Deliver(1, 99, Reply{Text: "32"}) {
		t.Fatal("a different user's message was consumed")
	}
	if !m.Active(1) {
		t.Error("session dropped by a foreign message")
	}
	if !m.Deliver(1, 10, Reply{Text: "32"}) {
		t.Error("opener's message not consumed afterwards")
	}
}

func TestDeliverWithoutSession(t *testing.T) {
	m := NewManager()
	if m.Deliver(1, 10, Reply{Text: "hello"}) {
		t.Fatal("consumed a message with no live session")
	}
}

func TestCancelResolvesWait(t *testing.T) {
	m := NewManager()
	s := m.Begin(1, 10, "ARIA2_SPLIT", "aria2", 0, 55)

	errCh := make(chan error, 1)
	go func() {
		_, err := s.Wait()
		errCh <- err
	}()
	m.Cancel(1)

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrCancelled) {
			t.Fatalf("Wait returned %v, want ErrCancelled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not observe the cancel")
	}
	if m.Active(1) {
		t.Error("session still active after cancel")
	}
}

func TestBeginSupersedesPriorSession(t *testing.T) {
	m := NewManager()
	old := m.Begin(1, 10, "ARIA2_SPLIT", "aria2", 0, 55)

	errCh := make(chan error, 1)
	go func() {
		_, err := old.Wait()
		errCh <- err
	}()

	cur := m.Begin(1, 10, "QBIT_DL_LIMIT", "qbit", 1, 56)
	select {
	case err := <-errCh:
		if !errors.Is(err, ErrCancelled) {
			t.Fatalf("superseded session got %v, want ErrCancelled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("superseded session never cancelled")
	}

	// The reply lands on the new session only.
	if !m.Deliver(1, 10, Reply{Text: "100"}) {
		t.Fatal("new session did not consume the reply")
	}
	r, err := cur.Wait()
	if err != nil || r.Text != "100" {
		t.Fatalf("new session Wait = %+v, %v", r, err)
	}
}

func TestFinishOnlyRemovesOwnSession(t *testing.T) {
	m := NewManager()
	old := m.Begin(1, 10, "A", "var", 0, 1)
	cur := m.Begin(1, 10, "B", "var", 0, 2)

	// A stale waiter finishing must not evict the live session.
	m.Finish(old)
	if !m.Active(1) {
		t.Fatal("stale Finish removed the live session")
	}
	m.Finish(cur)
	if m.Active(1) {
		t.Error("live session not removed by its own Finish")
	}
}

func TestWaitTimesOutAndDropsSession(t *testing.T) {
	old := replyTimeout
	replyTimeout = 20 * time.Millisecond
	defer func() { replyTimeout = old }()

	m := NewManager()
	s := m.Begin(1, 10, "ARIA2_SPLIT", "aria2", 0, 55)

	start := time.Now()
	_, err := s.Wait()
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Wait returned %v, want ErrTimeout", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("Wait returned before the timeout elapsed")
	}

	m.Finish(s)
	if m.Active(1) {
		t.Error("timed-out session still active")
	}
	// A reply arriving after the timeout is not consumed.
	if m.Deliver(1, 10, Reply{MessageID: 8, Text: "32"}) {
		t.Error("late reply was consumed by an expired session")
	}
}
