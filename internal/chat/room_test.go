package chat

import (
	"errors"
	"fmt"
	"io"
	"testing"
	"time"
)

// fakeConn is a transport stub for sessions whose output is inspected
// straight off the out channel.
type fakeConn struct {
	in     chan string
	closed chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{in: make(chan string, 16), closed: make(chan struct{})}
}

func (c *fakeConn) ReadLine() (string, error) {
	select {
	case line := <-c.in:
		return line, nil
	case <-c.closed:
		return "", io.EOF
	}
}

func (c *fakeConn) WriteLine(string) error { return nil }

func (c *fakeConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
	return nil
}

func (c *fakeConn) RemoteAddr() string { return "fake" }

func newTestSession(username string) *Session {
	s := NewSession(newFakeConn(), nil, 256)
	s.username = username
	return s
}

func nextLine(t *testing.T, s *Session) string {
	t.Helper()
	select {
	case line := <-s.out:
		return line
	case <-time.After(1 * time.Second):
		t.Fatalf("timeout waiting for a line")
		return ""
	}
}

func expectNoLine(t *testing.T, s *Session) {
	t.Helper()
	select {
	case line := <-s.out:
		t.Fatalf("unexpected line: %q", line)
	default:
	}
}

func TestRoom_HistorySlidingWindow(t *testing.T) {
	r := newChatRoom("lobby", "x", 100)
	alice := newTestSession("alice")
	r.adoptFounder(alice)

	for i := 1; i <= 101; i++ {
		r.broadcast(fmt.Sprintf("msg-%d", i), alice)
	}

	if len(r.history) != 100 {
		t.Fatalf("history length = %d, want 100", len(r.history))
	}
	if r.history[0].message != "msg-2" {
		t.Fatalf("oldest entry = %q, want msg-2 after eviction", r.history[0].message)
	}
	if r.history[99].message != "msg-101" {
		t.Fatalf("newest entry = %q, want msg-101", r.history[99].message)
	}
}

func TestRoom_JoinReplaysHistoryAndAnnounces(t *testing.T) {
	r := newChatRoom("lobby", "x", 100)
	alice := newTestSession("alice")
	r.adoptFounder(alice)
	r.broadcast("hello", alice)

	bob := newTestSession("bob")
	if err := r.join(bob, "x"); err != nil {
		t.Fatalf("join error: %v", err)
	}

	want := []string{
		"Joined room: lobby",
		"",
		"=== Room History ===",
		"[alice] : hello",
		"===================",
	}
	for _, w := range want {
		if got := nextLine(t, bob); got != w {
			t.Fatalf("joiner got %q, want %q", got, w)
		}
	}
	// The joiner never sees its own join announcement.
	expectNoLine(t, bob)

	if got := nextLine(t, alice); got != "bob joined the room." {
		t.Fatalf("alice got %q, want join notice", got)
	}
}

func TestRoom_JoinWrongPassword(t *testing.T) {
	r := newChatRoom("lobby", "x", 100)
	bob := newTestSession("bob")

	if err := r.join(bob, "wrong"); !errors.Is(err, ErrRoomPassword) {
		t.Fatalf("expected ErrRoomPassword, got %v", err)
	}
	if r.MemberCount() != 0 {
		t.Fatalf("failed join must not add a member")
	}
	if bob.room != nil {
		t.Fatalf("failed join must not set the session's room")
	}
}

func TestRoom_BroadcastSkipsSender(t *testing.T) {
	r := newChatRoom("lobby", "x", 100)
	alice := newTestSession("alice")
	bob := newTestSession("bob")
	r.adoptFounder(alice)
	r.adoptFounder(bob)

	r.broadcast("hi there", alice)

	if got := nextLine(t, bob); got != "[alice]: hi there" {
		t.Fatalf("bob got %q", got)
	}
	expectNoLine(t, alice)
}

func TestRoom_LeaveAnnouncesExactlyOnce(t *testing.T) {
	r := newChatRoom("lobby", "x", 100)
	alice := newTestSession("alice")
	bob := newTestSession("bob")
	r.adoptFounder(alice)
	r.adoptFounder(bob)

	r.leave(bob)
	r.leave(bob) // overlapping teardown paths may both reach here

	if got := nextLine(t, alice); got != "bob left the room." {
		t.Fatalf("alice got %q", got)
	}
	expectNoLine(t, alice)

	if r.MemberCount() != 1 {
		t.Fatalf("member count = %d, want 1", r.MemberCount())
	}
	if bob.room != nil {
		t.Fatalf("leave must clear the session's room")
	}
}
