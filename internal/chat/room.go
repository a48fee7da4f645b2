package chat

import "sync"

// Synthetic membership events. They travel through broadcast like ordinary
// messages but render without the bracket template.
const (
	joinedMarker = "joined the room."
	leftMarker   = "left the room."
)

type historyEntry struct {
	username string
	message  string
}

// ChatRoom is a named, password-gated broadcast group. One mutex covers the
// member set and the history window, so membership changes, history appends
// and delivery iteration never interleave; activity in one room never
// touches another room's lock.
type ChatRoom struct {
	name     string
	password string
	limit    int

	mu      sync.Mutex
	members map[*Session]struct{}
	history []historyEntry
}

func newChatRoom(name, password string, limit int) *ChatRoom {
	if limit <= 0 {
		limit = 100
	}
	return &ChatRoom{
		name:     name,
		password: password,
		limit:    limit,
		members:  make(map[*Session]struct{}),
	}
}

func (r *ChatRoom) Name() string { return r.name }

func (r *ChatRoom) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// join verifies the password and admits the session in one critical
// section: the confirmation and the history replay reach the joiner while
// it is already a member, and the join announcement reaches everyone else
// but never the joiner itself.
func (r *ChatRoom) join(s *Session, password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.password != password {
		return ErrRoomPassword
	}

	r.members[s] = struct{}{}
	s.room = r

	s.deliver("Joined room: " + r.name)
	r.replayHistory(s)
	r.broadcastLocked(joinedMarker, s)
	MessagesTotal.WithLabelValues("join").Inc()
	return nil
}

// adoptFounder admits the creating session without a join announcement or
// history replay; a freshly created room has neither members nor history.
func (r *ChatRoom) adoptFounder(s *Session) {
	r.mu.Lock()
	r.members[s] = struct{}{}
	s.room = r
	r.mu.Unlock()
}

// leave removes the session and announces the departure to whoever is
// left. No-op for non-members, so overlapping teardown paths stay safe.
func (r *ChatRoom) leave(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[s]; !ok {
		return
	}
	delete(r.members, s)
	s.room = nil

	r.broadcastLocked(leftMarker, s)
	MessagesTotal.WithLabelValues("leave").Inc()
}

// broadcast appends the message to history and fans it out to every member
// except the sender. Delivery is best-effort per recipient.
func (r *ChatRoom) broadcast(message string, sender *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(message, sender)
	MessagesTotal.WithLabelValues("broadcast").Inc()
}

func (r *ChatRoom) broadcastLocked(message string, sender *Session) {
	r.appendHistory(sender.username, message)

	line := renderDelivery(sender.username, message)
	fanout := 0
	for member := range r.members {
		if member == sender {
			continue
		}
		member.deliver(line)
		fanout++
	}
	BroadcastFanout.Observe(float64(fanout))
}

func renderDelivery(username, message string) string {
	if message == joinedMarker || message == leftMarker {
		return username + " " + message
	}
	return "[" + username + "]: " + message
}

// appendHistory keeps the sliding window: at capacity the oldest entry is
// evicted before the new one lands.
func (r *ChatRoom) appendHistory(username, message string) {
	if len(r.history) >= r.limit {
		r.history = r.history[1:]
	}
	r.history = append(r.history, historyEntry{username: username, message: message})
}

// replayHistory sends the buffered window, oldest first, to one member.
func (r *ChatRoom) replayHistory(s *Session) {
	if len(r.history) == 0 {
		return
	}
	s.deliver("")
	s.deliver("=== Room History ===")
	for _, entry := range r.history {
		s.deliver("[" + entry.username + "] : " + entry.message)
	}
	s.deliver("===================")
}
