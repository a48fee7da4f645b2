package chat

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Session is the server-side state for one connected client. The username
// and current-room fields are written only by the session's own goroutine,
// and the username is written before the session is published through
// ClaimSession, so lookups never observe it half-set. The friend set and
// private target are shared with partner sessions and sit behind the mutex.
type Session struct {
	ID     string
	conn   Conn
	out    chan string
	done   chan struct{}
	wdead  chan struct{}
	logger *slog.Logger

	username string
	claimed  bool
	room     *ChatRoom

	mu            sync.Mutex
	friends       map[string]struct{}
	privateTarget string

	closeOnce sync.Once
}

func NewSession(conn Conn, logger *slog.Logger, buffer int) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if buffer <= 0 {
		buffer = 256
	}
	id := uuid.NewString()
	return &Session{
		ID:      id,
		conn:    conn,
		out:     make(chan string, buffer),
		done:    make(chan struct{}),
		wdead:   make(chan struct{}),
		logger:  logger.With("session", id, "addr", conn.RemoteAddr()),
		friends: make(map[string]struct{}),
	}
}

func (s *Session) Username() string { return s.username }

// startWriter drains the outbound channel onto the connection. It stops on
// the first write error or at teardown; the channel itself is never closed,
// so concurrent best-effort sends stay safe.
func (s *Session) startWriter() {
	go func() {
		defer close(s.wdead)
		for {
			select {
			case msg := <-s.out:
				if err := s.conn.WriteLine(msg); err != nil {
					return
				}
			case <-s.done:
				return
			}
		}
	}()
}

// send queues a line for the session's own client. It blocks the session's
// worker if the buffer is full, never anyone else's; a dead writer unblocks
// it so the read loop can observe the broken connection.
func (s *Session) send(line string) {
	select {
	case s.out <- line:
	case <-s.wdead:
	}
}

// deliver queues a line on behalf of another session. Non-blocking: a slow
// or disconnected client drops the line instead of stalling the sender.
func (s *Session) deliver(line string) {
	select {
	case s.out <- line:
	default:
	}
}

func (s *Session) readLine() (string, error) {
	return s.conn.ReadLine()
}

func (s *Session) addFriend(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.friends[name]; ok {
		return ErrAlreadyFriend
	}
	s.friends[name] = struct{}{}
	return nil
}

func (s *Session) isFriend(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.friends[name]
	return ok
}

func (s *Session) friendNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.friends))
	for name := range s.friends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Session) privateTargetName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.privateTarget
}

func (s *Session) clearPrivateTarget() {
	s.mu.Lock()
	s.privateTarget = ""
	s.mu.Unlock()
}

// linkPrivate ties two sessions into one private-chat edge. Locks are taken
// in username order so two concurrent links can never deadlock.
func linkPrivate(a, b *Session) {
	first, second := lockOrder(a, b)
	first.mu.Lock()
	second.mu.Lock()
	a.privateTarget = b.username
	b.privateTarget = a.username
	second.mu.Unlock()
	first.mu.Unlock()
}

// unlinkPrivate clears both ends of the edge in one critical section. Each
// end is only cleared if it still points at the other, so a session that
// already moved on to a new partner is left alone.
func unlinkPrivate(a, b *Session) {
	first, second := lockOrder(a, b)
	first.mu.Lock()
	second.mu.Lock()
	if a.privateTarget == b.username {
		a.privateTarget = ""
	}
	if b.privateTarget == a.username {
		b.privateTarget = ""
	}
	second.mu.Unlock()
	first.mu.Unlock()
}

func lockOrder(a, b *Session) (*Session, *Session) {
	if a.username <= b.username {
		return a, b
	}
	return b, a
}

// cleanup is the single teardown path. Safe to call from any exit route
// and after a partially completed login; it runs exactly once.
func (s *Session) cleanup(reg *Registry) {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
		close(s.done)

		// Release only a claim this session actually won: the username field
		// is set before ClaimSession, so a losing duplicate login must not
		// evict the winner from the online registry.
		if s.claimed {
			reg.ReleaseSession(s.username)
		}
		if r := s.room; r != nil {
			r.leave(s)
		}
		s.logger.Info("session closed", "username", s.username)
	})
}
