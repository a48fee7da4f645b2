package chat

import (
	"crypto/sha256"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Registry holds the three process-lifetime mappings: credentials, online
// sessions, and rooms. Each map has its own mutex, and the composite
// check-then-act operations below are the only mutation entry points, so
// rooms, logins and registrations never contend with each other.
type Registry struct {
	logger       *slog.Logger
	historyLimit int

	credMu      sync.Mutex
	credentials map[string][]byte

	sessMu sync.Mutex
	online map[string]*Session

	roomMu sync.Mutex
	rooms  map[string]*ChatRoom
}

func NewRegistry(historyLimit int, logger *slog.Logger) *Registry {
	if historyLimit <= 0 {
		historyLimit = 100
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:       logger,
		historyLimit: historyLimit,
		credentials:  make(map[string][]byte),
		online:       make(map[string]*Session),
		rooms:        make(map[string]*ChatRoom),
	}
}

// RegisterOrAuthenticate is the single credential entry point: an unknown
// username is registered with the given password, a known one must match.
// The stored credential is a bcrypt hash; it is written once at
// registration and never mutated afterwards.
func (r *Registry) RegisterOrAuthenticate(username, password string) (registered bool, err error) {
	r.credMu.Lock()
	defer r.credMu.Unlock()

	if hash, ok := r.credentials[username]; ok {
		if bcrypt.CompareHashAndPassword(hash, credentialBytes(password)) != nil {
			return false, ErrWrongPassword
		}
		MessagesTotal.WithLabelValues("login").Inc()
		return false, nil
	}

	if password == "" {
		return false, ErrEmptyCredential
	}
	hash, err := bcrypt.GenerateFromPassword(credentialBytes(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	r.credentials[username] = hash

	r.logger.Info("user registered", "username", username)
	MessagesTotal.WithLabelValues("register").Inc()
	return true, nil
}

// credentialBytes folds passwords over bcrypt's 72-byte input limit
// through SHA-256, on the register and the login path alike, so any
// password length stays valid input.
func credentialBytes(password string) []byte {
	if len(password) <= 72 {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return sum[:]
}

// HasUser reports whether a credential exists for the username.
func (r *Registry) HasUser(username string) bool {
	r.credMu.Lock()
	defer r.credMu.Unlock()
	_, ok := r.credentials[username]
	return ok
}

// ClaimSession marks the username online. The check and the insert are one
// atomic step: of two concurrent logins for the same username exactly one
// wins, the other gets ErrAlreadyLoggedIn.
func (r *Registry) ClaimSession(username string, s *Session) error {
	r.sessMu.Lock()
	defer r.sessMu.Unlock()

	if _, ok := r.online[username]; ok {
		return ErrAlreadyLoggedIn
	}
	r.online[username] = s
	ConnectedClients.Set(float64(len(r.online)))
	return nil
}

// ReleaseSession removes the username from the online set. Idempotent:
// overlapping teardown paths may call it more than once.
func (r *Registry) ReleaseSession(username string) {
	r.sessMu.Lock()
	defer r.sessMu.Unlock()

	if _, ok := r.online[username]; !ok {
		return
	}
	delete(r.online, username)
	ConnectedClients.Set(float64(len(r.online)))
	r.logger.Info("user left", "username", username)
}

func (r *Registry) LookupSession(username string) (*Session, bool) {
	r.sessMu.Lock()
	defer r.sessMu.Unlock()
	s, ok := r.online[username]
	return s, ok
}

func (r *Registry) IsOnline(username string) bool {
	_, ok := r.LookupSession(username)
	return ok
}

// OnlineUsers returns the sorted usernames of all live sessions.
func (r *Registry) OnlineUsers() []string {
	r.sessMu.Lock()
	defer r.sessMu.Unlock()
	names := make([]string, 0, len(r.online))
	for name := range r.online {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateRoom atomically claims the room name. Rooms live for the rest of
// the process; there is no delete.
func (r *Registry) CreateRoom(name, password string) (*ChatRoom, error) {
	r.roomMu.Lock()
	defer r.roomMu.Unlock()

	if _, ok := r.rooms[name]; ok {
		return nil, ErrRoomExists
	}
	room := newChatRoom(name, password, r.historyLimit)
	r.rooms[name] = room

	ActiveRooms.Set(float64(len(r.rooms)))
	r.logger.Info("room created", "room", name)
	return room, nil
}

func (r *Registry) LookupRoom(name string) (*ChatRoom, bool) {
	r.roomMu.Lock()
	defer r.roomMu.Unlock()
	room, ok := r.rooms[name]
	return room, ok
}

func (r *Registry) HasRoom(name string) bool {
	_, ok := r.LookupRoom(name)
	return ok
}

// RoomInfo is a point-in-time view of one room for listings.
type RoomInfo struct {
	Name    string `json:"name"`
	Members int    `json:"members"`
}

// RoomInfos returns all rooms with live member counts, sorted by name.
func (r *Registry) RoomInfos() []RoomInfo {
	r.roomMu.Lock()
	rooms := make([]*ChatRoom, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.roomMu.Unlock()

	infos := make([]RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		infos = append(infos, RoomInfo{Name: room.Name(), Members: room.MemberCount()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
