package chat

// Sentinel errors for the auth, room, and friend flows. All of them are
// recovered locally and reported to the offending client as one status
// line; only ErrAlreadyLoggedIn closes the connection.
var (
	ErrWrongPassword   = errorString("wrong password")
	ErrAlreadyLoggedIn = errorString("already logged in")
	ErrEmptyCredential = errorString("empty credential")

	ErrRoomExists   = errorString("room already exists")
	ErrRoomNotFound = errorString("room not found")
	ErrRoomPassword = errorString("wrong room password")

	ErrFriendNotFound = errorString("user not found")
	ErrAlreadyFriend  = errorString("already a friend")
	ErrFriendOffline  = errorString("user not online")
)

type errorString string

func (e errorString) Error() string { return string(e) }
