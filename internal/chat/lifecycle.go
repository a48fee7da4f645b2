package chat

import (
	"errors"
	"strconv"
	"strings"
)

// Tokens understood outside the menu prompts. Everything else a client
// sends is either an answer to the preceding prompt or chat content.
const (
	exitToken = "/exit"
	backToken = "/back"
)

// HandleSession drives one connection through the whole protocol
// conversation: login, main menu, then either room messaging or the friend
// menu, until the client exits or the transport breaks. Every exit path
// funnels through the session's one-shot cleanup.
func HandleSession(s *Session, reg *Registry) {
	defer s.cleanup(reg)

	s.startWriter()

	if err := handleLogin(s, reg); err != nil {
		return
	}

	for s.room == nil {
		if err := mainMenu(s, reg); err != nil {
			return
		}
	}

	roomLoop(s)
}

// handleLogin loops on the username prompt until a login or registration
// succeeds. A wrong password starts over from the username prompt; only a
// duplicate login or a transport error ends the session here.
func handleLogin(s *Session, reg *Registry) error {
	for {
		s.send("Enter your username:")
		username, err := s.readLine()
		if err != nil {
			return err
		}
		username = strings.TrimSpace(username)
		if username == "" {
			s.send("Invalid username. Please try again...")
			continue
		}

		if reg.HasUser(username) {
			s.send("Username exists. Enter your password:")
		} else {
			s.send("You're a new user! Please set your password:")
		}
		password, err := s.readLine()
		if err != nil {
			return err
		}
		password = strings.TrimSpace(password)

		registered, err := reg.RegisterOrAuthenticate(username, password)
		switch {
		case errors.Is(err, ErrEmptyCredential):
			s.send("Password cannot be empty. Please try again...")
			continue
		case errors.Is(err, ErrWrongPassword):
			s.send("Wrong password. Try again.")
			s.send("")
			continue
		case err != nil:
			return err
		}
		if registered {
			s.send("User registered successfully.")
		}

		s.username = username
		if err := reg.ClaimSession(username, s); err != nil {
			// One live session per username; the newcomer loses. The notice
			// is written directly: queueing it on the out channel would race
			// teardown closing the connection. Nothing else can write here,
			// the session was never published.
			_ = s.conn.WriteLine("User already logged in. Connection closing.")
			return err
		}
		s.claimed = true
		s.logger.Info("user logged in", "username", username)

		s.send("Login successful. Welcome, " + username + "!")
		return nil
	}
}

// mainMenu runs one menu round trip. It returns with s.room set when a
// join or create succeeded; any failure leaves the session in the menu for
// another attempt.
func mainMenu(s *Session, reg *Registry) error {
	s.send("=== Main Menu ===")
	s.send("1. Join a Room")
	s.send("2. Create a Room")
	s.send("3. Friend Menu")
	s.send("Enter: ")

	option, err := s.readLine()
	if err != nil {
		return err
	}

	switch option {
	case "1":
		return joinRoom(s, reg)
	case "2":
		return createRoom(s, reg)
	case "3":
		return friendMenu(s, reg)
	default:
		s.send("Invalid option.")
		return nil
	}
}

func showAllRooms(s *Session, reg *Registry) []RoomInfo {
	infos := reg.RoomInfos()
	if len(infos) == 0 {
		s.send("No rooms available.")
		return infos
	}
	s.send("Available Rooms:")
	for _, info := range infos {
		s.send("- " + info.Name + " (" + strconv.Itoa(info.Members) + " members)")
	}
	return infos
}

// joinRoom makes one join attempt. An unknown room or a wrong password
// reports the failure and falls back to the main menu.
func joinRoom(s *Session, reg *Registry) error {
	if len(showAllRooms(s, reg)) == 0 {
		s.send("No rooms exist. Please create one first.")
		return nil
	}

	s.send("Enter room name (or /back to cancel):")
	roomName, err := s.readLine()
	if err != nil {
		return err
	}
	if strings.EqualFold(roomName, backToken) {
		return nil
	}

	room, ok := reg.LookupRoom(roomName)
	if !ok {
		s.send("Room does not exist.")
		return nil
	}

	s.send("Enter room password:")
	password, err := s.readLine()
	if err != nil {
		return err
	}

	if err := room.join(s, password); err != nil {
		s.send("Incorrect password.")
		return nil
	}
	s.logger.Info("joined room", "username", s.username, "room", room.Name())
	return nil
}

// createRoom claims a new room name and seats the creator as its sole
// member. A taken name falls back to the main menu.
func createRoom(s *Session, reg *Registry) error {
	s.send("Enter new room name:")
	roomName, err := s.readLine()
	if err != nil {
		return err
	}
	if reg.HasRoom(roomName) {
		s.send("Room already exists.")
		return nil
	}

	s.send("Set room password:")
	password, err := s.readLine()
	if err != nil {
		return err
	}

	room, err := reg.CreateRoom(roomName, password)
	if err != nil {
		// Lost the race to another creator.
		s.send("Room already exists.")
		return nil
	}
	room.adoptFounder(s)
	s.logger.Info("created room", "username", s.username, "room", roomName)
	s.send("Room created. You joined: " + roomName)
	return nil
}

// friendMenu loops until the client picks "back". All friend operations
// are one-directional and require the target to be online right now.
func friendMenu(s *Session, reg *Registry) error {
	for {
		s.send("")
		s.send("Friend Menu:")
		s.send("1. View friends")
		s.send("2. Add friend")
		s.send("3. Message a friend")
		s.send("4. Back to main menu")
		s.send("Enter: ")

		option, err := s.readLine()
		if err != nil {
			return err
		}

		switch option {
		case "1":
			s.send("Your friends: [" + strings.Join(s.friendNames(), ", ") + "]")
		case "2":
			if err := addFriend(s, reg); err != nil {
				return err
			}
		case "3":
			if err := privateChat(s, reg); err != nil {
				return err
			}
		case "4":
			return nil
		default:
			s.send("Invalid option.")
		}
	}
}

func addFriend(s *Session, reg *Registry) error {
	s.send("Enter username to add:")
	friendName, err := s.readLine()
	if err != nil {
		return err
	}

	if !reg.IsOnline(friendName) || friendName == s.username {
		s.send("User not found.")
		return nil
	}
	if err := s.addFriend(friendName); err != nil {
		s.send(friendName + " is already in your friend list.")
		return nil
	}
	s.send(friendName + " has been added to your friend list.")
	return nil
}

// privateChat links both sessions' private targets and forwards lines
// until /back or the partner becomes unreachable. The target is
// re-resolved by username on every line, so a teardown on the other side
// stops routing on the very next message.
func privateChat(s *Session, reg *Registry) error {
	s.send("Enter a user username:")
	target, err := s.readLine()
	if err != nil {
		return err
	}

	if !s.isFriend(target) {
		s.send("User is not in your friend list.")
		return nil
	}
	partner, ok := reg.LookupSession(target)
	if !ok {
		s.send("User is offline.")
		return nil
	}

	s.send("Start messaging " + target + " (type /back to stop):")
	linkPrivate(s, partner)

	for {
		msg, err := s.readLine()
		if err != nil {
			return err
		}
		if strings.EqualFold(msg, backToken) {
			if p, ok := reg.LookupSession(s.privateTargetName()); ok {
				unlinkPrivate(s, p)
			} else {
				s.clearPrivateTarget()
			}
			return nil
		}

		name := s.privateTargetName()
		p, ok := reg.LookupSession(name)
		if name == "" || !ok {
			s.send("Friend is no longer online.")
			s.clearPrivateTarget()
			return nil
		}
		p.deliver("[" + s.username + "]: " + msg)
		MessagesTotal.WithLabelValues("private").Inc()
	}
}

// roomLoop forwards every line to the room until /exit or disconnect.
func roomLoop(s *Session) {
	for {
		msg, err := s.readLine()
		if err != nil {
			return
		}
		if strings.EqualFold(msg, exitToken) {
			return
		}
		if r := s.room; r != nil {
			r.broadcast(msg, s)
		}
	}
}
