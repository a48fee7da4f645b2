// Console client: a thin terminal loop with no state beyond "are we
// logged in yet". Prompt lines are detected by substring, answers come
// from stdin, and after login a reader goroutine prints whatever the
// server sends while the main loop forwards typed lines.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
)

func main() {
	addr := flag.String("addr", "localhost:12345", "chat server address")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to connect:", err)
		os.Exit(1)
	}
	defer conn.Close()
	fmt.Println("Connected to chat server.")

	stdin := bufio.NewScanner(os.Stdin)
	server := bufio.NewReader(conn)

	if !login(conn, server, stdin) {
		return
	}

	// Reader goroutine: print every server line until the connection dies.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			line, err := server.ReadString('\n')
			if err != nil {
				fmt.Println("Connection closed by server.")
				return
			}
			fmt.Print(line)
		}
	}()

	for stdin.Scan() {
		msg := stdin.Text()
		if strings.EqualFold(msg, "/exit") {
			fmt.Println("Closing connection...")
			fmt.Fprintln(conn, msg)
			break
		}
		if _, err := fmt.Fprintln(conn, msg); err != nil {
			break
		}
	}

	conn.Close()
	<-done
	fmt.Println("Client shut down.")
}

// login mirrors the server's line-for-line auth conversation. It returns
// true once a line containing "successful" arrives, false on "connection
// closing" or a dead connection.
func login(conn net.Conn, server *bufio.Reader, stdin *bufio.Scanner) bool {
	for {
		line, err := server.ReadString('\n')
		if err != nil {
			fmt.Println("Server disconnected during login.")
			return false
		}
		line = strings.TrimRight(line, "\r\n")
		lower := strings.ToLower(line)

		if strings.Contains(lower, "username") || strings.Contains(lower, "password") {
			fmt.Println()
			fmt.Print(line + " ")
			if !stdin.Scan() {
				return false
			}
			fmt.Fprintln(conn, stdin.Text())
			continue
		}

		fmt.Println(line)
		if strings.Contains(lower, "successful") {
			return true
		}
		if strings.Contains(lower, "connection closing") {
			return false
		}
	}
}
