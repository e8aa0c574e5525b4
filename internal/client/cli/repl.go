package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	isUnlocked() bool
	Login(ctx context.Context) error
	Unlock(ctx context.Context) error
	Chats(ctx context.Context) error
	Open(ctx context.Context, arg string) error
	Show(ctx context.Context) error
	Send(ctx context.Context, text string) error
	Older(ctx context.Context) error
	Delete(ctx context.Context, messageID string) error
	Lock(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the ChatKeeper CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help             — show available commands
//	  - login            — authenticate
//	  - exit | quit      — leave the program
//
//	Logged in (locked):
//	  - unlock           — open the private key with the password
//	  - logout           — log out
//
//	Unlocked:
//	  - chats            — list conversations
//	  - open <n|id>      — switch to a conversation
//	  - show             — re-render the open conversation
//	  - send <text>      — send a message
//	  - older            — load earlier messages
//	  - delete <id>      — remove a message
//	  - lock             — drop the unlocked key, keep the session
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("ck> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			switch {
			case !a.isLoggedIn():
				printlnFn("Available commands: login, exit")
			case !a.isUnlocked():
				printlnFn("Available commands: unlock, logout, exit")
			default:
				printlnFn("Available commands: (c)hats, open <n|id>, show, send <text>, older, delete <id>, lock, logout, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "unlock":
			_ = a.Unlock(ctx)

		case "c", "chats":
			_ = a.Chats(ctx)

		case "open":
			if len(args) == 0 {
				printlnFn("Usage: open <n|id>")
				continue
			}
			_ = a.Open(ctx, args[0])

		case "show":
			_ = a.Show(ctx)

		case "send":
			if len(args) == 0 {
				printlnFn("Usage: send <text>")
				continue
			}
			_ = a.Send(ctx, strings.Join(args, " "))

		case "older":
			_ = a.Older(ctx)

		case "delete":
			if len(args) == 0 {
				printlnFn("Usage: delete <id>")
				continue
			}
			_ = a.Delete(ctx, args[0])

		case "lock":
			_ = a.Lock(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
