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
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Ranks(ctx context.Context) error
	Actions(ctx context.Context) error
	Act(ctx context.Context, key string) error
	Avatar(ctx context.Context, path string) error
	Wallet(ctx context.Context) error
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
}

// runREPL reads a line from scanner, parses the first token as the command
// and dispatches to a. Unknown commands are reported back to the user. The
// loop exits on scanner EOF or when the user types "exit" or "quit".
//
// Handlers report their own errors to the user; the loop ignores them.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("forum %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, ranks, actions, act <key>, avatar <file>, wallet, connect, disconnect, logout, exit")
			} else {
				printlnFn("Available commands: register, login, ranks, actions, wallet, connect, disconnect, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami", "me":
			_ = a.Whoami(ctx)

		case "ranks":
			_ = a.Ranks(ctx)

		case "actions":
			_ = a.Actions(ctx)

		case "act":
			if len(args) != 1 {
				printlnFn("Usage: act <action key>")
				continue
			}
			_ = a.Act(ctx, args[0])

		case "avatar":
			if len(args) != 1 {
				printlnFn("Usage: avatar <image file>")
				continue
			}
			_ = a.Avatar(ctx, args[0])

		case "wallet":
			_ = a.Wallet(ctx)

		case "connect":
			_ = a.Connect(ctx)

		case "disconnect":
			_ = a.Disconnect(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
