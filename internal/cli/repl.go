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
	AddFile(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context) error
	Download(ctx context.Context) error
	Open(ctx context.Context) error
	Delete(ctx context.Context) error
	Share(ctx context.Context) error
	Revoke(ctx context.Context) error
	Shares(ctx context.Context) error
	Sign(ctx context.Context) error
	Verify(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the sealbox CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers print
// their own errors. This keeps the loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("sealbox> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		// commands that touch the key session need one open
		switch cmd {
		case "add", "l", "list", "show", "download", "open", "delete",
			"share", "revoke", "shares", "sign", "verify", "logout":
			if !a.isLoggedIn() {
				printlnFn("Please log in first")
				continue
			}
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: add, (l)ist, show, download, open, delete, share, revoke, shares, sign, verify, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "add":
			_ = a.AddFile(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "show":
			_ = a.Show(ctx)

		case "download":
			_ = a.Download(ctx)

		case "open":
			_ = a.Open(ctx)

		case "delete":
			_ = a.Delete(ctx)

		case "share":
			_ = a.Share(ctx)

		case "revoke":
			_ = a.Revoke(ctx)

		case "shares":
			_ = a.Shares(ctx)

		case "sign":
			_ = a.Sign(ctx)

		case "verify":
			_ = a.Verify(ctx)

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
