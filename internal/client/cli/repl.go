package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
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
	Journal(ctx context.Context, args []string) error
	Selfie(ctx context.Context, args []string) error
	Rating(ctx context.Context, args []string) error
}

// runREPL reads a command per line from reader and dispatches it to a.
// The loop exits on EOF or when the user types "exit" or "quit".
//
//	Not logged in:
//	  - help           show available commands
//	  - register       create an account
//	  - login          authenticate
//	  - exit | quit    leave the program
//
//	Logged in:
//	  - journal <sub>  list, today, search, new, show, prev, next, edit, predict, correct, delete
//	  - selfie <sub>   list, today, new, show, prev, next, edit, predict, correct, delete
//	  - rating <sub>   list, today, new, show, prev, next, edit, delete
//	  - whoami         account and capability flag
//	  - logout         log out
//
// Errors returned by command handlers are ignored here; handlers print and
// log their own.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("mk %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: journal, selfie, rating, whoami, logout, exit")
				printlnFn("Try 'journal help' for the subcommands of a record type")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.Whoami(ctx)

		case "journal", "j":
			if !a.isLoggedIn() {
				printlnFn("Please log in first")
				continue
			}
			_ = a.Journal(ctx, args)

		case "selfie", "s":
			if !a.isLoggedIn() {
				printlnFn("Please log in first")
				continue
			}
			_ = a.Selfie(ctx, args)

		case "rating", "r":
			if !a.isLoggedIn() {
				printlnFn("Please log in first")
				continue
			}
			_ = a.Rating(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func (a *App) getStatus() string {
	s := ""
	if a.user != nil {
		s = a.user.Username + " "
	}
	if m := a.mode(); m != "" {
		s = s + string(m)
	}
	s = strings.TrimSpace(s)
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root restores a saved login if there is one, starts the connectivity
// watcher and runs the REPL.
func (a *App) Root(ctx context.Context) {
	a.printf("Welcome to moodkeeper (type 'help' for commands)\n")

	if err := a.Restore(ctx); err != nil {
		a.logger.Warn(ctx, "saved login not restored", "error", err)
	}

	a.checkOnline(ctx)
	watcher := a.StartOnlineStatusWatcher(ctx, a.config.PingInterval)
	defer watcher.Stop()

	runREPL(ctx, a, a.getStatus, a.reader)
}
