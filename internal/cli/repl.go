package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/safecheck/internal/engine"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL drives. *App implements it;
// tests use a stub.
type execIface interface {
	phase() engine.Phase
	Start(ctx context.Context) error
	Identity(ctx context.Context) error
	Contacts(ctx context.Context) error
	Import(ctx context.Context, path string) error
	Template(ctx context.Context, path string) error
	Period(ctx context.Context) error
	CheckIn(ctx context.Context) error
	Dismiss(ctx context.Context) error
	Status(ctx context.Context) error
	Settings(ctx context.Context) error
	Reset(ctx context.Context) error
}

func helpFor(p engine.Phase) string {
	switch p {
	case engine.Welcome:
		return "Available commands: start, status, exit"
	case engine.CollectingIdentity:
		return "Available commands: identity, status, reset, exit"
	case engine.CollectingContacts, engine.CollectingPeriod:
		return "Available commands: contacts, import <file>, period, identity, status, reset, exit"
	case engine.AlertFired:
		return "Available commands: dismiss, checkin, status, settings, reset, exit"
	default:
		return "Available commands: checkin, status, settings, import <file>, reset, exit"
	}
}

// runREPL reads commands line by line from reader and dispatches them to a.
// The prompt comes from statusFn. The loop ends on EOF, "exit" or "quit".
//
// Handler errors are reported to the user and the loop carries on; no
// command can end the session except exit.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help", "?":
			printlnFn(helpFor(a.phase()))
		case "start":
			cmdErr = a.Start(ctx)
		case "identity":
			cmdErr = a.Identity(ctx)
		case "contacts":
			cmdErr = a.Contacts(ctx)
		case "import":
			if len(args) == 0 || (args[0] == "--template" && len(args) == 1) {
				printlnFn("Usage: import <file.csv|file.xlsx> | import --template <file.xlsx>")
				continue
			}
			if args[0] == "--template" {
				cmdErr = a.Template(ctx, strings.Join(args[1:], " "))
				break
			}
			cmdErr = a.Import(ctx, strings.Join(args, " "))
		case "period":
			cmdErr = a.Period(ctx)
		case "checkin", "c":
			cmdErr = a.CheckIn(ctx)
		case "dismiss":
			cmdErr = a.Dismiss(ctx)
		case "status", "s":
			cmdErr = a.Status(ctx)
		case "settings":
			cmdErr = a.Settings(ctx)
		case "reset":
			cmdErr = a.Reset(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", describe(cmdErr))
		}
	}
}
