package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isUnlocked() bool
	Setup(ctx context.Context) error
	Unlock(ctx context.Context) error
	Lock(ctx context.Context) error
	Start(ctx context.Context, args []string) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Toggle(ctx context.Context) error
	Stop(ctx context.Context) error
	Status(ctx context.Context) error
	SetMode(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Vacation(ctx context.Context, args []string) error
	Passkey(ctx context.Context, args []string) error
	Recovery(ctx context.Context, args []string) error
	Export(ctx context.Context) error
}

var errUnknownCommand = errors.New("unknown command")

const (
	helpLocked   = "Available commands: unlock, setup, passkey unlock, recovery status|reset, exit"
	helpUnlocked = "Available commands: start [mode], pause, resume, (p)toggle, mode <mode>, stop, (s)tatus, (l)ist [work|vacation], " +
		"delete <id>, vacation add|list|delete, passkey register|backup|list|remove, recovery status|regenerate, export, lock, exit"
)

// runREPL starts a simple read–eval–print loop for the VibedTracker CLI.
//
// It reads a line from reader, parses the first token as the command and
// dispatches to methods on 'a' with the remaining tokens as arguments.
// Errors returned by handlers are printed and the loop continues. The loop
// exits on EOF or when the user types "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("vt %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		if quit := dispatch(ctx, a, parts[0], parts[1:]); quit {
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// dispatch runs one command and reports whether the REPL should exit.
func dispatch(ctx context.Context, a execIface, cmd string, args []string) bool {
	var err error

	switch cmd {
	case "help":
		if a.isUnlocked() {
			printlnFn(helpUnlocked)
		} else {
			printlnFn(helpLocked)
		}

	case "setup":
		err = a.Setup(ctx)
	case "unlock":
		err = a.Unlock(ctx)
	case "lock":
		err = a.Lock(ctx)

	case "start":
		err = a.Start(ctx, args)
	case "pause":
		err = a.Pause(ctx)
	case "resume":
		err = a.Resume(ctx)
	case "p", "toggle":
		err = a.Toggle(ctx)
	case "mode":
		err = a.SetMode(ctx, args)
	case "stop":
		err = a.Stop(ctx)
	case "s", "status":
		err = a.Status(ctx)

	case "l", "list":
		err = a.List(ctx, args)
	case "delete":
		err = a.Delete(ctx, args)
	case "vacation":
		err = a.Vacation(ctx, args)
	case "passkey":
		err = a.Passkey(ctx, args)
	case "recovery":
		err = a.Recovery(ctx, args)
	case "export":
		err = a.Export(ctx)

	case "exit", "quit":
		printlnFn("Bye!")
		return true

	default:
		err = fmt.Errorf("%w: %s", errUnknownCommand, cmd)
	}

	if err != nil {
		failure(err)
	}
	return false
}
