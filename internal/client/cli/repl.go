package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/zkvault/internal/client/keychain"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface runREPL dispatches to. App satisfies it;
// tests use a stub.
type execIface interface {
	state() keychain.State
	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Unlock(ctx context.Context) error
	Lock(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Add(ctx context.Context) error
	Edit(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Duplicate(ctx context.Context, args []string) error
	Copy(ctx context.Context, args []string) error
	Generate(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
	Import(ctx context.Context, args []string) error
	Backup(ctx context.Context, args []string) error
	TwoFactor(ctx context.Context, args []string) error
}

type command struct {
	run    func(context.Context, execIface, []string) error
	usage  string
	states []keychain.State
}

var (
	loggedOut = []keychain.State{keychain.StateLoggedOut}
	signedIn  = []keychain.State{keychain.StateLocked, keychain.StateUnlocked}
	unlocked  = []keychain.State{keychain.StateUnlocked}
	anyState  = []keychain.State{keychain.StateLoggedOut, keychain.StateLocked, keychain.StateUnlocked}
)

var commands = map[string]command{
	"signup":    {func(ctx context.Context, a execIface, _ []string) error { return a.Signup(ctx) }, "signup", loggedOut},
	"login":     {func(ctx context.Context, a execIface, _ []string) error { return a.Login(ctx) }, "login", loggedOut},
	"unlock":    {func(ctx context.Context, a execIface, _ []string) error { return a.Unlock(ctx) }, "unlock", []keychain.State{keychain.StateLocked}},
	"lock":      {func(ctx context.Context, a execIface, _ []string) error { return a.Lock(ctx) }, "lock", unlocked},
	"logout":    {func(ctx context.Context, a execIface, _ []string) error { return a.Logout(ctx) }, "logout", signedIn},
	"list":      {func(ctx context.Context, a execIface, args []string) error { return a.List(ctx, args) }, "list [tag]", unlocked},
	"show":      {func(ctx context.Context, a execIface, args []string) error { return a.Show(ctx, args) }, "show <id> [-r]", unlocked},
	"add":       {func(ctx context.Context, a execIface, _ []string) error { return a.Add(ctx) }, "add", unlocked},
	"edit":      {func(ctx context.Context, a execIface, args []string) error { return a.Edit(ctx, args) }, "edit <id>", unlocked},
	"delete":    {func(ctx context.Context, a execIface, args []string) error { return a.Delete(ctx, args) }, "delete <id>", unlocked},
	"duplicate": {func(ctx context.Context, a execIface, args []string) error { return a.Duplicate(ctx, args) }, "duplicate <id>", unlocked},
	"copy":      {func(ctx context.Context, a execIface, args []string) error { return a.Copy(ctx, args) }, "copy <id> [field]", unlocked},
	"generate":  {func(ctx context.Context, a execIface, args []string) error { return a.Generate(ctx, args) }, "generate [length]", anyState},
	"export":    {func(ctx context.Context, a execIface, args []string) error { return a.Export(ctx, args) }, "export <file>", signedIn},
	"import":    {func(ctx context.Context, a execIface, args []string) error { return a.Import(ctx, args) }, "import <file>", signedIn},
	"backup":    {func(ctx context.Context, a execIface, args []string) error { return a.Backup(ctx, args) }, "backup [file]", signedIn},
	"2fa":       {func(ctx context.Context, a execIface, args []string) error { return a.TwoFactor(ctx, args) }, "2fa status|setup [qr.png]|verify|disable", signedIn},
}

// helpOrder is the order commands are listed in by help.
var helpOrder = []string{
	"signup", "login", "unlock", "lock", "logout",
	"list", "show", "add", "edit", "delete", "duplicate", "copy", "generate",
	"export", "import", "backup", "2fa",
}

func (c command) allowed(st keychain.State) bool {
	for _, s := range c.states {
		if s == st {
			return true
		}
	}
	return false
}

// runREPL reads a line at a time from r, dispatches the first word as a
// command and prints command errors. It returns on EOF, "exit" or "quit",
// or when ctx is done.
func runREPL(ctx context.Context, a execIface, statusFn func() string, r *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}

		printlnFn(fmt.Sprintf("zk %s> ", statusFn()))
		line, err := r.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		name, args := parts[0], parts[1:]

		switch name {
		case "help":
			printHelp(a.state())
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		c, ok := commands[name]
		if !ok {
			printlnFn("Unknown command:", name)
			continue
		}
		if !c.allowed(a.state()) {
			printlnFn(unavailable(c, a.state()))
			continue
		}
		if err := c.run(ctx, a, args); err != nil {
			printlnFn("Error:", describe(err))
		}
	}
}

func printHelp(st keychain.State) {
	var names []string
	for _, n := range helpOrder {
		if commands[n].allowed(st) {
			names = append(names, commands[n].usage)
		}
	}
	names = append(names, "help", "exit")
	printlnFn("Available commands:\n  " + strings.Join(names, "\n  "))
}

func unavailable(c command, st keychain.State) string {
	switch {
	case st == keychain.StateLoggedOut:
		return "Not logged in. Use 'login' or 'signup'."
	case st == keychain.StateLocked && c.allowed(keychain.StateUnlocked):
		return "Vault is locked. Use 'unlock'."
	case c.allowed(keychain.StateLoggedOut):
		return "Already logged in. Use 'logout' first."
	}
	return "Command not available."
}

// errUsage is returned by commands called with missing arguments.
type errUsage string

func (e errUsage) Error() string { return "usage: " + string(e) }
