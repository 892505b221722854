// Package cli implements the interactive vault client.
//
// The REPL shows the account and keychain state in its prompt and only
// offers commands that make sense in that state: signup and login while
// logged out, unlock while locked, and the item commands once unlocked.
// Secrets are typed without echo through golang.org/x/term.
package cli
