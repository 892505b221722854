package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/zkvault/internal/client/clipboardx"
	"github.com/dmitrijs2005/zkvault/internal/client/models"
	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/cryptox"
)

const masked = "********"

// copyFn is a test seam over the clipboard.
var copyFn = clipboardx.CopyTemporarily

// List prints one line per item. With a tag argument only items carrying
// that tag are shown.
func (a *App) List(ctx context.Context, args []string) error {
	entries, err := a.vault.List(ctx)
	if err != nil {
		return err
	}

	shown := 0
	for _, e := range entries {
		if len(args) > 0 && !hasTag(e.Tags, args[0]) {
			continue
		}
		printlnFn(formatLine(e))
		shown++
	}
	if shown == 0 {
		printlnFn("No items.")
	}
	return nil
}

// Show prints every field of an item. The password is masked unless -r is
// given.
func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage("show <id> [-r]")
	}
	reveal := len(args) > 1 && args[1] == "-r"

	e, err := a.vault.Get(ctx, args[0])
	if err != nil {
		return err
	}

	printlnFn("ID:      ", e.ID)
	if e.Undecryptable {
		printlnFn("Title:   ", orPlaceholder(e.ClearTitle))
		printlnFn(common.UndecryptablePlaceholder)
		return nil
	}
	for _, f := range models.Fields {
		v := e.Record[f]
		if f == models.FieldPassword && v != "" && !reveal {
			v = masked
		}
		printlnFn(fmt.Sprintf("%-9s", capitalize(f)+":"), v)
	}
	if len(e.Tags) > 0 {
		printlnFn("Tags:    ", strings.Join(e.Tags, ", "))
	}
	printlnFn("Updated: ", e.UpdatedAt.Local().Format("2006-01-02 15:04"))
	return nil
}

func (a *App) Add(ctx context.Context) error {
	rec, tags, err := a.promptRecord(nil, nil)
	if err != nil {
		return err
	}
	id, err := a.vault.Add(ctx, rec, tags)
	if err != nil {
		return err
	}
	printlnFn("Added", id)
	return nil
}

// Edit prompts for every field with the current value as default.
func (a *App) Edit(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage("edit <id>")
	}
	e, err := a.vault.Get(ctx, args[0])
	if err != nil {
		return err
	}
	if e.Undecryptable {
		return common.ErrAuthenticationFailure
	}

	rec, tags, err := a.promptRecord(e.Record, e.Tags)
	if err != nil {
		return err
	}
	if err := a.vault.Edit(ctx, e.ID, rec, tags); err != nil {
		return err
	}
	printlnFn("Updated", e.ID)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage("delete <id>")
	}
	answer, err := getSimpleText(a.reader, fmt.Sprintf("Delete %s? (y/N)", args[0]), a.out)
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
		printlnFn("Cancelled.")
		return nil
	}
	if err := a.vault.Delete(ctx, args[0]); err != nil {
		return err
	}
	printlnFn("Deleted", args[0])
	return nil
}

func (a *App) Duplicate(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage("duplicate <id>")
	}
	id, err := a.vault.Duplicate(ctx, args[0])
	if err != nil {
		return err
	}
	printlnFn("Added", id)
	return nil
}

// Copy puts one field, the password by default, on the clipboard and clears
// it again after the configured delay.
func (a *App) Copy(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage("copy <id> [field]")
	}
	field := models.FieldPassword
	if len(args) > 1 {
		field = strings.ToLower(args[1])
	}
	if !isField(field) {
		return fmt.Errorf("%w: unknown field %q", common.ErrValidation, field)
	}

	e, err := a.vault.Get(ctx, args[0])
	if err != nil {
		return err
	}
	if e.Undecryptable {
		return common.ErrAuthenticationFailure
	}
	v := e.Record[field]
	if v == "" {
		return fmt.Errorf("%w: %s is empty", common.ErrValidation, field)
	}

	d := a.clipboardClear()
	if d == 0 {
		d = clipboardx.DefaultClearAfter
	}
	done, err := copyFn(a.clipContext(), v, d)
	if err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	a.clips = append(a.clips, done)
	printlnFn(fmt.Sprintf("Copied %s to clipboard, clearing in %s.", field, d))
	return nil
}

// promptRecord asks for each field. cur, when set, supplies defaults.
func (a *App) promptRecord(cur cryptox.Record, curTags []string) (cryptox.Record, []string, error) {
	rec := cryptox.Record{}
	for _, f := range models.Fields {
		var (
			v   string
			err error
		)
		switch f {
		case models.FieldPassword:
			v, err = a.promptPassword(cur[f])
		case models.FieldNotes:
			if cur[f] != "" {
				v, err = GetDefaultText(a.reader, "Notes", cur[f], a.out)
			} else {
				v, err = GetMultiline(a.reader, "Notes", a.out)
			}
		default:
			v, err = GetDefaultText(a.reader, capitalize(f), cur[f], a.out)
		}
		if err != nil {
			return nil, nil, err
		}
		if v != "" {
			rec[f] = v
		}
	}

	tags, err := GetDefaultText(a.reader, "Tags (comma separated)", strings.Join(curTags, ", "), a.out)
	if err != nil {
		return nil, nil, err
	}
	return rec, ParseTags(tags), nil
}

// promptPassword reads a password without echo. An empty answer keeps cur.
func (a *App) promptPassword(cur string) (string, error) {
	prompt := "Password (empty to generate)"
	if cur != "" {
		prompt = "Password (empty to keep)"
	}
	v, err := a.readSecret(prompt)
	if err != nil || v != "" {
		return v, err
	}
	if cur != "" {
		return cur, nil
	}
	return generatePassword(0)
}

func formatLine(e *models.Entry) string {
	title := orPlaceholder(e.Title())
	if e.Undecryptable {
		title = fmt.Sprintf("%s %s", common.UndecryptablePlaceholder, e.ClearTitle)
		title = strings.TrimSpace(title)
	}
	line := fmt.Sprintf("%s  %s", e.ID, title)
	if e.Record != nil && e.Record[models.FieldUsername] != "" {
		line += "  (" + e.Record[models.FieldUsername] + ")"
	}
	if len(e.Tags) > 0 {
		line += "  [" + strings.Join(e.Tags, ", ") + "]"
	}
	return line
}

func orPlaceholder(s string) string {
	if s == "" {
		return "(untitled)"
	}
	return s
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func isField(f string) bool {
	for _, v := range models.Fields {
		if v == f {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	if s == "url" {
		return "URL"
	}
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
