package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/client/client"
	"github.com/dmitrijs2005/zkvault/internal/client/config"
	"github.com/dmitrijs2005/zkvault/internal/client/keychain"
	"github.com/dmitrijs2005/zkvault/internal/client/models"
	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/cryptox"
	"github.com/dmitrijs2005/zkvault/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	st    keychain.State
	email string

	logins   [][3]string
	loginErr []error
	signups  [][2]string
	unlockPw string
	unlockEr error
	pingErr  error
}

func (f *fakeAuth) State() keychain.State { return f.st }
func (f *fakeAuth) Email() string { return f.email }
func (f *fakeAuth) Restore(context.Context) error { return nil }
func (f *fakeAuth) Signup(_ context.Context, e, p string) error {
	f.signups = append(f.signups, [2]string{e, p})
	f.st, f.email = keychain.StateUnlocked, e
	return nil
}
func (f *fakeAuth) Login(_ context.Context, e, p, code string) error {
	f.logins = append(f.logins, [3]string{e, p, code})
	if len(f.loginErr) > 0 {
		err := f.loginErr[0]
		f.loginErr = f.loginErr[1:]
		if err != nil {
			return err
		}
	}
	f.st, f.email = keychain.StateUnlocked, e
	return nil
}
func (f *fakeAuth) Unlock(_ context.Context, p string) error {
	f.unlockPw = p
	if f.unlockEr != nil {
		return f.unlockEr
	}
	f.st = keychain.StateUnlocked
	return nil
}
func (f *fakeAuth) Lock() { f.st = keychain.StateLocked }
func (f *fakeAuth) Ping(context.Context) error { return f.pingErr }
func (f *fakeAuth) Logout(context.Context) error {
	f.st, f.email = keychain.StateLoggedOut, ""
	return nil
}

type fakeVault struct {
	entries map[string]*models.Entry
	order   []string

	added   []cryptox.Record
	addTags [][]string
	edited  map[string]cryptox.Record
	deleted []string
}

func newFakeVault(entries ...*models.Entry) *fakeVault {
	v := &fakeVault{entries: map[string]*models.Entry{}, edited: map[string]cryptox.Record{}}
	for _, e := range entries {
		v.entries[e.ID] = e
		v.order = append(v.order, e.ID)
	}
	return v
}

func (f *fakeVault) List(context.Context) ([]*models.Entry, error) {
	out := make([]*models.Entry, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.entries[id])
	}
	return out, nil
}
func (f *fakeVault) Get(_ context.Context, id string) (*models.Entry, error) {
	e, ok := f.entries[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return e, nil
}
func (f *fakeVault) Add(_ context.Context, rec cryptox.Record, tags []string) (string, error) {
	f.added = append(f.added, rec)
	f.addTags = append(f.addTags, tags)
	return "new-id", nil
}
func (f *fakeVault) Edit(_ context.Context, id string, rec cryptox.Record, _ []string) error {
	f.edited[id] = rec
	return nil
}
func (f *fakeVault) Duplicate(_ context.Context, id string) (string, error) {
	if _, ok := f.entries[id]; !ok {
		return "", common.ErrorNotFound
	}
	return id + "-copy", nil
}
func (f *fakeVault) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}
func (f *fakeVault) ExportTo(context.Context, string) (int, error) { return len(f.order), nil }
func (f *fakeVault) ImportFrom(context.Context, string) (int, error) { return 3, nil }
func (f *fakeVault) Backup(_ context.Context, path string) (*client.Backup, error) {
	return &client.Backup{Key: "backups/k.json", URL: "https://s3/x"}, nil
}

type fakeTwoFactor struct {
	enabled  bool
	verified string
	qrPath   string
}

func (f *fakeTwoFactor) Status(context.Context) (bool, error) { return f.enabled, nil }
func (f *fakeTwoFactor) Setup(_ context.Context, qr string) (*client.Enrollment, error) {
	f.qrPath = qr
	return &client.Enrollment{Secret: "JBSWY3DPEHPK3PXP", Otpauth: "otpauth://totp/x"}, nil
}
func (f *fakeTwoFactor) Verify(_ context.Context, code string) error {
	f.verified = code
	f.enabled = true
	return nil
}
func (f *fakeTwoFactor) Disable(context.Context) error {
	f.enabled = false
	return nil
}

// stubPasswords makes getPassword return pws in order.
func stubPasswords(t *testing.T, pws ...string) {
	t.Helper()
	orig := getPassword
	getPassword = func(io.Writer, string) ([]byte, error) {
		if len(pws) == 0 {
			return nil, io.EOF
		}
		p := pws[0]
		pws = pws[1:]
		return []byte(p), nil
	}
	t.Cleanup(func() { getPassword = orig })
}

func newTestApp(input string, auth *fakeAuth, vault *fakeVault) *App {
	if auth == nil {
		auth = &fakeAuth{st: keychain.StateUnlocked, email: "a@b.com"}
	}
	if vault == nil {
		vault = newFakeVault()
	}
	return &App{
		config:    &config.Config{ClipboardClear: time.Minute},
		log:       logging.Nop(),
		auth:      auth,
		vault:     vault,
		twoFactor: &fakeTwoFactor{},
		reader:    rdr(input),
		out:       &bytes.Buffer{},
	}
}

func sampleEntry() *models.Entry {
	return &models.Entry{
		ID: "id-1",
		Record: cryptox.Record{
			models.FieldTitle:    "GitHub",
			models.FieldUsername: "octo",
			models.FieldPassword: "hunter2",
		},
		Tags:      []string{"dev"},
		UpdatedAt: time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
	}
}

func TestSignup_PasswordsMustMatch(t *testing.T) {
	capturePrint(t)
	auth := &fakeAuth{st: keychain.StateLoggedOut}

	stubPasswords(t, "password1", "password2")
	a := newTestApp("a@b.com\n", auth, nil)
	assert.ErrorIs(t, a.Signup(context.Background()), common.ErrValidation)
	assert.Empty(t, auth.signups)

	stubPasswords(t, "password1", "password1")
	a = newTestApp("a@b.com\n", auth, nil)
	require.NoError(t, a.Signup(context.Background()))
	assert.Equal(t, [][2]string{{"a@b.com", "password1"}}, auth.signups)
}

func TestLogin_AsksForTotpWhenRequired(t *testing.T) {
	capturePrint(t)
	auth := &fakeAuth{st: keychain.StateLoggedOut, loginErr: []error{common.ErrTotpRequired, nil}}
	stubPasswords(t, "password1")

	a := newTestApp("a@b.com\n123456\n", auth, nil)
	require.NoError(t, a.Login(context.Background()))

	require.Len(t, auth.logins, 2)
	assert.Equal(t, [3]string{"a@b.com", "password1", ""}, auth.logins[0])
	assert.Equal(t, [3]string{"a@b.com", "password1", "123456"}, auth.logins[1])
	assert.Equal(t, keychain.StateUnlocked, auth.st)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	capturePrint(t)
	auth := &fakeAuth{st: keychain.StateLoggedOut, loginErr: []error{common.ErrInvalidCredentials}}
	stubPasswords(t, "bad")

	a := newTestApp("a@b.com\n", auth, nil)
	assert.ErrorIs(t, a.Login(context.Background()), common.ErrInvalidCredentials)
	assert.Len(t, auth.logins, 1)
}

func TestUnlockLock(t *testing.T) {
	capturePrint(t)
	auth := &fakeAuth{st: keychain.StateLocked, email: "a@b.com"}
	stubPasswords(t, "password1")

	a := newTestApp("", auth, nil)
	assert.Equal(t, "(a@b.com locked)", a.status())

	require.NoError(t, a.Unlock(context.Background()))
	assert.Equal(t, "password1", auth.unlockPw)
	assert.Equal(t, "(a@b.com unlocked)", a.status())

	require.NoError(t, a.Lock(context.Background()))
	assert.Equal(t, keychain.StateLocked, auth.st)

	require.NoError(t, a.Logout(context.Background()))
	assert.Equal(t, "(logged out)", a.status())
}

func TestRun_WarnsWhenServerUnreachableAndLocked(t *testing.T) {
	out := capturePrint(t)
	auth := &fakeAuth{st: keychain.StateLocked, email: "a@b.com", pingErr: client.ErrUnavailable}

	a := newTestApp("exit\n", auth, nil)
	a.Run(context.Background())

	joined := strings.Join(*out, "\n")
	assert.Contains(t, joined, "Server unavailable, only local commands will work.")
	assert.Contains(t, joined, "Vault is locked. Use 'unlock'.")
	assert.Contains(t, joined, "Bye!")
}

func TestList_ShowsPlaceholderAndFiltersByTag(t *testing.T) {
	out := capturePrint(t)
	bad := &models.Entry{ID: "id-2", Undecryptable: true, ClearTitle: "Bank"}
	a := newTestApp("", nil, newFakeVault(sampleEntry(), bad))

	require.NoError(t, a.List(context.Background(), nil))
	require.Len(t, *out, 2)
	assert.Equal(t, "id-1  GitHub  (octo)  [dev]", (*out)[0])
	assert.Equal(t, "id-2  "+common.UndecryptablePlaceholder+" Bank", (*out)[1])

	*out = nil
	require.NoError(t, a.List(context.Background(), []string{"DEV"}))
	assert.Equal(t, []string{"id-1  GitHub  (octo)  [dev]"}, *out)

	*out = nil
	require.NoError(t, a.List(context.Background(), []string{"none"}))
	assert.Equal(t, []string{"No items."}, *out)
}

func TestShow_MasksPasswordUnlessRevealed(t *testing.T) {
	out := capturePrint(t)
	a := newTestApp("", nil, newFakeVault(sampleEntry()))

	require.NoError(t, a.Show(context.Background(), []string{"id-1"}))
	joined := strings.Join(*out, "\n")
	assert.Contains(t, joined, masked)
	assert.NotContains(t, joined, "hunter2")

	*out = nil
	require.NoError(t, a.Show(context.Background(), []string{"id-1", "-r"}))
	assert.Contains(t, strings.Join(*out, "\n"), "hunter2")

	assert.ErrorIs(t, a.Show(context.Background(), []string{"missing"}), common.ErrorNotFound)
	var u errUsage
	assert.ErrorAs(t, a.Show(context.Background(), nil), &u)
}

func TestAdd_PromptsEveryField(t *testing.T) {
	capturePrint(t)
	stubPasswords(t, "pw-typed")
	vault := newFakeVault()
	a := newTestApp(strings.Join([]string{
		"Mail",
		"me",
		"https://mail.example",
		"line one",
		"line two",
		"",
		"work, personal",
	}, "\n")+"\n", nil, vault)

	require.NoError(t, a.Add(context.Background()))
	require.Len(t, vault.added, 1)
	assert.Equal(t, cryptox.Record{
		models.FieldTitle:    "Mail",
		models.FieldUsername: "me",
		models.FieldPassword: "pw-typed",
		models.FieldURL:      "https://mail.example",
		models.FieldNotes:    "line one\nline two",
	}, vault.added[0])
	assert.Equal(t, []string{"work", "personal"}, vault.addTags[0])
}

func TestAdd_EmptyPasswordIsGenerated(t *testing.T) {
	capturePrint(t)
	stubPasswords(t, "")
	vault := newFakeVault()
	a := newTestApp("T\n\n\n\n\n", nil, vault)

	require.NoError(t, a.Add(context.Background()))
	require.Len(t, vault.added, 1)
	assert.Len(t, vault.added[0][models.FieldPassword], 16)
	assert.NotContains(t, vault.added[0], models.FieldUsername)
}

func TestEdit_KeepsDefaults(t *testing.T) {
	capturePrint(t)
	stubPasswords(t, "")
	vault := newFakeVault(sampleEntry())
	a := newTestApp("\n-\n\n\n\n", nil, vault)

	require.NoError(t, a.Edit(context.Background(), []string{"id-1"}))
	assert.Equal(t, cryptox.Record{
		models.FieldTitle:    "GitHub",
		models.FieldPassword: "hunter2",
	}, vault.edited["id-1"])
}

func TestEdit_UndecryptableRefused(t *testing.T) {
	capturePrint(t)
	vault := newFakeVault(&models.Entry{ID: "x", Undecryptable: true})
	a := newTestApp("", nil, vault)
	assert.ErrorIs(t, a.Edit(context.Background(), []string{"x"}), common.ErrAuthenticationFailure)
}

func TestDelete_AsksForConfirmation(t *testing.T) {
	capturePrint(t)
	vault := newFakeVault(sampleEntry())

	a := newTestApp("n\n", nil, vault)
	require.NoError(t, a.Delete(context.Background(), []string{"id-1"}))
	assert.Empty(t, vault.deleted)

	a = newTestApp("y\n", nil, vault)
	require.NoError(t, a.Delete(context.Background(), []string{"id-1"}))
	assert.Equal(t, []string{"id-1"}, vault.deleted)
}

func TestCopy_UsesClipboardAndWaitsOnClose(t *testing.T) {
	capturePrint(t)

	var (
		copied string
		after  time.Duration
		dones  []chan struct{}
	)
	orig := copyFn
	copyFn = func(ctx context.Context, text string, d time.Duration) (<-chan struct{}, error) {
		copied, after = text, d
		done := make(chan struct{})
		dones = append(dones, done)
		go func() {
			<-ctx.Done()
			close(done)
		}()
		return done, nil
	}
	t.Cleanup(func() { copyFn = orig })

	a := newTestApp("", nil, newFakeVault(sampleEntry()))
	require.NoError(t, a.Copy(context.Background(), []string{"id-1"}))
	assert.Equal(t, "hunter2", copied)
	assert.Equal(t, time.Minute, after)

	require.NoError(t, a.Copy(context.Background(), []string{"id-1", "username"}))
	assert.Equal(t, "octo", copied)

	assert.ErrorIs(t, a.Copy(context.Background(), []string{"id-1", "url"}), common.ErrValidation)
	assert.ErrorIs(t, a.Copy(context.Background(), []string{"id-1", "bogus"}), common.ErrValidation)

	a.Close()
	require.Len(t, dones, 2)
	for _, done := range dones {
		select {
		case <-done:
		default:
			t.Fatal("Close must cancel pending clipboard clears")
		}
	}
}

func TestDuplicateExportImportBackup(t *testing.T) {
	out := capturePrint(t)
	a := newTestApp("", nil, newFakeVault(sampleEntry()))
	ctx := context.Background()

	require.NoError(t, a.Duplicate(ctx, []string{"id-1"}))
	assert.Contains(t, *out, "Added id-1-copy")

	require.NoError(t, a.Export(ctx, []string{"out.json"}))
	assert.Contains(t, *out, "Exported 1 item(s) to out.json.")

	require.NoError(t, a.Import(ctx, []string{"in.json"}))
	assert.Contains(t, *out, "Imported 3 item(s).")

	require.NoError(t, a.Backup(ctx, nil))
	assert.Contains(t, *out, "Download link: https://s3/x")

	var u errUsage
	assert.ErrorAs(t, a.Export(ctx, nil), &u)
	assert.ErrorAs(t, a.Import(ctx, nil), &u)
}

func TestGenerate(t *testing.T) {
	out := capturePrint(t)
	a := newTestApp("", nil, nil)

	require.NoError(t, a.Generate(context.Background(), []string{"24"}))
	require.Len(t, *out, 1)
	assert.Len(t, (*out)[0], 24)

	assert.ErrorIs(t, a.Generate(context.Background(), []string{"4"}), common.ErrValidation)
	var u errUsage
	assert.ErrorAs(t, a.Generate(context.Background(), []string{"x"}), &u)
}

func TestTwoFactorCommands(t *testing.T) {
	out := capturePrint(t)
	a := newTestApp("654321\n", nil, nil)
	tf := a.twoFactor.(*fakeTwoFactor)
	ctx := context.Background()

	require.NoError(t, a.TwoFactor(ctx, []string{"setup", "qr.png"}))
	assert.Equal(t, "qr.png", tf.qrPath)
	assert.Contains(t, *out, "Secret: JBSWY3DPEHPK3PXP")

	require.NoError(t, a.TwoFactor(ctx, []string{"verify"}))
	assert.Equal(t, "654321", tf.verified)

	require.NoError(t, a.TwoFactor(ctx, []string{"status"}))
	assert.Contains(t, *out, "Two-factor authentication is enabled.")

	require.NoError(t, a.TwoFactor(ctx, []string{"disable"}))
	assert.False(t, tf.enabled)

	var u errUsage
	assert.ErrorAs(t, a.TwoFactor(ctx, nil), &u)
	assert.ErrorAs(t, a.TwoFactor(ctx, []string{"reset"}), &u)
}
