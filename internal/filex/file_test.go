package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureParentDir_CreatesNestedDirs(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "a", "b", "vault.db")

	require.NoError(t, EnsureParentDir(path))

	fi, err := os.Stat(filepath.Join(tmp, "a", "b"))
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	require.NoError(t, EnsureParentDir(path), "should be idempotent")
}

func TestEnsureParentDir_FailsIfFileInTheWay(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "a"), []byte("x"), 0o600))

	require.Error(t, EnsureParentDir(filepath.Join(tmp, "a", "vault.db")))
}

func TestWritePrivate(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "out", "export.json")

	require.NoError(t, WritePrivate(path, []byte("first")))
	require.NoError(t, WritePrivate(path, []byte("second")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "second", string(got))

	if runtime.GOOS != "windows" {
		fi, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files should be gone")
}
