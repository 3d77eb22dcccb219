package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureDir_DefaultsToCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureDir("", "blobs")
	require.NoError(t, err)

	// TempDir may sit behind a symlink (macOS /var -> /private/var).
	wantReal, _ := filepath.EvalSymlinks(filepath.Join(tmp, "blobs"))
	gotReal, _ := filepath.EvalSymlinks(got)
	require.Equal(t, wantReal, gotReal)

	fi, err := os.Stat(got)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm()&0o700)
	}
}

func TestEnsureDir_ExplicitBaseIdempotent(t *testing.T) {
	base := t.TempDir()

	first, err := EnsureDir(base, "blobs/tickets")
	require.NoError(t, err)
	second, err := EnsureDir(base, "blobs/tickets")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, filepath.Join(base, "blobs", "tickets"), first)
}

func TestEnsureDir_FailsIfFileWithSameNameExists(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "blobs"), []byte("x"), 0o660))

	_, err := EnsureDir(base, "blobs")
	require.Error(t, err, "should fail when a file exists with the same name")
}

func TestWriteFileAtomic_CreatesAndReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "obj")

	require.NoError(t, WriteFileAtomic(path, []byte("one")))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "one", string(b))

	require.NoError(t, WriteFileAtomic(path, []byte("two")))
	b, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "two", string(b))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestRemoveIfExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obj")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	require.NoError(t, RemoveIfExists(path))
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))

	require.NoError(t, RemoveIfExists(path))
}
