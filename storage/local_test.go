// path: storage/local_test.go
package storage

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStorePutAndResolve(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "http://localhost:8000")
	require.NoError(t, err)
	require.Equal(t, "local", s.Kind())
	require.Equal(t, dir, s.Dir())

	payload := []byte{0xFF, 0xD8, 0xFF, 0xAA}
	imgURL, err := s.Put("MIR-20260829-AAAAAA", "original", payload)
	require.NoError(t, err)
	require.Contains(t, imgURL, "http://localhost:8000/storage/reports/MIR-20260829-AAAAAA/original_")

	u, err := url.Parse(imgURL)
	require.NoError(t, err)
	path, ok := s.LocalPath(u.Path)
	require.True(t, ok)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, payload, data)
}

func TestLocalStoreDelete(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "http://localhost:8000")
	require.NoError(t, err)

	imgURL, err := s.Put("MIR-1", "segmented", []byte{1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, s.Delete(imgURL))

	u, _ := url.Parse(imgURL)
	_, ok := s.LocalPath(u.Path)
	require.False(t, ok)

	// deleting something that never existed is not an error
	require.NoError(t, s.Delete("http://localhost:8000/storage/reports/nope/x.jpg"))
}

func TestLocalPathRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "")
	require.NoError(t, err)

	// plant a file outside the storage root
	outside := filepath.Join(dir, "..", "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o600))
	t.Cleanup(func() { os.Remove(outside) })

	_, ok := s.LocalPath("/storage/../secret.txt")
	require.False(t, ok)
}

func TestSanitize(t *testing.T) {
	require.Equal(t, "MIR-20260829-AAAAAA", sanitize("MIR-20260829-AAAAAA"))
	require.Equal(t, "___etc_passwd", sanitize("../etc/passwd"))
}
