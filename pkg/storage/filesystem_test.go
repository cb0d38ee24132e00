package storage

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveStreamAndOpen(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	n, err := store.SaveStream("2026/10/file.txt", strings.NewReader("hello"), 10)
	require.NoError(t, err)
	require.EqualValues(t, 5, n)

	f, err := store.Open("2026/10/file.txt")
	require.NoError(t, err)
	defer f.Close()
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, "hello", string(body))

	require.NoError(t, store.Delete("2026/10/file.txt"))
	require.NoError(t, store.Delete("2026/10/file.txt"))
}

func TestLocalStorageEnforcesLimit(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.SaveStream("big.bin", bytes.NewReader(make([]byte, 32)), 16)
	require.ErrorIs(t, err, ErrTooLarge)

	_, err = store.Open("big.bin")
	require.Error(t, err)
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("../escape.txt", []byte("x"))
	require.ErrorIs(t, err, ErrOutsideBase)

	_, err = store.Path("/etc/passwd")
	require.ErrorIs(t, err, ErrOutsideBase)
}
