package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	err = store.Save("software/abc.msi", strings.NewReader("payload"))
	require.NoError(t, err)

	file, size, err := store.Open("software/abc.msi")
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, int64(7), size)
	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content))

	assert.Empty(t, store.DownloadURL("software/abc.msi"))

	require.NoError(t, store.Delete("software/abc.msi"))
	_, _, err = store.Open("software/abc.msi")
	assert.Error(t, err)
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	err = store.Save("../escape.txt", strings.NewReader("nope"))
	assert.Error(t, err)

	_, _, err = store.Open("../../etc/passwd")
	assert.Error(t, err)
}
