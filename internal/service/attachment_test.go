package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestAttachmentStore_DataURI(t *testing.T) {
	store := NewAttachmentStore("", "/uploads")

	ref, err := store.ImageRef("dress.png", pngBytes)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "data:image/png;base64,"))
}

func TestAttachmentStore_WritesToDir(t *testing.T) {
	dir := t.TempDir()
	store := NewAttachmentStore(dir, "/uploads")

	ref, err := store.ImageRef("dress.png", pngBytes)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ref, "/uploads/"))
	assert.True(t, strings.HasSuffix(ref, ".png"))

	name := strings.TrimPrefix(ref, "/uploads/")
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}

func TestAttachmentStore_RejectsNonImage(t *testing.T) {
	store := NewAttachmentStore("", "/uploads")

	_, err := store.ImageRef("notes.txt", []byte("just some text"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = store.ImageRef("empty.png", nil)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}
