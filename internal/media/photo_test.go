package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: uint8(x % 256), A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSaveResizesWideImage(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save(pngBytes(t, 1600, 900))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".png"), "extension follows decoded format, got %q", name)

	f, err := os.Open(filepath.Join(store.Dir, name))
	require.NoError(t, err)
	defer f.Close()

	saved, _, err := image.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 800, saved.Bounds().Dx())
	assert.Equal(t, 450, saved.Bounds().Dy())
}

func TestSaveKeepsNarrowImage(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save(pngBytes(t, 400, 300))
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(store.Dir, name))
	require.NoError(t, err)
	defer f.Close()

	saved, _, err := image.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 400, saved.Bounds().Dx())
	assert.Equal(t, 300, saved.Bounds().Dy())
}

func TestSaveRejectsNonImage(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	_, err = store.Save([]byte("#!/bin/sh\necho not a picture"))
	assert.ErrorIs(t, err, ErrNotImage)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected upload must not leave a file behind")
}

func TestSaveGeneratesUniqueNames(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	data := pngBytes(t, 100, 100)
	a, err := store.Save(data)
	require.NoError(t, err)
	b, err := store.Save(data)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
