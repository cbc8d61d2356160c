package imagestore

import (
	"bytes"
	"mime/multipart"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	return s
}

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r := multipart.NewReader(&body, w.Boundary())
	form, err := r.ReadForm(1 << 20)
	require.NoError(t, err)
	return form.File["image"][0]
}

func TestSaveAcceptsAllowedExtensions(t *testing.T) {
	s := newTestStore(t)

	for _, filename := range []string{"label.jpg", "label.JPEG", "label.png", "label.webp", "label.GIF"} {
		name, err := s.Save(fileHeader(t, filename, []byte("image-bytes")))
		require.NoError(t, err, filename)
		assert.True(t, s.Exists(name))

		data, err := s.Read(name)
		require.NoError(t, err)
		assert.Equal(t, []byte("image-bytes"), data)
	}
}

func TestSaveGeneratesFreshNames(t *testing.T) {
	s := newTestStore(t)

	first, err := s.Save(fileHeader(t, "label.jpg", []byte("one")))
	require.NoError(t, err)
	second, err := s.Save(fileHeader(t, "label.jpg", []byte("two")))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestSaveRejectsDisallowedExtension(t *testing.T) {
	s := newTestStore(t)

	for _, filename := range []string{"notes.txt", "archive.tar.gz", "noext", "label.jpg.exe"} {
		_, err := s.Save(fileHeader(t, filename, []byte("x")))
		assert.ErrorIs(t, err, ErrRejected, filename)
	}
}

func TestSaveRejectsMissingFile(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Save(nil)
	assert.ErrorIs(t, err, ErrRejected)
}

func TestCopyProducesIndependentFile(t *testing.T) {
	s := newTestStore(t)

	original, err := s.Save(fileHeader(t, "label.png", []byte("content")))
	require.NoError(t, err)

	copied, err := s.Copy(original)
	require.NoError(t, err)
	assert.NotEqual(t, original, copied)

	// Removing the original must leave the copy untouched.
	require.NoError(t, s.Remove(original))
	assert.False(t, s.Exists(original))
	assert.True(t, s.Exists(copied))

	data, err := s.Read(copied)
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), data)
}

func TestRemoveIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	name, err := s.Save(fileHeader(t, "label.jpg", []byte("x")))
	require.NoError(t, err)

	require.NoError(t, s.Remove(name))
	require.NoError(t, s.Remove(name))
	require.NoError(t, s.Remove("never-existed.jpg"))
	require.NoError(t, s.Remove(""))
}

func TestPathStaysInsideUploadDir(t *testing.T) {
	s := newTestStore(t)

	path := s.Path("../../etc/passwd")
	assert.Equal(t, s.Path("passwd"), path)
}

func TestMediaType(t *testing.T) {
	assert.Equal(t, "image/jpeg", MediaType("a.jpg"))
	assert.Equal(t, "image/jpeg", MediaType("a.JPEG"))
	assert.Equal(t, "image/png", MediaType("a.png"))
	assert.Equal(t, "image/webp", MediaType("a.webp"))
	assert.Equal(t, "image/gif", MediaType("a.gif"))
}

func TestUploadDirCreated(t *testing.T) {
	dir := t.TempDir() + "/nested/uploads"
	_, err := New(dir, nil)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
