// Package imagestore manages uploaded label photos on the filesystem.
// Files are keyed by freshly generated names, so a save never overwrites
// an existing file.
package imagestore

import (
	"errors"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrRejected is returned when no usable file was supplied or its extension
// is not in the allow-list. Callers proceed without an image.
var ErrRejected = errors.New("image rejected")

var allowedExt = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"webp": true,
	"gif":  true,
}

const thumbPrefix = "thumb_"
const thumbSize = 480

// Store persists label images under a single upload directory.
type Store struct {
	dir string
	log *zap.Logger
}

// New creates the upload directory if needed and returns a Store over it.
func New(dir string, log *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir, log: log}, nil
}

// Dir returns the upload directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the on-disk path for a stored filename. The name is reduced
// to its base so request input cannot escape the upload directory.
func (s *Store) Path(filename string) string {
	return filepath.Join(s.dir, filepath.Base(filename))
}

// Exists reports whether a stored file is present.
func (s *Store) Exists(filename string) bool {
	if filename == "" {
		return false
	}
	_, err := os.Stat(s.Path(filename))
	return err == nil
}

// Read returns the bytes of a stored file.
func (s *Store) Read(filename string) ([]byte, error) {
	return os.ReadFile(s.Path(filename))
}

// Save persists an uploaded file under a new generated name and returns it.
// Files without an allow-listed extension are rejected.
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	if fh == nil || fh.Filename == "" {
		return "", ErrRejected
	}
	ext, ok := extOf(fh.Filename)
	if !ok {
		return "", ErrRejected
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := newName(ext)
	dst, err := os.Create(s.Path(name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(s.Path(name))
		return "", err
	}

	s.makeThumbnail(name)
	return name, nil
}

// Copy duplicates a stored file under a new generated name, so duplicated
// records own their image independently.
func (s *Store) Copy(filename string) (string, error) {
	ext, ok := extOf(filename)
	if !ok {
		return "", ErrRejected
	}
	data, err := os.ReadFile(s.Path(filename))
	if err != nil {
		return "", err
	}
	name := newName(ext)
	if err := os.WriteFile(s.Path(name), data, 0o644); err != nil {
		return "", err
	}
	s.makeThumbnail(name)
	return name, nil
}

// Remove deletes a stored file and its thumbnail. An already-absent file is
// not an error.
func (s *Store) Remove(filename string) error {
	if filename == "" {
		return nil
	}
	if err := os.Remove(s.Path(filename)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.Remove(s.Path(thumbPrefix + filepath.Base(filename))); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// MediaType derives the MIME type from a stored filename's extension.
func MediaType(filename string) string {
	ext, _ := extOf(filename)
	switch ext {
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	case "gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

// makeThumbnail writes a bounded-size copy next to the original. Formats the
// decoder cannot handle are skipped without failing the upload.
func (s *Store) makeThumbnail(name string) {
	img, err := imaging.Open(s.Path(name))
	if err != nil {
		if s.log != nil {
			s.log.Debug("Skipping thumbnail", zap.String("file", name), zap.Error(err))
		}
		return
	}
	thumb := imaging.Fit(img, thumbSize, thumbSize, imaging.Lanczos)
	if err := imaging.Save(thumb, s.Path(thumbPrefix+name)); err != nil && s.log != nil {
		s.log.Warn("Failed to write thumbnail", zap.String("file", name), zap.Error(err))
	}
}

func newName(ext string) string {
	return strings.ReplaceAll(uuid.New().String(), "-", "") + "." + ext
}

func extOf(filename string) (string, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	return ext, allowedExt[ext]
}
