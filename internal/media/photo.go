// Package media ingests uploaded spot photos. An upload is decoded from
// memory, scaled down to a fixed display width, and written under a
// collision-resistant generated filename. Only the resulting filename
// string travels onward to the database; the pipeline either completes
// before any record references the file or fails the whole request.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

// targetWidth is the width photos are scaled to; height follows the
// source aspect ratio. Images narrower than this are stored as-is.
const targetWidth = 800

// ErrNotImage is returned when an upload is not image content we can
// decode (jpeg, png or gif).
var ErrNotImage = errors.New("that filetype isn't allowed")

// Store holds the directory resized photos are written into.
type Store struct {
	Dir string
}

// NewStore creates the upload directory if needed and returns a Store.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{Dir: dir}, nil
}

// Save validates that data is a decodable image, scales it to the target
// width and writes it to the store under a fresh uuid-based filename.
// The extension comes from the decoded format, not from anything the
// client claimed. Returns the generated filename.
func (s *Store) Save(data []byte) (string, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", ErrNotImage
	}

	img := scale(src)
	name := uuid.NewString() + "." + format
	path := filepath.Join(s.Dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	switch format {
	case "jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 85})
	case "png":
		err = png.Encode(f, img)
	case "gif":
		err = gif.Encode(f, img, nil)
	default:
		err = ErrNotImage
	}
	if err != nil {
		// don't leave a truncated file behind
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	return name, nil
}

// scale resizes src down to targetWidth preserving aspect ratio, using
// bilinear interpolation. Sources at or under the target width pass
// through untouched.
func scale(src image.Image) image.Image {
	b := src.Bounds()
	if b.Dx() <= targetWidth {
		return src
	}
	h := b.Dy() * targetWidth / b.Dx()
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
