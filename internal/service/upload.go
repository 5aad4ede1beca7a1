package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"marketplace/internal/logger"

	"github.com/spf13/afero"
	"golang.org/x/image/draw"
)

// Avatar thumbnails fit inside this box.
const (
	AvatarMaxWidth  = 125
	AvatarMaxHeight = 125
)

// Avatar sources larger than this are rejected before their pixels are decoded.
const (
	maxSourceSide   = 8000
	maxSourcePixels = 40_000_000
)

const randomNameBytes = 8 // 16 hex characters

// UploadMode selects how a payload is processed before it is written.
type UploadMode int

const (
	// ModeListingImage stores the payload as received.
	ModeListingImage UploadMode = iota
	// ModeAvatar decodes the payload and stores a bounded thumbnail.
	ModeAvatar
)

func (m UploadMode) String() string {
	switch m {
	case ModeAvatar:
		return "avatar"
	case ModeListingImage:
		return "listing-image"
	default:
		return fmt.Sprintf("UploadMode(%d)", int(m))
	}
}

var (
	ErrImageDecode  = errors.New("image decode failed")
	ErrStorageWrite = errors.New("storage write failed")
)

// ImageDecodeError reports a payload that is not a supported image.
type ImageDecodeError struct {
	Filename string
	Err      error
}

func (e *ImageDecodeError) Error() string {
	return fmt.Sprintf("decode image %q: %v", e.Filename, e.Err)
}

func (e *ImageDecodeError) Unwrap() error        { return e.Err }
func (e *ImageDecodeError) Is(target error) bool { return target == ErrImageDecode }

// StorageWriteError reports a failure to persist a file in the image store.
type StorageWriteError struct {
	Name string
	Err  error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("write image %q: %v", e.Name, e.Err)
}

func (e *StorageWriteError) Unwrap() error        { return e.Err }
func (e *StorageWriteError) Is(target error) bool { return target == ErrStorageWrite }

// Upload is an incoming file. Only the extension of Filename is used.
type Upload struct {
	Filename string
	Content  io.Reader
}

// UploadService writes uploaded images into the image store and removes the
// files they replace.
type UploadService struct {
	fs  afero.Fs
	log *logger.Logger
}

// NewUploadService uses fs as the image store; callers usually pass an
// afero.BasePathFs rooted at the image directory.
func NewUploadService(fs afero.Fs, log *logger.Logger) *UploadService {
	return &UploadService{fs: fs, log: log}
}

// Store writes the payload under a fresh random name and returns that name.
// The caller must have restricted the extension beforehand.
func (s *UploadService) Store(ctx context.Context, up Upload, mode UploadMode) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := filepath.Ext(up.Filename)
	content := up.Content
	if mode == ModeAvatar {
		thumb, format, err := thumbnail(up)
		if err != nil {
			if s.log != nil {
				s.log.Infow("upload_decode_failed", "filename", up.Filename, "err", err)
			}
			return "", err
		}
		content = thumb
		ext = extensionFor(format, ext)
	}

	name, err := randomFilename(ext)
	if err != nil {
		return "", err
	}

	if err := s.write(name, content); err != nil {
		if s.log != nil {
			s.log.Errorw("upload_write_failed", "name", name, "mode", mode.String(), "err", err)
		}
		return "", err
	}

	if s.log != nil {
		s.log.Infow("upload_stored", "name", name, "mode", mode.String())
	}
	return name, nil
}

// write copies r into a temporary file and renames it into place, so a
// failed write never leaves a file under the final name.
func (s *UploadService) write(name string, r io.Reader) error {
	tmp := "." + name + ".part"

	f, err := s.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return &StorageWriteError{Name: name, Err: err}
	}

	_, err = io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = s.fs.Rename(tmp, name)
	}
	if err != nil {
		_ = s.fs.Remove(tmp)
		return &StorageWriteError{Name: name, Err: err}
	}
	return nil
}

// Remove deletes current from the store unless it is empty or the default
// placeholder. Failures are logged and never returned.
func (s *UploadService) Remove(ctx context.Context, current, def string) {
	if current == "" || current == def {
		return
	}
	if err := ctx.Err(); err != nil {
		if s.log != nil {
			s.log.Infow("upload_remove_skipped", "name", current, "err", err)
		}
		return
	}

	err := s.fs.Remove(current)
	switch {
	case err == nil:
		if s.log != nil {
			s.log.Infow("upload_removed", "name", current)
		}
	case errors.Is(err, os.ErrNotExist):
		if s.log != nil {
			s.log.Infow("upload_remove_missing", "name", current)
		}
	default:
		if s.log != nil {
			s.log.Errorw("upload_remove_failed", "name", current, "err", err)
		}
	}
}

func randomFilename(ext string) (string, error) {
	b := make([]byte, randomNameBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate filename: %w", err)
	}
	return hex.EncodeToString(b) + strings.ToLower(ext), nil
}

// extensionFor keeps ext when it already names format and otherwise returns
// the canonical extension of format.
func extensionFor(format, ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		if format == "jpeg" {
			return ext
		}
	case ".png":
		if format == "png" {
			return ext
		}
	}
	if format == "jpeg" {
		return ".jpg"
	}
	return "." + format
}

// thumbnail decodes the upload and re-encodes it, in its own format, scaled
// down to fit the avatar box. The header is checked first so oversized
// sources are rejected before any pixel buffer is allocated.
func thumbnail(up Upload) (io.Reader, string, error) {
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(up.Content, &head))
	if err != nil {
		return nil, "", &ImageDecodeError{Filename: up.Filename, Err: err}
	}
	if cfg.Width > maxSourceSide || cfg.Height > maxSourceSide || cfg.Width*cfg.Height > maxSourcePixels {
		return nil, "", &ImageDecodeError{
			Filename: up.Filename,
			Err:      fmt.Errorf("image is %dx%d, larger than allowed", cfg.Width, cfg.Height),
		}
	}

	img, format, err := image.Decode(io.MultiReader(&head, up.Content))
	if err != nil {
		return nil, "", &ImageDecodeError{Filename: up.Filename, Err: err}
	}

	img = fit(img, AvatarMaxWidth, AvatarMaxHeight)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	case "png":
		err = png.Encode(&buf, img)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, "", &ImageDecodeError{Filename: up.Filename, Err: err}
	}
	return &buf, format, nil
}

// fit scales img down to fit maxW x maxH keeping its aspect ratio. Images
// that already fit are returned unchanged.
func fit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH {
		return img
	}

	scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
