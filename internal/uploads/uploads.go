// Package uploads stores logo and profile images on local disk.
package uploads

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atharvakonge/cash-or-crash/internal/logger"
)

const (
	MaxSizeBytes = 5 << 20
	MaxWidth     = 512
	// URLPrefix is where saved files are served from.
	URLPrefix = "/uploads"
)

var (
	ErrTooLarge    = errors.New("file size exceeds 5MB limit")
	ErrUnsupported = errors.New("only image files are allowed (jpeg, jpg, png, svg)")
)

var allowedExt = map[string]bool{".jpeg": true, ".jpg": true, ".png": true, ".svg": true}

// Store saves uploads under Dir.
type Store struct {
	Dir string
}

// NewStore creates dir if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{Dir: dir}, nil
}

func allowedContentType(ct string) bool {
	ct = strings.ToLower(ct)
	for _, t := range []string{"jpeg", "jpg", "png", "svg"} {
		if strings.Contains(ct, t) {
			return true
		}
	}
	return false
}

// Save validates fh, writes it under a random name and returns its public
// URL. Raster images wider than MaxWidth are scaled down; SVG is kept as is.
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	if fh.Size > MaxSizeBytes {
		return "", ErrTooLarge
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExt[ext] {
		return "", ErrUnsupported
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxSizeBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxSizeBytes {
		return "", ErrTooLarge
	}

	ct := fh.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
		if ext == ".svg" && strings.HasPrefix(ct, "text/") {
			ct = "image/svg+xml"
		}
	}
	if !allowedContentType(ct) {
		return "", ErrUnsupported
	}

	if ext != ".svg" {
		data, err = normalize(data, ext)
		if err != nil {
			return "", err
		}
	}

	name := uuid.New().String() + ext
	if err := os.WriteFile(filepath.Join(s.Dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}

	logger.L().Info("upload saved", zap.String("file", name), zap.Int("bytes", len(data)))
	return path.Join(URLPrefix, name), nil
}

// normalize decodes a raster image and scales it down to MaxWidth.
func normalize(data []byte, ext string) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrUnsupported
	}
	if img.Bounds().Dx() <= MaxWidth {
		return data, nil
	}

	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return nil, ErrUnsupported
	}
	resized := imaging.Resize(img, MaxWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
