// Package media stores uploaded images on local disk and serves them back.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// URLPrefix is the route under which stored files are served
const URLPrefix = "/media/"

var (
	// ErrInvalidData is returned when the payload is not base64 or a base64 data URI
	ErrInvalidData = errors.New("invalid image data")

	// ErrTooLarge is returned when the decoded payload exceeds the size limit
	ErrTooLarge = errors.New("image too large")

	// ErrUnsupportedType is returned when the payload is not an allowed raster image
	ErrUnsupportedType = errors.New("unsupported media type")
)

// allowedTypes растровые форматы; SVG не принимаем, он может содержать скрипты
var allowedTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// DiskStore writes uploads into a directory and hands out public URLs
type DiskStore struct {
	logger   *slog.Logger
	dir      string
	baseURL  string
	maxBytes int64
}

// NewDiskStore creates the media directory if needed
func NewDiskStore(dir, baseURL string, maxBytes int64, logger *slog.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}

	return &DiskStore{
		logger:   logger,
		dir:      dir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
	}, nil
}

// Upload decodes data (a "data:<mime>;base64,<payload>" URI or bare base64),
// checks that it is an image and stores it under a random name.
// Returns the public URL of the stored file.
func (s *DiskStore) Upload(ctx context.Context, data string) (string, error) {
	raw, err := decode(data)
	if err != nil {
		return "", err
	}

	if s.maxBytes > 0 && int64(len(raw)) > s.maxBytes {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(raw), s.maxBytes)
	}

	// Тип определяем по содержимому, заявленный в data URI не учитываем
	mtype := mimetype.Detect(raw)
	if !mimetype.EqualsAny(mtype.String(), allowedTypes...) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mtype.String())
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := uuid.New().String() + mtype.Extension()
	if err := os.WriteFile(filepath.Join(s.dir, name), raw, 0o640); err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}

	s.logger.DebugContext(ctx, "Media stored",
		slog.String("name", name),
		slog.String("mime", mtype.String()),
		slog.Int("size", len(raw)),
	)

	return s.baseURL + URLPrefix + name, nil
}

// Handler serves stored files under URLPrefix. Only plain file names are
// resolved; directories and nested paths are reported as not found.
func (s *DiskStore) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, URLPrefix)
		if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
			http.NotFound(w, r)
			return
		}

		path := filepath.Join(s.dir, name)
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		http.ServeFile(w, r, path)
	})
}

func decode(data string) ([]byte, error) {
	payload := strings.TrimSpace(data)
	if payload == "" {
		return nil, ErrInvalidData
	}

	if strings.HasPrefix(payload, "data:") {
		meta, body, ok := strings.Cut(payload, ",")
		if !ok || !strings.HasSuffix(meta, ";base64") {
			return nil, ErrInvalidData
		}
		payload = body
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}
	if len(raw) == 0 {
		return nil, ErrInvalidData
	}

	return raw, nil
}
