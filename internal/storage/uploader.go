package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultMaxUploadBytes = 50 * 1024 * 1024

var (
	ErrNoFiles      = errors.New("no files provided")
	ErrNotAnImage   = errors.New("file is not an image")
	ErrFileTooLarge = errors.New("file exceeds the upload size limit")
)

// File is one upload. Open may be called more than once: the content is
// sniffed before any upload starts.
type File struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// FileError names the file a validation failure refers to.
type FileError struct {
	Name string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// ImageUploader validates product images and stores them.
type ImageUploader interface {
	Upload(ctx context.Context, files []File) ([]string, error)
}

type imageUploader struct {
	store    ImageStore
	folder   string
	maxBytes int64
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

// NewImageUploader creates a new instance of ImageUploader
func NewImageUploader(store ImageStore, folder string, maxBytes int64, logger *zap.Logger) ImageUploader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	folder = strings.Trim(folder, "/")
	if folder == "" {
		folder = "products"
	}

	return &imageUploader{
		store:    store,
		folder:   folder,
		maxBytes: maxBytes,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Upload checks every file before storing any of them and returns the public
// URLs in the order the files were given. When a put fails, the images
// already stored by this call are removed again.
func (u *imageUploader) Upload(ctx context.Context, files []File) ([]string, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	keys := make([]string, len(files))
	for i, f := range files {
		ext, err := u.check(f)
		if err != nil {
			return nil, &FileError{Name: f.Name, Err: err}
		}
		keys[i] = u.key(ext)
	}

	urls := make([]string, 0, len(files))
	for i, f := range files {
		url, err := u.put(ctx, keys[i], f)
		if err != nil {
			u.rollback(urls)
			return nil, &FileError{Name: f.Name, Err: err}
		}
		urls = append(urls, url)
	}

	u.logger.Info("Images uploaded", zap.Int("count", len(urls)))
	return urls, nil
}

func (u *imageUploader) check(f File) (string, error) {
	if f.Size > u.maxBytes {
		return "", ErrFileTooLarge
	}

	body, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer body.Close()

	mtype, err := mimetype.DetectReader(body)
	if err != nil {
		return "", fmt.Errorf("detect content type: %w", err)
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", fmt.Errorf("%w: %s", ErrNotAnImage, mtype.String())
	}

	return mtype.Extension(), nil
}

// key builds products/<unix-millis>-<8 hex>.<ext>.
func (u *imageUploader) key(ext string) string {
	id := strings.ReplaceAll(u.newID(), "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s/%d-%s%s", u.folder, u.now().UnixMilli(), id, ext)
}

func (u *imageUploader) put(ctx context.Context, key string, f File) (string, error) {
	body, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer body.Close()

	// Size comes from the client; the limit reader enforces it on the bytes.
	limited := &limitedReader{r: body, remaining: u.maxBytes}
	url, err := u.store.Put(ctx, key, limited)
	if err != nil {
		return "", err
	}
	if limited.exceeded {
		u.rollback([]string{url})
		return "", ErrFileTooLarge
	}
	return url, nil
}

func (u *imageUploader) rollback(urls []string) {
	for _, url := range urls {
		if err := u.store.Delete(context.Background(), url); err != nil {
			u.logger.Warn("Failed to remove partially uploaded image",
				zap.String("url", url),
				zap.Error(err),
			)
		}
	}
}

// limitedReader stops after remaining bytes and records whether the source
// had more.
type limitedReader struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining <= 0 {
		var probe [1]byte
		if n, _ := l.r.Read(probe[:]); n > 0 {
			l.exceeded = true
		}
		return 0, io.EOF
	}
	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	return n, err
}
