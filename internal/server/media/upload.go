package media

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrUnsupportedType is returned when an upload's sniffed type does not match
// the expected media kind.
var ErrUnsupportedType = errors.New("unsupported media type")

type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// imageTypes are the formats ResizeImage can decode and encode.
var imageTypes = []string{"image/jpeg", "image/png", "image/gif"}

// Detect sniffs the content type of data and checks it belongs to kind.
// Images are further limited to imageTypes.
func Detect(data []byte, kind Kind) (*mimetype.MIME, error) {
	m := mimetype.Detect(data)
	if !strings.HasPrefix(m.String(), string(kind)+"/") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, m.String())
	}
	if kind == KindImage && !slices.ContainsFunc(imageTypes, m.Is) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, m.String())
	}
	return m, nil
}

type VideoMetadata struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Uploaded describes a stored object.
type Uploaded struct {
	Key   string         `json:"key"`
	URL   string         `json:"url"`
	Image *ImageMetadata `json:"image,omitempty"`
	Video *VideoMetadata `json:"video,omitempty"`
}

type Uploader struct {
	store     Store
	maxWidth  int
	maxHeight int
	now       func() time.Time
}

func NewUploader(store Store) *Uploader {
	return &Uploader{
		store:     store,
		maxWidth:  MaxImageWidth,
		maxHeight: MaxImageHeight,
		now:       time.Now,
	}
}

// PresignGet returns a download URL for a stored key.
func (u *Uploader) PresignGet(ctx context.Context, key string) (string, error) {
	return u.store.PresignGet(ctx, key)
}

// Delete removes a stored object.
func (u *Uploader) Delete(ctx context.Context, key string) error {
	return u.store.Delete(ctx, key)
}

// StorageKey builds a date-partitioned object key.
func StorageKey(kind Kind, now time.Time, name string) string {
	y, m, d := now.Date()
	return fmt.Sprintf("media/%ss/%d/%d/%d/%s", kind, y, m, d, name)
}

// CleanVideoName lowercases the base name, replaces spaces with underscores
// and appends a random suffix before the extension.
func CleanVideoName(filename, ext string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(base)), " ", "_")
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(filename))
	}
	return fmt.Sprintf("%s_%s%s", base, uuid.NewString(), ext)
}

// UploadImage resizes the image to fit the configured bounds and stores it.
func (u *Uploader) UploadImage(ctx context.Context, data []byte) (*Uploaded, error) {
	m, err := Detect(data, KindImage)
	if err != nil {
		return nil, err
	}

	resized, meta, err := ResizeImage(data, u.maxWidth, u.maxHeight)
	if err != nil {
		return nil, err
	}

	contentType := "image/" + meta.Format
	if meta.Format == "" {
		contentType = m.String()
	}

	key := StorageKey(KindImage, u.now(), uuid.NewString()+m.Extension())
	if err := u.store.Put(ctx, key, contentType, resized); err != nil {
		return nil, err
	}

	url, err := u.store.PresignGet(ctx, key)
	if err != nil {
		return nil, err
	}

	return &Uploaded{Key: key, URL: url, Image: &meta}, nil
}

func (u *Uploader) UploadVideo(ctx context.Context, filename string, data []byte) (*Uploaded, error) {
	m, err := Detect(data, KindVideo)
	if err != nil {
		return nil, err
	}

	name := CleanVideoName(filename, m.Extension())
	key := StorageKey(KindVideo, u.now(), name)
	if err := u.store.Put(ctx, key, m.String(), data); err != nil {
		return nil, err
	}

	url, err := u.store.PresignGet(ctx, key)
	if err != nil {
		return nil, err
	}

	return &Uploaded{
		Key: key,
		URL: url,
		Video: &VideoMetadata{
			Name:        name,
			ContentType: m.String(),
			Size:        int64(len(data)),
		},
	}, nil
}
