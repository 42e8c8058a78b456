package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MediaKind selects the upload policy for an image.
type MediaKind string

const (
	MediaAvatar MediaKind = "avatar"
	MediaBanner MediaKind = "banner"
)

type mediaPolicy struct {
	folder  string
	maxSize int64
}

const megabyte = 1 << 20

var mediaPolicies = map[MediaKind]mediaPolicy{
	MediaAvatar: {folder: "avatars", maxSize: 5 * megabyte},
	MediaBanner: {folder: "banners", maxSize: 10 * megabyte},
}

// ObjectStore is the external binary store uploads are forwarded to.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// Upload is an image received from a client. Size is the declared size,
// or zero when unknown.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// StoredObject identifies an uploaded image.
type StoredObject struct {
	Key string
	URL string
}

// MediaService enforces image policies and forwards accepted uploads to
// the object store.
type MediaService struct {
	store      ObjectStore
	rootFolder string
	logger     *slog.Logger
}

func NewMediaService(store ObjectStore, rootFolder string, logger *slog.Logger) *MediaService {
	return &MediaService{
		store:      store,
		rootFolder: strings.Trim(rootFolder, "/"),
		logger:     loggerOrDefault(logger),
	}
}

// Upload validates the image against the policy for kind and stores it.
// Nothing reaches the store unless the size and type checks pass.
func (s *MediaService) Upload(ctx context.Context, kind MediaKind, up Upload) (StoredObject, error) {
	policy, ok := mediaPolicies[kind]
	if !ok {
		return StoredObject{}, fmt.Errorf("unknown media kind %q", kind)
	}
	if up.Body == nil {
		return StoredObject{}, validationError("No file provided")
	}

	tooLarge := validationError(fmt.Sprintf("File size must be less than %dMB", policy.maxSize/megabyte))
	if up.Size > policy.maxSize {
		return StoredObject{}, tooLarge
	}
	if declared := strings.TrimSpace(up.ContentType); declared != "" && !isImageType(declared) {
		return StoredObject{}, validationError("File must be an image")
	}

	data, err := io.ReadAll(io.LimitReader(up.Body, policy.maxSize+1))
	if err != nil {
		return StoredObject{}, err
	}
	if len(data) == 0 {
		return StoredObject{}, validationError("No file provided")
	}
	if int64(len(data)) > policy.maxSize {
		return StoredObject{}, tooLarge
	}

	detected := mimetype.Detect(data)
	if !isImageType(detected.String()) {
		return StoredObject{}, validationError("File must be an image")
	}

	key := path.Join(s.rootFolder, policy.folder, uuid.NewString()+detected.Extension())
	if err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), detected.String()); err != nil {
		return StoredObject{}, uploadError("Failed to upload image", err)
	}

	return StoredObject{Key: key, URL: s.store.URL(key)}, nil
}

// Discard removes a stored object. Failures are logged only.
func (s *MediaService) Discard(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "discard uploaded object failed", "key", key, "error", err)
	}
}

func isImageType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "image/")
}
