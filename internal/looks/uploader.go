package looks

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"nail-preview-backend/internal/imaging"
)

// UploadKind selects the destination bucket for an image.
type UploadKind string

const (
	KindOriginal    UploadKind = "original"
	KindTransformed UploadKind = "transformed"
)

// Buckets names the storage buckets per upload kind.
type Buckets struct {
	Originals  string
	Transforms string
}

// ObjectStore is the slice of the storage client the looks package needs.
// *supabase.StorageClient satisfies it; tests inject fakes.
type ObjectStore interface {
	Upload(bucket, path string, data []byte, contentType string) error
	UploadViaSignedURL(bucket, path string, data []byte) error
	ResolveURL(bucket, path string) (string, error)
	Remove(bucket string, paths []string) error
}

// Uploader writes normalized images to object storage, falling back to a
// signed upload URL when the direct upload fails. An upload either fully
// succeeds or fails; there is no partial success.
type Uploader struct {
	store   ObjectStore
	buckets Buckets
	now     func() time.Time
	log     zerolog.Logger
}

func NewUploader(store ObjectStore, buckets Buckets, logger zerolog.Logger) *Uploader {
	return &Uploader{
		store:   store,
		buckets: buckets,
		now:     time.Now,
		log:     logger,
	}
}

func (u *Uploader) bucketFor(kind UploadKind) string {
	if kind == KindTransformed {
		return u.buckets.Transforms
	}
	return u.buckets.Originals
}

// Upload normalizes imageData, writes it to <userID>/<kind>_<timestamp>.<ext>
// in the kind's bucket and resolves the stored object to a usable URL.
func (u *Uploader) Upload(imageData, userID string, kind UploadKind) (*StoredObject, error) {
	image := imaging.Normalize(imageData)
	if len(image.Bytes) == 0 {
		return nil, fmt.Errorf("upload %s: image payload is empty or undecodable", kind)
	}

	bucket := u.bucketFor(kind)
	path := fmt.Sprintf("%s/%s_%d.%s", userID, kind, u.now().UnixMilli(), image.Extension)

	if err := u.store.Upload(bucket, path, image.Bytes, image.MimeType); err != nil {
		u.log.Warn().Err(err).Str("bucket", bucket).Str("path", path).
			Msg("direct upload failed, retrying via signed upload url")
		if signedErr := u.store.UploadViaSignedURL(bucket, path, image.Bytes); signedErr != nil {
			return nil, fmt.Errorf("upload %s failed directly (%v) and via signed url: %w", kind, err, signedErr)
		}
	}

	url, err := u.store.ResolveURL(bucket, path)
	if err != nil {
		return nil, fmt.Errorf("upload %s: resolve url: %w", kind, err)
	}

	return &StoredObject{
		Bucket: bucket,
		Path:   path,
		URL:    url,
	}, nil
}
