package supabase

import (
	"bytes"
	"fmt"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

// signedURLTTL is how long signed read URLs stay valid. Callers must treat
// them as time-limited and re-resolve rather than persist them.
const signedURLTTL = 30 * 24 * 60 * 60 // 30 days in seconds

type StorageClient struct {
	client        *storage.Client
	baseURL       string
	publicBuckets map[string]bool
}

// NewStorageClient wraps the Supabase storage API. Buckets listed in
// publicBuckets resolve to public URLs; everything else gets signed URLs.
func NewStorageClient(supabaseURL, serviceRoleKey string, publicBuckets []string) (*StorageClient, error) {
	baseURL := strings.TrimRight(supabaseURL, "/")
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)

	public := make(map[string]bool, len(publicBuckets))
	for _, bucket := range publicBuckets {
		public[bucket] = true
	}

	return &StorageClient{
		client:        client,
		baseURL:       baseURL,
		publicBuckets: public,
	}, nil
}

// Upload writes data to bucket/path, overwriting any previous object.
func (s *StorageClient) Upload(bucket, path string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "image/jpeg"
	}
	upsert := true
	_, err := s.client.UploadFile(bucket, path, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}
	return nil
}

// UploadViaSignedURL requests a pre-authorized upload URL for bucket/path and
// uploads through it. Used as the fallback when the direct upload fails.
func (s *StorageClient) UploadViaSignedURL(bucket, path string, data []byte) error {
	signed, err := s.client.CreateSignedUploadUrl(bucket, path)
	if err != nil {
		return fmt.Errorf("failed to create signed upload url: %w", err)
	}
	if _, err := s.client.UploadToSignedUrl(signed.Url, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to upload to signed url: %w", err)
	}
	return nil
}

// IsPublicBucket reports whether a bucket serves objects publicly.
func (s *StorageClient) IsPublicBucket(bucket string) bool {
	return s.publicBuckets[bucket]
}

// PublicURL builds the public object URL for a path in a public bucket.
func (s *StorageClient) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, bucket, path)
}

// SignedURL creates a time-limited read URL for a private object.
func (s *StorageClient) SignedURL(bucket, path string) (string, error) {
	resp, err := s.client.CreateSignedUrl(bucket, path, signedURLTTL)
	if err != nil {
		return "", fmt.Errorf("failed to create signed url: %w", err)
	}
	signedURL := resp.SignedURL
	if signedURL != "" && !strings.HasPrefix(signedURL, "http") {
		signedURL = s.baseURL + "/storage/v1" + signedURL
	}
	return signedURL, nil
}

// ResolveURL returns a fetchable URL for bucket/path, public or signed
// depending on the bucket.
func (s *StorageClient) ResolveURL(bucket, path string) (string, error) {
	if s.IsPublicBucket(bucket) {
		return s.PublicURL(bucket, path), nil
	}
	return s.SignedURL(bucket, path)
}

// Remove deletes objects from a bucket.
func (s *StorageClient) Remove(bucket string, paths []string) error {
	_, err := s.client.RemoveFile(bucket, paths)
	if err != nil {
		return fmt.Errorf("failed to remove files: %w", err)
	}
	return nil
}
