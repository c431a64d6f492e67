package looks_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nail-preview-backend/internal/looks"
)

func newTestUploader(store *fakeObjectStore) *looks.Uploader {
	return looks.NewUploader(store, looks.Buckets{
		Originals:  "user-uploads",
		Transforms: "nail-looks",
	}, zerolog.Nop())
}

func TestUpload_DirectSuccess(t *testing.T) {
	store := &fakeObjectStore{}
	uploader := newTestUploader(store)

	obj, err := uploader.Upload(testDataURL(), "user-1", looks.KindOriginal)
	require.NoError(t, err)

	assert.Equal(t, "user-uploads", obj.Bucket)
	assert.True(t, strings.HasPrefix(obj.Path, "user-1/original_"))
	assert.True(t, strings.HasSuffix(obj.Path, ".jpg"))
	assert.Equal(t, "https://cdn.test/user-uploads/"+obj.Path, obj.URL)

	assert.Len(t, store.uploads, 1)
	assert.Empty(t, store.signedUploads, "no fallback on success")
}

func TestUpload_TransformedGoesToLooksBucket(t *testing.T) {
	store := &fakeObjectStore{}
	uploader := newTestUploader(store)

	obj, err := uploader.Upload(testDataURL(), "user-1", looks.KindTransformed)
	require.NoError(t, err)

	assert.Equal(t, "nail-looks", obj.Bucket)
	assert.True(t, strings.HasPrefix(obj.Path, "user-1/transformed_"))
}

func TestUpload_FallsBackToSignedURL(t *testing.T) {
	store := &fakeObjectStore{directErr: fmt.Errorf("row level security")}
	uploader := newTestUploader(store)

	obj, err := uploader.Upload(testDataURL(), "user-1", looks.KindOriginal)
	require.NoError(t, err)

	assert.Empty(t, store.uploads)
	require.Len(t, store.signedUploads, 1)
	assert.Equal(t, "user-uploads/"+obj.Path, store.signedUploads[0])
}

func TestUpload_BothPathsFail(t *testing.T) {
	store := &fakeObjectStore{
		directErr: fmt.Errorf("row level security"),
		signedErr: fmt.Errorf("signed url denied"),
	}
	uploader := newTestUploader(store)

	_, err := uploader.Upload(testDataURL(), "user-1", looks.KindOriginal)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row level security")
	assert.Contains(t, err.Error(), "signed url denied")
}

func TestUpload_RejectsUndecodableImage(t *testing.T) {
	store := &fakeObjectStore{}
	uploader := newTestUploader(store)

	_, err := uploader.Upload("%%%not-base64%%%", "user-1", looks.KindOriginal)
	require.Error(t, err)
	assert.Empty(t, store.ops, "nothing touches storage")
}
