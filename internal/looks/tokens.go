// Package looks persists transformation results: it uploads images to
// bucketed object storage with a signed-URL fallback, keeps an optimistic
// local cache of saved looks and reconciles it against the remote list.
package looks

import "strings"

// referenceScheme prefixes the opaque storage tokens persisted in the
// database in place of URLs, so records survive signed-URL expiry.
const referenceScheme = "storage://"

// StoredObject locates one uploaded image and its currently valid URL.
type StoredObject struct {
	Bucket string
	Path   string
	URL    string
}

// Reference renders a storage reference token for bucket/path.
func Reference(bucket, path string) string {
	return referenceScheme + bucket + "/" + path
}

// ParseReference extracts bucket and path from a storage reference. The
// primary form is the storage://bucket/path token. A clearly separated legacy
// branch also accepts plain Supabase object URLs
// (.../storage/v1/object/[public|sign]/bucket/path) left over from records
// written before the token migration; dropping that support is a matter of
// deleting parseLegacyURL.
func ParseReference(ref string) (bucket, path string, ok bool) {
	if strings.HasPrefix(ref, referenceScheme) {
		rest := strings.TrimPrefix(ref, referenceScheme)
		idx := strings.Index(rest, "/")
		if idx <= 0 || idx == len(rest)-1 {
			return "", "", false
		}
		return rest[:idx], rest[idx+1:], true
	}

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return parseLegacyURL(ref)
	}

	return "", "", false
}

// parseLegacyURL handles pre-migration records that stored resolved Supabase
// URLs directly.
func parseLegacyURL(ref string) (bucket, path string, ok bool) {
	for _, marker := range []string{"/storage/v1/object/public/", "/storage/v1/object/sign/"} {
		idx := strings.Index(ref, marker)
		if idx < 0 {
			continue
		}
		rest := ref[idx+len(marker):]
		// Signed URLs carry a token query string.
		if q := strings.Index(rest, "?"); q >= 0 {
			rest = rest[:q]
		}
		slash := strings.Index(rest, "/")
		if slash <= 0 || slash == len(rest)-1 {
			return "", "", false
		}
		return rest[:slash], rest[slash+1:], true
	}
	return "", "", false
}
