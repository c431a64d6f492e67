package imaging

import (
	"bytes"
	"encoding/base64"
	"strings"
)

// Canonical MIME types the pipeline understands.
const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimeWEBP = "image/webp"
	MimeGIF  = "image/gif"
	MimeHEIC = "image/heic"
)

// Base64-encoded magic byte signatures. A base64 payload starting with one
// of these decodes to the corresponding format's header.
const (
	sigJPEG = "/9j/"
	sigPNG  = "iVBORw"
	sigGIF  = "R0lGOD"
	sigWEBP = "UklGR"
)

// heicBrands are ISO-BMFF brand markers that identify HEIC/HEIF containers.
// They sit a few bytes into the file, so they are scanned for rather than
// prefix-matched.
var heicBrands = [][]byte{
	[]byte("ftypheic"),
	[]byte("ftypheix"),
	[]byte("ftyphevc"),
	[]byte("ftypheif"),
	[]byte("ftypmif1"),
	[]byte("ftypmsf1"),
}

// Image is a normalized image payload ready for upload or forwarding.
type Image struct {
	Bytes     []byte
	MimeType  string
	Extension string
}

// Sanitize turns an arbitrary base64-ish image string into standard-alphabet,
// correctly padded base64. It strips a leading data-URL prefix, drops
// whitespace, maps the URL-safe alphabet to the standard one and re-pads to a
// multiple of four. Sanitize(Sanitize(s)) == Sanitize(s) for any s.
func Sanitize(input string) string {
	payload := input
	if strings.HasPrefix(payload, "data:") {
		if idx := strings.Index(payload, ","); idx >= 0 {
			payload = payload[idx+1:]
		}
	}

	payload = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, payload)

	payload = strings.ReplaceAll(payload, "-", "+")
	payload = strings.ReplaceAll(payload, "_", "/")

	// Strip any existing padding before re-padding so repeated calls
	// produce identical output.
	payload = strings.TrimRight(payload, "=")
	if rem := len(payload) % 4; rem != 0 {
		payload += strings.Repeat("=", 4-rem)
	}

	return payload
}

// DetectMimeType inspects an image payload and reports its MIME type. A
// data-URL prefix wins outright; otherwise the sanitized payload's leading
// characters are matched against known base64 signatures, with a scan of the
// decoded header for HEIC container brands as a last resort. Unrecognized
// payloads report JPEG rather than failing.
func DetectMimeType(input string) string {
	if strings.HasPrefix(input, "data:") {
		meta := strings.TrimPrefix(input, "data:")
		if idx := strings.IndexAny(meta, ";,"); idx >= 0 {
			meta = meta[:idx]
		}
		if mime := canonicalMime(meta); mime != "" {
			return mime
		}
	}

	payload := Sanitize(input)

	switch {
	case strings.HasPrefix(payload, sigJPEG):
		return MimeJPEG
	case strings.HasPrefix(payload, sigPNG):
		return MimePNG
	case strings.HasPrefix(payload, sigGIF):
		return MimeGIF
	case strings.HasPrefix(payload, sigWEBP):
		return MimeWEBP
	}

	if isHEICHeader(payload) {
		return MimeHEIC
	}

	return MimeJPEG
}

// isHEICHeader decodes the first few header bytes and scans for an ISO-BMFF
// HEIC/HEIF brand. Decode failures simply mean "not HEIC".
func isHEICHeader(payload string) bool {
	probe := payload
	if len(probe) > 64 {
		probe = probe[:64]
	}
	header, err := base64.StdEncoding.WithPadding(base64.NoPadding).DecodeString(strings.TrimRight(probe, "="))
	if err != nil {
		return false
	}
	for _, brand := range heicBrands {
		if bytes.Contains(header, brand) {
			return true
		}
	}
	return false
}

// Normalize sanitizes and decodes an image payload and pairs it with its MIME
// type and canonical file extension. It never returns an error: undecodable
// payloads yield empty bytes and unknown formats degrade to JPEG.
func Normalize(input string) Image {
	mime := DetectMimeType(input)
	payload := Sanitize(input)

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Fall back to the raw alphabet in case padding is off.
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			data = nil
		}
	}

	return Image{
		Bytes:     data,
		MimeType:  mime,
		Extension: ExtensionFor(mime),
	}
}

// ExtensionFor maps a MIME type to the file extension used in storage paths.
func ExtensionFor(mime string) string {
	switch canonicalMime(mime) {
	case MimePNG:
		return "png"
	case MimeWEBP:
		return "webp"
	case MimeGIF:
		return "gif"
	case MimeHEIC:
		return "heic"
	default:
		return "jpg"
	}
}

// DataURL renders a MIME type and base64 payload as a data URL.
func DataURL(mime, payload string) string {
	if mime == "" {
		mime = MimeJPEG
	}
	return "data:" + mime + ";base64," + payload
}

func canonicalMime(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/jpeg", "image/jpg":
		return MimeJPEG
	case "image/png":
		return MimePNG
	case "image/webp":
		return MimeWEBP
	case "image/gif":
		return MimeGIF
	case "image/heic", "image/heif":
		return MimeHEIC
	}
	return ""
}
