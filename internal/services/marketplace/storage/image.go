package storage

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
)

// ImagePathPrefix prefixes content-addressed image references.
const ImagePathPrefix = "/images/"

// Image is an uploaded image payload.
type Image struct {
	ContentType string
	Data        []byte
}

// Normalize fills a missing content type by sniffing the payload.
func (img Image) Normalize() (Image, error) {
	if len(img.Data) == 0 {
		return Image{}, ErrEmptyImage
	}
	contentType := strings.TrimSpace(img.ContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(img.Data)
	}
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	img.ContentType = contentType
	return img, nil
}

// Digest returns the hex SHA-256 of the payload.
func (img Image) Digest() string {
	sum := sha256.Sum256(img.Data)
	return hex.EncodeToString(sum[:])
}

// ContentRef returns the stable path reference for a stored image.
func ContentRef(img Image) string {
	return ImagePathPrefix + img.Digest()
}

// DigestFromRef extracts the digest from a ContentRef reference.
func DigestFromRef(ref string) (string, bool) {
	digest, ok := strings.CutPrefix(strings.TrimSpace(ref), ImagePathPrefix)
	if !ok || len(digest) != sha256.Size*2 {
		return "", false
	}
	if _, err := hex.DecodeString(digest); err != nil {
		return "", false
	}
	return strings.ToLower(digest), true
}

// DataURL encodes img as a data: URL.
func DataURL(img Image) string {
	return "data:" + img.ContentType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// ParseDataURL decodes a base64 data: URL.
func ParseDataURL(ref string) (Image, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(ref), "data:")
	if !ok {
		return Image{}, fmt.Errorf("not a data url")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, fmt.Errorf("data url has no payload")
	}
	contentType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return Image{}, fmt.Errorf("data url must be base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("decode data url: %w", err)
	}
	return Image{ContentType: contentType, Data: data}, nil
}
