package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrObjectNotFound = errors.New("storage: object not found")

// Storage keeps uploaded media files.
type Storage interface {
	// Put stores body under a fresh key derived from name and returns the key.
	Put(ctx context.Context, name string, body []byte, contentType string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	URL(ctx context.Context, key string) (string, error)
}

// activeExtensions are rendered as documents or scripts by browsers.
var activeExtensions = map[string]bool{
	".html": true, ".htm": true, ".xhtml": true, ".shtml": true,
	".svg": true, ".svgz": true, ".xml": true, ".xsl": true,
	".js": true, ".mjs": true,
}

// inlineTypes may be displayed in place; anything else is a download.
var inlineTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".avif": "image/avif",
}

// IsActiveContent reports whether a file named name with the declared
// contentType could execute script when opened in a browser.
func IsActiveContent(name, contentType string) bool {
	if activeExtensions[strings.ToLower(filepath.Ext(name))] {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	for _, marker := range []string{"html", "svg", "xml", "javascript", "ecmascript"} {
		if strings.Contains(mediaType, marker) {
			return true
		}
	}
	return false
}

// ServedType returns the content type a stored key is served with and
// whether it may be shown inline.
func ServedType(key string) (string, bool) {
	if ct, ok := inlineTypes[strings.ToLower(filepath.Ext(key))]; ok {
		return ct, true
	}
	return "application/octet-stream", false
}

func newObjectKey(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	return uuid.New().String() + ext
}

// validKey rejects anything that is not a single flat object name.
func validKey(key string) error {
	if key == "" || key == "." || key == ".." || path.Base(key) != key || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("invalid object key %q", key)
	}
	return nil
}
