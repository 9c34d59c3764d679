// Package blob stores receipt screenshots and hands out time-limited signed
// URLs for them.
//
// Two backends are provided: FSStore keeps files under a local directory and
// MemoryStore keeps them in process. Both sign URLs with a Signer and are
// served by Handler under the /blobs/ prefix.
package blob

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Prefix is the folder every screenshot is stored under.
const Prefix = "screenshots"

var (
	ErrInvalidPath = errors.New("invalid blob path")
	ErrExists      = errors.New("blob already exists")
)

// Object is an opened blob ready to be served.
type Object struct {
	io.ReadSeekCloser
	ContentType string
	ModTime     time.Time
}

// NewPath builds a collision-resistant path for an uploaded file:
// screenshots/<unix-millis>_<random>.<ext>. ext falls back to the
// extension of the sniffed content type when the filename has none.
func NewPath(now time.Time, filename, fallbackExt string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	if ext == "" || !isSafeExt(ext) {
		ext = strings.TrimPrefix(fallbackExt, ".")
	}
	if ext == "" {
		ext = "bin"
	}
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
	return fmt.Sprintf("%s/%d_%s.%s", Prefix, now.UnixMilli(), random, ext)
}

func isSafeExt(ext string) bool {
	if len(ext) > 5 {
		return false
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// CleanPath validates a relative blob path and returns its cleaned form.
func CleanPath(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	cleaned := path.Clean(p)
	if cleaned != p || cleaned == "." || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return cleaned, nil
}
