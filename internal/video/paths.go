package video

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const maxFilenameLength = 100

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// StoragePathFromURL recovers an object path from a public asset URL.
// For ".../public/<bucket>/a/b/c" it returns "a/b/c"; without that marker it
// falls back to the last two path segments. It reports false when the URL
// cannot be parsed or yields no path.
func StoragePathFromURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" {
		return "", false
	}

	p := u.Path
	if p == "" {
		p = "/"
	}
	parts := strings.Split(p, "/")

	var derived string
	if idx := indexOf(parts, "public"); idx >= 0 && len(parts) > idx+2 {
		derived = strings.Join(parts[idx+2:], "/")
	} else {
		derived = strings.Join(parts[max(len(parts)-2, 0):], "/")
	}

	derived = strings.Trim(derived, "/")
	if derived == "" {
		return "", false
	}
	return derived, true
}

func indexOf(parts []string, s string) int {
	for i, p := range parts {
		if p == s {
			return i
		}
	}
	return -1
}

// objectPath namespaces an upload by owner with a millisecond timestamp
// prefix: "<owner>/<unixMillis>_<filename>".
func objectPath(ownerID, filename string, now time.Time) string {
	return fmt.Sprintf("%s/%d_%s", ownerID, now.UnixMilli(), sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "file"
	}
	if len(name) > maxFilenameLength {
		ext := filepath.Ext(name)
		if len(ext) > 10 {
			ext = ""
		}
		name = name[:maxFilenameLength-len(ext)] + ext
	}
	return name
}
