package extract

import (
	"net/url"
	"path"
	"strings"
)

// KeyFromURL turns a stored file reference into an object store key. It accepts bare keys,
// keys prefixed with the bucket name, and public or signed URLs whose path contains
// /<bucket>/.
func KeyFromURL(raw, bucket string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	p := raw
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		u, err := url.Parse(raw)
		if err != nil {
			return ""
		}
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if bucket != "" {
		marker := "/" + bucket + "/"
		if i := strings.Index(p, marker); i >= 0 {
			p = p[i+len(marker):]
		} else {
			p = strings.TrimPrefix(strings.TrimLeft(p, "/"), bucket+"/")
		}
	}
	return strings.TrimLeft(p, "/")
}

// Extension returns the lower-cased extension of a key without the dot.
func Extension(key string) string {
	ext := path.Ext(key)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

var imageMIMEs = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"webp": "image/webp",
}

// ImageMIME returns the MIME type for a supported image extension.
func ImageMIME(ext string) (string, bool) {
	mime, ok := imageMIMEs[ext]
	return mime, ok
}

// ProviderReadable reports whether a stored file with this extension can be extracted by the
// provider.
func ProviderReadable(ext string) bool {
	if ext == "pdf" {
		return true
	}
	_, ok := ImageMIME(ext)
	return ok
}
