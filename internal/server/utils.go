package server

import (
	"path"
	"strings"
)

// normalizeRequestPath cleans the URL path into a name relative to the public root.
func normalizeRequestPath(rawPath string) string {
	return path.Clean("/" + rawPath)
}

// cacheControl picks the Cache-Control header for a public file.
func cacheControl(name string, isDir bool) string {
	filename := path.Base(name)
	switch {
	case isHashedAsset(filename):
		return "public, max-age=31536000, immutable"
	case isDir || strings.HasSuffix(filename, ".html"):
		return "no-store, no-cache, must-revalidate, proxy-revalidate"
	default:
		return "public, max-age=60"
	}
}

// isHashedAsset checks if filename contains a content hash (e.g., layout.a1b2c3d4.css)
func isHashedAsset(filename string) bool {
	parts := strings.Split(filename, ".")
	if len(parts) < 3 {
		return false
	}
	hashPart := parts[len(parts)-2]
	if len(hashPart) < 8 || len(hashPart) > 12 {
		return false
	}
	for _, c := range hashPart {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
