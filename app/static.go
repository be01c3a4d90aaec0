package kiosk

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
)

// StaticFS is a wrapper around http.FileSystem that adds etag and
// cache-control support for the kiosk's static assets.
type StaticFS struct {
	http.FileSystem
	etags map[string]string
	// a map of file paths to cache control headers
	cacheControl map[string]string
}

// NewStaticFS returns a new StaticFS. cacheControl maps glob patterns
// to Cache-Control header values.
func NewStaticFS(fsys fs.FS, cacheControl map[string]string) (*StaticFS, error) {
	etags, err := calculateEtags(fsys)
	if err != nil {
		return nil, fmt.Errorf("calculating etags: %w", err)
	}

	cc, err := expandCacheControl(fsys, cacheControl)
	if err != nil {
		return nil, fmt.Errorf("expanding cache control paths: %w", err)
	}

	return &StaticFS{FileSystem: http.FS(fsys), etags: etags, cacheControl: cc}, nil
}

func calculateEtags(fsys fs.FS) (map[string]string, error) {
	etags := make(map[string]string)
	return etags, fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		f, err := fsys.Open(p)
		if err != nil {
			return fmt.Errorf("opening %s: %w", p, err)
		}
		defer f.Close()
		hasher := sha1.New()
		if _, err := io.Copy(hasher, f); err != nil {
			return fmt.Errorf("hashing %s: %w", p, err)
		}
		etags[p] = `"` + hex.EncodeToString(hasher.Sum(nil)) + `"`
		return nil
	})
}

func expandCacheControl(fsys fs.FS, cacheControl map[string]string) (map[string]string, error) {
	expanded := make(map[string]string)

	return expanded, fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		for glob, cc := range cacheControl {
			if matched, err := filepath.Match(glob, p); err == nil && matched {
				expanded[p] = cc
				return nil
			} else if err != nil {
				return fmt.Errorf("matching %s: %w", p, err)
			}
		}
		return nil
	})
}

// EtagMiddleware answers 304 for matching If-None-Match headers and sets
// the Etag and Cache-Control headers on asset responses. prefix is the
// URL prefix the file server is mounted on.
func (fs StaticFS) EtagMiddleware(prefix string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := strings.TrimPrefix(r.URL.Path, prefix)
			path = strings.TrimPrefix(path, "/")

			if etag, ok := fs.etags[path]; ok {
				if matched := r.Header.Get("If-None-Match"); matched != "" && matched == etag {
					w.WriteHeader(http.StatusNotModified)
					return
				}
				w.Header().Set("Etag", etag)
				if cc, ok := fs.cacheControl[path]; ok {
					w.Header().Set("Cache-Control", cc)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
