package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

const assetCacheControl = "public, max-age=604800, stale-while-revalidate=86400"

// AssetsWithCache serves dir with a week of caching and content-hash ETags.
// ETags are computed once, when the handler is built; files added later are
// served without one.
func AssetsWithCache(dir string) http.Handler {
	root := os.DirFS(dir)
	etags := assetETags(root)
	files := http.FileServer(http.FS(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Vary", "Accept-Encoding")
		h.Set("Cache-Control", assetCacheControl)
		if et, ok := etags[path.Clean("/"+r.URL.Path)]; ok {
			h.Set("ETag", et)
			if etagMatches(r.Header.Get("If-None-Match"), et) {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
		files.ServeHTTP(w, r)
	})
}

// assetETags maps "/rel/path" to a weak ETag of the file contents.
func assetETags(root fs.FS) map[string]string {
	etags := map[string]string{}
	_ = fs.WalkDir(root, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		f, err := root.Open(p)
		if err != nil {
			return nil
		}
		defer f.Close()
		sum := sha256.New()
		if _, err := io.Copy(sum, f); err != nil {
			return nil
		}
		etags["/"+p] = `W/"` + hex.EncodeToString(sum.Sum(nil)[:16]) + `"`
		return nil
	})
	return etags
}

// etagMatches handles the comma-separated and wildcard forms of If-None-Match.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == strings.TrimPrefix(etag, "W/") {
			return true
		}
	}
	return false
}
