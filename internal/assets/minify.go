// Package assets minifies the static web map files published by the server.
package assets

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/json"
	"github.com/tdewolff/minify/v2/svg"

	"github.com/rs/zerolog/log"
)

var mediaTypes = map[string]string{
	".css":     "text/css",
	".html":    "text/html",
	".htm":     "text/html",
	".js":      "text/javascript",
	".mjs":     "text/javascript",
	".svg":     "image/svg+xml",
	".json":    "application/json",
	".geojson": "application/json",
}

// Result describes one processed file.
type Result struct {
	Path   string // relative to the source directory
	Before int64
	After  int64
	Copied bool // no minifier for the extension
}

// Minifier wraps a configured tdewolff minifier.
type Minifier struct {
	m *minify.M
}

// New returns a Minifier for CSS, HTML, JavaScript, SVG and JSON.
func New() *Minifier {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/javascript", js.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	m.AddFunc("application/json", json.Minify)

	return &Minifier{m: m}
}

// MediaType returns the media type minified for a file name, or "".
func MediaType(name string) string {
	return mediaTypes[strings.ToLower(filepath.Ext(name))]
}

// Bytes minifies data of the given media type.
func (mf *Minifier) Bytes(mediaType string, data []byte) ([]byte, error) {
	return mf.m.Bytes(mediaType, data)
}

// Dir minifies every file under src into the same relative path under dst.
// Files without a minifier are copied unchanged.
func (mf *Minifier) Dir(src, dst string) ([]Result, error) {
	var results []Result

	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		res, err := mf.file(path, filepath.Join(dst, rel))
		if err != nil {
			return err
		}
		res.Path = rel
		results = append(results, res)

		log.Debug().
			Str("file", rel).
			Int64("before", res.Before).
			Int64("after", res.After).
			Bool("copied", res.Copied).
			Msg("Asset processed")

		return nil
	})

	return results, err
}

func (mf *Minifier) file(src, dst string) (Result, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return Result{}, err
	}
	res := Result{Before: int64(len(data))}

	if mt := MediaType(src); mt != "" {
		var buf bytes.Buffer
		if err := mf.m.Minify(mt, &buf, bytes.NewReader(data)); err != nil {
			return Result{}, &fs.PathError{Op: "minify", Path: src, Err: err}
		}
		data = buf.Bytes()
	} else {
		res.Copied = true
	}
	res.After = int64(len(data))

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return Result{}, err
	}

	return res, os.WriteFile(dst, data, 0644)
}
