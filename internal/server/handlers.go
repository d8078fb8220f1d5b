// Package server publishes the GeoJSON layers and the web map over HTTP.
package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	etagCap = 64

	geoJSONType = "application/geo+json"
	layerSuffix = ".geojson"
)

// LayerInfo describes a published layer.
type LayerInfo struct {
	Name     string    `json:"name"`
	URL      string    `json:"url"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// HandleLayersList serves the JSON list of available layers.
func (s *ServerContext) HandleLayersList(w http.ResponseWriter, r *http.Request) {
	list := make([]LayerInfo, 0, len(s.Layers))
	for _, layer := range s.Layers {
		info, err := os.Stat(s.layerPath[layer.Name])
		if err != nil {
			continue
		}
		list = append(list, LayerInfo{
			Name:     layer.Name,
			URL:      "/layers/" + layer.Name + layerSuffix,
			Size:     info.Size(),
			Modified: info.ModTime().UTC(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(list)
}

// HandleLayer serves /layers/{name}.geojson.
func (s *ServerContext) HandleLayer(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutPrefix(r.URL.Path, "/layers/")
	if !ok || strings.Contains(name, "/") {
		http.NotFound(w, r)
		return
	}

	name, ok = strings.CutSuffix(name, layerSuffix)
	if !ok {
		http.NotFound(w, r)
		return
	}

	p, ok := s.layerPath[name]
	if !ok || !s.serveFile(w, r, p, geoJSONType) {
		http.NotFound(w, r)
	}
}

// HandleStatic serves the web map from the public directory, with / mapped
// to index.html.
func (s *ServerContext) HandleStatic(w http.ResponseWriter, r *http.Request) {
	rel := path.Clean("/" + r.URL.Path)
	if rel == "/" {
		rel = "/index.html"
	}

	contentType := ""
	if strings.HasSuffix(rel, layerSuffix) {
		contentType = geoJSONType
	}

	p := filepath.Join(s.PublicDir, filepath.FromSlash(rel))
	if !s.serveFile(w, r, p, contentType) {
		http.NotFound(w, r)
	}
}

// serveFile tries to serve a file from disk with ETag generation.
// It returns true if the file was found and served (or 304).
func (s *ServerContext) serveFile(w http.ResponseWriter, r *http.Request, path string, contentType string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return false
	}

	buf := make([]byte, 0, etagCap)
	buf = append(buf, '"')
	buf = strconv.AppendInt(buf, info.Size(), 16)
	buf = append(buf, '-')
	buf = strconv.AppendInt(buf, info.ModTime().UnixNano(), 16)
	buf = append(buf, '"')
	etag := string(buf)

	// check If-None-Match (client sent ETag)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	http.ServeFile(w, r, path)
	return true
}
