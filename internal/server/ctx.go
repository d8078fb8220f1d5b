package server

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/woozymasta/parcelstrip/internal/config"

	"github.com/rs/zerolog/log"
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	PublicDir string
	Layers    []config.Layer
	layerPath map[string]string
}

// NewServerContext resolves the configured layers against the public
// directory. Layers whose file is missing are skipped.
func NewServerContext(cfg *config.Server) *ServerContext {
	log.Info().
		Str("public_dir", cfg.PublicDir).
		Int("config_layers_count", len(cfg.Layers)).
		Msg("Initializing server context")

	s := &ServerContext{
		PublicDir: cfg.PublicDir,
		Layers:    make([]config.Layer, 0, len(cfg.Layers)),
		layerPath: make(map[string]string, len(cfg.Layers)),
	}

	for _, layer := range cfg.Layers {
		if _, dup := s.layerPath[layer.Name]; dup {
			log.Warn().Str("layer", layer.Name).Msg("Skipping duplicate layer name")
			continue
		}

		path := filepath.Join(cfg.PublicDir, layer.File)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			log.Warn().
				Str("layer", layer.Name).
				Str("path", path).
				Msg("Skipping layer: file not found")
			continue
		}

		log.Debug().
			Str("layer", layer.Name).
			Str("path", path).
			Msg("Layer validated and added to context")

		s.layerPath[layer.Name] = path
		s.Layers = append(s.Layers, layer)
	}

	log.Info().
		Int("valid_layers_count", len(s.Layers)).
		Msg("Server context initialized successfully")

	return s
}

// Handler returns the routes wrapped in the request logger.
func (s *ServerContext) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/layers", s.HandleLayersList)
	mux.HandleFunc("/layers/", s.HandleLayer)
	mux.HandleFunc("/", s.HandleStatic)

	return RequestLogger(mux)
}
