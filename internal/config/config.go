// Package config holds the application configuration model.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI reads and writes the config file.
const DefaultPath = "vibematch.yaml"

// Config is the application's configuration model.
type Config struct {
	Dataset DatasetConfig `yaml:"dataset"`
	Server  ServerConfig  `yaml:"server"`
	Ollama  OllamaConfig  `yaml:"ollama"`
	Spotify SpotifyConfig `yaml:"spotify"`
	Library LibraryConfig `yaml:"library"`
}

// DatasetConfig locates the track CSV and tunes the recommender.
type DatasetConfig struct {
	// Path to the audio-feature CSV. Env VIBEMATCH_DATA overrides it.
	Path         string `yaml:"path"`
	Clusters     int    `yaml:"clusters"`
	NeighborPool int    `yaml:"neighborPool"`
	Seed         uint64 `yaml:"seed"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type OllamaConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Model   string `yaml:"model"`
}

type SpotifyConfig struct {
	// If empty, read from env SPOTIFY_ID / SPOTIFY_SECRET.
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`
}

type LibraryConfig struct {
	DBPath string `yaml:"dbPath"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		Dataset: DatasetConfig{
			Path:         "data/spotify_tracks.csv",
			Clusters:     5,
			NeighborPool: 30,
			Seed:         42,
		},
		Server:  ServerConfig{Addr: ":8080"},
		Ollama:  OllamaConfig{Enabled: true, URL: "http://localhost:11434", Model: "llama3.2"},
		Spotify: SpotifyConfig{},
		Library: LibraryConfig{DBPath: "vibematch.db"},
	}
}

// ResolveEnv fills in config fields from environment variables.
func (c *Config) ResolveEnv() {
	if v := os.Getenv("VIBEMATCH_DATA"); v != "" {
		c.Dataset.Path = v
	}
	if c.Spotify.ClientID == "" {
		c.Spotify.ClientID = os.Getenv("SPOTIFY_ID")
	}
	if c.Spotify.ClientSecret == "" {
		c.Spotify.ClientSecret = os.Getenv("SPOTIFY_SECRET")
	}
}

// Load reads YAML config from path. Fields missing from the file keep
// their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.ResolveEnv()
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
