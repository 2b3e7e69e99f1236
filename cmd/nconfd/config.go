package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/nconfd/nconfd/internal/supervisor"
)

type fileConfig struct {
	Models         []string        `toml:"models"`
	DatastoreModel string          `toml:"datastore_model"`
	DatastorePath  string          `toml:"datastore_path"`
	PidFile        string          `toml:"pid_file"`
	PollInterval   string          `toml:"poll_interval"`
	Features       []featureConfig `toml:"feature"`
}

type featureConfig struct {
	Model string `toml:"model"`
	Name  string `toml:"name"`
}

// loadManifest overlays the runtime manifest at path onto base. Only keys
// present in the file override the stock layout.
func loadManifest(path string, base supervisor.Config) (supervisor.Config, error) {
	cfg := base

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return supervisor.Config{}, fmt.Errorf("load manifest: %w", err)
	}

	if meta.IsDefined("models") {
		cfg.Models = normalizePaths(raw.Models)
	}

	if meta.IsDefined("datastore_model") {
		cfg.DatastoreModel = strings.TrimSpace(raw.DatastoreModel)
	}

	if meta.IsDefined("datastore_path") {
		cfg.DatastorePath = strings.TrimSpace(raw.DatastorePath)
	}

	if meta.IsDefined("pid_file") {
		cfg.PidFile = strings.TrimSpace(raw.PidFile)
	}

	if meta.IsDefined("poll_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.PollInterval))
		if err != nil {
			return supervisor.Config{}, fmt.Errorf("parse poll_interval: %w", err)
		}
		cfg.PollInterval = d
	}

	if meta.IsDefined("feature") {
		features := make([]supervisor.Feature, 0, len(raw.Features))
		for _, f := range raw.Features {
			model := strings.TrimSpace(f.Model)
			name := strings.TrimSpace(f.Name)
			if model == "" || name == "" {
				return supervisor.Config{}, fmt.Errorf("manifest feature needs model and name, got model=%q name=%q", f.Model, f.Name)
			}
			features = append(features, supervisor.Feature{Model: model, Name: name})
		}
		cfg.Features = features
	}

	return cfg, nil
}

func normalizePaths(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		v := strings.TrimSpace(p)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
