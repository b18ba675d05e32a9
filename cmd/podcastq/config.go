package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sngm3741/podcast-question-gateway/internal/questions"
)

const defaultGateway = "http://localhost:8080"

// fileConfig is the optional YAML file passed with --config.
type fileConfig struct {
	Gateway string `yaml:"gateway"`

	questions.ModelOptions `yaml:",inline"`
}

// loadFileConfig reads path over the defaults. An empty path yields the defaults.
func loadFileConfig(path string) (fileConfig, error) {
	cfg := fileConfig{Gateway: defaultGateway, ModelOptions: questions.DefaultModelOptions()}
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return fileConfig{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.Gateway == "" {
		return fileConfig{}, errors.New("config: gateway must not be empty")
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return fileConfig{}, fmt.Errorf("config: temperature %v out of range [0, 2]", cfg.Temperature)
	}
	return cfg, nil
}
