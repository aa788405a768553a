package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

const (
	transportUDS  = "uds"
	transportHTTP = "http"
	defaultServer = "http://127.0.0.1:8080"
	defaultSocket = "/tmp/bmomtm.sock"
)

// cliConfig is written by "auth login" to ~/.bmomtm/config.json and read by
// every other command.
type cliConfig struct {
	Transport string `json:"transport"`
	Server    string `json:"server"`
	Socket    string `json:"socket"`
	Token     string `json:"token"`
}

func (cfg cliConfig) withDefaults() cliConfig {
	if cfg.Transport == "" {
		cfg.Transport = transportUDS
	}
	if cfg.Server == "" {
		cfg.Server = defaultServer
	}
	if cfg.Socket == "" {
		cfg.Socket = defaultSocket
	}
	return cfg
}

func sessionFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".bmomtm", "config.json"), nil
}

func loadConfig() (cliConfig, error) {
	path, err := sessionFile()
	if err != nil {
		return cliConfig{}, err
	}
	var cfg cliConfig
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return cfg.withDefaults(), nil
	case err != nil:
		return cliConfig{}, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cliConfig{}, err
	}
	return cfg.withDefaults(), nil
}

// saveConfig keeps the token readable by the owner only.
func saveConfig(cfg cliConfig) error {
	path, err := sessionFile()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
