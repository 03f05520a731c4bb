package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds all user-facing configuration for lorebinder.
type Config struct {
	Data    DataConfig    `toml:"data"`
	Book    BookConfig    `toml:"book"`
	AI      AIConfig      `toml:"ai"`
	Server  ServerConfig  `toml:"server"`
	Extract ExtractConfig `toml:"extract"`
}

type DataConfig struct {
	Dir string `toml:"dir"`
}

// BookConfig describes the book being processed. Narrator is empty for
// third-person books; CustomCategories extend the built-in Characters
// and Settings when asking the model for entities.
type BookConfig struct {
	Title            string   `toml:"title"`
	Author           string   `toml:"author"`
	Narrator         string   `toml:"narrator"`
	CustomCategories []string `toml:"custom_categories"`
}

type AIConfig struct {
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type ExtractConfig struct {
	RateLimit float64 `toml:"rate_limit"`
}

// Defaults returns a Config populated with built-in default values.
func Defaults() *Config {
	return &Config{
		Data:    DataConfig{Dir: "data"},
		Book:    BookConfig{},
		AI:      AIConfig{Model: "gpt-4o-mini", MaxTokens: 4096, Temperature: 0.4},
		Server:  ServerConfig{Host: "localhost", Port: 8080},
		Extract: ExtractConfig{RateLimit: 1.0},
	}
}

// Load reads a TOML config file. If the file does not exist, built-in
// defaults are returned without error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
