package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port        int    `koanf:"port"`
		BaseURL     string `koanf:"base_url"`
		RequireAuth bool   `koanf:"require_auth"`
		TenantsFile string `koanf:"tenants_file"`
		Descriptor  string `koanf:"descriptor"`
		PanelFile   string `koanf:"panel_file"`
	} `koanf:"server"`

	Jira struct {
		ServerURL string `koanf:"server_url"`
		Email     string `koanf:"email"`
		APIToken  string `koanf:"api_token"`
	} `koanf:"jira"`

	Ollama struct {
		BaseURL        string  `koanf:"base_url"`
		Model          string  `koanf:"model"`
		Temperature    float64 `koanf:"temperature"`
		TopP           float64 `koanf:"top_p"`
		NumCtx         int     `koanf:"num_ctx"`
		TimeoutSeconds int     `koanf:"timeout_seconds"`
	} `koanf:"ollama"`

	Policy struct {
		File string `koanf:"file"`
	} `koanf:"policy"`

	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

// LoadConfig loads the configuration from a file
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	// Set up default configuration
	k.Load(confmap.Provider(map[string]interface{}{
		"server.port":            8888,
		"server.require_auth":    true,
		"server.tenants_file":    "tenants.json",
		"server.descriptor":      "atlassian-connect.json",
		"server.panel_file":      "panel.html",
		"ollama.base_url":        "http://localhost:11434",
		"ollama.model":           "llama3:8b",
		"ollama.temperature":     0.1,
		"ollama.top_p":           0.9,
		"ollama.num_ctx":         4096,
		"ollama.timeout_seconds": 60,
		"log.level":              "info",
	}, "."), nil)

	// Load from TOML file if it exists
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		// Try to load from default locations
		defaultPaths := []string{"./ticketsmith.toml", "$HOME/.ticketsmith.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Load from environment variables with prefix TICKETSMITH_
	// TICKETSMITH_JIRA_API_TOKEN -> jira.api_token
	k.Load(env.Provider("TICKETSMITH_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "TICKETSMITH_"))
		return strings.Replace(s, "_", ".", 1)
	}), nil)

	// Unmarshal into Config struct
	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	// Create sample configuration
	sampleConfig := `# Ticketsmith Configuration

[server]
port = 8888
base_url = "https://your-app.example.com"
require_auth = true
tenants_file = "tenants.json"
descriptor = "atlassian-connect.json"
panel_file = "panel.html"

[jira]
server_url = "https://your-company.atlassian.net"
email = "service-account@example.com"
api_token = "your-jira-api-token"

[ollama]
base_url = "http://localhost:11434"
model = "llama3:8b"
temperature = 0.1
top_p = 0.9
num_ctx = 4096
timeout_seconds = 60

[policy]
# Optional path to a policy document overriding the built-in rules
# file = "policy.txt"

[log]
level = "info"
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	if config.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}

	if config.Jira.ServerURL == "" {
		return fmt.Errorf("jira server_url is required")
	}
	if config.Jira.Email == "" {
		return fmt.Errorf("jira email is required")
	}
	if config.Jira.APIToken == "" {
		return fmt.Errorf("jira api_token is required")
	}

	if config.Ollama.BaseURL == "" {
		return fmt.Errorf("ollama base_url is required")
	}
	if config.Ollama.Model == "" {
		return fmt.Errorf("ollama model is required")
	}

	return nil
}
