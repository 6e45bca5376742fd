package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Profile struct {
	APIKey         string `json:"api_key"`
	BaseURL        string `json:"base_url,omitempty"`
	Model          string `json:"model"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	TavilyAPIKey   string `json:"tavily_api_key,omitempty"`
	USDAAPIKey     string `json:"usda_api_key,omitempty"`
}

type Config struct {
	Profiles      map[string]Profile `json:"profiles"`
	ActiveProfile string             `json:"active_profile"`
	CorpusDir     string             `json:"corpus_dir,omitempty"`
	MaxToolRounds int                `json:"max_tool_rounds,omitempty"`
	Debug         bool               `json:"debug,omitempty"`

	currentProfile *Profile
}

const (
	defaultModel          = "gpt-4o-mini"
	defaultEmbeddingModel = "text-embedding-3-small"
	defaultMaxToolRounds  = 10
)

func LoadConfig() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	// Ensure config directory exists
	if err := ensureConfigDir(configPath); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	// Load existing config or create default
	config, err := loadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Validate and set current profile
	if err := config.setCurrentProfile(); err != nil {
		return nil, fmt.Errorf("failed to set current profile: %w", err)
	}

	config.applyEnvOverrides()

	return config, nil
}

func (c *Config) IsValid() bool {
	return c.currentProfile != nil && c.currentProfile.APIKey != ""
}

func (c *Config) GetAPIKey() string {
	if c.currentProfile == nil {
		return ""
	}
	return c.currentProfile.APIKey
}

func (c *Config) GetModel() string {
	if c.currentProfile == nil || c.currentProfile.Model == "" {
		return defaultModel
	}
	return c.currentProfile.Model
}

func (c *Config) GetEmbeddingModel() string {
	if c.currentProfile == nil || c.currentProfile.EmbeddingModel == "" {
		return defaultEmbeddingModel
	}
	return c.currentProfile.EmbeddingModel
}

func (c *Config) GetBaseURL() string {
	if c.currentProfile == nil {
		return ""
	}
	return c.currentProfile.BaseURL
}

func (c *Config) GetTavilyAPIKey() string {
	if c.currentProfile == nil {
		return ""
	}
	return c.currentProfile.TavilyAPIKey
}

func (c *Config) GetUSDAAPIKey() string {
	if c.currentProfile == nil {
		return ""
	}
	return c.currentProfile.USDAAPIKey
}

// GetCorpusDir returns the knowledge-base corpus directory, defaulting to
// "data" under the config home.
func (c *Config) GetCorpusDir() string {
	if c.CorpusDir != "" {
		return c.CorpusDir
	}
	configPath, err := getConfigPath()
	if err != nil {
		return "data"
	}
	return filepath.Join(filepath.Dir(configPath), "data")
}

func (c *Config) GetMaxToolRounds() int {
	if c.MaxToolRounds <= 0 {
		return defaultMaxToolRounds
	}
	return c.MaxToolRounds
}

// applyEnvOverrides lets environment variables fill in keys the profile
// leaves blank, so the agent works in key-per-environment deployments.
func (c *Config) applyEnvOverrides() {
	if c.currentProfile == nil {
		return
	}
	if c.currentProfile.APIKey == "" {
		c.currentProfile.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.currentProfile.TavilyAPIKey == "" {
		c.currentProfile.TavilyAPIKey = os.Getenv("TAVILY_API_KEY")
	}
	if c.currentProfile.USDAAPIKey == "" {
		c.currentProfile.USDAAPIKey = os.Getenv("USDA_API_KEY")
	}
}

func getConfigPath() (string, error) {
	var configDir string

	// Use UPCAGENT_HOME if set, otherwise use user's home directory
	if agentHome := os.Getenv("UPCAGENT_HOME"); agentHome != "" {
		configDir = agentHome
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = homeDir
	}

	return filepath.Join(configDir, ".upcagent", "config.json"), nil
}

func ensureConfigDir(configPath string) error {
	configDir := filepath.Dir(configPath)
	return os.MkdirAll(configDir, 0755)
}

func loadConfigFile(configPath string) (*Config, error) {
	// If config file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig(configPath)
	}

	// Read existing config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

func createDefaultConfig(configPath string) (*Config, error) {
	config := &Config{
		Profiles: map[string]Profile{
			"default": {
				APIKey:         "",
				BaseURL:        "",
				Model:          defaultModel,
				EmbeddingModel: defaultEmbeddingModel,
			},
		},
		ActiveProfile: "default",
	}

	// Save default config to file
	if err := saveConfig(config, configPath); err != nil {
		return nil, err
	}

	return config, nil
}

func saveConfig(config *Config, configPath string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

func (c *Config) Save() error {
	configPath, err := getConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	return saveConfig(c, configPath)
}

func (c *Config) setCurrentProfile() error {
	if c.Profiles == nil {
		return fmt.Errorf("no profiles defined")
	}

	profile, exists := c.Profiles[c.ActiveProfile]
	if !exists {
		// If active profile doesn't exist, try to use the first available profile
		for name, p := range c.Profiles {
			c.ActiveProfile = name
			profile = p
			exists = true
			break
		}
	}

	if !exists {
		return fmt.Errorf("no valid profiles found")
	}

	c.currentProfile = &profile
	return nil
}
