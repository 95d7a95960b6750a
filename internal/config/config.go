package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Promax   PromaxConfig   `yaml:"promax"`
	HMAC     HMACConfig     `yaml:"hmac"`
	Admin    AdminConfig    `yaml:"admin"`
	Receipts ReceiptsConfig `yaml:"receipts"`
	Email    EmailConfig    `yaml:"email"`
	Database DatabaseConfig `yaml:"database"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func LoadConfig() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/mobipay.yaml"
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.HTTP.Port == 0 {
		c.Server.HTTP.Port = 3000
	}
	if c.Promax.BaseURL == "" {
		c.Promax.BaseURL = "https://api.promax-dash.com/api.php"
	}
	if c.Promax.Timeout == 0 {
		c.Promax.Timeout = 8 * time.Second
	}
	if c.Promax.BouquetCacheTTL == 0 {
		c.Promax.BouquetCacheTTL = time.Hour
	}
	if c.HMAC.Skew == 0 {
		c.HMAC.Skew = 300 * time.Second
	}
	if c.Receipts.Dir == "" {
		c.Receipts.Dir = "./receipts"
	}
	if c.Email.From == "" {
		c.Email.From = "noreply@example.com"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "memory"
	}
}

// Secrets can be supplied through the environment instead of the config file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PROMAX_API_KEY"); v != "" {
		c.Promax.APIKey = v
	}
	if v := os.Getenv("MOBIPAY_HMAC_KEY_ID"); v != "" {
		keyID := v
		secret := os.Getenv("MOBIPAY_HMAC_SECRET")
		replaced := false
		for i := range c.HMAC.Keys {
			if c.HMAC.Keys[i].KeyID == keyID {
				if secret != "" {
					c.HMAC.Keys[i].Secret = secret
				}
				replaced = true
			}
		}
		if !replaced && secret != "" {
			c.HMAC.Keys = append(c.HMAC.Keys, HMACKey{KeyID: keyID, Secret: secret})
		}
	}
	if v := os.Getenv("ADMIN_JWT_SECRET"); v != "" {
		c.Admin.JWTSecret = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		c.Database.Password = v
	}
}

func (c *Config) validate() error {
	if c.Promax.APIKey == "" {
		return fmt.Errorf("promax.api_key is required (or PROMAX_API_KEY)")
	}
	if len(c.HMAC.Keys) == 0 {
		return fmt.Errorf("at least one hmac key is required (or MOBIPAY_HMAC_KEY_ID/MOBIPAY_HMAC_SECRET)")
	}
	for _, key := range c.HMAC.Keys {
		if key.KeyID == "" || key.Secret == "" {
			return fmt.Errorf("hmac keys must have both key_id and secret")
		}
	}
	return nil
}
