package config

import "time"

type ServiceConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type PromaxConfig struct {
	BaseURL         string        `yaml:"base_url"`
	APIKey          string        `yaml:"api_key"`
	Timeout         time.Duration `yaml:"timeout"`
	BouquetCacheTTL time.Duration `yaml:"bouquet_cache_ttl"`
}

// HMACKey is one active signing key. Multiple entries allow rotation: the
// processor signs with any listed key and names it by key_id.
type HMACKey struct {
	KeyID  string `yaml:"key_id"`
	Secret string `yaml:"secret"`
}

type HMACConfig struct {
	Keys []HMACKey     `yaml:"keys"`
	Skew time.Duration `yaml:"skew"`
}

type AdminConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type ReceiptsConfig struct {
	Dir string `yaml:"dir"`
}

type EmailConfig struct {
	From     string `yaml:"from"`
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	StartTLS bool   `yaml:"start_tls"`
}
