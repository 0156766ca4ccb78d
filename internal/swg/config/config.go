package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment variables
// with the SWG_ prefix.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Port is the port the intercepting proxy listens on.
	Port int `koanf:"port" validate:"required,gte=1,lt=65536"`

	// CacheFile is the JSON file persisting the domain → category cache.
	CacheFile string `koanf:"cache_file" validate:"required"`

	// PolicyFile is the JSON file persisting category → policy decisions.
	PolicyFile string `koanf:"policy_file" validate:"required"`

	// StrictCache makes a corrupt cache file fatal at startup instead of
	// resetting to an empty cache. The policy file is always fatal when
	// corrupt regardless of this setting.
	StrictCache bool `koanf:"strict_cache"`

	// BlockPageFile is the HTML asset served on blocked requests. When the
	// file is missing a minimal inline page is used instead.
	BlockPageFile string `koanf:"block_page_file"`

	// AuditDB is the path of the bbolt decision audit database. Empty
	// disables auditing.
	AuditDB string `koanf:"audit_db"`

	// APIKey is the Gemini API credential (SWG_API_KEY).
	APIKey string `koanf:"api_key" validate:"required"`

	// Model is the Gemini model used for categorization.
	Model string `koanf:"model" validate:"required"`

	// ClassifierTimeout bounds each classification call.
	ClassifierTimeout time.Duration `koanf:"classifier_timeout" validate:"required,gt=0"`

	// CACertFile and CAKeyFile optionally supply the interception CA pair.
	// Both must be set together; when absent the proxy library's built-in
	// CA is used.
	CACertFile string `koanf:"ca_cert_file" validate:"required_with=CAKeyFile"`
	CAKeyFile  string `koanf:"ca_key_file" validate:"required_with=CACertFile"`
}

// DEFAULT_APP_CONFIG defines the default application configuration. The API
// key has no default on purpose: the credential must come from the
// environment.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:               "prod",
	LogLevel:          "info",
	Port:              8080,
	CacheFile:         "domain_cache.json",
	PolicyFile:        "categories.json",
	StrictCache:       false,
	BlockPageFile:     "block_page.html",
	Model:             "gemini-2.5-flash",
	ClassifierTimeout: 10 * time.Second,
}

// envLoader loads environment variables with the prefix "SWG_". The key is
// lowercased with the prefix removed. It is a var so tests can mock it.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "SWG_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "SWG_"))
			return key, strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads default values into the provided Koanf instance using
// the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
