package types

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Accepted sync interval range in minutes. The upper bound is one week.
const (
	MinIntervalMinutes = 30
	MaxIntervalMinutes = 7 * 24 * 60
)

const (
	DefaultRepoName     = "GitClock"
	DefaultAPIBaseURL   = "https://api.github.com"
	DefaultRedirectURI  = "http://localhost:5000/oauthCallback"
	DefaultCallbackPath = "/oauthCallback"
	envPrefix           = "GITCLOCK"
)

var (
	ErrInvalidInterval  = errors.New("interval is not a number")
	ErrIntervalTooShort = fmt.Errorf("interval is below %d minutes", MinIntervalMinutes)
	ErrIntervalTooLong  = fmt.Errorf("interval is above %d minutes", MaxIntervalMinutes)
)

// Config struct
type Config struct {
	WorkDir    string           `mapstructure:"workDir" validate:"required"`
	DataDir    string           `mapstructure:"dataDir" validate:"required"`
	Repository RepositoryConfig `mapstructure:"repository"`
	Sync       SyncConfig       `mapstructure:"sync"`
	OAuth      OAuthConfig      `mapstructure:"oauth"`
	Log        LogConfig        `mapstructure:"log"`
}

type RepositoryConfig struct {
	Name       string `mapstructure:"name" validate:"required"`
	APIBaseURL string `mapstructure:"apiBaseUrl" validate:"required,url"`
	// CAFile is an extra PEM bundle to trust, for self-hosted servers.
	CAFile string `mapstructure:"caFile"`
}

type SyncConfig struct {
	IntervalMinutes int    `mapstructure:"intervalMinutes" validate:"gte=30,lte=10080"`
	VCSBackend      string `mapstructure:"vcsBackend" validate:"oneof=exec go-git"`
}

// OAuthConfig is only required by the login command, see RequireOAuth.
type OAuthConfig struct {
	ClientID     string   `mapstructure:"clientId"`
	ClientSecret string   `mapstructure:"clientSecret"`
	AuthURL      string   `mapstructure:"authUrl" validate:"omitempty,url"`
	TokenURL     string   `mapstructure:"tokenUrl" validate:"omitempty,url"`
	RedirectURI  string   `mapstructure:"redirectUri" validate:"omitempty,url"`
	ListenAddr   string   `mapstructure:"listenAddr"`
	CallbackPath string   `mapstructure:"callbackPath"`
	Scopes       []string `mapstructure:"scopes"`
}

type LogConfig struct {
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Development bool   `mapstructure:"development"`
}

// RequireOAuth lists the settings the login flow cannot run without.
func (c OAuthConfig) RequireOAuth() error {
	missing := []string{}
	if c.ClientID == "" {
		missing = append(missing, "oauth.clientId")
	}
	if c.AuthURL == "" {
		missing = append(missing, "oauth.authUrl")
	}
	if c.TokenURL == "" {
		missing = append(missing, "oauth.tokenUrl")
	}
	if c.RedirectURI == "" {
		missing = append(missing, "oauth.redirectUri")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing oauth settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ParseIntervalMinutes validates user input for the sync interval.
func ParseIntervalMinutes(input string) (int, error) {
	minutes, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, ErrInvalidInterval
	}
	if err := ValidateIntervalMinutes(minutes); err != nil {
		return 0, err
	}
	return minutes, nil
}

func ValidateIntervalMinutes(minutes int) error {
	if minutes < MinIntervalMinutes {
		return ErrIntervalTooShort
	}
	if minutes > MaxIntervalMinutes {
		return ErrIntervalTooLong
	}
	return nil
}

// IntervalMessage returns the text shown to the user for an interval
// validation error.
func IntervalMessage(err error) string {
	switch {
	case errors.Is(err, ErrIntervalTooShort):
		return fmt.Sprintf("Commit interval cannot be less than %d minutes", MinIntervalMinutes)
	case errors.Is(err, ErrIntervalTooLong):
		return fmt.Sprintf("Commit interval cannot be more than %d minutes", MaxIntervalMinutes)
	default:
		return "Please enter a valid number"
	}
}

// ConfigManager interface
type ConfigManager interface {
	LoadAndValidateConfig() (*Config, error)
}

// configManager implementation
type configManager struct {
	validator      *validator.Validate
	configFilePath string
	v              *viper.Viper
}

// NewConfigManager creates a new ConfigManager. An empty path loads defaults
// and environment only.
func NewConfigManager(completeFilePath string) ConfigManager {
	return &configManager{
		validator:      validator.New(),
		configFilePath: completeFilePath,
		v:              viper.New(),
	}
}

// LoadAndValidateConfig loads the configuration
func (cm *configManager) LoadAndValidateConfig() (*Config, error) {
	v := cm.v
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	if cm.configFilePath != "" {
		v.SetConfigFile(cm.configFilePath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cm.validateConfig(&config); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	return &config, nil
}

// validateConfig validates the configuration
func (cm *configManager) validateConfig(config *Config) error {
	err := cm.validator.Struct(config)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("workDir", ".")
	v.SetDefault("dataDir", defaultDataDir())
	v.SetDefault("repository.name", DefaultRepoName)
	v.SetDefault("repository.apiBaseUrl", DefaultAPIBaseURL)
	v.SetDefault("repository.caFile", "")
	v.SetDefault("sync.intervalMinutes", MinIntervalMinutes)
	v.SetDefault("sync.vcsBackend", "exec")
	v.SetDefault("oauth.redirectUri", DefaultRedirectURI)
	v.SetDefault("oauth.callbackPath", DefaultCallbackPath)
	v.SetDefault("oauth.scopes", []string{"repo"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// bindLegacyEnv accepts the unprefixed variable names used by earlier
// releases next to the GITCLOCK_ ones.
func bindLegacyEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"oauth.clientId":        {"GITCLOCK_OAUTH_CLIENTID", "CLIENT_ID"},
		"oauth.clientSecret":    {"GITCLOCK_OAUTH_CLIENTSECRET", "CLIENT_SECRET"},
		"oauth.authUrl":         {"GITCLOCK_OAUTH_AUTHURL", "AUTH_URL"},
		"oauth.tokenUrl":        {"GITCLOCK_OAUTH_TOKENURL", "TOKEN_URL"},
		"oauth.redirectUri":     {"GITCLOCK_OAUTH_REDIRECTURI", "REDIRECT_URI"},
		"repository.apiBaseUrl": {"GITCLOCK_REPOSITORY_APIBASEURL", "GITHUB_API_URL"},
		"repository.name":       {"GITCLOCK_REPOSITORY_NAME", "REPO_NAME"},
	}
	for key, names := range bindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("failed to bind environment for %s: %w", key, err)
		}
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".gitclock"
	}
	return filepath.Join(home, ".gitclock")
}
