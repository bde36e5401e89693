package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"github.com/spf13/viper"

	"github.com/shiplane/shiplane/internal/logger"
)

// dockerHostVar names the environment variable holding the Docker daemon
// address consumed by container-building goals.
const dockerHostVar = "DOCKER_HOST"

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port string
}

// GitHubConfig holds the GitHub App credentials.
type GitHubConfig struct {
	AppID          int64
	WebhookSecret  string
	PrivateKeyPath string
}

// DeliveryConfig describes the default goal pipeline. Commands are
// configuration data, not behavior: the scheduler never interprets them.
type DeliveryConfig struct {
	// MarkerFile selects pushes that get build goals, e.g. pom.xml.
	MarkerFile string
	// BuildCommand and BuildArgs form the build goal's subprocess.
	BuildCommand string
	BuildArgs    []string
	// RunCommand and RunArgs form the run goal's subprocess. Any {port}
	// occurrence in RunArgs is substituted with the allocated port.
	RunCommand string
	RunArgs    []string
	// BaseVersion seeds the pre-build versioning listener.
	BaseVersion string
	// PortLow..PortHigh is the inclusive range scanned for a free port.
	PortLow  int
	PortHigh int
	// DockerBuild makes the build goal require a reachable Docker daemon;
	// its host, resolved from DOCKER_HOST, is exported to the build command.
	DockerBuild bool
}

// ScaffoldConfig configures the external project generator reachable through
// the command-entry surface. An empty Command leaves the intent unregistered.
type ScaffoldConfig struct {
	Command string
	Args    []string
}

// Config holds the application's configuration values.
type Config struct {
	Server     ServerConfig
	GitHub     GitHubConfig
	Delivery   DeliveryConfig
	Scaffold   ScaffoldConfig
	Logging    logger.Config
	MaxWorkers int
}

// LoadConfig reads configuration from environment variables and a .env file,
// sets sensible defaults, and validates required fields. It uses the Viper
// library to handle configuration loading and precedence.
func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("LOG_OUTPUT", "stdout")
	viper.SetDefault("MAX_WORKERS", 5)
	viper.SetDefault("GITHUB_PRIVATE_KEY_PATH", "keys/shiplane-app.private-key.pem")
	viper.SetDefault("MARKER_FILE", "pom.xml")
	viper.SetDefault("BUILD_COMMAND", "mvn")
	viper.SetDefault("BUILD_ARGS", []string{"-B", "package"})
	viper.SetDefault("RUN_COMMAND", "mvn")
	viper.SetDefault("RUN_ARGS", []string{"spring-boot:run", "-Dserver.port={port}"})
	viper.SetDefault("BASE_VERSION", "0.1.0")
	viper.SetDefault("PORT_LOW", 8000)
	viper.SetDefault("PORT_HIGH", 8100)
	viper.SetDefault("DOCKER_BUILD", false)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", "error", err)
		}
	}

	if viper.GetInt64("GITHUB_APP_ID") == 0 {
		return nil, fmt.Errorf("GITHUB_APP_ID must be set")
	}
	if viper.GetString("GITHUB_WEBHOOK_SECRET") == "" {
		return nil, fmt.Errorf("GITHUB_WEBHOOK_SECRET must be set")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
		},
		GitHub: GitHubConfig{
			AppID:          viper.GetInt64("GITHUB_APP_ID"),
			WebhookSecret:  viper.GetString("GITHUB_WEBHOOK_SECRET"),
			PrivateKeyPath: viper.GetString("GITHUB_PRIVATE_KEY_PATH"),
		},
		Delivery: DeliveryConfig{
			MarkerFile:   viper.GetString("MARKER_FILE"),
			BuildCommand: viper.GetString("BUILD_COMMAND"),
			BuildArgs:    viper.GetStringSlice("BUILD_ARGS"),
			RunCommand:   viper.GetString("RUN_COMMAND"),
			RunArgs:      viper.GetStringSlice("RUN_ARGS"),
			BaseVersion:  viper.GetString("BASE_VERSION"),
			PortLow:      viper.GetInt("PORT_LOW"),
			PortHigh:     viper.GetInt("PORT_HIGH"),
			DockerBuild:  viper.GetBool("DOCKER_BUILD"),
		},
		Scaffold: ScaffoldConfig{
			Command: viper.GetString("SCAFFOLD_COMMAND"),
			Args:    viper.GetStringSlice("SCAFFOLD_ARGS"),
		},
		Logging: logger.Config{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
			Output: viper.GetString("LOG_OUTPUT"),
		},
		MaxWorkers: viper.GetInt("MAX_WORKERS"),
	}

	if cfg.Delivery.PortLow <= 0 || cfg.Delivery.PortHigh < cfg.Delivery.PortLow {
		return nil, fmt.Errorf("invalid port range %d..%d", cfg.Delivery.PortLow, cfg.Delivery.PortHigh)
	}

	return cfg, nil
}

// DaemonHost reads the Docker daemon address from DOCKER_HOST and returns
// only the host component, e.g. "1.2.3.4" for "tcp://1.2.3.4:2376". A missing
// variable is a configuration error named after the variable; a malformed
// value propagates to the call site and is never silently defaulted.
func DaemonHost() (string, error) {
	raw := viper.GetString(dockerHostVar)
	if raw == "" {
		// Viper only sees the environment once AutomaticEnv ran; the CLI may
		// call this accessor before any config loading happened.
		raw = os.Getenv(dockerHostVar)
	}
	return daemonHostFrom(raw)
}

func daemonHostFrom(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("%s environment variable is not set", dockerHostVar)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s value %q: %w", dockerHostVar, raw, err)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("%s value %q has no host component", dockerHostVar, raw)
	}
	return host, nil
}
