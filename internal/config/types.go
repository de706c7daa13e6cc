// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"strings"
	"time"
)

type (
	// Config is the top-level application configuration.
	Config struct {
		// ContainerEngine selects the backend: "auto", "docker", or "podman".
		ContainerEngine string `mapstructure:"container_engine"`
		// SSH covers client key and client config handling.
		SSH SSHConfig `mapstructure:"ssh"`
		// Health covers readiness probing after a box starts.
		Health HealthConfig `mapstructure:"health"`
		// UI covers terminal output settings.
		UI UIConfig `mapstructure:"ui"`
	}

	// SSHConfig configures the client-side SSH material.
	SSHConfig struct {
		// KeyPath is the private key location. Empty means the default
		// under the user's .ssh directory.
		KeyPath string `mapstructure:"key_path"`
		// KeyAlgorithm is "ed25519" (default) or "rsa".
		KeyAlgorithm string `mapstructure:"key_algorithm"`
		// ClientConfigPath is the SSH client config receiving managed
		// Host blocks. Empty means ~/.ssh/config.
		ClientConfigPath string `mapstructure:"client_config_path"`
		// ManageClientConfig disables Host block management when false.
		ManageClientConfig bool `mapstructure:"manage_client_config"`
	}

	// HealthConfig configures the readiness wait.
	HealthConfig struct {
		TimeoutSeconds int `mapstructure:"timeout_seconds"`
		IntervalMillis int `mapstructure:"interval_millis"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		// ColorScheme is "auto", "dark", "light", or "none".
		ColorScheme string `mapstructure:"color_scheme"`
		// Verbose enables debug-level logging.
		Verbose bool `mapstructure:"verbose"`
	}
)

// DefaultConfig returns the built-in defaults used when no config file
// exists or a field is omitted.
func DefaultConfig() *Config {
	return &Config{
		ContainerEngine: "auto",
		SSH: SSHConfig{
			KeyAlgorithm:       "ed25519",
			ManageClientConfig: true,
		},
		Health: HealthConfig{
			TimeoutSeconds: 60,
			IntervalMillis: 500,
		},
		UI: UIConfig{
			ColorScheme: "auto",
		},
	}
}

// Timeout returns the health wait deadline as a duration.
func (h HealthConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// Interval returns the probe interval as a duration.
func (h HealthConfig) Interval() time.Duration {
	return time.Duration(h.IntervalMillis) * time.Millisecond
}

// Validate checks constraints that survive schema validation, covering
// configs built in code rather than loaded from a file.
func (c *Config) Validate() error {
	switch c.ContainerEngine {
	case "auto", "docker", "podman", "":
	default:
		return fmt.Errorf("container_engine must be auto, docker, or podman; got %q", c.ContainerEngine)
	}

	switch c.SSH.KeyAlgorithm {
	case "ed25519", "rsa", "":
	default:
		return fmt.Errorf("ssh.key_algorithm must be ed25519 or rsa; got %q", c.SSH.KeyAlgorithm)
	}

	if c.Health.TimeoutSeconds < 0 {
		return fmt.Errorf("health.timeout_seconds must not be negative; got %d", c.Health.TimeoutSeconds)
	}
	if c.Health.IntervalMillis < 0 {
		return fmt.Errorf("health.interval_millis must not be negative; got %d", c.Health.IntervalMillis)
	}

	switch c.UI.ColorScheme {
	case "auto", "dark", "light", "none", "":
	default:
		return fmt.Errorf("ui.color_scheme must be auto, dark, light, or none; got %q", c.UI.ColorScheme)
	}

	return nil
}

// GenerateCUE generates a CUE representation of the configuration.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// sshbox configuration file\n\n")

	sb.WriteString(fmt.Sprintf("container_engine: %q\n", cfg.ContainerEngine))

	sb.WriteString("\nssh: {\n")
	if cfg.SSH.KeyPath != "" {
		sb.WriteString(fmt.Sprintf("\tkey_path: %q\n", cfg.SSH.KeyPath))
	}
	sb.WriteString(fmt.Sprintf("\tkey_algorithm: %q\n", cfg.SSH.KeyAlgorithm))
	if cfg.SSH.ClientConfigPath != "" {
		sb.WriteString(fmt.Sprintf("\tclient_config_path: %q\n", cfg.SSH.ClientConfigPath))
	}
	sb.WriteString(fmt.Sprintf("\tmanage_client_config: %v\n", cfg.SSH.ManageClientConfig))
	sb.WriteString("}\n")

	sb.WriteString("\nhealth: {\n")
	sb.WriteString(fmt.Sprintf("\ttimeout_seconds: %d\n", cfg.Health.TimeoutSeconds))
	sb.WriteString(fmt.Sprintf("\tinterval_millis: %d\n", cfg.Health.IntervalMillis))
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	sb.WriteString(fmt.Sprintf("\tcolor_scheme: %q\n", cfg.UI.ColorScheme))
	sb.WriteString(fmt.Sprintf("\tverbose: %v\n", cfg.UI.Verbose))
	sb.WriteString("}\n")

	return sb.String()
}
