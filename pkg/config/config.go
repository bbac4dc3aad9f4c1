// Package config loads the cluster configuration and the optional
// multi-host credentials file used to seed a cluster connection.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSpecDir names the system-wide asadm directory. Neither Load nor
// DefaultConfigPath consults it: the config file defaults to
// $HOME/.asadm/config.yaml, and the credentials file is read only from a
// configured path.
const DefaultSpecDir = "/etc/asadm"

// Config holds persistent connection preferences for a cluster.
type Config struct {
	// SeedHosts lists the initial contact points, "host:port" or bare
	// host (DefaultPort assumed).
	SeedHosts []string `yaml:"seed_hosts,omitempty"`

	// DefaultPort is used for any SeedHosts entry without an explicit port.
	DefaultPort int `yaml:"default_port,omitempty"`

	// User/Password are the default credentials, used for every host that
	// has no entry of its own in the credentials file.
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`

	// CredentialsFile points at a multi-host credentials file (spec.md §9).
	CredentialsFile string `yaml:"credentials_file,omitempty"`

	TLSEnable bool   `yaml:"tls_enable,omitempty"`
	TLSName   string `yaml:"tls_name,omitempty"`
	TLSCAFile string `yaml:"tls_ca_file,omitempty"`

	// UseServicesAlumni/UseServicesAlt/OnlyConnectSeed are the discovery
	// policy flags from spec.md §3.
	UseServicesAlumni bool `yaml:"use_services_alumni,omitempty"`
	UseServicesAlt    bool `yaml:"use_services_alt,omitempty"`
	OnlyConnectSeed   bool `yaml:"only_connect_seed,omitempty"`

	Timeout int `yaml:"timeout_seconds,omitempty"`

	// SSHUser/SSHPassword/SSHPort configure the optional remote
	// system-stats sidecar collected alongside collectinfo (spec.md §4.6).
	// Collection is skipped entirely when SSHUser is empty.
	SSHUser     string `yaml:"ssh_user,omitempty"`
	SSHPassword string `yaml:"ssh_password,omitempty"`
	SSHPort     int    `yaml:"ssh_port,omitempty"`
}

const (
	// DefaultPort is the standard info-protocol port.
	DefaultPort = 3000

	// DefaultTimeoutSeconds is used when Timeout is unset.
	DefaultTimeoutSeconds = 5
)

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/asadm_config.yaml"
	}
	return filepath.Join(home, ".asadm", "config.yaml")
}

// Load reads the config from the default location.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom reads the config from path, returning zero-value defaults if
// the file does not exist.
func LoadFrom(path string) (*Config, error) {
	c := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Save writes the config to the default location.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the config to path, creating parent directories as needed.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// GetPort returns DefaultPort with its fallback applied.
func (c *Config) GetPort() int {
	if c.DefaultPort > 0 {
		return c.DefaultPort
	}
	return DefaultPort
}

// GetTimeoutSeconds returns Timeout with its fallback applied.
func (c *Config) GetTimeoutSeconds() int {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeoutSeconds
}

// Clear resets the config to defaults.
func (c *Config) Clear() {
	*c = Config{}
}
