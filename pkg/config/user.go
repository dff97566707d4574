package config

import (
	"os"
	"path/filepath"

	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/sidkik/dropletctl/pkg/errors"
)

const (
	// UserConfigPath is the default path to the dropletctl user config.
	UserConfigPath = "~/.dropletctl.yaml"

	// DefaultKeyPath is where the SSH key used to access droplets is stored
	// if the user config doesn't specify a path.
	DefaultKeyPath = "~/.dropletctl/key.rsa"

	// DefaultSize and DefaultImage are used when creating droplets if
	// neither the user config nor the command line specify them.
	DefaultSize  = "s-1vcpu-1gb"
	DefaultImage = "ubuntu-21-10-x64"

	// TokenEnvVar overrides the API token in the user config.
	TokenEnvVar = "DIGITALOCEAN_ACCESS_TOKEN"

	// InitialUserConfigVersion is the first version of the user config.
	// Config files that do not specify a version will default to this
	// version.
	InitialUserConfigVersion = "v1alpha1"

	// SupportedUserConfigVersion is the supported version of the user config
	// of the current binary.
	SupportedUserConfigVersion = "v1alpha1"
)

// User contains the credentials and droplet defaults of the user.
type User struct {
	Version string `json:"version,omitempty"`
	Token   string `json:"token,omitempty"`
	KeyPath string `json:"keyPath,omitempty"`
	Region  string `json:"region,omitempty"`
	Size    string `json:"size,omitempty"`
	Image   string `json:"image,omitempty"`
}

func (u User) getVersion() string {
	return u.Version
}

// Mocked out for unit testing.
var (
	homedirExpand = homedir.Expand
	getenv        = os.Getenv
)

// ParseUser attempts to parse the User stored in the default path. A missing
// config file is not an error, since every field has a default or can be
// set through the environment.
func ParseUser() (User, error) {
	path, err := GetUserConfigPath()
	if err != nil {
		return User{}, errors.WithContext(err, "expand config path")
	}

	config := User{Version: InitialUserConfigVersion}
	if err := parseConfig(path, &config, SupportedUserConfigVersion); err != nil {
		if _, ok := err.(errors.FileNotFound); !ok {
			return User{}, errors.WithContext(err, "parse")
		}
		config = User{Version: SupportedUserConfigVersion}
	}

	if token := getenv(TokenEnvVar); token != "" {
		config.Token = token
	}
	if config.Size == "" {
		config.Size = DefaultSize
	}
	if config.Image == "" {
		config.Image = DefaultImage
	}
	if config.KeyPath == "" {
		config.KeyPath = DefaultKeyPath
	}

	config.KeyPath, err = homedirExpand(config.KeyPath)
	if err != nil {
		return User{}, errors.WithContext(err, "expand key path")
	}

	// Evaluate relative paths relative to the config path.
	if !filepath.IsAbs(config.KeyPath) {
		config.KeyPath = filepath.Join(filepath.Dir(path), config.KeyPath)
	}
	return config, nil
}

// RequireToken returns a friendly error if the user hasn't configured an API
// token.
func (u User) RequireToken() error {
	if u.Token != "" {
		return nil
	}
	return errors.NewFriendlyError("No DigitalOcean API token is configured.\n"+
		"Run `dropletctl config --token <token>`, or set the %s "+
		"environment variable.", TokenEnvVar)
}

// WriteUser writes the given user config to disk.
func WriteUser(cfg User) error {
	cfg.Version = SupportedUserConfigVersion
	path, err := GetUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "expand config path")
	}

	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	// The config holds the API token, so it's only readable by the user.
	if err := afero.WriteFile(fs, path, yamlBytes, 0600); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}

// GetUserConfigPath returns the path to the user's dropletctl
// configuration. This path is expanded, so it can be directly passed to file
// operations.
func GetUserConfigPath() (string, error) {
	return homedirExpand(UserConfigPath)
}
