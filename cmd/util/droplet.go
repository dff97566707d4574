package util

import (
	"io"

	"github.com/sidkik/dropletctl/pkg/config"
	"github.com/sidkik/dropletctl/pkg/digitalocean"
	"github.com/sidkik/dropletctl/pkg/errors"
	"github.com/sidkik/dropletctl/pkg/remote"
	"github.com/sidkik/dropletctl/pkg/sshkey"
)

// Session is an open SSH connection to a droplet.
type Session interface {
	remote.Remote
	Shell(size remote.TerminalSize, stdin io.Reader, stdout, stderr io.Writer) error
	Close() error
}

// Mocked for unit testing.
var (
	parseUserConfig = config.ParseUser
	newClient       = digitalocean.New
	getKey          = func(path string) (sshkey.Credential, error) {
		return sshkey.NewStore(path).Get()
	}
	connect = func(address string, cred sshkey.Credential) (Session, error) {
		session, err := remote.Connect(address, cred)
		if err != nil {
			return nil, err
		}
		return session, nil
	}
)

// GetClient returns a DigitalOcean client authenticated with the user's API
// token.
func GetClient() (digitalocean.Client, config.User, error) {
	userConfig, err := parseUserConfig()
	if err != nil {
		return nil, config.User{}, errors.WithContext(err, "parse user config")
	}

	if err := userConfig.RequireToken(); err != nil {
		return nil, config.User{}, err
	}
	return newClient(userConfig.Token), userConfig, nil
}

// GetCredential returns the SSH key used to access droplets, generating it
// if it doesn't exist yet.
func GetCredential(userConfig config.User) (sshkey.Credential, error) {
	cred, err := getKey(userConfig.KeyPath)
	if err != nil {
		return nil, errors.WithContext(err, "get ssh key")
	}
	return cred, nil
}

// ConnectToDroplet resolves `ref`, which is a droplet ID or name, and opens
// an SSH session to it as root. The caller must close the session.
func ConnectToDroplet(ref string) (Session, digitalocean.Droplet, error) {
	client, userConfig, err := GetClient()
	if err != nil {
		return nil, digitalocean.Droplet{}, err
	}

	droplet, err := digitalocean.FindDroplet(client, ref)
	if err != nil {
		return nil, digitalocean.Droplet{}, errors.WithContext(err, "find droplet")
	}

	ip, ok := digitalocean.PublicIP(droplet)
	if !ok {
		return nil, digitalocean.Droplet{}, errors.NewFriendlyError(
			"Droplet %q (%d) doesn't have a public IP address yet. "+
				"It's currently %q.", droplet.Name, droplet.ID, droplet.Status)
	}

	cred, err := GetCredential(userConfig)
	if err != nil {
		return nil, digitalocean.Droplet{}, err
	}

	session, err := connect(ip, cred)
	if err != nil {
		return nil, digitalocean.Droplet{}, err
	}
	return session, droplet, nil
}
