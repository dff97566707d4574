package keys

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sidkik/dropletctl/cmd/util"
	"github.com/sidkik/dropletctl/pkg/config"
	"github.com/sidkik/dropletctl/pkg/digitalocean"
	"github.com/sidkik/dropletctl/pkg/errors"
	"github.com/sidkik/dropletctl/pkg/sshkey"
)

// Mocked for unit testing.
var (
	stdout          io.Writer = os.Stdout
	parseUserConfig           = config.ParseUser
	getCredential             = util.GetCredential
	getClient                 = util.GetClient
)

// New creates a new `keys` command.
func New() *cobra.Command {
	var importKey bool
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Print the SSH key used to access droplets",
		Long: "Print the public half and fingerprint of the SSH key used to\n" +
			"access droplets. The key is generated if it doesn't exist yet.",
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(importKey); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().BoolVar(&importKey, "import", false,
		"Also add the key to the DigitalOcean account if it isn't there already.")
	return cmd
}

func run(importKey bool) error {
	userConfig, err := parseUserConfig()
	if err != nil {
		return errors.WithContext(err, "parse user config")
	}

	cred, err := getCredential(userConfig)
	if err != nil {
		return err
	}
	printKey(userConfig.KeyPath, cred)

	if !importKey {
		return nil
	}

	client, _, err := getClient()
	if err != nil {
		return err
	}
	return printAccountKey(client, cred)
}

func printKey(path string, cred sshkey.Credential) {
	fmt.Fprintf(stdout, "Private key: %s\n", path)
	fmt.Fprintf(stdout, "Fingerprint: %s\n", cred.Fingerprint())
	fmt.Fprintf(stdout, "Public key:  %s\n", cred.PublicKeyString())
}

func printAccountKey(client digitalocean.Client, cred sshkey.Credential) error {
	id, err := client.DefaultKeyID(cred)
	if err != nil {
		return errors.WithContext(err, "import key")
	}
	fmt.Fprintf(stdout, "Account key ID: %d\n", id)
	return nil
}
