package autodelete

import (
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/dropletctl/cmd/util"
	"github.com/sidkik/dropletctl/pkg/digitalocean"
	"github.com/sidkik/dropletctl/pkg/errors"
)

// Mocked for unit testing.
var (
	stdout    io.Writer = os.Stdout
	getClient           = util.GetClient
	confirm             = util.PromptYesOrNo
)

// New creates a new `autodelete` command.
func New() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "autodelete",
		Short: "Delete every droplet created without --no-autodelete",
		Long: "Delete every droplet in the account that carries the autodelete tag.\n" +
			"Droplets created by `dropletctl create` have the tag unless they were\n" +
			"created with --no-autodelete.",
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(yes); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Don't ask for confirmation.")
	return cmd
}

func run(yes bool) error {
	client, _, err := getClient()
	if err != nil {
		return err
	}

	tagged, err := taggedDroplets(client)
	if err != nil {
		return errors.WithContext(err, "list droplets")
	}

	if len(tagged) == 0 {
		fmt.Fprintln(stdout, "No droplets are tagged for autodeletion.")
		return nil
	}

	var names []string
	for _, droplet := range tagged {
		names = append(names, droplet.Name)
	}

	if !yes {
		prompt := fmt.Sprintf("Delete %d droplet(s): %s?", len(tagged), strings.Join(names, ", "))
		shouldDelete, err := confirm(prompt)
		if err != nil {
			return errors.WithContext(err, "prompt")
		}

		if !shouldDelete {
			fmt.Fprintln(stdout, "Aborted.")
			return nil
		}
	}

	if err := client.Autodelete(); err != nil {
		return errors.WithContext(err, "delete droplets")
	}

	log.WithField("droplets", names).Debug("Deleted droplets")
	fmt.Fprintf(stdout, "Deleted %d droplet(s).\n", len(tagged))
	return nil
}

func taggedDroplets(client digitalocean.Client) ([]digitalocean.Droplet, error) {
	var tagged []digitalocean.Droplet
	for page := 1; ; page++ {
		droplets, err := client.ListDroplets(page)
		if err != nil {
			return nil, err
		}
		if len(droplets) == 0 {
			return tagged, nil
		}

		for _, droplet := range droplets {
			if digitalocean.HasTag(droplet, digitalocean.AutodeleteTag) {
				tagged = append(tagged, droplet)
			}
		}
	}
}
