package create

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/buger/goterm"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/sidkik/dropletctl/cmd/util"
	"github.com/sidkik/dropletctl/pkg/config"
	"github.com/sidkik/dropletctl/pkg/digitalocean"
	"github.com/sidkik/dropletctl/pkg/errors"
)

// latestImagePrefix selects the newest release of a distribution, e.g.
// `latest:ubuntu`.
const latestImagePrefix = "latest:"

// Mocked for unit testing.
var (
	fs                      = afero.NewOsFs()
	stdout        io.Writer = os.Stdout
	getClient               = util.GetClient
	getCredential           = util.GetCredential
	waitForActive           = digitalocean.WaitForActive
	newName                 = func() string {
		return "dropletctl-" + uuid.New().String()[:8]
	}
)

type options struct {
	region, size, image string
	tags                []string
	sshKeys             []int
	userDataPath        string
	monitoring, backups bool
	noAutodelete        bool
	noDefaultKey        bool
	timeout             time.Duration
}

// New creates a new `create` command.
func New() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "create [NAME]",
		Short: "Create a droplet and wait for it to boot",
		Long: "Create a droplet and wait until it's active. The droplet is tagged\n" +
			"for deletion by `dropletctl autodelete` unless --no-autodelete is set.\n" +
			"If NAME is omitted, a random name is generated.",
		Args: cobra.MaximumNArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			name := newName()
			if len(args) == 1 {
				name = args[0]
			}

			if err := run(name, opts); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&opts.region, "region", "",
		"The region to create the droplet in. Defaults to the region in the user config.")
	cmd.Flags().StringVar(&opts.size, "size", "",
		"The size of the droplet. Defaults to the size in the user config.")
	cmd.Flags().StringVar(&opts.image, "image", "",
		"The image to boot from, or `latest:<distribution>` for the newest "+
			"release of a distribution. Defaults to the image in the user config.")
	cmd.Flags().StringSliceVar(&opts.tags, "tag", nil, "Tags to add to the droplet.")
	cmd.Flags().IntSliceVar(&opts.sshKeys, "ssh-key", nil,
		"IDs of additional account SSH keys to install.")
	cmd.Flags().StringVar(&opts.userDataPath, "user-data", "",
		"Path to a cloud-init user data file.")
	cmd.Flags().BoolVar(&opts.monitoring, "monitoring", false, "Enable monitoring.")
	cmd.Flags().BoolVar(&opts.backups, "backups", false, "Enable backups.")
	cmd.Flags().BoolVar(&opts.noAutodelete, "no-autodelete", false,
		"Don't tag the droplet for deletion by `dropletctl autodelete`.")
	cmd.Flags().BoolVar(&opts.noDefaultKey, "no-default-key", false,
		"Don't install the dropletctl SSH key. Other commands won't be able to connect.")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Minute,
		"How long to wait for the droplet to become active.")
	return cmd
}

func run(name string, opts options) error {
	client, userConfig, err := getClient()
	if err != nil {
		return err
	}

	createOpts, err := makeCreateOptions(client, userConfig, name, opts)
	if err != nil {
		return err
	}

	droplet, err := client.CreateDroplet(createOpts)
	if err != nil {
		return errors.WithContext(err, "create droplet")
	}
	log.WithFields(log.Fields{
		"id":   droplet.ID,
		"name": droplet.Name,
	}).Debug("Created droplet")

	pp := util.NewProgressPrinter(stdout, fmt.Sprintf("Waiting for droplet %q to boot", name))
	go pp.Run()
	droplet, err = waitForActive(client, droplet.ID, opts.timeout)
	pp.StopWithPrint(util.ClearProgress)
	if err != nil {
		return errors.WithContext(err, "wait for droplet")
	}

	ip, _ := digitalocean.PublicIP(droplet)
	fmt.Fprintf(stdout, "Droplet %s (%d) is %s at %s\n", droplet.Name, droplet.ID,
		goterm.Color("active", goterm.GREEN), ip)
	return nil
}

func makeCreateOptions(client digitalocean.Client, userConfig config.User,
	name string, opts options) (digitalocean.CreateOptions, error) {
	createOpts := digitalocean.CreateOptions{
		Name:         name,
		Region:       firstNonEmpty(opts.region, userConfig.Region),
		Size:         firstNonEmpty(opts.size, userConfig.Size),
		Image:        firstNonEmpty(opts.image, userConfig.Image),
		SSHKeys:      opts.sshKeys,
		Tags:         opts.tags,
		Monitoring:   opts.monitoring,
		Backups:      opts.backups,
		NoAutodelete: opts.noAutodelete,
		NoDefaultKey: opts.noDefaultKey,
	}

	if createOpts.Region == "" {
		return digitalocean.CreateOptions{}, errors.NewFriendlyError(
			"No region was specified. Pass --region, or set a default with " +
				"`dropletctl config`. Run `dropletctl list regions` to see the choices.")
	}

	if strings.HasPrefix(createOpts.Image, latestImagePrefix) {
		image, err := resolveLatestImage(client, strings.TrimPrefix(createOpts.Image, latestImagePrefix))
		if err != nil {
			return digitalocean.CreateOptions{}, err
		}
		createOpts.Image = image
	}

	if opts.userDataPath != "" {
		userData, err := afero.ReadFile(fs, opts.userDataPath)
		if err != nil {
			return digitalocean.CreateOptions{}, errors.WithContext(err, "read user data")
		}
		createOpts.UserData = string(userData)
	}

	if !opts.noDefaultKey {
		cred, err := getCredential(userConfig)
		if err != nil {
			return digitalocean.CreateOptions{}, err
		}
		createOpts.Credential = cred
	}
	return createOpts, nil
}

func resolveLatestImage(client digitalocean.Client, distribution string) (string, error) {
	var images []digitalocean.Image
	for page := 1; ; page++ {
		pageImages, err := client.ListImages("distribution", page)
		if err != nil {
			return "", errors.WithContext(err, "list images")
		}
		if len(pageImages) == 0 {
			break
		}
		images = append(images, pageImages...)
	}

	image, ok := digitalocean.LatestImage(images, distribution)
	if !ok {
		return "", errors.NewFriendlyError("No images are available for %q.", distribution)
	}

	log.WithField("image", image.Slug).Infof("Using the latest %s image", image.Distribution)
	return image.Slug, nil
}

func firstNonEmpty(strs ...string) string {
	for _, s := range strs {
		if s != "" {
			return s
		}
	}
	return ""
}
