package list

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/buger/goterm"
	"github.com/spf13/cobra"

	"github.com/sidkik/dropletctl/cmd/util"
	"github.com/sidkik/dropletctl/pkg/digitalocean"
	"github.com/sidkik/dropletctl/pkg/errors"
)

// Mocked for unit testing.
var (
	stdout    io.Writer = os.Stdout
	getClient           = util.GetClient
)

// New creates a new `list` command.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List droplets, or the options for creating droplets",
	}

	var imageType, latest string
	imagesCmd := &cobra.Command{
		Use:   "images",
		Short: "List the images that droplets can boot from",
		Args:  cobra.NoArgs,
		Run: withClient(func(c digitalocean.Client) error {
			return listImages(c, imageType, latest)
		}),
	}
	imagesCmd.Flags().StringVar(&imageType, "type", "distribution",
		"The type of images to list, either `distribution` or `application`.")
	imagesCmd.Flags().StringVar(&latest, "latest", "",
		"Only print the newest release of the given distribution, such as `Ubuntu`.")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "droplets",
			Short: "List the droplets in the account",
			Args:  cobra.NoArgs,
			Run:   withClient(listDroplets),
		},
		&cobra.Command{
			Use:   "regions",
			Short: "List the regions that droplets can be created in",
			Args:  cobra.NoArgs,
			Run:   withClient(listRegions),
		},
		&cobra.Command{
			Use:   "sizes",
			Short: "List the sizes of droplets",
			Args:  cobra.NoArgs,
			Run:   withClient(listSizes),
		},
		imagesCmd,
	)
	return cmd
}

func withClient(fn func(digitalocean.Client) error) func(*cobra.Command, []string) {
	return func(_ *cobra.Command, _ []string) {
		client, _, err := getClient()
		if err != nil {
			util.HandleFatalError(err)
		}

		if err := fn(client); err != nil {
			util.HandleFatalError(err)
		}
	}
}

func newTable() *goterm.Table {
	return goterm.NewTable(0, 8, 2, ' ', 0)
}

func listDroplets(c digitalocean.Client) error {
	table := newTable()
	fmt.Fprintln(table, "ID\tNAME\tSTATUS\tREGION\tSIZE\tPUBLIC IP\tAUTODELETE")
	for page := 1; ; page++ {
		droplets, err := c.ListDroplets(page)
		if err != nil {
			return errors.WithContext(err, "list droplets")
		}
		if len(droplets) == 0 {
			break
		}

		for _, droplet := range droplets {
			ip, ok := digitalocean.PublicIP(droplet)
			if !ok {
				ip = "-"
			}
			fmt.Fprintf(table, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				droplet.ID, droplet.Name, statusString(droplet.Status),
				droplet.Region.Slug, droplet.SizeSlug, ip,
				yesOrNo(digitalocean.HasTag(droplet, digitalocean.AutodeleteTag)))
		}
	}
	fmt.Fprint(stdout, table.String())
	return nil
}

func listRegions(c digitalocean.Client) error {
	regions, err := c.ListRegions()
	if err != nil {
		return errors.WithContext(err, "list regions")
	}

	table := newTable()
	fmt.Fprintln(table, "SLUG\tNAME\tAVAILABLE")
	for _, region := range regions {
		fmt.Fprintf(table, "%s\t%s\t%s\n", region.Slug, region.Name, yesOrNo(region.Available))
	}
	fmt.Fprint(stdout, table.String())
	return nil
}

func listSizes(c digitalocean.Client) error {
	sizes, err := c.ListSizes()
	if err != nil {
		return errors.WithContext(err, "list sizes")
	}

	table := newTable()
	fmt.Fprintln(table, "SLUG\tVCPUS\tMEMORY\tDISK\tPRICE")
	for _, size := range sizes {
		fmt.Fprintf(table, "%s\t%d\t%d MB\t%d GB\t$%s/mo\n",
			size.Slug, size.VCPUs, size.Memory, size.Disk,
			strconv.FormatFloat(size.PriceMonthly, 'f', -1, 64))
	}
	fmt.Fprint(stdout, table.String())
	return nil
}

func listImages(c digitalocean.Client, imageType, latest string) error {
	var images []digitalocean.Image
	for page := 1; ; page++ {
		pageImages, err := c.ListImages(imageType, page)
		if err != nil {
			return errors.WithContext(err, "list images")
		}
		if len(pageImages) == 0 {
			break
		}
		images = append(images, pageImages...)
	}

	if latest != "" {
		image, ok := digitalocean.LatestImage(images, latest)
		if !ok {
			return errors.NewFriendlyError("No %s images are available for %q.", imageType, latest)
		}
		images = []digitalocean.Image{image}
	}

	table := newTable()
	fmt.Fprintln(table, "SLUG\tDISTRIBUTION\tNAME")
	for _, image := range images {
		slug := image.Slug
		if slug == "" {
			slug = strconv.Itoa(image.ID)
		}
		fmt.Fprintf(table, "%s\t%s\t%s\n", slug, image.Distribution, image.Name)
	}
	fmt.Fprint(stdout, table.String())
	return nil
}

func statusString(status string) string {
	if status == "" {
		return "-"
	}

	color := goterm.YELLOW
	switch status {
	case digitalocean.StatusActive:
		color = goterm.GREEN
	case digitalocean.StatusOff, digitalocean.StatusArchived:
		color = goterm.RED
	}
	return goterm.Color(strings.ToUpper(status[:1])+status[1:], color)
}

func yesOrNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
