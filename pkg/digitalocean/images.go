package digitalocean

import (
	"context"
	"strings"

	"github.com/digitalocean/godo"
	goversion "github.com/hashicorp/go-version"

	"github.com/sidkik/dropletctl/pkg/errors"
)

// maxPerPage is the largest page size the API accepts.
const maxPerPage = 200

func (c *client) ListRegions() ([]Region, error) {
	godoRegions, _, err := c.godo.Regions.List(context.Background(),
		&godo.ListOptions{PerPage: maxPerPage})
	if err != nil {
		return nil, apiError(err, "list regions")
	}

	regions := make([]Region, 0, len(godoRegions))
	for i := range godoRegions {
		regions = append(regions, fromGodoRegion(&godoRegions[i]))
	}
	return regions, nil
}

func (c *client) ListImages(imageType string, page int) ([]Image, error) {
	opts := listOptions(page)
	opts.PerPage = maxPerPage

	var list func(context.Context, *godo.ListOptions) ([]godo.Image, *godo.Response, error)
	switch imageType {
	case "distribution":
		list = c.godo.Images.ListDistribution
	case "application":
		list = c.godo.Images.ListApplication
	case "user":
		list = c.godo.Images.ListUser
	case "":
		list = c.godo.Images.List
	default:
		return nil, errors.NewFriendlyError(
			"Unknown image type %q. Expected distribution, application, or user.", imageType)
	}

	godoImages, _, err := list(context.Background(), opts)
	if err != nil {
		return nil, apiError(err, "list images")
	}

	images := make([]Image, 0, len(godoImages))
	for i := range godoImages {
		images = append(images, fromGodoImage(&godoImages[i]))
	}
	return images, nil
}

func (c *client) ListSizes() ([]Size, error) {
	godoSizes, _, err := c.godo.Sizes.List(context.Background(),
		&godo.ListOptions{PerPage: maxPerPage})
	if err != nil {
		return nil, apiError(err, "list sizes")
	}

	sizes := make([]Size, 0, len(godoSizes))
	for _, size := range godoSizes {
		sizes = append(sizes, Size{
			Slug:         size.Slug,
			Memory:       size.Memory,
			VCPUs:        size.Vcpus,
			Disk:         size.Disk,
			Transfer:     size.Transfer,
			PriceMonthly: size.PriceMonthly,
			PriceHourly:  size.PriceHourly,
			Regions:      size.Regions,
			Available:    size.Available,
			Description:  size.Description,
		})
	}
	return sizes, nil
}

// LatestImage returns the newest release of `distribution`, such as "Ubuntu"
// or "Debian", among `images`. Releases are compared by the version at the
// start of the image name, e.g. "22.04 (LTS) x64". Images whose name doesn't
// start with a version are ignored. The boolean is false if no image matches.
func LatestImage(images []Image, distribution string) (Image, bool) {
	var latest Image
	var latestVersion *goversion.Version
	for _, image := range images {
		if !strings.EqualFold(image.Distribution, distribution) {
			continue
		}

		fields := strings.Fields(image.Name)
		if len(fields) == 0 {
			continue
		}

		version, err := goversion.NewVersion(fields[0])
		if err != nil {
			continue
		}

		if latestVersion == nil || version.GreaterThan(latestVersion) {
			latest, latestVersion = image, version
		}
	}
	return latest, latestVersion != nil
}
