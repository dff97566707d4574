package digitalocean

import (
	"context"
	"strconv"

	"github.com/digitalocean/godo"

	"github.com/sidkik/dropletctl/pkg/errors"
	"github.com/sidkik/dropletctl/pkg/sshkey"
)

// AutodeleteTag marks droplets that Autodelete removes. It contains a UUID so
// that it doesn't collide with any of the user's own tags.
const AutodeleteTag = "autodelete:6ecca9bf-ac35-41bc-abee-1bd96ad5fdef"

// CreateOptions describes a droplet to create.
type CreateOptions struct {
	Name   string
	Region string
	Size   string
	Image  string

	// SSHKeys are the IDs of account keys to install on the droplet, in
	// addition to the default key.
	SSHKeys []int
	Tags    []string

	Monitoring bool
	Backups    bool

	// UserData is passed to cloud-init on first boot.
	UserData string

	// NoAutodelete omits AutodeleteTag, so that the droplet survives
	// Autodelete.
	NoAutodelete bool

	// NoDefaultKey skips installing Credential. Otherwise, Credential is
	// required.
	NoDefaultKey bool
	Credential   sshkey.Credential
}

func (c *client) ListDroplets(page int) ([]Droplet, error) {
	godoDroplets, _, err := c.godo.Droplets.List(context.Background(), listOptions(page))
	if err != nil {
		return nil, apiError(err, "list droplets")
	}

	droplets := make([]Droplet, 0, len(godoDroplets))
	for i := range godoDroplets {
		droplets = append(droplets, fromGodoDroplet(&godoDroplets[i]))
	}
	return droplets, nil
}

func (c *client) GetDroplet(id int) (Droplet, error) {
	droplet, _, err := c.godo.Droplets.Get(context.Background(), id)
	if err != nil {
		return Droplet{}, apiError(err, "get droplet")
	}
	return fromGodoDroplet(droplet), nil
}

func (c *client) CreateDroplet(opts CreateOptions) (Droplet, error) {
	req := &godo.DropletCreateRequest{
		Name:       opts.Name,
		Region:     opts.Region,
		Size:       opts.Size,
		Image:      godo.DropletCreateImage{Slug: opts.Image},
		SSHKeys:    []godo.DropletCreateSSHKey{},
		Backups:    opts.Backups,
		Monitoring: opts.Monitoring,
		Tags:       append([]string{}, opts.Tags...),
		UserData:   opts.UserData,
	}
	for _, id := range opts.SSHKeys {
		req.SSHKeys = append(req.SSHKeys, godo.DropletCreateSSHKey{ID: id})
	}

	if !opts.NoAutodelete {
		req.Tags = append(req.Tags, AutodeleteTag)
	}

	if !opts.NoDefaultKey {
		if opts.Credential == nil {
			return Droplet{}, errors.MissingFieldError{Field: "Credential"}
		}

		keyID, err := c.DefaultKeyID(opts.Credential)
		if err != nil {
			return Droplet{}, errors.WithContext(err, "get default key")
		}
		req.SSHKeys = append(req.SSHKeys, godo.DropletCreateSSHKey{ID: keyID})
	}

	droplet, _, err := c.godo.Droplets.Create(context.Background(), req)
	if err != nil {
		return Droplet{}, apiError(err, "create droplet")
	}
	return fromGodoDroplet(droplet), nil
}

func (c *client) Autodelete() error {
	if _, err := c.godo.Droplets.DeleteByTag(context.Background(), AutodeleteTag); err != nil {
		return apiError(err, "delete droplets")
	}
	return nil
}

// PublicIP returns the first public address of the droplet, preferring IPv4
// addresses. The boolean is false if the droplet doesn't have a public
// address yet.
func PublicIP(droplet Droplet) (string, bool) {
	for _, networks := range [][]Network{droplet.Networks.V4, droplet.Networks.V6} {
		for _, network := range networks {
			if network.Type == "public" {
				return network.IPAddress, true
			}
		}
	}
	return "", false
}

// HasTag returns whether the droplet is tagged with `tag`.
func HasTag(droplet Droplet, tag string) bool {
	for _, t := range droplet.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// FindDroplet resolves `ref`, which is either a droplet ID or a droplet name,
// by listing every page of droplets.
func FindDroplet(c Client, ref string) (Droplet, error) {
	if id, err := strconv.Atoi(ref); err == nil && id > 0 {
		return c.GetDroplet(id)
	}

	var matches []Droplet
	for page := 1; ; page++ {
		droplets, err := c.ListDroplets(page)
		if err != nil {
			return Droplet{}, errors.WithContext(err, "list droplets")
		}
		if len(droplets) == 0 {
			break
		}

		for _, droplet := range droplets {
			if droplet.Name == ref {
				matches = append(matches, droplet)
			}
		}
	}

	switch len(matches) {
	case 0:
		return Droplet{}, errors.NewFriendlyError("No droplet is named %q.", ref)
	case 1:
		return matches[0], nil
	default:
		return Droplet{}, errors.NewFriendlyError(
			"%d droplets are named %q. Please refer to the droplet by its ID.",
			len(matches), ref)
	}
}
