package digitalocean

import (
	"strconv"
	"time"

	"github.com/digitalocean/godo"
)

// Droplet statuses.
const (
	StatusNew      = "new"
	StatusActive   = "active"
	StatusOff      = "off"
	StatusArchived = "archive"
)

// Droplet is a virtual machine.
type Droplet struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Memory    int       `json:"memory"`
	VCPUs     int       `json:"vcpus"`
	Disk      int       `json:"disk"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	SizeSlug  string    `json:"size_slug"`
	Image     Image     `json:"image"`
	Region    Region    `json:"region"`
	Networks  Networks  `json:"networks"`
	Tags      []string  `json:"tags"`
}

// Networks are the addresses assigned to a droplet, keyed by IP version.
type Networks struct {
	V4 []Network `json:"v4"`
	V6 []Network `json:"v6"`
}

// Network is a single address of a droplet.
type Network struct {
	IPAddress string `json:"ip_address"`
	Netmask   string `json:"netmask"`
	Gateway   string `json:"gateway"`

	// Type is either "public" or "private".
	Type string `json:"type"`
}

// Region is a datacenter that droplets can be created in.
type Region struct {
	Slug      string   `json:"slug"`
	Name      string   `json:"name"`
	Sizes     []string `json:"sizes"`
	Available bool     `json:"available"`
	Features  []string `json:"features"`
}

// Image is a snapshot or distribution that droplets boot from.
type Image struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Distribution string    `json:"distribution"`
	Slug         string    `json:"slug"`
	Public       bool      `json:"public"`
	Regions      []string  `json:"regions"`
	CreatedAt    time.Time `json:"created_at"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
}

// Size is a droplet hardware configuration.
type Size struct {
	Slug         string   `json:"slug"`
	Memory       int      `json:"memory"`
	VCPUs        int      `json:"vcpus"`
	Disk         int      `json:"disk"`
	Transfer     float64  `json:"transfer"`
	PriceMonthly float64  `json:"price_monthly"`
	PriceHourly  float64  `json:"price_hourly"`
	Regions      []string `json:"regions"`
	Available    bool     `json:"available"`
	Description  string   `json:"description"`
}

// Key is an SSH public key registered with the account.
type Key struct {
	ID          int    `json:"id"`
	Fingerprint string `json:"fingerprint"`
	PublicKey   string `json:"public_key"`
	Name        string `json:"name"`
}

func fromGodoDroplet(d *godo.Droplet) Droplet {
	droplet := Droplet{
		ID:        d.ID,
		Name:      d.Name,
		Memory:    d.Memory,
		VCPUs:     d.Vcpus,
		Disk:      d.Disk,
		Status:    d.Status,
		CreatedAt: parseTime(d.Created),
		SizeSlug:  d.SizeSlug,
		Tags:      d.Tags,
	}
	if d.Image != nil {
		droplet.Image = fromGodoImage(d.Image)
	}
	if d.Region != nil {
		droplet.Region = fromGodoRegion(d.Region)
	}
	if d.Networks != nil {
		for _, network := range d.Networks.V4 {
			droplet.Networks.V4 = append(droplet.Networks.V4, Network{
				IPAddress: network.IPAddress,
				Netmask:   network.Netmask,
				Gateway:   network.Gateway,
				Type:      network.Type,
			})
		}
		for _, network := range d.Networks.V6 {
			droplet.Networks.V6 = append(droplet.Networks.V6, Network{
				IPAddress: network.IPAddress,
				Netmask:   strconv.Itoa(network.Netmask),
				Gateway:   network.Gateway,
				Type:      network.Type,
			})
		}
	}
	return droplet
}

func fromGodoImage(i *godo.Image) Image {
	return Image{
		ID:           i.ID,
		Name:         i.Name,
		Distribution: i.Distribution,
		Slug:         i.Slug,
		Public:       i.Public,
		Regions:      i.Regions,
		CreatedAt:    parseTime(i.Created),
		Type:         i.Type,
		Status:       i.Status,
	}
}

func fromGodoRegion(r *godo.Region) Region {
	return Region{
		Slug:      r.Slug,
		Name:      r.Name,
		Sizes:     r.Sizes,
		Available: r.Available,
		Features:  r.Features,
	}
}

func fromGodoKey(k *godo.Key) Key {
	return Key{
		ID:          k.ID,
		Fingerprint: k.Fingerprint,
		PublicKey:   k.PublicKey,
		Name:        k.Name,
	}
}

// parseTime parses the RFC 3339 timestamps in API responses. Malformed
// timestamps become the zero time.
func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
