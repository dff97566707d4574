package digitalocean

import (
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/sidkik/dropletctl/pkg/errors"
)

// Mocked out for unit testing.
var clock = clockwork.NewRealClock()

// pollInterval is how often WaitForActive checks the droplet's status.
const pollInterval = 5 * time.Second

// WaitForActive polls the droplet until it's active and has a public address,
// and returns its final state.
func WaitForActive(c Client, id int, timeout time.Duration) (Droplet, error) {
	deadline := clock.Now().Add(timeout)
	for {
		droplet, err := c.GetDroplet(id)
		if err != nil {
			return Droplet{}, errors.WithContext(err, "get droplet")
		}

		_, hasIP := PublicIP(droplet)
		if droplet.Status == StatusActive && hasIP {
			return droplet, nil
		}

		log.WithFields(log.Fields{
			"id":     id,
			"status": droplet.Status,
		}).Debug("Waiting for droplet to become active")

		if !clock.Now().Before(deadline) {
			return Droplet{}, errors.NewFriendlyError(
				"Droplet %d didn't become active within %s (status %q).",
				id, timeout, droplet.Status)
		}
		<-clock.After(pollInterval)
	}
}
