package digitalocean

import (
	"context"
	"net/http"

	"github.com/digitalocean/godo"
	log "github.com/sirupsen/logrus"

	"github.com/sidkik/dropletctl/pkg/errors"
	"github.com/sidkik/dropletctl/pkg/sshkey"
)

// DefaultKeyName is the name given to the application key when it's imported
// into an account.
const DefaultKeyName = "DigitalOcean Restartable Apps key"

func (c *client) LookupKey(fingerprint string) (Key, bool, error) {
	key, _, err := c.godo.Keys.GetByFingerprint(context.Background(), fingerprint)
	if err != nil {
		err = apiError(err, "get key")
		if apiErr, ok := err.(APIError); ok && apiErr.StatusCode == http.StatusNotFound {
			return Key{}, false, nil
		}
		return Key{}, false, err
	}
	return fromGodoKey(key), true, nil
}

func (c *client) ImportKey(name, publicKey string) (Key, error) {
	req := &godo.KeyCreateRequest{Name: name, PublicKey: publicKey}
	key, _, err := c.godo.Keys.Create(context.Background(), req)
	if err != nil {
		return Key{}, apiError(err, "create key")
	}
	return fromGodoKey(key), nil
}
func (c *client) DefaultKeyID(cred sshkey.Credential) (int, error) {
	fingerprint := cred.Fingerprint()
	key, ok, err := c.LookupKey(fingerprint)
	if err != nil {
		return 0, errors.WithContext(err, "lookup key")
	}
	if ok {
		return key.ID, nil
	}

	log.WithField("fingerprint", fingerprint).Info("Importing SSH key into DigitalOcean account")
	key, err = c.ImportKey(DefaultKeyName, cred.PublicKeyString())
	if err != nil {
		return 0, errors.WithContext(err, "import key")
	}
	return key.ID, nil
}
