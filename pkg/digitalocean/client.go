package digitalocean

//go:generate mockery -name Client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/digitalocean/godo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/sidkik/dropletctl/pkg/errors"
	"github.com/sidkik/dropletctl/pkg/sshkey"
	"github.com/sidkik/dropletctl/pkg/version"
)

// DefaultEndpoint is the base URL of the DigitalOcean API.
const DefaultEndpoint = "https://api.digitalocean.com/"

// requestTimeout bounds every API request, including reading the response.
const requestTimeout = time.Minute

// Client is a DigitalOcean account, authenticated by an API token.
type Client interface {
	// ListDroplets returns one page of the droplets in the account.
	ListDroplets(page int) ([]Droplet, error)

	// GetDroplet returns the droplet with the given ID.
	GetDroplet(id int) (Droplet, error)

	ListRegions() ([]Region, error)

	// ListImages returns one page of the images of the given type, such as
	// "distribution" or "application".
	ListImages(imageType string, page int) ([]Image, error)

	ListSizes() ([]Size, error)

	// LookupKey returns the account key with the given fingerprint. The
	// boolean is false if the account doesn't have the key.
	LookupKey(fingerprint string) (Key, bool, error)

	// ImportKey adds a public key to the account.
	ImportKey(name, publicKey string) (Key, error)

	// DefaultKeyID returns the ID of the account key for `cred`, importing
	// it if necessary.
	DefaultKeyID(cred sshkey.Credential) (int, error)

	// CreateDroplet starts creating a droplet. The droplet is usually still
	// in the "new" state when this returns.
	CreateDroplet(opts CreateOptions) (Droplet, error)

	// Autodelete deletes every droplet tagged with AutodeleteTag.
	Autodelete() error
}

type client struct {
	godo *godo.Client
}

// New returns a client for the default API endpoint.
func New(token string) Client {
	c, err := NewWithEndpoint(DefaultEndpoint, token)
	if err != nil {
		// DefaultEndpoint always parses.
		panic(err)
	}
	return c
}

// NewWithEndpoint returns a client that sends requests to `endpoint`.
func NewWithEndpoint(endpoint, token string) (Client, error) {
	httpCtx := context.WithValue(context.Background(), oauth2.HTTPClient,
		&http.Client{Timeout: requestTimeout})
	httpClient := oauth2.NewClient(httpCtx, oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token}))

	gc, err := godo.New(httpClient,
		godo.SetBaseURL(endpoint),
		godo.SetUserAgent(version.UserAgent()))
	if err != nil {
		return nil, errors.WithContext(err, "new godo client")
	}

	gc.OnRequestCompleted(func(req *http.Request, resp *http.Response) {
		log.WithFields(log.Fields{
			"method": req.Method,
			"path":   req.URL.Path,
			"status": resp.StatusCode,
		}).Debug("DigitalOcean API request completed")
	})
	return &client{godo: gc}, nil
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (err APIError) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("digitalocean: %d %s", err.StatusCode, http.StatusText(err.StatusCode))
	}
	return fmt.Sprintf("digitalocean: %d %s", err.StatusCode, err.Message)
}

func (err APIError) FriendlyMessage() string {
	if err.StatusCode == http.StatusUnauthorized {
		return "DigitalOcean rejected the API token. " +
			"Please check the token in your config, or generate a new one."
	}
	return err.Error()
}

// apiError converts the error responses returned by godo into APIErrors, so
// that callers don't depend on godo's types. Other errors, such as network
// failures, are returned with `action` as context.
func apiError(err error, action string) error {
	var errResp *godo.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return APIError{StatusCode: errResp.Response.StatusCode, Message: errResp.Message}
	}
	return errors.WithContext(err, action)
}

func listOptions(page int) *godo.ListOptions {
	if page < 1 {
		page = 1
	}
	return &godo.ListOptions{Page: page}
}
