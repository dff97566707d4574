package digitalocean

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/digitalocean/godo"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/sidkik/dropletctl/pkg/errors"
)

const testToken = "test-token"

type request struct {
	Method string
	Path   string
	Query  string
	Body   string
}

type response struct {
	status int
	body   string
}

// fakeAPI serves canned responses keyed by "<METHOD> <path>", and records
// every request it receives.
type fakeAPI struct {
	t *testing.T

	lock      sync.Mutex
	responses map[string][]response
	requests  []request
}

func newFakeAPI(t *testing.T) (*fakeAPI, Client) {
	api := &fakeAPI{t: t, responses: map[string][]response{}}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)
	c, err := NewWithEndpoint(server.URL+"/", testToken)
	require.NoError(t, err)
	return api, c
}

// respond queues a response. The last response queued for a route is reused
// once the others have been served.
func (api *fakeAPI) respond(route string, status int, body string) {
	api.lock.Lock()
	defer api.lock.Unlock()
	api.responses[route] = append(api.responses[route], response{status, body})
}

func (api *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	api.lock.Lock()
	defer api.lock.Unlock()

	assert.Equal(api.t, "Bearer "+testToken, r.Header.Get("Authorization"))
	assert.True(api.t, strings.HasPrefix(r.Header.Get("User-Agent"), "dropletctl/dev "),
		"unexpected user agent %q", r.Header.Get("User-Agent"))
	api.requests = append(api.requests, request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Body:   string(body),
	})

	// Routes may be registered for a specific query.
	route := r.Method + " " + r.URL.Path
	queued := api.responses[route+"?"+r.URL.RawQuery]
	if len(queued) == 0 {
		queued = api.responses[route]
	} else {
		route += "?" + r.URL.RawQuery
	}
	if len(queued) == 0 {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, `{"id": "not_found", "message": "no route for %s"}`, route)
		return
	}

	resp := queued[0]
	if len(queued) > 1 {
		api.responses[route] = queued[1:]
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	io.WriteString(w, resp.body)
}

func (api *fakeAPI) getRequests() []request {
	api.lock.Lock()
	defer api.lock.Unlock()
	return append([]request{}, api.requests...)
}

type testCredential struct{}

func (testCredential) PrivateKey() ssh.Signer  { return nil }
func (testCredential) PublicKeyString() string { return "ssh-rsa AAAA dropletctl.local" }
func (testCredential) Fingerprint() string     { return "3b:16:bf:e4:8b:00:8b:b8:59:8c:a9:d3:f0:19:45:fa" }

const dropletJSON = `{
  "id": 3164444,
  "name": "example.com",
  "memory": 1024,
  "vcpus": 1,
  "disk": 25,
  "status": "active",
  "created_at": "2020-07-21T18:37:44Z",
  "size_slug": "s-1vcpu-1gb",
  "image": {"id": 63663980, "name": "20.04 (LTS) x64", "distribution": "Ubuntu", "slug": "ubuntu-20-04-x64"},
  "region": {"slug": "nyc3", "name": "New York 3"},
  "networks": {
    "v4": [
      {"ip_address": "10.128.192.124", "netmask": "255.255.0.0", "gateway": "", "type": "private"},
      {"ip_address": "192.241.165.154", "netmask": "255.255.255.0", "gateway": "192.241.165.1", "type": "public"}
    ],
    "v6": [
      {"ip_address": "2604:a880:0:1010::18a:a001", "netmask": 64, "gateway": "2604:a880:0:1010::1", "type": "public"}
    ]
  },
  "tags": ["web", "autodelete:6ecca9bf-ac35-41bc-abee-1bd96ad5fdef"]
}`

func TestListDroplets(t *testing.T) {
	api, c := newFakeAPI(t)
	api.respond("GET /v2/droplets", http.StatusOK, `{"droplets": [`+dropletJSON+`]}`)

	droplets, err := c.ListDroplets(2)
	require.NoError(t, err)
	require.Len(t, droplets, 1)

	droplet := droplets[0]
	assert.Equal(t, 3164444, droplet.ID)
	assert.Equal(t, "example.com", droplet.Name)
	assert.Equal(t, StatusActive, droplet.Status)
	assert.Equal(t, "nyc3", droplet.Region.Slug)
	assert.Equal(t, "ubuntu-20-04-x64", droplet.Image.Slug)
	assert.Equal(t, time.Date(2020, 7, 21, 18, 37, 44, 0, time.UTC), droplet.CreatedAt)
	assert.True(t, HasTag(droplet, AutodeleteTag))
	assert.False(t, HasTag(droplet, "db"))

	assert.Equal(t, []request{{Method: "GET", Path: "/v2/droplets", Query: "page=2"}}, api.getRequests())
}

func TestListCatalog(t *testing.T) {
	api, c := newFakeAPI(t)
	api.respond("GET /v2/regions", http.StatusOK,
		`{"regions": [{"slug": "ams3", "name": "Amsterdam 3", "available": true, "sizes": ["s-1vcpu-1gb"]}]}`)
	api.respond("GET /v2/images", http.StatusOK,
		`{"images": [{"id": 1, "name": "12 x64", "distribution": "Debian", "slug": "debian-12-x64"}]}`)
	api.respond("GET /v2/sizes", http.StatusOK,
		`{"sizes": [{"slug": "s-1vcpu-1gb", "memory": 1024, "vcpus": 1, "disk": 25, "price_monthly": 6}]}`)

	regions, err := c.ListRegions()
	require.NoError(t, err)
	assert.Equal(t, []Region{{
		Slug:      "ams3",
		Name:      "Amsterdam 3",
		Available: true,
		Sizes:     []string{"s-1vcpu-1gb"},
	}}, regions)

	images, err := c.ListImages("distribution", 1)
	require.NoError(t, err)
	assert.Equal(t, []Image{{ID: 1, Name: "12 x64", Distribution: "Debian", Slug: "debian-12-x64"}}, images)

	sizes, err := c.ListSizes()
	require.NoError(t, err)
	assert.Equal(t, []Size{{Slug: "s-1vcpu-1gb", Memory: 1024, VCPUs: 1, Disk: 25, PriceMonthly: 6}}, sizes)

	assert.Equal(t, []request{
		{Method: "GET", Path: "/v2/regions", Query: "per_page=200"},
		{Method: "GET", Path: "/v2/images", Query: "page=1&per_page=200&type=distribution"},
		{Method: "GET", Path: "/v2/sizes", Query: "per_page=200"},
	}, api.getRequests())
}

func TestAPIError(t *testing.T) {
	api, c := newFakeAPI(t)
	api.respond("GET /v2/droplets/1", http.StatusUnauthorized,
		`{"id": "unauthorized", "message": "Unable to authenticate you"}`)
	api.respond("GET /v2/droplets/2", http.StatusBadGateway, "upstream unavailable")

	_, err := c.GetDroplet(1)
	assert.Equal(t, APIError{StatusCode: 401, Message: "Unable to authenticate you"}, err)
	msg, friendly := errors.GetPrintableMessage(err)
	assert.True(t, friendly)
	assert.Contains(t, msg, "rejected the API token")

	_, err = c.GetDroplet(2)
	assert.Equal(t, APIError{StatusCode: 502, Message: "upstream unavailable"}, err)
	assert.EqualError(t, err, "digitalocean: 502 upstream unavailable")
}

func TestLookupKey(t *testing.T) {
	api, c := newFakeAPI(t)
	fingerprint := testCredential{}.Fingerprint()
	api.respond("GET /v2/account/keys/"+fingerprint, http.StatusOK,
		`{"ssh_key": {"id": 512189, "fingerprint": "`+fingerprint+`", "name": "My SSH Public Key"}}`)

	key, ok, err := c.LookupKey(fingerprint)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Key{ID: 512189, Fingerprint: fingerprint, Name: "My SSH Public Key"}, key)

	// Unknown keys aren't an error.
	key, ok, err = c.LookupKey("00:11")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Key{}, key)
}

func TestDefaultKeyID(t *testing.T) {
	cred := testCredential{}

	t.Run("Existing", func(t *testing.T) {
		api, c := newFakeAPI(t)
		api.respond("GET /v2/account/keys/"+cred.Fingerprint(), http.StatusOK, `{"ssh_key": {"id": 7}}`)

		id, err := c.DefaultKeyID(cred)
		assert.NoError(t, err)
		assert.Equal(t, 7, id)
		assert.Len(t, api.getRequests(), 1)
	})

	t.Run("Imported", func(t *testing.T) {
		api, c := newFakeAPI(t)
		api.respond("POST /v2/account/keys", http.StatusCreated, `{"ssh_key": {"id": 8}}`)

		id, err := c.DefaultKeyID(cred)
		assert.NoError(t, err)
		assert.Equal(t, 8, id)

		requests := api.getRequests()
		require.Len(t, requests, 2)
		assert.Equal(t, "POST", requests[1].Method)
		assert.JSONEq(t, `{
			"name": "DigitalOcean Restartable Apps key",
			"public_key": "ssh-rsa AAAA dropletctl.local"
		}`, requests[1].Body)
	})

	t.Run("Import fails", func(t *testing.T) {
		api, c := newFakeAPI(t)
		api.respond("POST /v2/account/keys", http.StatusUnprocessableEntity,
			`{"id": "unprocessable_entity", "message": "SSH Key is already in use on your account"}`)

		_, err := c.DefaultKeyID(cred)
		assert.Equal(t, errors.WithContext(APIError{
			StatusCode: 422,
			Message:    "SSH Key is already in use on your account",
		}, "import key"), err)
	})
}

func TestCreateDroplet(t *testing.T) {
	cred := testCredential{}

	tests := []struct {
		name    string
		opts    CreateOptions
		expBody map[string]interface{}
	}{
		{
			name: "Defaults",
			opts: CreateOptions{
				Name:       "app",
				Region:     "nyc3",
				Size:       "s-1vcpu-1gb",
				Image:      "ubuntu-21-10-x64",
				Credential: cred,
			},
			expBody: map[string]interface{}{
				"name":       "app",
				"region":     "nyc3",
				"size":       "s-1vcpu-1gb",
				"image":      "ubuntu-21-10-x64",
				"backups":    false,
				"monitoring": false,
				"ssh_keys":   []interface{}{7.0},
				"tags":       []interface{}{"autodelete:6ecca9bf-ac35-41bc-abee-1bd96ad5fdef"},
			},
		},
		{
			name: "No autodelete or default key",
			opts: CreateOptions{
				Name:         "keep",
				Region:       "sfo3",
				Size:         "s-2vcpu-2gb",
				Image:        "debian-12-x64",
				SSHKeys:      []int{1, 2},
				Tags:         []string{"web"},
				Monitoring:   true,
				UserData:     "#cloud-config\n",
				NoAutodelete: true,
				NoDefaultKey: true,
			},
			expBody: map[string]interface{}{
				"name":       "keep",
				"region":     "sfo3",
				"size":       "s-2vcpu-2gb",
				"image":      "debian-12-x64",
				"backups":    false,
				"monitoring": true,
				"ssh_keys":   []interface{}{1.0, 2.0},
				"tags":       []interface{}{"web"},
				"user_data":  "#cloud-config\n",
			},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			api, c := newFakeAPI(t)
			api.respond("GET /v2/account/keys/"+cred.Fingerprint(), http.StatusOK, `{"ssh_key": {"id": 7}}`)
			api.respond("POST /v2/droplets", http.StatusAccepted,
				`{"droplet": {"id": 1, "name": "app", "status": "new"}}`)

			droplet, err := c.CreateDroplet(test.opts)
			require.NoError(t, err)
			assert.Equal(t, Droplet{ID: 1, Name: "app", Status: StatusNew}, droplet)

			requests := api.getRequests()
			last := requests[len(requests)-1]
			assert.Equal(t, "POST", last.Method)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(last.Body), &body))
			for key, exp := range test.expBody {
				assert.Equal(t, exp, body[key], key)
			}
			if _, ok := test.expBody["user_data"]; !ok {
				assert.NotContains(t, body, "user_data")
			}
		})
	}

	_, c := newFakeAPI(t)
	_, err := c.CreateDroplet(CreateOptions{Name: "app"})
	assert.Equal(t, errors.MissingFieldError{Field: "Credential"}, err)
}

func TestAutodelete(t *testing.T) {
	api, c := newFakeAPI(t)
	api.respond("DELETE /v2/droplets", http.StatusNoContent, "")

	assert.NoError(t, c.Autodelete())

	requests := api.getRequests()
	require.Len(t, requests, 1)
	assert.Equal(t, "DELETE", requests[0].Method)
	assert.Equal(t, "/v2/droplets", requests[0].Path)
	query, err := url.ParseQuery(requests[0].Query)
	require.NoError(t, err)
	assert.Equal(t, url.Values{"tag_name": {AutodeleteTag}}, query)
}

func TestPublicIP(t *testing.T) {
	var godoDroplet godo.Droplet
	require.NoError(t, json.Unmarshal([]byte(dropletJSON), &godoDroplet))
	droplet := fromGodoDroplet(&godoDroplet)
	assert.Equal(t, "64", droplet.Networks.V6[0].Netmask)

	ip, ok := PublicIP(droplet)
	assert.True(t, ok)
	assert.Equal(t, "192.241.165.154", ip)

	// Fall back to IPv6.
	droplet.Networks.V4 = droplet.Networks.V4[:1]
	ip, ok = PublicIP(droplet)
	assert.True(t, ok)
	assert.Equal(t, "2604:a880:0:1010::18a:a001", ip)

	_, ok = PublicIP(Droplet{})
	assert.False(t, ok)
}

func TestLatestImage(t *testing.T) {
	images := []Image{
		{Slug: "ubuntu-20-04-x64", Name: "20.04 (LTS) x64", Distribution: "Ubuntu"},
		{Slug: "ubuntu-22-10-x64", Name: "22.10 x64", Distribution: "Ubuntu"},
		{Slug: "ubuntu-22-04-x64", Name: "22.04 (LTS) x64", Distribution: "Ubuntu"},
		{Slug: "ubuntu-weird", Name: "Minimal", Distribution: "Ubuntu"},
		{Slug: "debian-12-x64", Name: "12 x64", Distribution: "Debian"},
		{Slug: "debian-11-x64", Name: "11 x64", Distribution: "Debian"},
	}

	image, ok := LatestImage(images, "ubuntu")
	assert.True(t, ok)
	assert.Equal(t, "ubuntu-22-10-x64", image.Slug)

	image, ok = LatestImage(images, "Debian")
	assert.True(t, ok)
	assert.Equal(t, "debian-12-x64", image.Slug)

	_, ok = LatestImage(images, "Fedora")
	assert.False(t, ok)
}

func TestFindDroplet(t *testing.T) {
	api, c := newFakeAPI(t)
	api.respond("GET /v2/droplets/42", http.StatusOK, `{"droplet": {"id": 42, "name": "by-id"}}`)
	api.respond("GET /v2/droplets?page=1", http.StatusOK,
		`{"droplets": [{"id": 1, "name": "web"}, {"id": 2, "name": "db"}, {"id": 3, "name": "dup"}]}`)
	api.respond("GET /v2/droplets?page=2", http.StatusOK, `{"droplets": [{"id": 4, "name": "dup"}]}`)
	api.respond("GET /v2/droplets?page=3", http.StatusOK, `{"droplets": []}`)

	droplet, err := FindDroplet(c, "42")
	assert.NoError(t, err)
	assert.Equal(t, Droplet{ID: 42, Name: "by-id"}, droplet)

	droplet, err = FindDroplet(c, "db")
	assert.NoError(t, err)
	assert.Equal(t, Droplet{ID: 2, Name: "db"}, droplet)

	_, err = FindDroplet(c, "dup")
	assert.Equal(t, errors.NewFriendlyError(
		"%d droplets are named %q. Please refer to the droplet by its ID.", 2, "dup"), err)

	_, err = FindDroplet(c, "missing")
	assert.Equal(t, errors.NewFriendlyError("No droplet is named %q.", "missing"), err)
}

func TestWaitForActive(t *testing.T) {
	fakeClock := clockwork.NewFakeClock()
	clock = fakeClock
	defer func() { clock = clockwork.NewRealClock() }()

	type result struct {
		droplet Droplet
		err     error
	}

	t.Run("Becomes active", func(t *testing.T) {
		api, c := newFakeAPI(t)
		api.respond("GET /v2/droplets/1", http.StatusOK, `{"droplet": {"id": 1, "status": "new"}}`)
		api.respond("GET /v2/droplets/1", http.StatusOK, `{"droplet": {"id": 1, "status": "active"}}`)
		api.respond("GET /v2/droplets/1", http.StatusOK, `{"droplet": {"id": 1, "status": "active",
			"networks": {"v4": [{"ip_address": "1.2.3.4", "type": "public"}]}}}`)

		done := make(chan result, 1)
		go func() {
			droplet, err := WaitForActive(c, 1, time.Minute)
			done <- result{droplet, err}
		}()

		// The droplet is polled until it's active and has an address.
		for i := 0; i < 2; i++ {
			fakeClock.BlockUntil(1)
			fakeClock.Advance(pollInterval)
		}

		res := <-done
		assert.NoError(t, res.err)
		ip, _ := PublicIP(res.droplet)
		assert.Equal(t, "1.2.3.4", ip)
		assert.Len(t, api.getRequests(), 3)
	})

	t.Run("Times out", func(t *testing.T) {
		api, c := newFakeAPI(t)
		api.respond("GET /v2/droplets/1", http.StatusOK, `{"droplet": {"id": 1, "status": "new"}}`)

		done := make(chan result, 1)
		go func() {
			droplet, err := WaitForActive(c, 1, 2*pollInterval)
			done <- result{droplet, err}
		}()

		for i := 0; i < 2; i++ {
			fakeClock.BlockUntil(1)
			fakeClock.Advance(pollInterval)
		}

		res := <-done
		assert.Equal(t, errors.NewFriendlyError(
			"Droplet %d didn't become active within %s (status %q).",
			1, 2*pollInterval, "new"), res.err)
		assert.Len(t, api.getRequests(), 3)
	})

	t.Run("API error", func(t *testing.T) {
		_, c := newFakeAPI(t)
		_, err := WaitForActive(c, 1, time.Minute)
		var apiErr APIError
		assert.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	})
}

func TestListImagesByType(t *testing.T) {
	api, c := newFakeAPI(t)
	api.respond("GET /v2/images", http.StatusOK, `{"images": []}`)

	for _, imageType := range []string{"application", "user"} {
		_, err := c.ListImages(imageType, 3)
		assert.NoError(t, err)
	}

	_, err := c.ListImages("snapshot", 1)
	msg, friendly := errors.GetPrintableMessage(err)
	assert.True(t, friendly)
	assert.Contains(t, msg, `Unknown image type "snapshot"`)

	assert.Equal(t, []request{
		{Method: "GET", Path: "/v2/images", Query: "page=3&per_page=200&type=application"},
		{Method: "GET", Path: "/v2/images", Query: "page=3&per_page=200&private=true"},
	}, api.getRequests())
}
