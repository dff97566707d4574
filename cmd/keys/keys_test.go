package keys

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/ssh"

	"github.com/sidkik/dropletctl/pkg/config"
	"github.com/sidkik/dropletctl/pkg/digitalocean"
	"github.com/sidkik/dropletctl/pkg/digitalocean/mocks"
	"github.com/sidkik/dropletctl/pkg/errors"
	"github.com/sidkik/dropletctl/pkg/sshkey"
)

type fakeCredential struct{}

func (fakeCredential) PrivateKey() ssh.Signer  { return nil }
func (fakeCredential) PublicKeyString() string { return "ssh-rsa AAAA dropletctl.local" }
func (fakeCredential) Fingerprint() string     { return "aa:bb:cc" }

func TestKeys(t *testing.T) {
	userConfig := config.User{Token: "token", KeyPath: "/keys/key.rsa"}
	parseUserConfig = func() (config.User, error) { return userConfig, nil }
	getCredential = func(cfg config.User) (sshkey.Credential, error) {
		assert.Equal(t, userConfig, cfg)
		return fakeCredential{}, nil
	}

	client := &mocks.Client{}
	client.On("DefaultKeyID", fakeCredential{}).Return(42, nil).Once()
	getClient = func() (digitalocean.Client, config.User, error) {
		return client, userConfig, nil
	}

	expKey := "Private key: /keys/key.rsa\n" +
		"Fingerprint: aa:bb:cc\n" +
		"Public key:  ssh-rsa AAAA dropletctl.local\n"

	out := bytes.NewBuffer(nil)
	stdout = out
	assert.NoError(t, run(false))
	assert.Equal(t, expKey, out.String())

	out.Reset()
	assert.NoError(t, run(true))
	assert.Equal(t, expKey+"Account key ID: 42\n", out.String())
	client.AssertExpectations(t)

	importErr := errors.New("unprocessable")
	client.On("DefaultKeyID", fakeCredential{}).Return(0, importErr)
	assert.Equal(t, errors.WithContext(importErr, "import key"), run(true))
}
