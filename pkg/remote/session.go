package remote

import (
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"github.com/sidkik/dropletctl/pkg/errors"
	"github.com/sidkik/dropletctl/pkg/sshkey"
)

const (
	// User is the account used to log into droplets.
	User = "root"

	defaultPort    = "22"
	connectTimeout = 30 * time.Second
)

// Mocked out for unit testing.
var dial = ssh.Dial

// Remote is the set of primitives that the sync operations are built on.
// *Session implements it.
type Remote interface {
	Run(cmd string) (Lines, error)
	OpenFileChannel() (FileChannel, error)
}

// Session is an authenticated SSH connection to a single host. Commands and
// the file channel are multiplexed on the same connection, and only one of
// them may be in use at a time.
type Session struct {
	host   string
	client *ssh.Client

	lock     sync.Mutex
	inFlight bool
}

// Connect opens a session to `address` as the root user. The host key isn't
// verified, so any host identity is accepted on first contact.
func Connect(address string, cred sshkey.Credential) (*Session, error) {
	if _, _, err := net.SplitHostPort(address); err != nil {
		address = net.JoinHostPort(address, defaultPort)
	}

	config := &ssh.ClientConfig{
		User:            User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(cred.PrivateKey())},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         connectTimeout,
	}

	log.WithField("host", address).Debug("Connecting")
	client, err := dial("tcp", address, config)
	if err != nil {
		return nil, errors.ConnectionError{Host: address, Err: err}
	}
	return &Session{host: address, client: client}, nil
}

// Host returns the address the session is connected to.
func (s *Session) Host() string {
	return s.host
}

// Run starts `cmd` on the remote host and returns its output as a stream of
// lines. The stream must be drained or closed before the session accepts
// another operation.
func (s *Session) Run(cmd string) (Lines, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}

	sshSession, err := s.client.NewSession()
	if err != nil {
		s.release()
		return nil, errors.ConnectionError{Host: s.host, Err: err}
	}

	lines, err := startLines(sshSession, cmd, s.release)
	if err != nil {
		sshSession.Close()
		s.release()
		return nil, errors.WithContext(err, "start command")
	}
	return lines, nil
}

// OpenFileChannel opens the SFTP subsystem on the session.
func (s *Session) OpenFileChannel() (FileChannel, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.inFlight {
		return nil, errors.ErrSessionBusy
	}

	ch, err := newSFTPChannel(s.client)
	if err != nil {
		return nil, errors.ConnectionError{Host: s.host, Err: err}
	}
	return ch, nil
}

// Close releases the connection along with any channels opened on it.
func (s *Session) Close() error {
	return s.client.Close()
}

func (s *Session) acquire() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.inFlight {
		return errors.ErrSessionBusy
	}
	s.inFlight = true
	return nil
}

func (s *Session) release() {
	s.lock.Lock()
	s.inFlight = false
	s.lock.Unlock()
}
