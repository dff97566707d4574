package remote

import (
	"io"

	"golang.org/x/crypto/ssh"

	"github.com/sidkik/dropletctl/pkg/errors"
)

// TerminalSize is the size of the local terminal forwarded to the remote
// pseudo-terminal.
type TerminalSize struct {
	Width, Height int
}

// Shell starts an interactive login shell attached to the given streams and
// blocks until it exits.
func (s *Session) Shell(size TerminalSize, stdin io.Reader, stdout, stderr io.Writer) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	sshSession, err := s.client.NewSession()
	if err != nil {
		return errors.ConnectionError{Host: s.host, Err: err}
	}
	defer sshSession.Close()

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := sshSession.RequestPty("xterm", size.Height, size.Width, modes); err != nil {
		return errors.WithContext(err, "request pty")
	}

	sshSession.Stdin = stdin
	sshSession.Stdout = stdout
	sshSession.Stderr = stderr
	if err := sshSession.Shell(); err != nil {
		return errors.WithContext(err, "start shell")
	}

	if err := sshSession.Wait(); err != nil {
		// The exit status of an interactive shell is just whatever the
		// user's last command returned.
		if _, ok := err.(*ssh.ExitError); ok {
			return nil
		}
		return errors.WithContext(err, "wait")
	}
	return nil
}
