package remote

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/crypto/ssh"

	"github.com/sidkik/dropletctl/pkg/errors"
)

// Lines is the output of a remote command, one line at a time. It can only
// be read once. Next returns false once the output is exhausted or a read
// fails, after which Err reports the failure.
type Lines interface {
	Next() bool
	Text() string
	Err() error

	// Close waits for the command to exit and releases it. It returns an
	// error if the command exited with a non-zero status.
	Close() error
}

type sessionLines struct {
	session *ssh.Session
	stdout  io.Reader
	scanner *bufio.Scanner
	drained bool
	stderr  *bytes.Buffer
	cmd     string

	closeOnce sync.Once
	closeErr  error
	onClose   func()
}

func startLines(session *ssh.Session, cmd string, onClose func()) (*sessionLines, error) {
	stdout, err := session.StdoutPipe()
	if err != nil {
		return nil, errors.WithContext(err, "stdout pipe")
	}

	stderr := &bytes.Buffer{}
	session.Stderr = stderr

	if err := session.Start(cmd); err != nil {
		return nil, err
	}

	return &sessionLines{
		session: session,
		stdout:  stdout,
		scanner: bufio.NewScanner(stdout),
		stderr:  stderr,
		cmd:     cmd,
		onClose: onClose,
	}, nil
}

func (l *sessionLines) Next() bool {
	if l.scanner.Scan() {
		return true
	}

	// Nothing more can be read, so release the command. A failed scan leaves
	// unread output behind, which Close still has to discard.
	l.drained = l.scanner.Err() == nil
	_ = l.Close()
	return false
}

func (l *sessionLines) Text() string {
	return strings.TrimRight(l.scanner.Text(), " \t\r\n")
}

func (l *sessionLines) Err() error {
	if err := l.scanner.Err(); err != nil {
		return errors.WithContext(err, "read output")
	}
	return nil
}

func (l *sessionLines) Close() error {
	l.closeOnce.Do(func() {
		defer l.onClose()

		// Wait blocks until stdout is consumed, so throw away whatever the
		// caller didn't read.
		if !l.drained {
			_, _ = io.Copy(io.Discard, l.stdout)
		}

		err := l.session.Wait()
		l.session.Close()

		if exitErr, ok := err.(*ssh.ExitError); ok {
			msg := strings.TrimSpace(l.stderr.String())
			err = fmt.Errorf("%q exited with status %d: %s", l.cmd, exitErr.ExitStatus(), msg)
		}
		l.closeErr = err
	})
	return l.closeErr
}
