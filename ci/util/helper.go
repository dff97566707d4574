package util

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/sidkik/dropletctl/pkg/config"
	"github.com/sidkik/dropletctl/pkg/errors"
)

// TestHelper contains methods commonly used during integration tests. Every
// method drives the `dropletctl` binary on the PATH.
type TestHelper struct {
	User    config.User
	Droplet string
}

// NewTestHelper creates a new TestHelper. It doesn't create a droplet.
func NewTestHelper() (*TestHelper, error) {
	user, err := config.ParseUser()
	if err != nil {
		return nil, err
	}

	if err := user.RequireToken(); err != nil {
		return nil, err
	}
	return &TestHelper{User: user}, nil
}

// Start starts the given dropletctl command. It returns a reader for the
// stdout output, a channel for obtaining any errors after starting the
// command, and any errors from starting the command.
func (helper *TestHelper) Start(ctx context.Context, args ...string) (
	io.Reader, chan error, error) {

	cmd := exec.Command("dropletctl", args...)

	stdoutReader, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, err
	}

	stderr := bytes.NewBuffer(nil)
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}

	errChan := make(chan error)
	go func() {
		waitErr := make(chan error)
		go func() {
			waitErr <- cmd.Wait()
			close(waitErr)
		}()

		defer close(errChan)
		select {
		case <-ctx.Done():
			if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
				errChan <- errors.WithContext(err, "kill")
				return
			}
			<-waitErr
		case err := <-waitErr:
			errChan <- fmt.Errorf("crashed (%s): stderr: %s", err, stderr)
		}
	}()
	return stdoutReader, errChan, nil
}

// Run runs the given dropletctl command, and returns its stdout. The error
// includes stderr if the command fails.
func (helper *TestHelper) Run(ctx context.Context, command ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "dropletctl", command...)
	stderr := bytes.NewBuffer(nil)
	cmd.Stderr = stderr

	out, err := cmd.Output()
	if err != nil {
		return out, fmt.Errorf("dropletctl %s: %s: stderr: %s",
			strings.Join(command, " "), err, stderr)
	}
	return out, nil
}

// CreateDroplet creates a droplet tagged for autodeletion and waits for it
// to boot. Later calls to the helper operate on it.
func (helper *TestHelper) CreateDroplet(ctx context.Context) error {
	name := "dropletctl-ci-" + uuid.New().String()[:8]
	log.WithField("name", name).Info("Creating droplet")

	if _, err := helper.Run(ctx, "create", name, "--timeout", "10m"); err != nil {
		return errors.WithContext(err, "create")
	}
	helper.Droplet = name

	// sshd may take a few more seconds to accept connections after the
	// droplet is reported as active.
	var lastErr error
	booted := TestWithRetry(ctx, nil, func() bool {
		_, lastErr = helper.Exec(ctx, "true")
		return lastErr == nil
	})
	if !booted {
		return errors.WithContext(lastErr, "wait for ssh")
	}
	return nil
}

// Exec runs `command` on the test droplet and returns its output.
func (helper *TestHelper) Exec(ctx context.Context, command ...string) (string, error) {
	args := append([]string{"exec", helper.Droplet, "--"}, command...)
	out, err := helper.Run(ctx, args...)
	return string(out), err
}

// Cleanup deletes every droplet tagged for autodeletion.
func (helper *TestHelper) Cleanup(ctx context.Context) error {
	log.Info("Deleting test droplets")
	_, err := helper.Run(ctx, "autodelete", "--yes")
	return err
}

// WaitForOutput blocks until `expOutput` is written to `reader`, or `ctx` has
// expired.
func WaitForOutput(ctx context.Context, reader io.Reader, expOutput []byte) error {
	type readResult struct {
		bytes []byte
		err   error
	}

	reads := make(chan readResult)
	go func() {
		defer close(reads)
		for {
			buf := make([]byte, 1024)
			n, err := reader.Read(buf)
			select {
			case reads <- readResult{buf[:n], err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	actualOutput := bytes.NewBuffer(nil)
	for {
		select {
		case <-ctx.Done():
			return errors.New("cancelled")
		case r, ok := <-reads:
			if !ok {
				return errors.New("cancelled")
			}

			actualOutput.Write(r.bytes)
			if bytes.Contains(actualOutput.Bytes(), expOutput) {
				return nil
			}

			if r.err != nil {
				return errors.WithContext(r.err, "read")
			}
		}
	}
}

// TestWithRetry runs `test` with exponential backoff until it passes or
// `ctx` expires. A value on `trigger` retries immediately.
func TestWithRetry(ctx context.Context, trigger chan struct{}, test func() bool) bool {
	maxSleepTime := 30 * time.Second
	sleepTime := 100 * time.Millisecond
	for {
		select {
		case <-ctx.Done():
			return test()
		case <-time.After(sleepTime):
			sleepTime *= 2
			if sleepTime > maxSleepTime {
				sleepTime = maxSleepTime
			}
		case <-trigger:
		}

		if test() {
			return true
		}
	}
}
