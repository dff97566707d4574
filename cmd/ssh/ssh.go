package ssh

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/sidkik/dropletctl/cmd/util"
	"github.com/sidkik/dropletctl/pkg/errors"
	"github.com/sidkik/dropletctl/pkg/remote"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
)

// Mocked for unit testing.
var (
	stdin            io.Reader = os.Stdin
	stdout           io.Writer = os.Stdout
	stderr           io.Writer = os.Stderr
	stdinFd                    = int(os.Stdin.Fd())
	isTerminal                 = terminal.IsTerminal
	makeRaw                    = terminal.MakeRaw
	restoreTerminal            = terminal.Restore
	getTerminalSize            = terminal.GetSize
	connectToDroplet           = util.ConnectToDroplet
)

// New creates a new `ssh` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "ssh DROPLET",
		Short: "Get a shell on a droplet",
		Long:  "Open an interactive root shell on a droplet. DROPLET is the droplet's ID or name.",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			if err := run(args[0]); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run(ref string) error {
	session, droplet, err := connectToDroplet(ref)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.WithError(err).Debug("Failed to close session")
		}
	}()
	log.WithField("droplet", droplet.Name).Debug("Starting shell")

	size := remote.TerminalSize{Width: defaultWidth, Height: defaultHeight}
	if isTerminal(stdinFd) {
		if width, height, err := getTerminalSize(stdinFd); err == nil {
			size = remote.TerminalSize{Width: width, Height: height}
		}

		// Put the terminal into raw mode to prevent it echoing characters twice.
		oldState, err := makeRaw(stdinFd)
		if err != nil {
			return errors.WithContext(err, "set terminal mode")
		}

		defer func() {
			_ = restoreTerminal(stdinFd, oldState)
		}()
	}

	return session.Shell(size, stdin, stdout, stderr)
}
